// Package store provides read-only access to extracted map data directories.
// It maps tile coordinates and model names to files on disk and hands whole
// in-memory buffers to the format parsers, transparently decompressing
// gzip-compressed files so shipped-compressed extractor output can be
// inspected in place.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Store resolves and reads vmap and terrain data files.
type Store struct {
	vmapDir string
	mapDir  string
}

// Open validates the data directories and returns a store. mapDir may be
// empty when only vmap data is available.
func Open(vmapDir, mapDir string) (*Store, error) {
	info, err := os.Stat(vmapDir)
	if err != nil {
		return nil, fmt.Errorf("vmap directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vmap directory: %s is not a directory", vmapDir)
	}
	if mapDir != "" {
		info, err := os.Stat(mapDir)
		if err != nil {
			return nil, fmt.Errorf("map directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("map directory: %s is not a directory", mapDir)
		}
	}
	return &Store{vmapDir: vmapDir, mapDir: mapDir}, nil
}

// TileName returns the file name of a tile spawn file.
func TileName(mapID, x, y int) string {
	return fmt.Sprintf("%04d_%02d_%02d.vmtile", mapID, x, y)
}

// TileIndexName returns the file name of a tile index file.
func TileIndexName(mapID, x, y int) string {
	return fmt.Sprintf("%04d_%02d_%02d.vmtidx", mapID, x, y)
}

// TerrainName returns the file name of a terrain height/hole file.
func TerrainName(mapID, x, y int) string {
	return fmt.Sprintf("%04d_%02d_%02d.map", mapID, x, y)
}

// ReadTile reads the raw bytes of a tile spawn file.
func (s *Store) ReadTile(mapID, x, y int) ([]byte, error) {
	return readMaybeGzip(filepath.Join(s.vmapDir, TileName(mapID, x, y)))
}

// ReadTileIndex reads the raw bytes of a tile index file.
func (s *Store) ReadTileIndex(mapID, x, y int) ([]byte, error) {
	return readMaybeGzip(filepath.Join(s.vmapDir, TileIndexName(mapID, x, y)))
}

// ReadModel reads the raw bytes of a world model file by the name a spawn
// record references.
func (s *Store) ReadModel(name string) ([]byte, error) {
	return readMaybeGzip(filepath.Join(s.vmapDir, name))
}

// ReadTerrain reads the raw bytes of a terrain file.
func (s *Store) ReadTerrain(mapID, x, y int) ([]byte, error) {
	if s.mapDir == "" {
		return nil, os.ErrNotExist
	}
	return readMaybeGzip(filepath.Join(s.mapDir, TerrainName(mapID, x, y)))
}

// readMaybeGzip reads path, falling back to a gzip-compressed sibling
// (path + ".gz") when the plain file does not exist. The parsers only ever
// see decompressed bytes.
func readMaybeGzip(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	f, gzErr := os.Open(path + ".gz")
	if gzErr != nil {
		if os.IsNotExist(gzErr) {
			return nil, err // report the plain path as missing
		}
		return nil, gzErr
	}
	defer f.Close()

	zr, gzErr := gzip.NewReader(f)
	if gzErr != nil {
		return nil, fmt.Errorf("opening %s.gz: %w", path, gzErr)
	}
	defer zr.Close()

	data, gzErr = io.ReadAll(zr)
	if gzErr != nil {
		return nil, fmt.Errorf("decompressing %s.gz: %w", path, gzErr)
	}
	return data, nil
}
