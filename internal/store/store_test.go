package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("writing gzip data: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
}

func TestOpen_MissingDir(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Error("expected error for missing vmap directory")
	}
}

func TestNames(t *testing.T) {
	if got := TileName(530, 32, 4); got != "0530_32_04.vmtile" {
		t.Errorf("TileName = %q", got)
	}
	if got := TileIndexName(530, 32, 4); got != "0530_32_04.vmtidx" {
		t.Errorf("TileIndexName = %q", got)
	}
	if got := TerrainName(1, 5, 40); got != "0001_05_40.map" {
		t.Errorf("TerrainName = %q", got)
	}
}

func TestRead_PlainFile(t *testing.T) {
	dir := t.TempDir()
	want := []byte("tile payload")
	if err := os.WriteFile(filepath.Join(dir, TileName(0, 1, 2)), want, 0644); err != nil {
		t.Fatalf("writing tile: %v", err)
	}

	s, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := s.ReadTile(0, 1, 2)
	if err != nil {
		t.Fatalf("ReadTile failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadTile = %q, want %q", got, want)
	}
}

func TestRead_GzipFallback(t *testing.T) {
	dir := t.TempDir()
	want := []byte("compressed model bytes")
	writeGzip(t, filepath.Join(dir, "building.vmo.gz"), want)

	s, err := Open(dir, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := s.ReadModel("building.vmo")
	if err != nil {
		t.Fatalf("ReadModel failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadModel = %q, want %q", got, want)
	}
}

func TestRead_PlainWinsOverGzip(t *testing.T) {
	dir := t.TempDir()
	plain := []byte("plain")
	if err := os.WriteFile(filepath.Join(dir, "m.vmo"), plain, 0644); err != nil {
		t.Fatalf("writing model: %v", err)
	}
	writeGzip(t, filepath.Join(dir, "m.vmo.gz"), []byte("stale"))

	s, _ := Open(dir, "")
	got, err := s.ReadModel("m.vmo")
	if err != nil {
		t.Fatalf("ReadModel failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("plain file must win, got %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	s, _ := Open(t.TempDir(), "")
	if _, err := s.ReadTile(1, 2, 3); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReadTerrain_NoMapDir(t *testing.T) {
	s, _ := Open(t.TempDir(), "")
	if _, err := s.ReadTerrain(0, 0, 0); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error without a map dir, got %v", err)
	}
}
