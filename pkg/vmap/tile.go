// Package vmap provides parsers for the vmap collision/navigation file formats.
package vmap

import (
	"fmt"
	"os"

	"github.com/wowemu/vmapview/pkg/math"
)

// tileMagics lists the accepted tile file version strings. The extractor has
// shipped more than one wire version with an identical tile layout; all
// entries decode the same way.
var tileMagics = []string{"VMAP_4.E", "VMAP_4.D"}

// tileMagicLen is the fixed byte width of a tile magic string.
const tileMagicLen = 8

// Spawn flag bits.
const (
	SpawnFlagHasBound    uint8 = 1 << 0 // record carries a bounding box
	SpawnFlagParentSpawn uint8 = 1 << 1 // spawn belongs to a parent object
	SpawnFlagPathOnly    uint8 = 1 << 2 // used for pathing only, not collision
)

// Spawn is one placed model instance within a tile.
type Spawn struct {
	Flags    uint8
	AdtID    uint8
	ID       uint32
	Position math.Vec3
	Rotation math.Vec3
	Scale    float32
	Bound    *math.AABox // nil when the has-bound flag bit is clear
	Name     string      // model file name this spawn references
}

// HasBound reports whether the record carried a bounding box.
func (s *Spawn) HasBound() bool {
	return s.Flags&SpawnFlagHasBound != 0
}

// IsParentSpawn reports whether the spawn belongs to a parent object.
func (s *Spawn) IsParentSpawn() bool {
	return s.Flags&SpawnFlagParentSpawn != 0
}

// IsPathOnly reports whether the spawn is used for pathing only.
func (s *Spawn) IsPathOnly() bool {
	return s.Flags&SpawnFlagPathOnly != 0
}

// Tile is a parsed tile spawn file. Spawn order is file order and correlates
// by position with the sibling tile index file.
type Tile struct {
	Magic  string
	Spawns []Spawn
}

// TileIndex is a parsed tile index file: one node index per spawn in the
// sibling tile file. The count cross-check against the tile is the caller's
// responsibility.
type TileIndex struct {
	Magic       string
	NodeIndices []uint32
}

// readTileMagic reads and validates the 8-byte tile version string.
func readTileMagic(c *Cursor) (string, error) {
	magic, err := c.ReadFixedString(tileMagicLen)
	if err != nil {
		return "", err
	}
	for _, m := range tileMagics {
		if magic == m {
			return magic, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrBadMagic, magic)
}

// ParseTile parses a tile spawn file from raw bytes.
func ParseTile(data []byte) (*Tile, error) {
	c := NewCursor(data)

	magic, err := readTileMagic(c)
	if err != nil {
		return nil, err
	}

	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading spawn count: %w", err)
	}

	tile := &Tile{
		Magic:  magic,
		Spawns: make([]Spawn, 0, count),
	}

	for i := uint32(0); i < count; i++ {
		spawn, err := parseSpawn(c)
		if err != nil {
			return nil, fmt.Errorf("parsing spawn %d: %w", i, err)
		}
		tile.Spawns = append(tile.Spawns, spawn)
	}

	return tile, nil
}

// parseSpawn parses a single spawn record.
func parseSpawn(c *Cursor) (Spawn, error) {
	var s Spawn
	var err error

	if s.Flags, err = c.ReadU8(); err != nil {
		return Spawn{}, fmt.Errorf("reading flags: %w", err)
	}
	if s.AdtID, err = c.ReadU8(); err != nil {
		return Spawn{}, fmt.Errorf("reading adt id: %w", err)
	}
	if s.ID, err = c.ReadU32(); err != nil {
		return Spawn{}, fmt.Errorf("reading id: %w", err)
	}
	if s.Position, err = c.ReadVec3(); err != nil {
		return Spawn{}, fmt.Errorf("reading position: %w", err)
	}
	if s.Rotation, err = c.ReadVec3(); err != nil {
		return Spawn{}, fmt.Errorf("reading rotation: %w", err)
	}
	if s.Scale, err = c.ReadF32(); err != nil {
		return Spawn{}, fmt.Errorf("reading scale: %w", err)
	}

	// Bound is present only when the flag bit says so; its absence shortens
	// the record, it is not a zeroed box.
	if s.Flags&SpawnFlagHasBound != 0 {
		var bound math.AABox
		if bound.Low, err = c.ReadVec3(); err != nil {
			return Spawn{}, fmt.Errorf("reading bound low: %w", err)
		}
		if bound.High, err = c.ReadVec3(); err != nil {
			return Spawn{}, fmt.Errorf("reading bound high: %w", err)
		}
		s.Bound = &bound
	}

	if s.Name, err = c.ReadString(); err != nil {
		return Spawn{}, fmt.Errorf("reading name: %w", err)
	}

	return s, nil
}

// ParseTileFile parses a tile spawn file from disk.
func ParseTileFile(path string) (*Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile file: %w", err)
	}
	return ParseTile(data)
}

// ParseTileIndex parses a tile index file from raw bytes.
func ParseTileIndex(data []byte) (*TileIndex, error) {
	c := NewCursor(data)

	magic, err := readTileMagic(c)
	if err != nil {
		return nil, err
	}

	count, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading index count: %w", err)
	}

	idx := &TileIndex{
		Magic:       magic,
		NodeIndices: make([]uint32, count),
	}

	for i := uint32(0); i < count; i++ {
		if idx.NodeIndices[i], err = c.ReadU32(); err != nil {
			return nil, fmt.Errorf("reading node index %d: %w", i, err)
		}
	}

	return idx, nil
}

// ParseTileIndexFile parses a tile index file from disk.
func ParseTileIndexFile(path string) (*TileIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile index file: %w", err)
	}
	return ParseTileIndex(data)
}

// CountByFlag returns how many spawns have each of the three flag bits set.
func (t *Tile) CountByFlag() (bound, parent, pathOnly int) {
	for i := range t.Spawns {
		s := &t.Spawns[i]
		if s.HasBound() {
			bound++
		}
		if s.IsParentSpawn() {
			parent++
		}
		if s.IsPathOnly() {
			pathOnly++
		}
	}
	return bound, parent, pathOnly
}

// ModelNames returns the distinct model names referenced by the tile's
// spawns, in first-appearance order.
func (t *Tile) ModelNames() []string {
	seen := make(map[string]struct{}, len(t.Spawns))
	var names []string
	for i := range t.Spawns {
		name := t.Spawns[i].Name
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
