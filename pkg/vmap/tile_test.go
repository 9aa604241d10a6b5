package vmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// testSpawn describes one spawn record for the synthetic-file builders.
type testSpawn struct {
	flags uint8
	adtID uint8
	id    uint32
	name  string
}

// writeTestSpawn appends one spawn record to buf. Position, rotation and
// scale get deterministic values derived from id; the bound, when present,
// is a unit box.
func writeTestSpawn(buf *bytes.Buffer, s testSpawn) {
	buf.WriteByte(s.flags)
	buf.WriteByte(s.adtID)
	binary.Write(buf, binary.LittleEndian, s.id)
	for i := 0; i < 3; i++ {
		binary.Write(buf, binary.LittleEndian, float32(s.id)+float32(i))
	}
	for i := 0; i < 3; i++ {
		binary.Write(buf, binary.LittleEndian, float32(i)*90)
	}
	binary.Write(buf, binary.LittleEndian, float32(1.0))
	if s.flags&SpawnFlagHasBound != 0 {
		for i := 0; i < 6; i++ {
			binary.Write(buf, binary.LittleEndian, float32(i%3))
		}
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(s.name)))
	buf.WriteString(s.name)
}

// createTestTile builds a tile spawn file with the given magic and spawns.
func createTestTile(magic string, spawns []testSpawn) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	binary.Write(buf, binary.LittleEndian, uint32(len(spawns)))
	for _, s := range spawns {
		writeTestSpawn(buf, s)
	}
	return buf.Bytes()
}

// createTestTileIndex builds a tile index file.
func createTestTileIndex(magic string, indices []uint32) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	binary.Write(buf, binary.LittleEndian, uint32(len(indices)))
	for _, v := range indices {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestParseTile_ValidFile(t *testing.T) {
	data := createTestTile("VMAP_4.E", []testSpawn{
		{flags: SpawnFlagHasBound, adtID: 3, id: 100, name: "building.vmo"},
		{flags: 0, adtID: 4, id: 200, name: "tree.vmo"},
	})

	tile, err := ParseTile(data)
	if err != nil {
		t.Fatalf("ParseTile failed: %v", err)
	}

	if tile.Magic != "VMAP_4.E" {
		t.Errorf("expected magic VMAP_4.E, got %q", tile.Magic)
	}
	if len(tile.Spawns) != 2 {
		t.Fatalf("expected 2 spawns, got %d", len(tile.Spawns))
	}

	first := tile.Spawns[0]
	if first.ID != 100 || first.AdtID != 3 {
		t.Errorf("spawn 0: unexpected ids %d/%d", first.ID, first.AdtID)
	}
	if first.Name != "building.vmo" {
		t.Errorf("spawn 0: expected name building.vmo, got %q", first.Name)
	}
	if first.Bound == nil {
		t.Error("spawn 0: expected bound to be present")
	}
	if first.Position.X != 100 || first.Position.Y != 101 || first.Position.Z != 102 {
		t.Errorf("spawn 0: unexpected position %+v", first.Position)
	}

	second := tile.Spawns[1]
	if second.Bound != nil {
		t.Error("spawn 1: bound must be absent when the flag bit is clear")
	}
	if second.Name != "tree.vmo" {
		t.Errorf("spawn 1: expected name tree.vmo, got %q", second.Name)
	}
}

func TestParseTile_Deterministic(t *testing.T) {
	data := createTestTile("VMAP_4.E", []testSpawn{
		{flags: SpawnFlagHasBound | SpawnFlagParentSpawn, id: 7, name: "a.vmo"},
		{flags: SpawnFlagPathOnly, id: 8, name: "b.vmo"},
	})

	first, err := ParseTile(data)
	if err != nil {
		t.Fatalf("ParseTile failed: %v", err)
	}
	second, err := ParseTile(data)
	if err != nil {
		t.Fatalf("ParseTile failed on second decode: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two decodes of the same bytes differ")
	}
}

func TestParseTile_MagicSet(t *testing.T) {
	spawns := []testSpawn{{flags: 0, id: 1, name: "m.vmo"}}

	// Both accepted versions decode identically apart from the magic.
	oldTile, err := ParseTile(createTestTile("VMAP_4.D", spawns))
	if err != nil {
		t.Fatalf("VMAP_4.D should be accepted: %v", err)
	}
	newTile, err := ParseTile(createTestTile("VMAP_4.E", spawns))
	if err != nil {
		t.Fatalf("VMAP_4.E should be accepted: %v", err)
	}
	if !reflect.DeepEqual(oldTile.Spawns, newTile.Spawns) {
		t.Error("accepted magics must decode identical spawn lists")
	}

	// Any third value fails.
	if _, err := ParseTile(createTestTile("VMAP_4.C", spawns)); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestParseSpawn_RecordLengthWithoutBound(t *testing.T) {
	buf := new(bytes.Buffer)
	writeTestSpawn(buf, testSpawn{flags: 0, id: 5, name: "doodad.vmo"})

	c := NewCursor(buf.Bytes())
	spawn, err := parseSpawn(c)
	if err != nil {
		t.Fatalf("parseSpawn failed: %v", err)
	}
	if spawn.Bound != nil {
		t.Error("bound must be absent")
	}

	// flags + adtId + id + position + rotation + scale + name length + name,
	// with no 24-byte bound region.
	want := 1 + 1 + 4 + 12 + 12 + 4 + 4 + len("doodad.vmo")
	if c.Pos() != want {
		t.Errorf("record consumed %d bytes, want %d", c.Pos(), want)
	}
}

func TestParseTile_TruncatedName(t *testing.T) {
	data := createTestTile("VMAP_4.E", []testSpawn{
		{flags: 0, id: 1, name: "a.vmo"},
		{flags: 0, id: 2, name: "building.vmo"},
	})

	// One byte short of the last record's name.
	_, err := ParseTile(data[:len(data)-1])
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if !strings.Contains(err.Error(), "spawn 1") {
		t.Errorf("error should name the failing record index: %v", err)
	}
}

func TestParseTile_EmptyTile(t *testing.T) {
	tile, err := ParseTile(createTestTile("VMAP_4.E", nil))
	if err != nil {
		t.Fatalf("ParseTile failed: %v", err)
	}
	if len(tile.Spawns) != 0 {
		t.Errorf("expected 0 spawns, got %d", len(tile.Spawns))
	}
}

func TestSpawn_FlagHelpers(t *testing.T) {
	tests := []struct {
		flags    uint8
		bound    bool
		parent   bool
		pathOnly bool
	}{
		{0, false, false, false},
		{SpawnFlagHasBound, true, false, false},
		{SpawnFlagParentSpawn, false, true, false},
		{SpawnFlagPathOnly, false, false, true},
		{SpawnFlagHasBound | SpawnFlagPathOnly, true, false, true},
	}

	for _, tc := range tests {
		s := Spawn{Flags: tc.flags}
		if s.HasBound() != tc.bound {
			t.Errorf("flags %#x: HasBound = %v", tc.flags, s.HasBound())
		}
		if s.IsParentSpawn() != tc.parent {
			t.Errorf("flags %#x: IsParentSpawn = %v", tc.flags, s.IsParentSpawn())
		}
		if s.IsPathOnly() != tc.pathOnly {
			t.Errorf("flags %#x: IsPathOnly = %v", tc.flags, s.IsPathOnly())
		}
	}
}

func TestTile_ModelNames(t *testing.T) {
	data := createTestTile("VMAP_4.E", []testSpawn{
		{id: 1, name: "a.vmo"},
		{id: 2, name: "b.vmo"},
		{id: 3, name: "a.vmo"},
	})
	tile, err := ParseTile(data)
	if err != nil {
		t.Fatalf("ParseTile failed: %v", err)
	}

	names := tile.ModelNames()
	if !reflect.DeepEqual(names, []string{"a.vmo", "b.vmo"}) {
		t.Errorf("unexpected model names: %v", names)
	}
}

func TestParseTileIndex_ValidFile(t *testing.T) {
	data := createTestTileIndex("VMAP_4.E", []uint32{4, 0, 17})

	idx, err := ParseTileIndex(data)
	if err != nil {
		t.Fatalf("ParseTileIndex failed: %v", err)
	}
	if !reflect.DeepEqual(idx.NodeIndices, []uint32{4, 0, 17}) {
		t.Errorf("unexpected node indices: %v", idx.NodeIndices)
	}
}

func TestParseTileIndex_BadMagic(t *testing.T) {
	if _, err := ParseTileIndex(createTestTileIndex("XMAP_4.E", nil)); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestParseTileIndex_Truncated(t *testing.T) {
	data := createTestTileIndex("VMAP_4.D", []uint32{1, 2, 3})
	if _, err := ParseTileIndex(data[:len(data)-2]); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}
