// Package vmap provides parsers for the vmap collision/navigation file formats.
package vmap

import (
	"fmt"
	"os"
)

// Terrain file constants.
const (
	TerrainMagic   = "MAPS"
	TerrainVersion = 10

	heightSectionMagic = "MHGT"

	// TerrainCornerDim is the per-side sample count of the corner height
	// grid (V9); TerrainCellDim is the per-side count of the cell-center
	// grid (V8).
	TerrainCornerDim = 129
	TerrainCellDim   = 128

	// HoleMapSize is the byte length of the hole bitmap: a 16x16 macro
	// grid of 8-byte cells.
	HoleMapSize = 16 * 16 * 8

	// noDataHeight is reported as the height range when the file carries
	// no height section. A sentinel, not a measurement.
	noDataHeight = -500.0
)

// Height section flag bits.
const (
	heightFlagNoHeight uint32 = 1 << 0 // section carries no height arrays
	heightFlagInt16    uint32 = 1 << 1 // heights stored as fixed-point u16
	heightFlagInt8     uint32 = 1 << 2 // heights stored as fixed-point u8
)

// Terrain is a parsed terrain height/hole file for one map tile.
type Terrain struct {
	BuildID uint32

	// Area and liquid sub-sections are recorded but not decoded here.
	AreaOffset, AreaSize     uint32
	LiquidOffset, LiquidSize uint32

	HeightFlags   uint32
	GridHeight    float32
	GridMaxHeight float32

	// CornerHeights holds 129x129 samples, CellHeights 128x128, both
	// row-major (index = row*width + col). Nil unless HasHeightData.
	CornerHeights []float32
	CellHeights   []float32

	// Holes is the raw 2048-byte hole bitmap, nil unless HasHoles.
	Holes []byte

	HasHeightData bool
	HasHoles      bool
}

// HeightRange returns the grid's minimum and maximum height as recorded in
// the height section header, or the (-500, -500) sentinel when the file has
// no height section.
func (t *Terrain) HeightRange() (min, max float32) {
	return t.GridHeight, t.GridMaxHeight
}

// CornerHeight returns the corner (V9) sample at row, col.
// Valid only when HasHeightData; range is a caller precondition.
func (t *Terrain) CornerHeight(row, col int) float32 {
	return t.CornerHeights[row*TerrainCornerDim+col]
}

// CellHeight returns the cell-center (V8) sample at row, col.
// Valid only when HasHeightData; range is a caller precondition.
func (t *Terrain) CellHeight(row, col int) float32 {
	return t.CellHeights[row*TerrainCellDim+col]
}

// IsHole reports whether grid cell (row, col) is a no-render hole.
// row and col must be in [0, 127]; out-of-range input is a precondition
// violation, not a recoverable error. Always false without a hole bitmap.
func (t *Terrain) IsHole(row, col int) bool {
	if !t.HasHoles {
		return false
	}
	cellRow := row / 8
	cellCol := col / 8
	bitRow := row % 8
	bitCol := col % 8
	return t.Holes[cellRow*128+cellCol*8+bitRow]&(1<<bitCol) != 0
}

// HoleCount returns the number of hole cells in the 128x128 grid.
func (t *Terrain) HoleCount() int {
	if !t.HasHoles {
		return 0
	}
	var n int
	for row := 0; row < TerrainCellDim; row++ {
		for col := 0; col < TerrainCellDim; col++ {
			if t.IsHole(row, col) {
				n++
			}
		}
	}
	return n
}

// ParseTerrain parses a terrain height/hole file from raw bytes.
func ParseTerrain(data []byte) (*Terrain, error) {
	c := NewCursor(data)

	magic, err := c.ReadTag()
	if err != nil {
		return nil, err
	}
	if magic != TerrainMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}

	version, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != TerrainVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadVersion, version, TerrainVersion)
	}

	t := &Terrain{
		GridHeight:    noDataHeight,
		GridMaxHeight: noDataHeight,
	}

	if t.BuildID, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("reading build id: %w", err)
	}

	// Four optional sub-sections addressed by absolute (offset, size)
	// pairs: area, height, liquid, holes.
	var heightOffset, heightSize, holesOffset, holesSize uint32
	fields := []struct {
		name string
		dst  *uint32
	}{
		{"area offset", &t.AreaOffset},
		{"area size", &t.AreaSize},
		{"height offset", &heightOffset},
		{"height size", &heightSize},
		{"liquid offset", &t.LiquidOffset},
		{"liquid size", &t.LiquidSize},
		{"holes offset", &holesOffset},
		{"holes size", &holesSize},
	}
	for _, f := range fields {
		if *f.dst, err = c.ReadU32(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.name, err)
		}
	}

	if heightOffset != 0 && heightSize != 0 {
		if err := parseHeightSection(c, t, int(heightOffset)); err != nil {
			return nil, err
		}
	}

	if holesOffset != 0 && holesSize != 0 {
		if err := c.Seek(int(holesOffset)); err != nil {
			return nil, fmt.Errorf("seeking holes section: %w", err)
		}
		if t.Holes, err = c.ReadBytes(HoleMapSize); err != nil {
			return nil, fmt.Errorf("reading hole bitmap: %w", err)
		}
		t.HasHoles = true
	}

	return t, nil
}

// parseHeightSection decodes the height sub-section at the given absolute
// offset into t.
func parseHeightSection(c *Cursor, t *Terrain, offset int) error {
	if err := c.Seek(offset); err != nil {
		return fmt.Errorf("seeking height section: %w", err)
	}
	if err := expectTag(c, heightSectionMagic); err != nil {
		return err
	}

	var err error
	if t.HeightFlags, err = c.ReadU32(); err != nil {
		return fmt.Errorf("reading height flags: %w", err)
	}
	if t.GridHeight, err = c.ReadF32(); err != nil {
		return fmt.Errorf("reading grid height: %w", err)
	}
	if t.GridMaxHeight, err = c.ReadF32(); err != nil {
		return fmt.Errorf("reading grid max height: %w", err)
	}

	// Header values are retained even when the section declares no height
	// arrays.
	if t.HeightFlags&heightFlagNoHeight != 0 {
		return nil
	}

	corners := TerrainCornerDim * TerrainCornerDim
	cells := TerrainCellDim * TerrainCellDim

	// Encoding priority: the int8 bit wins over the int16 bit; neither bit
	// means raw floats. ErrBadHeightEncoding stays for future flag bits.
	switch {
	case t.HeightFlags&heightFlagInt8 != 0:
		mult := (t.GridMaxHeight - t.GridHeight) / 255
		if t.CornerHeights, err = readScaledHeightsU8(c, corners, t.GridHeight, mult); err != nil {
			return fmt.Errorf("reading corner heights: %w", err)
		}
		if t.CellHeights, err = readScaledHeightsU8(c, cells, t.GridHeight, mult); err != nil {
			return fmt.Errorf("reading cell heights: %w", err)
		}
	case t.HeightFlags&heightFlagInt16 != 0:
		mult := (t.GridMaxHeight - t.GridHeight) / 65535
		if t.CornerHeights, err = readScaledHeightsU16(c, corners, t.GridHeight, mult); err != nil {
			return fmt.Errorf("reading corner heights: %w", err)
		}
		if t.CellHeights, err = readScaledHeightsU16(c, cells, t.GridHeight, mult); err != nil {
			return fmt.Errorf("reading cell heights: %w", err)
		}
	default:
		if t.CornerHeights, err = readHeightsF32(c, corners); err != nil {
			return fmt.Errorf("reading corner heights: %w", err)
		}
		if t.CellHeights, err = readHeightsF32(c, cells); err != nil {
			return fmt.Errorf("reading cell heights: %w", err)
		}
	}

	t.HasHeightData = true
	return nil
}

// readScaledHeightsU8 reads n fixed-point bytes rescaled to absolute heights.
func readScaledHeightsU8(c *Cursor, n int, base, mult float32) ([]float32, error) {
	raw, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i, v := range raw {
		out[i] = float32(v)*mult + base
	}
	return out, nil
}

// readScaledHeightsU16 reads n fixed-point u16 values rescaled to absolute
// heights.
func readScaledHeightsU16(c *Cursor, n int, base, mult float32) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := c.ReadU16()
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)*mult + base
	}
	return out, nil
}

// readHeightsF32 reads n raw float heights.
func readHeightsF32(c *Cursor, n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := c.ReadF32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseTerrainFile parses a terrain file from disk.
func ParseTerrainFile(path string) (*Terrain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading terrain file: %w", err)
	}
	return ParseTerrain(data)
}
