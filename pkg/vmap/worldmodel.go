// Package vmap provides parsers for the vmap collision/navigation file formats.
package vmap

import (
	"fmt"
	"os"

	"github.com/wowemu/vmapview/pkg/math"
)

// WorldModelMagic is the single accepted world model version string. Unlike
// the tile formats there is no tolerated version set; the extractor writes
// exactly one model wire version.
const WorldModelMagic = "VMAP_4.E"

// World model flag bits.
const (
	ModelFlagM2 uint32 = 1 << 1 // model was converted from an M2 doodad
)

// World model chunk tags.
const (
	chunkModelHeader = "WMOD"
	chunkGroupList   = "GMOD"
	chunkGroupTree   = "GBIH"
	chunkVertices    = "VERT"
	chunkTriangles   = "TRIM"
	chunkMeshTree    = "MBIH"
	chunkLiquid      = "LIQU"
)

// GroupModel is one mesh sub-group of a world model. Indices address
// Vertices in triples but are not range-checked here; consumers must defend
// against out-of-range values.
type GroupModel struct {
	Bound    math.AABox
	Flags    uint32
	GroupID  uint32
	Vertices []math.Vec3
	Indices  []uint32 // 3 per triangle
}

// TriangleCount returns the number of triangles in the group.
func (g *GroupModel) TriangleCount() int {
	return len(g.Indices) / 3
}

// Triangle returns the three corner indices of triangle i.
func (g *GroupModel) Triangle(i int) [3]uint32 {
	return [3]uint32{g.Indices[3*i], g.Indices[3*i+1], g.Indices[3*i+2]}
}

// WorldModel is a parsed world model geometry file. A model with zero groups
// is valid: a root-only record with no geometry chunk.
type WorldModel struct {
	Flags  uint32
	RootID uint32
	Groups []GroupModel
}

// IsM2 reports whether the model was converted from an M2 doodad.
func (m *WorldModel) IsM2() bool {
	return m.Flags&ModelFlagM2 != 0
}

// VertexCount returns the total vertex count across all groups.
func (m *WorldModel) VertexCount() int {
	var n int
	for i := range m.Groups {
		n += len(m.Groups[i].Vertices)
	}
	return n
}

// TriangleCount returns the total triangle count across all groups.
func (m *WorldModel) TriangleCount() int {
	var n int
	for i := range m.Groups {
		n += m.Groups[i].TriangleCount()
	}
	return n
}

// expectTag reads the next chunk tag and fails unless it matches want.
func expectTag(c *Cursor, want string) error {
	tag, err := c.ReadTag()
	if err != nil {
		return err
	}
	if tag != want {
		return fmt.Errorf("%w: expected %q, got %q", ErrUnexpectedChunk, want, tag)
	}
	return nil
}

// ParseWorldModel parses a world model file from raw bytes.
func ParseWorldModel(data []byte) (*WorldModel, error) {
	c := NewCursor(data)

	magic, err := c.ReadFixedString(len(WorldModelMagic))
	if err != nil {
		return nil, err
	}
	if magic != WorldModelMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, magic)
	}

	if err := expectTag(c, chunkModelHeader); err != nil {
		return nil, err
	}
	headerSize, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading %s size: %w", chunkModelHeader, err)
	}
	if headerSize < 8 {
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrChunkTooSmall, chunkModelHeader, headerSize)
	}

	model := &WorldModel{}
	if model.Flags, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("reading model flags: %w", err)
	}
	if model.RootID, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("reading root id: %w", err)
	}

	// A model may legitimately carry only header metadata.
	if !c.HasRemaining(4) {
		return model, nil
	}

	if err := expectTag(c, chunkGroupList); err != nil {
		return nil, err
	}
	groupCount, err := c.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("reading group count: %w", err)
	}

	model.Groups = make([]GroupModel, 0, groupCount)
	for i := uint32(0); i < groupCount; i++ {
		group, err := parseGroupModel(c)
		if err != nil {
			return nil, fmt.Errorf("parsing group %d: %w", i, err)
		}
		model.Groups = append(model.Groups, group)
	}

	// A trailing global acceleration tree is optional; any other trailing
	// tag just ends the parse.
	if c.HasRemaining(4) {
		tag, err := c.ReadTag()
		if err != nil {
			return nil, err
		}
		if tag == chunkGroupTree {
			if err := skipAccelTree(c); err != nil {
				return nil, fmt.Errorf("skipping %s tree: %w", chunkGroupTree, err)
			}
		}
	}

	return model, nil
}

// parseGroupModel parses a single group record.
func parseGroupModel(c *Cursor) (GroupModel, error) {
	var g GroupModel
	var err error

	if g.Bound.Low, err = c.ReadVec3(); err != nil {
		return GroupModel{}, fmt.Errorf("reading bound low: %w", err)
	}
	if g.Bound.High, err = c.ReadVec3(); err != nil {
		return GroupModel{}, fmt.Errorf("reading bound high: %w", err)
	}
	if g.Flags, err = c.ReadU32(); err != nil {
		return GroupModel{}, fmt.Errorf("reading group flags: %w", err)
	}
	if g.GroupID, err = c.ReadU32(); err != nil {
		return GroupModel{}, fmt.Errorf("reading group id: %w", err)
	}

	if err := expectTag(c, chunkVertices); err != nil {
		return GroupModel{}, err
	}
	// The declared chunk size is written by the extractor but the count
	// field drives the read; kept bit-compatible with the reference reader.
	if _, err := c.ReadU32(); err != nil {
		return GroupModel{}, fmt.Errorf("reading %s size: %w", chunkVertices, err)
	}
	vertexCount, err := c.ReadU32()
	if err != nil {
		return GroupModel{}, fmt.Errorf("reading vertex count: %w", err)
	}

	// Geometry-less groups end here; the writer emits no further chunks
	// for them.
	if vertexCount == 0 {
		return g, nil
	}

	g.Vertices = make([]math.Vec3, vertexCount)
	for i := range g.Vertices {
		if g.Vertices[i], err = c.ReadVec3(); err != nil {
			return GroupModel{}, fmt.Errorf("reading vertex %d: %w", i, err)
		}
	}

	if err := expectTag(c, chunkTriangles); err != nil {
		return GroupModel{}, err
	}
	if _, err := c.ReadU32(); err != nil {
		return GroupModel{}, fmt.Errorf("reading %s size: %w", chunkTriangles, err)
	}
	triangleCount, err := c.ReadU32()
	if err != nil {
		return GroupModel{}, fmt.Errorf("reading triangle count: %w", err)
	}

	g.Indices = make([]uint32, 3*triangleCount)
	for i := range g.Indices {
		if g.Indices[i], err = c.ReadU32(); err != nil {
			return GroupModel{}, fmt.Errorf("reading index %d: %w", i, err)
		}
	}

	if err := expectTag(c, chunkMeshTree); err != nil {
		return GroupModel{}, err
	}
	if err := skipAccelTree(c); err != nil {
		return GroupModel{}, fmt.Errorf("skipping %s tree: %w", chunkMeshTree, err)
	}

	if err := expectTag(c, chunkLiquid); err != nil {
		return GroupModel{}, err
	}
	liquidSize, err := c.ReadU32()
	if err != nil {
		return GroupModel{}, fmt.Errorf("reading %s size: %w", chunkLiquid, err)
	}
	if liquidSize > 0 {
		if err := c.Skip(int(liquidSize)); err != nil {
			return GroupModel{}, fmt.Errorf("skipping liquid data: %w", err)
		}
	}

	return g, nil
}

// skipAccelTree consumes an embedded bounding interval hierarchy. The tree
// carries no size field; its extent is two bound vectors, a node array and
// an object index array, each u32-counted. The arithmetic must be exact or
// every later chunk read desynchronizes.
func skipAccelTree(c *Cursor) error {
	if err := c.Skip(24); err != nil { // tree bounding box, 2 x Vec3
		return err
	}
	nodeCount, err := c.ReadU32()
	if err != nil {
		return err
	}
	if err := c.Skip(4 * int(nodeCount)); err != nil {
		return err
	}
	objectCount, err := c.ReadU32()
	if err != nil {
		return err
	}
	return c.Skip(4 * int(objectCount))
}

// ParseWorldModelFile parses a world model file from disk.
func ParseWorldModelFile(path string) (*WorldModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world model file: %w", err)
	}
	return ParseWorldModel(data)
}
