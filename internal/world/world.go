// Package world correlates the decoded per-tile data: spawn lists, their
// index files, referenced world models and terrain grids. The format parsers
// stay pure; cross-file invariants and caching live here.
package world

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/willf/bitset"

	"github.com/wowemu/vmapview/internal/logger"
	"github.com/wowemu/vmapview/internal/store"
	"github.com/wowemu/vmapview/pkg/vmap"
)

// ErrIndexMismatch reports a tile whose index file disagrees with its spawn
// file. The parsers cannot check this; it is a cross-file invariant.
var ErrIndexMismatch = errors.New("tile index count does not match spawn count")

// Tile is one fully loaded map tile.
type Tile struct {
	MapID, X, Y int

	Spawns      []vmap.Spawn
	NodeIndices []uint32 // parallel to Spawns

	// Terrain is nil when the map has no terrain file for this tile.
	Terrain *vmap.Terrain
}

// Manager loads tiles through a store and keeps a bounded cache of decoded
// world models. Decode calls are pure; only the cache needs locking.
type Manager struct {
	store     *store.Store
	maxModels int

	mu     sync.Mutex
	models map[string]*vmap.WorldModel
}

// NewManager creates a manager over st keeping at most maxModels decoded
// models in memory (a non-positive value selects a default).
func NewManager(st *store.Store, maxModels int) *Manager {
	if maxModels <= 0 {
		maxModels = 64
	}
	return &Manager{
		store:     st,
		maxModels: maxModels,
		models:    make(map[string]*vmap.WorldModel),
	}
}

// LoadTile reads and decodes a tile's spawn, index and terrain files and
// enforces the spawn/index count invariant.
func (m *Manager) LoadTile(mapID, x, y int) (*Tile, error) {
	data, err := m.store.ReadTile(mapID, x, y)
	if err != nil {
		return nil, fmt.Errorf("tile %d [%d,%d]: %w", mapID, x, y, err)
	}
	tile, err := vmap.ParseTile(data)
	if err != nil {
		return nil, fmt.Errorf("tile %d [%d,%d]: %w", mapID, x, y, err)
	}

	idxData, err := m.store.ReadTileIndex(mapID, x, y)
	if err != nil {
		return nil, fmt.Errorf("tile index %d [%d,%d]: %w", mapID, x, y, err)
	}
	idx, err := vmap.ParseTileIndex(idxData)
	if err != nil {
		return nil, fmt.Errorf("tile index %d [%d,%d]: %w", mapID, x, y, err)
	}

	if len(idx.NodeIndices) != len(tile.Spawns) {
		return nil, fmt.Errorf("%w: tile %d [%d,%d] has %d spawns, index has %d",
			ErrIndexMismatch, mapID, x, y, len(tile.Spawns), len(idx.NodeIndices))
	}

	loaded := &Tile{
		MapID:       mapID,
		X:           x,
		Y:           y,
		Spawns:      tile.Spawns,
		NodeIndices: idx.NodeIndices,
	}

	terrainData, err := m.store.ReadTerrain(mapID, x, y)
	switch {
	case os.IsNotExist(err):
		logger.Sugar.Debugw("no terrain file for tile", "map", mapID, "x", x, "y", y)
	case err != nil:
		return nil, fmt.Errorf("terrain %d [%d,%d]: %w", mapID, x, y, err)
	default:
		terrain, err := vmap.ParseTerrain(terrainData)
		if err != nil {
			return nil, fmt.Errorf("terrain %d [%d,%d]: %w", mapID, x, y, err)
		}
		loaded.Terrain = terrain
	}

	logger.Sugar.Debugw("tile loaded",
		"map", mapID, "x", x, "y", y,
		"spawns", len(loaded.Spawns), "terrain", loaded.Terrain != nil)
	return loaded, nil
}

// Model returns the decoded world model for a spawn's referenced name,
// loading and caching it on first use.
func (m *Manager) Model(name string) (*vmap.WorldModel, error) {
	m.mu.Lock()
	if model, ok := m.models[name]; ok {
		m.mu.Unlock()
		return model, nil
	}
	m.mu.Unlock()

	// Decode outside the lock; concurrent loads of the same model are
	// redundant but harmless.
	data, err := m.store.ReadModel(name)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	model, err := vmap.ParseWorldModel(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}

	m.mu.Lock()
	if len(m.models) >= m.maxModels {
		// Dropping the whole cache is cheaper than tracking recency for
		// tooling workloads.
		m.models = make(map[string]*vmap.WorldModel)
	}
	m.models[name] = model
	m.mu.Unlock()
	return model, nil
}

// CachedModels returns the number of models currently cached.
func (m *Manager) CachedModels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.models)
}

// TileModels loads the distinct models referenced by the tile's spawns.
// Models that fail to load are logged and omitted; the returned map holds
// every model that decoded cleanly.
func (m *Manager) TileModels(tile *Tile) map[string]*vmap.WorldModel {
	out := make(map[string]*vmap.WorldModel)
	for i := range tile.Spawns {
		name := tile.Spawns[i].Name
		if _, ok := out[name]; ok {
			continue
		}
		model, err := m.Model(name)
		if err != nil {
			logger.Sugar.Warnw("skipping unloadable model", "name", name, "error", err)
			continue
		}
		out[name] = model
	}
	return out
}

// WalkableMask builds a 128x128 cell mask from a tile's terrain, with hole
// cells cleared. A nil terrain or one without a hole bitmap yields a fully
// walkable mask.
func WalkableMask(t *vmap.Terrain) *bitset.BitSet {
	const dim = vmap.TerrainCellDim
	mask := bitset.New(dim * dim)
	for row := 0; row < dim; row++ {
		for col := 0; col < dim; col++ {
			if t == nil || !t.IsHole(row, col) {
				mask.Set(uint(row*dim + col))
			}
		}
	}
	return mask
}
