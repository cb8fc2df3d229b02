package world

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ChunkData holds the dense voxel grid of one chunk column.
// Index = x + w*(z + w*y).
type ChunkData struct {
	Coord ChunkCoord

	dims   Dimensions
	mu     sync.RWMutex
	voxels []Voxel

	pendMu  sync.Mutex
	pending []VoxelMod

	busy      atomic.Bool
	populated atomic.Bool
	lit       atomic.Bool
	modified  atomic.Bool
}

// NewChunkData allocates an all-air, unlit chunk.
func NewChunkData(coord ChunkCoord, dims Dimensions) *ChunkData {
	return &ChunkData{
		Coord:  coord,
		dims:   dims,
		voxels: make([]Voxel, dims.Volume()),
	}
}

// Dims returns the dimensions the chunk was allocated with.
func (c *ChunkData) Dims() Dimensions { return c.dims }

// Origin returns the world position of local (0,0,0).
func (c *ChunkData) Origin() BlockPos { return c.dims.Origin(c.Coord) }

// WorldPos converts a local offset to a world position.
func (c *ChunkData) WorldPos(x, y, z int) BlockPos {
	o := c.Origin()
	return BlockPos{X: o.X + x, Y: y, Z: o.Z + z}
}

// InBounds reports whether the local offset lies inside the chunk.
func (c *ChunkData) InBounds(x, y, z int) bool {
	w := c.dims.ChunkWidth
	return x >= 0 && x < w && z >= 0 && z < w && y >= 0 && y < c.dims.ChunkHeight
}

func (c *ChunkData) index(x, y, z int) int {
	w := c.dims.ChunkWidth
	return x + w*(z+w*y)
}

// Voxel returns the voxel at a local offset.
func (c *ChunkData) Voxel(x, y, z int) Voxel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voxels[c.index(x, y, z)]
}

// ID returns the block id at a local offset.
func (c *ChunkData) ID(x, y, z int) uint8 { return c.Voxel(x, y, z).ID }

// Light returns the light level at a local offset.
func (c *ChunkData) Light(x, y, z int) uint8 { return c.Voxel(x, y, z).Light }

// SetID overwrites the block id at a local offset and returns the previous id.
func (c *ChunkData) SetID(x, y, z int, id uint8) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(x, y, z)
	old := c.voxels[i].ID
	c.voxels[i].ID = id
	return old
}

// SetLight overwrites the light level at a local offset.
func (c *ChunkData) SetLight(x, y, z int, level uint8) {
	c.mu.Lock()
	c.voxels[c.index(x, y, z)].Light = level
	c.mu.Unlock()
}

// Fill sets every block id from fn and marks the chunk populated.
func (c *ChunkData) Fill(fn func(x, y, z int) uint8) {
	w, h := c.dims.ChunkWidth, c.dims.ChunkHeight
	c.mu.Lock()
	for y := 0; y < h; y++ {
		for z := 0; z < w; z++ {
			for x := 0; x < w; x++ {
				c.voxels[c.index(x, y, z)] = Voxel{ID: fn(x, y, z)}
			}
		}
	}
	c.mu.Unlock()
	c.populated.Store(true)
}

// IDs returns a copy of the block ids in index order.
func (c *ChunkData) IDs() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]byte, len(c.voxels))
	for i, v := range c.voxels {
		out[i] = v.ID
	}
	return out
}

// LoadIDs replaces the grid with persisted ids. Light is reset and must be
// recomputed.
func (c *ChunkData) LoadIDs(ids []byte) error {
	if len(ids) != len(c.voxels) {
		return fmt.Errorf("chunk %s: got %d block ids, want %d", c.Coord, len(ids), len(c.voxels))
	}
	c.mu.Lock()
	for i, id := range ids {
		c.voxels[i] = Voxel{ID: id}
	}
	c.mu.Unlock()
	c.populated.Store(true)
	c.lit.Store(false)
	return nil
}

// Snapshot returns a copy of the voxel grid.
func (c *ChunkData) Snapshot() []Voxel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voxel, len(c.voxels))
	copy(out, c.voxels)
	return out
}

// QueueMod appends an edit to be applied on the next update.
func (c *ChunkData) QueueMod(m VoxelMod) {
	c.pendMu.Lock()
	c.pending = append(c.pending, m)
	c.pendMu.Unlock()
}

// HasPending reports whether edits are waiting.
func (c *ChunkData) HasPending() bool {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	return len(c.pending) > 0
}

// TakePending removes and returns queued edits in arrival order.
func (c *ChunkData) TakePending() []VoxelMod {
	c.pendMu.Lock()
	defer c.pendMu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// PendingID returns the id the voxel will hold once queued edits apply.
func (c *ChunkData) PendingID(x, y, z int) uint8 {
	id := c.ID(x, y, z)
	p := c.WorldPos(x, y, z)
	c.pendMu.Lock()
	for _, m := range c.pending {
		if m.Pos == p {
			id = m.ID
		}
	}
	c.pendMu.Unlock()
	return id
}

// TryAcquire claims the chunk for a structural edit or a mesh build.
// It returns false if another holder is active.
func (c *ChunkData) TryAcquire() bool { return c.busy.CompareAndSwap(false, true) }

// Release ends a claim taken with TryAcquire.
func (c *ChunkData) Release() { c.busy.Store(false) }

// Busy reports whether the chunk is currently claimed.
func (c *ChunkData) Busy() bool { return c.busy.Load() }

// Populated reports whether the grid has been generated or loaded.
func (c *ChunkData) Populated() bool { return c.populated.Load() }

// MarkLit records that initial light propagation finished.
func (c *ChunkData) MarkLit() { c.lit.Store(true) }

// Lit reports whether initial light propagation finished.
func (c *ChunkData) Lit() bool { return c.lit.Load() }

// Editable reports whether the chunk can be meshed or edited right now.
func (c *ChunkData) Editable() bool {
	return c.populated.Load() && c.lit.Load() && !c.busy.Load()
}

// SetModified flags the chunk as differing from its persisted copy.
func (c *ChunkData) SetModified(v bool) { c.modified.Store(v) }

// Modified reports whether the chunk has unsaved edits.
func (c *ChunkData) Modified() bool { return c.modified.Load() }
