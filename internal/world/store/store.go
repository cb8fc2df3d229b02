// Package store keeps the resident chunk set of a world and owns chunk
// load, generation, edits, saving and eviction.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
	"github.com/OCharnyshevich/voxelworld/internal/world/light"
)

// ErrOutsideWorld is returned for chunk requests beyond the world bounds.
var ErrOutsideWorld = errors.New("chunk outside world")

// Persistence saves and loads world state. Load methods return nil without
// error when nothing was saved.
type Persistence interface {
	SaveWorld(meta *world.Metadata) error
	LoadWorld(name string) (*world.Metadata, error)
	SaveChunk(name string, c *world.ChunkData) error
	LoadChunk(name string, coord world.ChunkCoord, dims world.Dimensions) (*world.ChunkData, error)
}

// ChangeFunc is told that a chunk needs to be re-meshed. priority is set
// for direct edits, which should jump the update queue.
type ChangeFunc func(coord world.ChunkCoord, priority bool)

// Stats counts chunk lifecycle events.
type Stats struct {
	Resident  int
	Generated int64
	Loaded    int64
	Saved     int64
	Evicted   int64
}

// Store is the sparse chunk map of one world.
type Store struct {
	log     *slog.Logger
	name    string
	dims    world.Dimensions
	gen     *gen.Generator
	blocks  *catalog.Blocks
	light   *light.Propagator
	persist Persistence

	mu     sync.RWMutex
	chunks map[world.ChunkCoord]*world.ChunkData
	group  singleflight.Group

	modsMu     sync.Mutex
	structures []world.VoxelMod
	parked     map[world.ChunkCoord][]world.VoxelMod

	onChange atomic.Pointer[ChangeFunc]

	generated, loaded, saved, evicted atomic.Int64
}

// New creates a Store for the named world. persist may be nil for a world
// that is never saved.
func New(log *slog.Logger, name string, g *gen.Generator, blocks *catalog.Blocks, persist Persistence) *Store {
	s := &Store{
		log:     log.With("world", name),
		name:    name,
		dims:    g.Dimensions(),
		gen:     g,
		blocks:  blocks,
		persist: persist,
		chunks:  make(map[world.ChunkCoord]*world.ChunkData),
		parked:  make(map[world.ChunkCoord][]world.VoxelMod),
	}
	s.light = light.New(s, blocks)
	return s
}

// OnChange registers the re-mesh callback. It replaces any previous one.
func (s *Store) OnChange(fn ChangeFunc) { s.onChange.Store(&fn) }

func (s *Store) notify(coord world.ChunkCoord, priority bool) {
	if fn := s.onChange.Load(); fn != nil && *fn != nil {
		(*fn)(coord, priority)
	}
}

// Name returns the world name.
func (s *Store) Name() string { return s.name }

// Dimensions returns the world extents.
func (s *Store) Dimensions() world.Dimensions { return s.dims }

// Chunk returns a resident chunk or nil. It never loads or generates.
func (s *Store) Chunk(coord world.ChunkCoord) *world.ChunkData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[coord]
}

// Resident returns the coordinates of every resident chunk, sorted.
func (s *Store) Resident() []world.ChunkCoord {
	s.mu.RLock()
	out := make([]world.ChunkCoord, 0, len(s.chunks))
	for c := range s.chunks {
		out = append(out, c)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b world.ChunkCoord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})
	return out
}

// Stats returns a snapshot of the lifecycle counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	n := len(s.chunks)
	s.mu.RUnlock()
	return Stats{
		Resident:  n,
		Generated: s.generated.Load(),
		Loaded:    s.loaded.Load(),
		Saved:     s.saved.Load(),
		Evicted:   s.evicted.Load(),
	}
}

// RequestChunk returns the chunk at coord. On a miss with create set, the
// chunk is loaded from persistence or generated, then lit. Concurrent
// requests for the same coordinate share one instance.
func (s *Store) RequestChunk(ctx context.Context, coord world.ChunkCoord, create bool) (*world.ChunkData, error) {
	if !s.dims.ContainsChunk(coord) {
		return nil, fmt.Errorf("%w: %s", ErrOutsideWorld, coord)
	}
	if c := s.Chunk(coord); c != nil || !create {
		return c, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := s.group.Do(coord.String(), func() (any, error) {
		if c := s.Chunk(coord); c != nil {
			return c, nil
		}
		return s.create(coord), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*world.ChunkData), nil
}

func (s *Store) create(coord world.ChunkCoord) *world.ChunkData {
	c := s.load(coord)
	source := "loaded"
	var mods []world.VoxelMod
	if c == nil {
		c = world.NewChunkData(coord, s.dims)
		mods = s.gen.Populate(c)
		source = "generated"
	}

	s.mu.Lock()
	// Double-check after acquiring write lock.
	if existing, ok := s.chunks[coord]; ok {
		s.mu.Unlock()
		return existing
	}
	s.chunks[coord] = c
	s.mu.Unlock()

	if source == "generated" {
		s.generated.Add(1)
	} else {
		s.loaded.Add(1)
	}

	for _, m := range s.takeParked(coord) {
		c.QueueMod(m)
	}

	res := s.light.LightChunk(c)
	c.MarkLit()
	for _, t := range res.Touched {
		if t != coord {
			s.notify(t, false)
		}
	}

	if len(mods) > 0 {
		s.modsMu.Lock()
		s.structures = append(s.structures, mods...)
		s.modsMu.Unlock()
	}

	s.log.Debug("chunk ready", "coord", coord, "source", source, "structure_mods", len(mods), "light_steps", res.Steps)
	return c
}

// load reads a chunk from persistence. Read faults are logged and treated
// as "not saved" so the chunk is regenerated.
func (s *Store) load(coord world.ChunkCoord) *world.ChunkData {
	if s.persist == nil {
		return nil
	}
	c, err := s.persist.LoadChunk(s.name, coord, s.dims)
	if err != nil {
		s.log.Warn("load chunk failed, regenerating", "coord", coord, "error", err)
		return nil
	}
	return c
}

// GetVoxel returns the voxel at pos if its chunk is resident.
func (s *Store) GetVoxel(pos world.BlockPos) (world.Voxel, bool) {
	if !s.dims.ContainsVoxel(pos) {
		return world.Voxel{}, false
	}
	c := s.Chunk(s.dims.ChunkOf(pos))
	if c == nil {
		return world.Voxel{}, false
	}
	l := s.dims.Local(pos)
	return c.Voxel(l.X, l.Y, l.Z), true
}

// IsSolid answers a solidity query. Chunks that are not resident fall back
// to the generator.
func (s *Store) IsSolid(pos world.BlockPos) bool {
	if !s.dims.ContainsVoxel(pos) {
		return false
	}
	if v, ok := s.GetVoxel(pos); ok {
		return s.blocks.Solid(v.ID)
	}
	return s.gen.IsSolid(pos)
}

// SetVoxel queues an edit on the owning chunk, creating it if needed.
// It returns false when pos is outside the world or already holds id.
func (s *Store) SetVoxel(ctx context.Context, pos world.BlockPos, id uint8) (bool, error) {
	return s.queue(ctx, pos, id, true)
}

// ApplyStructureMod queues a generated structure write like SetVoxel, but
// without update priority.
func (s *Store) ApplyStructureMod(ctx context.Context, m world.VoxelMod) (bool, error) {
	return s.queue(ctx, m.Pos, m.ID, false)
}

func (s *Store) queue(ctx context.Context, pos world.BlockPos, id uint8, priority bool) (bool, error) {
	if !s.dims.ContainsVoxel(pos) {
		return false, nil
	}
	coord := s.dims.ChunkOf(pos)
	for {
		if _, err := s.RequestChunk(ctx, coord, true); err != nil {
			return false, err
		}
		s.mu.RLock()
		c := s.chunks[coord]
		if c == nil {
			// Evicted between creation and the lookup.
			s.mu.RUnlock()
			continue
		}
		queued := queueResident(c, world.VoxelMod{Pos: pos, ID: id})
		s.mu.RUnlock()
		if queued {
			s.notify(coord, priority)
		}
		return queued, nil
	}
}

// SetVoxelLater queues an edit like SetVoxel but never loads or generates.
// An edit for a chunk that is not resident is parked until the chunk is
// created, and parked reports that case.
func (s *Store) SetVoxelLater(pos world.BlockPos, id uint8) (queued, parked bool) {
	if !s.dims.ContainsVoxel(pos) {
		return false, false
	}
	coord := s.dims.ChunkOf(pos)
	m := world.VoxelMod{Pos: pos, ID: id}

	s.modsMu.Lock()
	s.mu.RLock()
	c := s.chunks[coord]
	if c != nil {
		queued = queueResident(c, m)
	} else {
		s.parked[coord] = append(s.parked[coord], m)
	}
	s.mu.RUnlock()
	s.modsMu.Unlock()

	if c == nil {
		return true, true
	}
	if queued {
		s.notify(coord, true)
	}
	return queued, false
}

// queueResident queues m on c unless the voxel already ends up as m.ID.
// The caller holds s.mu so that Evict cannot drop c in between.
func queueResident(c *world.ChunkData, m world.VoxelMod) bool {
	l := c.Dims().Local(m.Pos)
	if c.PendingID(l.X, l.Y, l.Z) == m.ID {
		return false
	}
	c.QueueMod(m)
	return true
}

// ApplyPending applies the queued edits of c and relights around them.
// The caller must hold c via TryAcquire. It returns the other chunks whose
// light or border faces changed.
func (s *Store) ApplyPending(c *world.ChunkData) []world.ChunkCoord {
	mods := c.TakePending()
	if len(mods) == 0 {
		return nil
	}

	w := s.dims.ChunkWidth
	touched := map[world.ChunkCoord]struct{}{}
	for _, m := range mods {
		l := s.dims.Local(m.Pos)
		old := c.SetID(l.X, l.Y, l.Z, m.ID)
		if old == m.ID {
			continue
		}
		c.SetModified(true)

		for _, t := range s.light.Relight(m.Pos, old).Touched {
			touched[t] = struct{}{}
		}
		if l.X == 0 {
			touched[c.Coord.Add(-1, 0)] = struct{}{}
		}
		if l.X == w-1 {
			touched[c.Coord.Add(1, 0)] = struct{}{}
		}
		if l.Z == 0 {
			touched[c.Coord.Add(0, -1)] = struct{}{}
		}
		if l.Z == w-1 {
			touched[c.Coord.Add(0, 1)] = struct{}{}
		}
	}
	delete(touched, c.Coord)

	out := make([]world.ChunkCoord, 0, len(touched))
	for t := range touched {
		if s.Chunk(t) != nil {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b world.ChunkCoord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})
	return out
}

// Spawn returns a position standing on the terrain at the world centre.
func (s *Store) Spawn() world.BlockPos {
	p := s.dims.Center()
	p.Y = s.gen.SurfaceHeight(p.X, p.Z) + 1
	return p
}
