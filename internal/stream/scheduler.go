// Package stream decides which chunks exist around a viewer, drives their
// creation and re-meshing in bounded steps, and hands finished meshes to a
// renderer.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/mesh"
	"github.com/OCharnyshevich/voxelworld/internal/world/store"
)

// ErrStopped is returned by calls made after Stop.
var ErrStopped = errors.New("scheduler stopped")

var errRunning = errors.New("scheduler worker already running")

// Options bounds the work done per step.
type Options struct {
	// ViewDistance is the Chebyshev radius of active chunks around the viewer.
	ViewDistance int
	// LoadDistance is the radius beyond which inactive chunks are evicted
	// and structure writes are parked.
	LoadDistance      int
	MaxCreatesPerTick int
	MaxUpdatesPerTick int
	MaxModsPerTick    int
	// Interval is how often an idle worker polls for work.
	Interval time.Duration
}

// DefaultOptions returns the settings used by the engine runner.
func DefaultOptions() Options {
	return Options{
		ViewDistance:      5,
		LoadDistance:      8,
		MaxCreatesPerTick: 2,
		MaxUpdatesPerTick: 4,
		MaxModsPerTick:    512,
		Interval:          10 * time.Millisecond,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	o.ViewDistance = max(o.ViewDistance, 0)
	o.LoadDistance = max(o.LoadDistance, o.ViewDistance)
	if o.MaxCreatesPerTick <= 0 {
		o.MaxCreatesPerTick = 1
	}
	if o.MaxUpdatesPerTick <= 0 {
		o.MaxUpdatesPerTick = 1
	}
	if o.MaxModsPerTick <= 0 {
		o.MaxModsPerTick = 1
	}
	if o.Interval <= 0 {
		o.Interval = def.Interval
	}
	return o
}

// Stats is a snapshot of the scheduler's working sets.
type Stats struct {
	Tracked  int
	Active   int
	Inactive int
	Creating int
	Updating int
	Mods     int
	Ready    int
	Meshed   int64
}

// Pending returns the amount of queued background work.
func (s Stats) Pending() int { return s.Creating + s.Updating + s.Mods }

// Scheduler streams chunks around a single viewer.
//
// It runs in one of two modes. In cooperative mode the caller invokes Tick
// once per frame. In worker mode Start runs the background work on its own
// goroutine and the caller only invokes Present (or Tick) to consume meshes.
type Scheduler struct {
	log    *slog.Logger
	store  *store.Store
	mesher *mesh.Mesher
	render Renderer
	opts   Options
	dims   world.Dimensions

	mu        sync.Mutex
	viewer    world.ChunkCoord
	hasViewer bool
	states    map[world.ChunkCoord]State
	toCreate  *coordQueue
	toUpdate  *coordQueue
	stale     map[world.ChunkCoord]struct{}
	// edits holds chunks queued for creation because of a parked edit.
	edits map[world.ChunkCoord]struct{}

	drawMu    sync.Mutex
	toDraw    []*mesh.Mesh
	toRelease []world.ChunkCoord

	wake chan struct{}

	runMu   sync.Mutex
	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped atomic.Bool

	meshed atomic.Int64
}

// New creates a Scheduler over st and registers for its change
// notifications. r may be nil.
func New(log *slog.Logger, st *store.Store, mesher *mesh.Mesher, r Renderer, opts Options) *Scheduler {
	if r == nil {
		r = nopRenderer{}
	}
	s := &Scheduler{
		log:      log,
		store:    st,
		mesher:   mesher,
		render:   r,
		opts:     opts.normalized(),
		dims:     st.Dimensions(),
		states:   make(map[world.ChunkCoord]State),
		toCreate: newCoordQueue(),
		toUpdate: newCoordQueue(),
		stale:    make(map[world.ChunkCoord]struct{}),
		edits:    make(map[world.ChunkCoord]struct{}),
		wake:     make(chan struct{}, 1),
	}
	st.OnChange(s.requestUpdate)
	return s
}

// Options returns the effective options.
func (s *Scheduler) Options() Options { return s.opts }

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) inWindowLocked(c world.ChunkCoord) bool {
	if !s.dims.ContainsChunk(c) {
		return false
	}
	return !s.hasViewer || c.Distance(s.viewer) <= s.opts.ViewDistance
}

func (s *Scheduler) inLoadRangeLocked(c world.ChunkCoord) bool {
	return !s.hasViewer || c.Distance(s.viewer) <= s.opts.LoadDistance
}

// State returns the lifecycle state of a chunk.
func (s *Scheduler) State(c world.ChunkCoord) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[c]
}

// Viewer returns the viewer's chunk and whether a viewer was set.
func (s *Scheduler) Viewer() (world.ChunkCoord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer, s.hasViewer
}

// SetViewer moves the viewer to a world position.
func (s *Scheduler) SetViewer(pos mgl32.Vec3) {
	s.SetViewerChunk(s.dims.ChunkOf(world.BlockPos{
		X: int(math.Floor(float64(pos.X()))),
		Z: int(math.Floor(float64(pos.Z()))),
	}))
}

// SetViewerChunk recomputes the view window around coord. Chunks entering
// the window are queued for creation or shown again; chunks leaving it are
// hidden but stay resident.
func (s *Scheduler) SetViewerChunk(coord world.ChunkCoord) {
	s.mu.Lock()
	if s.hasViewer && s.viewer == coord {
		s.mu.Unlock()
		return
	}
	s.viewer, s.hasViewer = coord, true

	var show, hide []world.ChunkCoord
	for c, st := range s.states {
		if st == Active && !s.inWindowLocked(c) {
			s.states[c] = Inactive
			hide = append(hide, c)
		}
	}

	// Abandon queued work outside the new window.
	s.toCreate.filter(func(c world.ChunkCoord) bool {
		if _, edited := s.edits[c]; edited || s.inWindowLocked(c) {
			return true
		}
		delete(s.states, c)
		return false
	})
	s.toUpdate.filter(func(c world.ChunkCoord) bool {
		if s.inWindowLocked(c) {
			return true
		}
		s.stale[c] = struct{}{}
		return false
	})

	entering := 0
	ring(coord, s.opts.ViewDistance, func(c world.ChunkCoord) {
		if !s.dims.ContainsChunk(c) {
			return
		}
		st, ok := s.states[c]
		switch {
		case !ok:
			s.states[c] = Loading
			s.toCreate.push(c)
			entering++
		case st == Inactive:
			s.states[c] = Active
			show = append(show, c)
			if _, dirty := s.stale[c]; dirty {
				delete(s.stale, c)
				s.toUpdate.push(c)
			}
		case st == Lit:
			delete(s.stale, c)
			s.toUpdate.push(c)
		}
	})
	s.mu.Unlock()

	for _, c := range hide {
		s.render.SetVisible(c, false)
	}
	for _, c := range show {
		s.render.SetVisible(c, true)
	}
	s.signal()
	s.log.Debug("viewer moved", "chunk", coord, "new", entering, "shown", len(show), "hidden", len(hide))
}

// ring visits every chunk within radius of center, nearest rings first.
func ring(center world.ChunkCoord, radius int, fn func(world.ChunkCoord)) {
	fn(center)
	for r := 1; r <= radius; r++ {
		for d := -r; d <= r; d++ {
			fn(center.Add(d, -r))
			fn(center.Add(d, r))
		}
		for d := -r + 1; d <= r-1; d++ {
			fn(center.Add(-r, d))
			fn(center.Add(r, d))
		}
	}
}

// requestUpdate is the store's change hook.
func (s *Scheduler) requestUpdate(c world.ChunkCoord, priority bool) {
	s.mu.Lock()
	s.queueUpdateLocked(c, priority)
	s.mu.Unlock()
	s.signal()
}

// queueUpdateLocked schedules a re-mesh of a resident chunk. Chunks outside
// the window are only marked stale and re-meshed when they come back,
// unless priority is set: edits are applied wherever they are.
func (s *Scheduler) queueUpdateLocked(c world.ChunkCoord, priority bool) {
	st, ok := s.states[c]
	if !ok || st == Loading {
		s.toCreate.remove(c)
		s.states[c] = Lit
		s.arrivedLocked(c)
	}
	if !priority && !s.inWindowLocked(c) {
		s.stale[c] = struct{}{}
		return
	}
	if priority {
		s.toUpdate.pushFront(c)
	} else {
		s.toUpdate.push(c)
	}
}

// arrivedLocked re-meshes the tracked neighbors of a newly resident chunk
// so their border faces reflect it.
func (s *Scheduler) arrivedLocked(c world.ChunkCoord) {
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := c.Add(d[0], d[1])
		if st, ok := s.states[n]; !ok || st == Loading {
			continue
		}
		if s.inWindowLocked(n) {
			s.toUpdate.push(n)
		} else {
			s.stale[n] = struct{}{}
		}
	}
}

// SetVoxel edits the world. The owning chunk jumps the update queue.
//
// While the background worker runs, an edit to a chunk that is not
// resident is parked and the worker creates the chunk, so the caller never
// generates or lights a chunk itself.
func (s *Scheduler) SetVoxel(ctx context.Context, pos world.BlockPos, id uint8) (bool, error) {
	if s.stopped.Load() {
		return false, ErrStopped
	}
	if !s.running() {
		return s.store.SetVoxel(ctx, pos, id)
	}
	queued, parked := s.store.SetVoxelLater(pos, id)
	if parked {
		coord := s.dims.ChunkOf(pos)
		s.mu.Lock()
		s.edits[coord] = struct{}{}
		if st, ok := s.states[coord]; !ok || st == Loading {
			s.states[coord] = Loading
		}
		s.toCreate.pushFront(coord)
		s.mu.Unlock()
		s.signal()
	}
	return queued, nil
}

// Tick runs one cooperative scheduling step and presents at most one mesh.
// While the background worker runs, Tick only presents.
func (s *Scheduler) Tick(ctx context.Context) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	if !s.running() {
		if _, err := s.step(ctx); err != nil {
			return err
		}
	}
	s.Present()
	return nil
}

// Step runs one bounded batch of background work and returns how many
// items it processed.
func (s *Scheduler) Step(ctx context.Context) (int, error) {
	if s.stopped.Load() {
		return 0, ErrStopped
	}
	return s.step(ctx)
}

func (s *Scheduler) step(ctx context.Context) (int, error) {
	created, err := s.createChunks(ctx)
	if err != nil {
		return created, err
	}
	applied, err := s.applyMods(ctx)
	if err != nil {
		return created + applied, err
	}
	return created + applied + s.updateChunks() + s.evictFar(), nil
}

func (s *Scheduler) createChunks(ctx context.Context) (int, error) {
	n := 0
	for range s.opts.MaxCreatesPerTick {
		s.mu.Lock()
		coord, ok := s.toCreate.pop()
		s.mu.Unlock()
		if !ok {
			break
		}

		if _, err := s.store.RequestChunk(ctx, coord, true); err != nil {
			if ctx.Err() != nil {
				s.mu.Lock()
				s.toCreate.pushFront(coord)
				s.mu.Unlock()
				return n, err
			}
			s.log.Warn("create chunk failed", "coord", coord, "error", err)
			s.mu.Lock()
			delete(s.states, coord)
			delete(s.edits, coord)
			s.mu.Unlock()
			continue
		}
		n++

		s.mu.Lock()
		if st, ok := s.states[coord]; !ok || st == Loading {
			s.states[coord] = Lit
			s.arrivedLocked(coord)
		}
		_, edited := s.edits[coord]
		delete(s.edits, coord)
		s.queueUpdateLocked(coord, edited)
		s.mu.Unlock()
	}
	return n, nil
}

// applyMods folds generated structure writes into their target chunks.
// Targets beyond the load distance are parked instead of created.
func (s *Scheduler) applyMods(ctx context.Context) (int, error) {
	mods := s.store.TakeStructureMods(s.opts.MaxModsPerTick)
	for i, m := range mods {
		coord := s.dims.ChunkOf(m.Pos)
		s.mu.Lock()
		near := s.inLoadRangeLocked(coord)
		s.mu.Unlock()
		if !near {
			s.store.Park(m)
			continue
		}

		if _, err := s.store.ApplyStructureMod(ctx, m); err != nil {
			if ctx.Err() != nil {
				for _, rest := range mods[i:] {
					s.store.Park(rest)
				}
				return i, err
			}
			s.log.Warn("apply structure write failed", "pos", m.Pos, "error", err)
			continue
		}
		s.track(coord)
	}
	return len(mods), nil
}

// track registers a chunk the store created on its own.
func (s *Scheduler) track(c world.ChunkCoord) {
	if !s.dims.ContainsChunk(c) {
		return
	}
	s.mu.Lock()
	if st, ok := s.states[c]; !ok || st == Loading {
		s.queueUpdateLocked(c, false)
	}
	s.mu.Unlock()
}

// updateChunks applies pending edits and re-meshes queued chunks. A chunk
// that is not editable yet goes back on the queue.
func (s *Scheduler) updateChunks() int {
	n := 0
	for range s.opts.MaxUpdatesPerTick {
		s.mu.Lock()
		coord, ok := s.toUpdate.pop()
		s.mu.Unlock()
		if !ok {
			break
		}

		c := s.store.Chunk(coord)
		if c == nil {
			continue
		}
		if !c.Populated() || !c.Lit() || !c.TryAcquire() {
			s.mu.Lock()
			s.toUpdate.push(coord)
			s.mu.Unlock()
			continue
		}
		touched := s.store.ApplyPending(c)
		m := s.mesher.Build(c)
		c.Release()
		s.meshed.Add(1)
		n++

		s.mu.Lock()
		for _, t := range touched {
			s.queueUpdateLocked(t, false)
		}
		if c.HasPending() {
			s.toUpdate.push(coord)
		}
		if s.inWindowLocked(coord) {
			s.states[coord] = Active
		} else {
			s.states[coord] = Inactive
		}
		s.mu.Unlock()

		s.pushDraw(m)
	}
	return n
}

// evictFar drops chunks beyond the load distance.
func (s *Scheduler) evictFar() int {
	s.mu.Lock()
	if !s.hasViewer {
		s.mu.Unlock()
		return 0
	}
	var far []world.ChunkCoord
	for c, st := range s.states {
		if st != Loading && !s.inLoadRangeLocked(c) {
			far = append(far, c)
			if len(far) == s.opts.MaxCreatesPerTick {
				break
			}
		}
	}
	s.mu.Unlock()

	n := 0
	for _, c := range far {
		if s.store.Chunk(c) != nil && !s.store.Evict(c) {
			continue
		}
		s.mu.Lock()
		delete(s.states, c)
		delete(s.stale, c)
		s.toUpdate.remove(c)
		s.mu.Unlock()
		s.dropDraw(c)
		n++
	}
	if n > 0 {
		s.log.Debug("evicted chunks", "count", n)
	}
	return n
}

func (s *Scheduler) pushDraw(m *mesh.Mesh) {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()
	for i, q := range s.toDraw {
		if q.Coord == m.Coord {
			s.toDraw[i] = m
			return
		}
	}
	s.toDraw = append(s.toDraw, m)
}

// dropDraw discards the ready mesh of an evicted chunk and queues its
// release for the presenting goroutine.
func (s *Scheduler) dropDraw(c world.ChunkCoord) {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()
	for i, q := range s.toDraw {
		if q.Coord == c {
			s.toDraw = append(s.toDraw[:i], s.toDraw[i+1:]...)
			break
		}
	}
	if !slices.Contains(s.toRelease, c) {
		s.toRelease = append(s.toRelease, c)
	}
}

func (s *Scheduler) takeReleases() []world.ChunkCoord {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()
	out := s.toRelease
	s.toRelease = nil
	return out
}

// PopMesh removes the oldest ready mesh.
func (s *Scheduler) PopMesh() (*mesh.Mesh, bool) {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()
	if len(s.toDraw) == 0 {
		return nil, false
	}
	m := s.toDraw[0]
	s.toDraw[0] = nil
	s.toDraw = s.toDraw[1:]
	return m, true
}

// Present releases the renderer state of evicted chunks and hands at most
// one ready mesh to the renderer. It reports whether a mesh was handed over.
func (s *Scheduler) Present() bool {
	for _, c := range s.takeReleases() {
		s.render.Release(c)
	}
	m, ok := s.PopMesh()
	if !ok {
		return false
	}
	s.render.Upload(m)
	s.mu.Lock()
	visible := s.states[m.Coord] == Active
	s.mu.Unlock()
	s.render.SetVisible(m.Coord, visible)
	return true
}

// Stats returns a snapshot of the working sets.
func (s *Scheduler) Stats() Stats {
	var st Stats
	s.mu.Lock()
	st.Tracked = len(s.states)
	for _, v := range s.states {
		switch v {
		case Active:
			st.Active++
		case Inactive:
			st.Inactive++
		}
	}
	st.Creating = s.toCreate.len()
	st.Updating = s.toUpdate.len()
	s.mu.Unlock()

	s.drawMu.Lock()
	st.Ready = len(s.toDraw)
	s.drawMu.Unlock()

	st.Mods = s.store.PendingStructureMods()
	st.Meshed = s.meshed.Load()
	return st
}
