// Package light computes voxel light levels: a natural sky ray per column
// followed by a breadth-first flood fill, with incremental darkening after
// edits.
package light

import (
	"slices"
	"sync"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Space resolves resident chunks. Chunk returns nil for chunks that are not
// loaded; light never forces a load.
type Space interface {
	Dimensions() world.Dimensions
	Chunk(coord world.ChunkCoord) *world.ChunkData
}

// Opacities reports how much light a block id absorbs.
type Opacities interface {
	Opacity(id uint8) uint8
}

// Result describes one propagation run.
type Result struct {
	// Touched lists every chunk whose light changed, sorted by X then Z.
	Touched []world.ChunkCoord
	// Steps counts voxels dequeued by the flood fill.
	Steps int
}

// CastLight returns the light a voxel passes to its neighbors.
func CastLight(light, opacity uint8) uint8 {
	v := int(light) - int(opacity) - 1
	if v <= 0 {
		return 0
	}
	return uint8(v)
}

// Propagator runs light passes against a Space. Runs are serialised.
type Propagator struct {
	space  Space
	blocks Opacities
	mu     sync.Mutex
}

// New creates a Propagator.
func New(space Space, blocks Opacities) *Propagator {
	return &Propagator{space: space, blocks: blocks}
}

// LightChunk seeds natural light for a freshly populated chunk and floods
// it, including light exchanged with resident neighbors. Neighbors that are
// not resident are skipped; they pull light across the shared border when
// they are lit in turn.
func (p *Propagator) LightChunk(c *world.ChunkData) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.newRun(c)
	dims := r.dims
	w, h := dims.ChunkWidth, dims.ChunkHeight

	for x := 0; x < w; x++ {
		for z := 0; z < w; z++ {
			ray := world.MaxLight
			for y := h - 1; y >= 0; y-- {
				v := c.Voxel(x, y, z)
				ray = attenuate(ray, p.blocks.Opacity(v.ID))
				if v.Light != ray {
					c.SetLight(x, y, z, ray)
				}
				if ray > 1 {
					r.push(c.WorldPos(x, y, z))
				}
			}
		}
	}
	r.touch(c.Coord)

	// Pull light from resident neighbors across the shared border.
	for _, f := range []world.Face{world.FaceBack, world.FaceFront, world.FaceLeft, world.FaceRight} {
		off := f.Offset()
		n, ok := r.chunk(c.Coord.Add(off.X, off.Z))
		if !ok {
			continue
		}
		for i := 0; i < w; i++ {
			// Border column of the neighbor that faces c.
			x, z := i, i
			switch f {
			case world.FaceBack:
				z = w - 1
			case world.FaceFront:
				z = 0
			case world.FaceLeft:
				x = w - 1
			case world.FaceRight:
				x = 0
			}
			for y := 0; y < h; y++ {
				if n.Light(x, y, z) > 1 {
					r.push(n.WorldPos(x, y, z))
				}
			}
		}
	}

	r.flood()
	return r.result()
}

// Relight updates light after the block at pos changed from oldID to the id
// it now holds. Light is removed from voxels that may have been lit through
// pos, then the surviving sources are flooded back in.
func (p *Propagator) Relight(pos world.BlockPos, oldID uint8) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := p.newRun(nil)
	c, x, y, z, ok := r.resolve(pos)
	if !ok {
		return Result{}
	}

	newID := c.ID(x, y, z)
	oldOp, newOp := p.blocks.Opacity(oldID), p.blocks.Opacity(newID)
	if oldOp == newOp {
		return Result{}
	}

	// Natural ray through this column before and after the edit.
	h := r.dims.ChunkHeight
	before := make([]uint8, h)
	after := make([]uint8, h)
	rayOld, rayNew := world.MaxLight, world.MaxLight
	for cy := h - 1; cy >= 0; cy-- {
		id := c.ID(x, cy, z)
		opOld := p.blocks.Opacity(id)
		if cy == y {
			opOld = oldOp
		}
		rayOld = attenuate(rayOld, opOld)
		rayNew = attenuate(rayNew, p.blocks.Opacity(id))
		before[cy], after[cy] = rayOld, rayNew
	}
	r.sky[columnKey{pos.X, pos.Z}] = after

	for cy := y; cy >= 0; cy-- {
		if cy != y && before[cy] == after[cy] {
			continue
		}
		cp := world.BlockPos{X: pos.X, Y: cy, Z: pos.Z}
		cur := c.Light(x, cy, z)
		op := p.blocks.Opacity(c.ID(x, cy, z))
		target := after[cy]
		if op >= world.MaxLight {
			target = 0
		}

		if cur > target && (cy == y || cur <= before[cy]) {
			c.SetLight(x, cy, z, target)
			r.touch(c.Coord)
			srcOp := op
			if cy == y {
				srcOp = oldOp
			}
			r.darken = append(r.darken, removal{pos: cp, cast: CastLight(cur, srcOp)})
		} else if target > cur {
			c.SetLight(x, cy, z, target)
			r.touch(c.Coord)
		}
		r.push(cp)
	}

	for _, off := range world.FaceChecks {
		r.push(pos.Add(off))
	}

	r.removeLight()
	r.flood()
	return r.result()
}

func attenuate(ray, opacity uint8) uint8 {
	if opacity >= ray {
		return 0
	}
	return ray - opacity
}

type columnKey struct{ x, z int }

type removal struct {
	pos  world.BlockPos
	cast uint8
}

// run holds the state of one propagation pass.
type run struct {
	p       *Propagator
	dims    world.Dimensions
	chunks  map[world.ChunkCoord]*world.ChunkData
	touched map[world.ChunkCoord]struct{}
	// sky caches the natural ray per world column.
	sky    map[columnKey][]uint8
	queue  []world.BlockPos
	head   int
	darken []removal
	steps  int
}

func (p *Propagator) newRun(origin *world.ChunkData) *run {
	r := &run{
		p:       p,
		dims:    p.space.Dimensions(),
		chunks:  make(map[world.ChunkCoord]*world.ChunkData),
		touched: make(map[world.ChunkCoord]struct{}),
		sky:     make(map[columnKey][]uint8),
	}
	if origin != nil {
		r.chunks[origin.Coord] = origin
	}
	return r
}

func (r *run) chunk(coord world.ChunkCoord) (*world.ChunkData, bool) {
	c, cached := r.chunks[coord]
	if !cached {
		if r.dims.ContainsChunk(coord) {
			c = r.p.space.Chunk(coord)
		}
		r.chunks[coord] = c
	}
	return c, c != nil && c.Populated()
}

func (r *run) resolve(pos world.BlockPos) (*world.ChunkData, int, int, int, bool) {
	if !r.dims.ContainsVoxel(pos) {
		return nil, 0, 0, 0, false
	}
	c, ok := r.chunk(r.dims.ChunkOf(pos))
	if !ok {
		return nil, 0, 0, 0, false
	}
	l := r.dims.Local(pos)
	return c, l.X, l.Y, l.Z, true
}

func (r *run) push(pos world.BlockPos) { r.queue = append(r.queue, pos) }

func (r *run) touch(coord world.ChunkCoord) { r.touched[coord] = struct{}{} }

// skyFloor returns the natural ray at pos given the current block ids.
func (r *run) skyFloor(c *world.ChunkData, pos world.BlockPos, x, y, z int) uint8 {
	key := columnKey{pos.X, pos.Z}
	col, ok := r.sky[key]
	if !ok {
		h := r.dims.ChunkHeight
		col = make([]uint8, h)
		ray := world.MaxLight
		for cy := h - 1; cy >= 0; cy-- {
			ray = attenuate(ray, r.p.blocks.Opacity(c.ID(x, cy, z)))
			col[cy] = ray
		}
		r.sky[key] = col
	}
	return col[y]
}

// removeLight darkens every voxel whose light may have come from a removal
// source. Neighbors brighter than the source's cast have an independent
// source and are queued for the flood instead.
func (r *run) removeLight() {
	for i := 0; i < len(r.darken); i++ {
		src := r.darken[i]
		for _, off := range world.FaceChecks {
			np := src.pos.Add(off)
			c, x, y, z, ok := r.resolve(np)
			if !ok {
				continue
			}
			v := c.Voxel(x, y, z)
			op := r.p.blocks.Opacity(v.ID)
			if op >= world.MaxLight || v.Light == 0 {
				continue
			}
			if v.Light > src.cast {
				r.push(np)
				continue
			}
			floor := r.skyFloor(c, np, x, y, z)
			if floor < v.Light {
				c.SetLight(x, y, z, floor)
				r.touch(c.Coord)
				r.darken = append(r.darken, removal{pos: np, cast: CastLight(v.Light, op)})
			}
			if floor > 1 {
				r.push(np)
			}
		}
	}
	r.darken = nil
}

// flood drains the queue. Light only increases here.
func (r *run) flood() {
	for r.head < len(r.queue) {
		pos := r.queue[r.head]
		r.head++

		c, x, y, z, ok := r.resolve(pos)
		if !ok {
			continue
		}
		r.steps++
		v := c.Voxel(x, y, z)
		cast := CastLight(v.Light, r.p.blocks.Opacity(v.ID))
		if cast == 0 {
			continue
		}
		for _, off := range world.FaceChecks {
			np := pos.Add(off)
			nc, nx, ny, nz, ok := r.resolve(np)
			if !ok {
				continue
			}
			nv := nc.Voxel(nx, ny, nz)
			if r.p.blocks.Opacity(nv.ID) >= world.MaxLight || nv.Light >= cast {
				continue
			}
			nc.SetLight(nx, ny, nz, cast)
			r.touch(nc.Coord)
			r.push(np)
		}
	}
	r.queue = r.queue[:0]
	r.head = 0
}

func (r *run) result() Result {
	out := make([]world.ChunkCoord, 0, len(r.touched))
	for c := range r.touched {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b world.ChunkCoord) int {
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})
	return Result{Touched: out, Steps: r.steps}
}
