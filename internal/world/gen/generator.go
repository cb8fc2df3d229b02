// Package gen produces voxel terrain deterministically from a seed and a
// block/biome catalog.
package gen

import (
	"fmt"
	"math"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/noise"
)

// Noise seed salts.
const (
	saltTerrain = 100
	saltBiome   = 200
	saltLode    = 500
	saltFlora   = 600
)

// subsurfaceDepth is how many voxels below the surface use the subsurface block.
const subsurfaceDepth = 4

// Generator types.
const (
	TypeDefault = "default"
	// TypeFlat is a superflat world: every column uses the first biome's
	// layers at ground height, with no lodes or flora.
	TypeFlat = "flat"
)

// Options configures a Generator.
type Options struct {
	Type              string
	Seed              int64
	Noise             string
	SolidGroundHeight int
}

// DefaultOptions returns noise terrain using Perlin noise with ground at y=42.
func DefaultOptions() Options {
	return Options{Type: TypeDefault, Noise: noise.BackendPerlin, SolidGroundHeight: 42}
}

// Generator maps world positions to block ids.
type Generator struct {
	dims   world.Dimensions
	blocks *catalog.Blocks
	biomes *catalog.Biomes
	ground int
	flat   bool

	terrain *noise.Sampler
	biome   *noise.Sampler
	lode    *noise.Sampler
	flora   *noise.Sampler

	bedrock, stone uint8
	structures     structureBlocks
}

// New creates a Generator. It fails if the catalog lacks a block the
// configured biomes need.
func New(dims world.Dimensions, cat *catalog.Catalog, opts Options) (*Generator, error) {
	g := &Generator{
		dims:   dims,
		blocks: cat.Blocks,
		biomes: cat.Biomes,
		ground: opts.SolidGroundHeight,
	}
	switch opts.Type {
	case "", TypeDefault:
	case TypeFlat:
		g.flat = true
	default:
		return nil, fmt.Errorf("generator: unknown type %q", opts.Type)
	}

	rng := newSeedRNG(opts.Seed, 0)
	samplers := []struct {
		dst  **noise.Sampler
		salt int64
	}{
		{&g.terrain, saltTerrain},
		{&g.biome, saltBiome},
		{&g.lode, saltLode},
		{&g.flora, saltFlora},
	}
	for _, s := range samplers {
		f, err := noise.New(opts.Noise, rng.next()^s.salt)
		if err != nil {
			return nil, fmt.Errorf("generator: %w", err)
		}
		*s.dst = noise.NewSampler(f, dims.ChunkWidth)
	}

	var err error
	if g.bedrock, err = cat.Blocks.MustID("bedrock"); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	if g.stone, err = cat.Blocks.MustID("stone"); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	if g.structures, err = resolveStructures(cat); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return g, nil
}

// Dimensions returns the world extents the generator was built for.
func (g *Generator) Dimensions() world.Dimensions { return g.dims }

// column is the per-(x,z) result of biome selection.
type column struct {
	biome  *catalog.Biome
	height int
}

func (g *Generator) column(x, z int) column {
	if g.flat {
		return column{biome: g.biomes.At(0), height: g.ground}
	}
	var (
		sum       float64
		count     int
		strongest = 0
		best      = math.Inf(-1)
	)
	for i := 0; i < g.biomes.Len(); i++ {
		b := g.biomes.At(i)
		weight := g.biome.Get2D(x, z, b.Offset, b.Scale)
		if weight > best {
			best = weight
			strongest = i
		}
		h := b.TerrainHeight * g.terrain.Get2D(x, z, 0, b.TerrainScale) * weight
		if h > 0 {
			sum += h
			count++
		}
	}

	avg := 0.0
	if count > 0 {
		avg = sum / float64(count)
	}
	return column{
		biome:  g.biomes.At(strongest),
		height: int(math.Floor(avg + float64(g.ground))),
	}
}

// Generate returns the block id at pos and any structure placements rooted
// there. Positions outside the world are air.
func (g *Generator) Generate(pos world.BlockPos) (uint8, []world.VoxelMod) {
	if !g.dims.ContainsVoxel(pos) {
		return world.Air, nil
	}
	return g.generateAt(pos, g.column(pos.X, pos.Z))
}

func (g *Generator) generateAt(pos world.BlockPos, col column) (uint8, []world.VoxelMod) {
	if pos.Y == 0 {
		return g.bedrock, nil
	}

	b, th := col.biome, col.height
	var id uint8
	switch {
	case pos.Y == th:
		id = b.Surface
	case pos.Y < th && pos.Y > th-subsurfaceDepth:
		id = b.SubSurface
	case pos.Y > th:
		return world.Air, nil
	default:
		id = g.stone
	}

	if g.flat {
		return id, nil
	}
	if id == g.stone {
		id = g.applyLodes(b, pos, id)
	}

	var mods []world.VoxelMod
	if pos.Y == th && b.PlaceMajorFlora && g.floraAt(b, pos) {
		mods = g.structure(b, pos)
	}
	return id, mods
}

// Populate fills every voxel of c and returns the structure placements its
// surface produced, in generation order.
func (g *Generator) Populate(c *world.ChunkData) []world.VoxelMod {
	w := g.dims.ChunkWidth
	o := c.Origin()

	cols := make([]column, w*w)
	for z := 0; z < w; z++ {
		for x := 0; x < w; x++ {
			cols[x+w*z] = g.column(o.X+x, o.Z+z)
		}
	}

	inWorld := g.dims.ContainsChunk(c.Coord)
	var mods []world.VoxelMod
	c.Fill(func(x, y, z int) uint8 {
		if !inWorld {
			return world.Air
		}
		id, m := g.generateAt(world.BlockPos{X: o.X + x, Y: y, Z: o.Z + z}, cols[x+w*z])
		mods = append(mods, m...)
		return id
	})
	return mods
}

// SurfaceHeight returns the terrain height of a column, clamped to the world.
func (g *Generator) SurfaceHeight(x, z int) int {
	h := g.column(x, z).height
	return min(max(h, 0), g.dims.ChunkHeight-1)
}

// BiomeAt returns the strongest biome at a column.
func (g *Generator) BiomeAt(x, z int) *catalog.Biome {
	return g.column(x, z).biome
}

// IsSolid reports whether the generated block at pos is solid.
func (g *Generator) IsSolid(pos world.BlockPos) bool {
	id, _ := g.Generate(pos)
	return g.blocks.Solid(id)
}
