package gen

import (
	"fmt"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Foliage box relative to the top of a tree trunk.
const (
	foliageRadius = 3
	foliageHeight = 7
)

// Trunk height noise parameters.
const (
	treeHeightOffset   = 250
	treeHeightScale    = 3
	cactusHeightOffset = 23456
	cactusHeightScale  = 2
)

type structureBlocks struct {
	wood, leaves      uint8
	cactus, cactusTop uint8
}

func resolveStructures(cat *catalog.Catalog) (structureBlocks, error) {
	var s structureBlocks
	var tree, cactus bool
	for _, b := range cat.Biomes.All() {
		if !b.PlaceMajorFlora {
			continue
		}
		switch b.MajorFlora {
		case catalog.FloraTree:
			tree = true
		case catalog.FloraCactus:
			cactus = true
		}
	}

	var err error
	if tree {
		if s.wood, err = cat.Blocks.MustID("wood"); err != nil {
			return s, fmt.Errorf("tree: %w", err)
		}
		if s.leaves, err = cat.Blocks.MustID("leaves"); err != nil {
			return s, fmt.Errorf("tree: %w", err)
		}
	}
	if cactus {
		if s.cactus, err = cat.Blocks.MustID("cactus"); err != nil {
			return s, fmt.Errorf("cactus: %w", err)
		}
		if s.cactusTop, err = cat.Blocks.MustID("cactus_top"); err != nil {
			return s, fmt.Errorf("cactus: %w", err)
		}
	}
	return s, nil
}

// floraAt evaluates the zone test, then the placement test.
func (g *Generator) floraAt(b *catalog.Biome, pos world.BlockPos) bool {
	if g.flora.Get2D(pos.X, pos.Z, 0, b.ZoneScale) <= b.ZoneThreshold {
		return false
	}
	return g.flora.Get2D(pos.X, pos.Z, 0, b.PlacementScale) > b.PlacementThreshold
}

func (g *Generator) structure(b *catalog.Biome, pos world.BlockPos) []world.VoxelMod {
	switch b.MajorFlora {
	case catalog.FloraTree:
		return g.tree(pos, b.MinHeight, b.MaxHeight)
	case catalog.FloraCactus:
		return g.cactus(pos, b.MinHeight, b.MaxHeight)
	}
	return nil
}

func (g *Generator) trunkHeight(pos world.BlockPos, minH, maxH int, offset, scale float64) int {
	h := int(float64(maxH) * g.flora.Get2D(pos.X, pos.Z, offset, scale))
	return max(h, minH)
}

// tree places a trunk on top of pos and a foliage box above it.
func (g *Generator) tree(pos world.BlockPos, minH, maxH int) []world.VoxelMod {
	h := g.trunkHeight(pos, minH, maxH, treeHeightOffset, treeHeightScale)
	side := 2*foliageRadius + 1
	mods := make([]world.VoxelMod, 0, h-1+side*side*foliageHeight)

	for i := 1; i < h; i++ {
		mods = append(mods, world.VoxelMod{Pos: world.BlockPos{X: pos.X, Y: pos.Y + i, Z: pos.Z}, ID: g.structures.wood})
	}
	for x := -foliageRadius; x <= foliageRadius; x++ {
		for y := 0; y < foliageHeight; y++ {
			for z := -foliageRadius; z <= foliageRadius; z++ {
				mods = append(mods, world.VoxelMod{
					Pos: world.BlockPos{X: pos.X + x, Y: pos.Y + h + y, Z: pos.Z + z},
					ID:  g.structures.leaves,
				})
			}
		}
	}
	return mods
}

// cactus places a column with a distinct top block.
func (g *Generator) cactus(pos world.BlockPos, minH, maxH int) []world.VoxelMod {
	h := g.trunkHeight(pos, minH, maxH, cactusHeightOffset, cactusHeightScale)
	mods := make([]world.VoxelMod, 0, h)
	for i := 1; i < h; i++ {
		mods = append(mods, world.VoxelMod{Pos: world.BlockPos{X: pos.X, Y: pos.Y + i, Z: pos.Z}, ID: g.structures.cactus})
	}
	return append(mods, world.VoxelMod{Pos: world.BlockPos{X: pos.X, Y: pos.Y + h, Z: pos.Z}, ID: g.structures.cactusTop})
}
