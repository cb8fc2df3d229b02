package gen

import (
	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// applyLodes runs the ore pass over a stone voxel. Later lodes win.
func (g *Generator) applyLodes(b *catalog.Biome, pos world.BlockPos, id uint8) uint8 {
	for i := range b.Lodes {
		l := &b.Lodes[i]
		if !l.Contains(pos.Y) {
			continue
		}
		if g.lode.Get3D(pos.X, pos.Y, pos.Z, l.NoiseOffset, l.Scale, l.Threshold) {
			id = l.Block
		}
	}
	return id
}
