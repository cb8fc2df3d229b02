package world

import "fmt"

// ChunkCoord identifies a chunk column in chunk-grid units.
type ChunkCoord struct{ X, Z int }

func (c ChunkCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

// Add returns the coordinate offset by dx, dz chunks.
func (c ChunkCoord) Add(dx, dz int) ChunkCoord { return ChunkCoord{X: c.X + dx, Z: c.Z + dz} }

// Distance returns the Chebyshev distance between two chunk coordinates.
func (c ChunkCoord) Distance(o ChunkCoord) int {
	return max(abs(c.X-o.X), abs(c.Z-o.Z))
}

// BlockPos represents a voxel position in world space.
type BlockPos struct {
	X, Y, Z int
}

func (p BlockPos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

// Add returns p offset by d.
func (p BlockPos) Add(d BlockPos) BlockPos {
	return BlockPos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Dimensions describes chunk and world extents. SizeInChunks of 0 means the
// world is unbounded horizontally.
type Dimensions struct {
	ChunkWidth   int
	ChunkHeight  int
	SizeInChunks int
}

// DefaultDimensions returns 16×128×16 chunks in a 100×100 chunk world.
func DefaultDimensions() Dimensions {
	return Dimensions{ChunkWidth: 16, ChunkHeight: 128, SizeInChunks: 100}
}

// Volume returns the number of voxels in one chunk.
func (d Dimensions) Volume() int { return d.ChunkWidth * d.ChunkWidth * d.ChunkHeight }

// SizeInVoxels returns the horizontal world extent, or 0 when unbounded.
func (d Dimensions) SizeInVoxels() int { return d.SizeInChunks * d.ChunkWidth }

// ContainsChunk reports whether the chunk lies inside the world.
func (d Dimensions) ContainsChunk(c ChunkCoord) bool {
	if d.SizeInChunks == 0 {
		return true
	}
	return c.X >= 0 && c.X < d.SizeInChunks && c.Z >= 0 && c.Z < d.SizeInChunks
}

// ContainsVoxel reports whether the world position lies inside the world.
func (d Dimensions) ContainsVoxel(p BlockPos) bool {
	if p.Y < 0 || p.Y >= d.ChunkHeight {
		return false
	}
	if d.SizeInChunks == 0 {
		return true
	}
	n := d.SizeInVoxels()
	return p.X >= 0 && p.X < n && p.Z >= 0 && p.Z < n
}

// ChunkOf returns the coordinate of the chunk owning p.
func (d Dimensions) ChunkOf(p BlockPos) ChunkCoord {
	return ChunkCoord{X: floorDiv(p.X, d.ChunkWidth), Z: floorDiv(p.Z, d.ChunkWidth)}
}

// Local converts a world position to an offset inside its chunk.
func (d Dimensions) Local(p BlockPos) BlockPos {
	return BlockPos{X: floorMod(p.X, d.ChunkWidth), Y: p.Y, Z: floorMod(p.Z, d.ChunkWidth)}
}

// Origin returns the world position of local (0,0,0) in chunk c.
func (d Dimensions) Origin(c ChunkCoord) BlockPos {
	return BlockPos{X: c.X * d.ChunkWidth, Z: c.Z * d.ChunkWidth}
}

// Center returns the world position at the horizontal centre of the world.
// Unbounded worlds are centred on the origin.
func (d Dimensions) Center() BlockPos {
	n := d.SizeInVoxels()
	return BlockPos{X: n / 2, Z: n / 2}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
