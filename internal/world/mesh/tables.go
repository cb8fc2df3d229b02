package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Unit cube corners.
var voxelVerts = [8]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// Corner indices of each face, in world.Face order. Two triangles are built
// from them as (0,1,2) and (2,1,3).
var voxelTris = [6][4]int{
	{0, 3, 1, 2}, // back
	{5, 6, 4, 7}, // front
	{3, 7, 2, 6}, // top
	{1, 5, 0, 4}, // bottom
	{4, 7, 0, 3}, // left
	{1, 2, 5, 6}, // right
}

var faceNormals = func() [6]mgl32.Vec3 {
	var n [6]mgl32.Vec3
	for i, off := range world.FaceChecks {
		n[i] = mgl32.Vec3{float32(off.X), float32(off.Y), float32(off.Z)}
	}
	return n
}()
