// Package mesh turns lit chunk voxels into renderable buffers.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Space resolves resident chunks for faces on a chunk border.
type Space interface {
	Dimensions() world.Dimensions
	Chunk(coord world.ChunkCoord) *world.ChunkData
}

// Blocks exposes the block properties meshing needs.
type Blocks interface {
	Solid(id uint8) bool
	RenderNeighborFaces(id uint8) bool
	Texture(id uint8, f world.Face) int
}

// Mesh holds the buffers of one chunk. Positions are chunk-local.
// Triangles index opaque faces, TransparentTriangles faces of blocks that
// render their neighbors' faces.
type Mesh struct {
	Coord                world.ChunkCoord
	Vertices             []mgl32.Vec3
	Triangles            []uint32
	TransparentTriangles []uint32
	UVs                  []mgl32.Vec2
	Colors               []mgl32.Vec4
	Normals              []mgl32.Vec3
}

// Quads returns the number of faces in the mesh.
func (m *Mesh) Quads() int { return len(m.Vertices) / 4 }

// Empty reports whether the mesh has no faces.
func (m *Mesh) Empty() bool { return len(m.Vertices) == 0 }

// Mesher builds meshes. It holds no per-chunk state and is safe for
// concurrent use.
type Mesher struct {
	space     Space
	blocks    Blocks
	atlasSize int
	cell      float32
}

// New creates a Mesher for a square atlas of atlasSize×atlasSize textures.
func New(space Space, blocks Blocks, atlasSize int) *Mesher {
	if atlasSize <= 0 {
		atlasSize = 16
	}
	return &Mesher{
		space:     space,
		blocks:    blocks,
		atlasSize: atlasSize,
		cell:      1 / float32(atlasSize),
	}
}

// Build meshes every solid voxel of c. A face is emitted only when its
// neighbor is known and renders neighbor faces; neighbors outside the world
// or in chunks that are not resident hide the face.
func (m *Mesher) Build(c *world.ChunkData) *Mesh {
	dims := c.Dims()
	w, h := dims.ChunkWidth, dims.ChunkHeight
	voxels := c.Snapshot()
	index := func(x, y, z int) int { return x + w*(z+w*y) }

	out := &Mesh{Coord: c.Coord}
	for y := 0; y < h; y++ {
		for z := 0; z < w; z++ {
			for x := 0; x < w; x++ {
				id := voxels[index(x, y, z)].ID
				if !m.blocks.Solid(id) {
					continue
				}
				for _, f := range world.Faces {
					off := f.Offset()
					nx, ny, nz := x+off.X, y+off.Y, z+off.Z

					var n world.Voxel
					if c.InBounds(nx, ny, nz) {
						n = voxels[index(nx, ny, nz)]
					} else {
						var ok bool
						if n, ok = m.neighbor(dims, c.WorldPos(nx, ny, nz)); !ok {
							continue
						}
					}
					if !m.blocks.RenderNeighborFaces(n.ID) {
						continue
					}
					m.addFace(out, id, f, x, y, z, n.Light)
				}
			}
		}
	}
	return out
}

func (m *Mesher) neighbor(dims world.Dimensions, pos world.BlockPos) (world.Voxel, bool) {
	if !dims.ContainsVoxel(pos) {
		return world.Voxel{}, false
	}
	nc := m.space.Chunk(dims.ChunkOf(pos))
	if nc == nil || !nc.Populated() {
		return world.Voxel{}, false
	}
	l := dims.Local(pos)
	return nc.Voxel(l.X, l.Y, l.Z), true
}

func (m *Mesher) addFace(out *Mesh, id uint8, f world.Face, x, y, z int, light uint8) {
	base := mgl32.Vec3{float32(x), float32(y), float32(z)}
	vi := uint32(len(out.Vertices))

	for _, corner := range voxelTris[f] {
		out.Vertices = append(out.Vertices, base.Add(voxelVerts[corner]))
	}
	uv := m.textureUV(m.blocks.Texture(id, f))
	out.UVs = append(out.UVs, uv[:]...)

	color := mgl32.Vec4{0, 0, 0, float32(light) / 16}
	normal := faceNormals[f]
	for range 4 {
		out.Colors = append(out.Colors, color)
		out.Normals = append(out.Normals, normal)
	}

	tris := []uint32{vi, vi + 1, vi + 2, vi + 2, vi + 1, vi + 3}
	if m.blocks.RenderNeighborFaces(id) {
		out.TransparentTriangles = append(out.TransparentTriangles, tris...)
	} else {
		out.Triangles = append(out.Triangles, tris...)
	}
}

// textureUV maps an atlas index to the UVs of its cell. Atlas rows count
// from the top, so V is flipped.
func (m *Mesher) textureUV(texture int) [4]mgl32.Vec2 {
	n := m.cell
	u := float32(texture%m.atlasSize) * n
	v := 1 - float32(texture/m.atlasSize)*n - n
	return [4]mgl32.Vec2{
		{u, v},
		{u, v + n},
		{u + n, v},
		{u + n, v + n},
	}
}
