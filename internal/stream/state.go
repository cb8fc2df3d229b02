package stream

import (
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/mesh"
)

// State is the streaming lifecycle position of a chunk.
type State int

const (
	Unloaded State = iota
	Loading
	Lit
	Active
	Inactive
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Lit:
		return "lit"
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Renderer receives finished meshes, visibility changes and releases of
// evicted chunks. Calls are made from the goroutine that calls Present,
// Tick or SetViewer, never from the background worker.
type Renderer interface {
	Upload(m *mesh.Mesh)
	SetVisible(coord world.ChunkCoord, visible bool)
	Release(coord world.ChunkCoord)
}

type nopRenderer struct{}

func (nopRenderer) Upload(*mesh.Mesh) {}
func (nopRenderer) SetVisible(world.ChunkCoord, bool) {}
func (nopRenderer) Release(world.ChunkCoord) {}
