package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Backend names accepted by Open.
const (
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backend is implemented by every storage backend. Load methods return nil
// without error when nothing was saved.
type Backend interface {
	SaveWorld(meta *world.Metadata) error
	LoadWorld(name string) (*world.Metadata, error)
	SaveChunk(name string, c *world.ChunkData) error
	LoadChunk(name string, coord world.ChunkCoord, dims world.Dimensions) (*world.ChunkData, error)
	// ChunkCount returns how many chunks are saved for a world.
	ChunkCount(name string) (int, error)
	Close() error
}

// Open returns the named backend. sqlitePath defaults to worlds.sqlite in dir.
func Open(backend, dir, sqlitePath string, log *slog.Logger) (Backend, error) {
	switch backend {
	case BackendDisk:
		return NewDisk(dir, log)
	case BackendSQLite:
		if sqlitePath == "" {
			sqlitePath = filepath.Join(dir, "worlds.sqlite")
		}
		return OpenSQLite(sqlitePath, log)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
