package storage

import (
	"sync"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

type memKey struct {
	world string
	coord world.ChunkCoord
}

// Memory keeps saved state in process. Chunks are stored as records so that
// loads behave like the durable backends.
type Memory struct {
	mu     sync.RWMutex
	worlds map[string]world.Metadata
	chunks map[memKey]chunkRecord
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		worlds: make(map[string]world.Metadata),
		chunks: make(map[memKey]chunkRecord),
	}
}

func (m *Memory) SaveWorld(meta *world.Metadata) error {
	m.mu.Lock()
	m.worlds[meta.Name] = *meta
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadWorld(name string) (*world.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.worlds[name]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

func (m *Memory) SaveChunk(name string, c *world.ChunkData) error {
	m.mu.Lock()
	m.chunks[memKey{name, c.Coord}] = newChunkRecord(c)
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadChunk(name string, coord world.ChunkCoord, dims world.Dimensions) (*world.ChunkData, error) {
	m.mu.RLock()
	rec, ok := m.chunks[memKey{name, coord}]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return rec.chunk(dims)
}

func (m *Memory) ChunkCount(name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.chunks {
		if k.world == name {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored chunks across all worlds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *Memory) Close() error { return nil }
