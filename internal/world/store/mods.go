package store

import "github.com/OCharnyshevich/voxelworld/internal/world"

// TakeStructureMods removes up to n queued structure writes in generation
// order. n <= 0 takes all of them.
func (s *Store) TakeStructureMods(n int) []world.VoxelMod {
	s.modsMu.Lock()
	defer s.modsMu.Unlock()
	if n <= 0 || n > len(s.structures) {
		n = len(s.structures)
	}
	out := make([]world.VoxelMod, n)
	copy(out, s.structures)
	s.structures = s.structures[n:]
	if len(s.structures) == 0 {
		s.structures = nil
	}
	return out
}

// PendingStructureMods returns how many structure writes are queued.
func (s *Store) PendingStructureMods() int {
	s.modsMu.Lock()
	defer s.modsMu.Unlock()
	return len(s.structures)
}

// Park holds a structure write for a chunk that should not be created yet.
// Parked writes are queued on the chunk when it is eventually created.
// Writes to chunks that are already resident are queued immediately.
func (s *Store) Park(m world.VoxelMod) {
	if !s.dims.ContainsVoxel(m.Pos) {
		return
	}
	coord := s.dims.ChunkOf(m.Pos)

	// modsMu keeps create from slipping between the check and the park,
	// s.mu keeps Evict from dropping the chunk under QueueMod.
	s.modsMu.Lock()
	s.mu.RLock()
	c := s.chunks[coord]
	if c != nil {
		c.QueueMod(m)
	} else {
		s.parked[coord] = append(s.parked[coord], m)
	}
	s.mu.RUnlock()
	s.modsMu.Unlock()

	if c != nil {
		s.notify(coord, false)
	}
}

// Parked returns how many writes are parked for coord.
func (s *Store) Parked(coord world.ChunkCoord) int {
	s.modsMu.Lock()
	defer s.modsMu.Unlock()
	return len(s.parked[coord])
}

func (s *Store) takeParked(coord world.ChunkCoord) []world.VoxelMod {
	s.modsMu.Lock()
	defer s.modsMu.Unlock()
	out := s.parked[coord]
	delete(s.parked, coord)
	return out
}
