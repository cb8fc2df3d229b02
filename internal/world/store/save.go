package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// LoadOrCreateMetadata returns the saved metadata of the named world, or
// creates and saves fresh metadata with the given seed.
func LoadOrCreateMetadata(log *slog.Logger, p Persistence, name string, seed int64) (*world.Metadata, error) {
	meta, err := p.LoadWorld(name)
	if err != nil {
		return nil, fmt.Errorf("load world %q: %w", name, err)
	}
	if meta != nil {
		if meta.Seed != seed {
			log.Info("using saved seed", "world", name, "saved", meta.Seed, "requested", seed)
		}
		return meta, nil
	}

	meta = world.NewMetadata(name, seed)
	if err := p.SaveWorld(meta); err != nil {
		return nil, fmt.Errorf("save world %q: %w", name, err)
	}
	log.Info("created world", "world", name, "id", meta.ID, "seed", seed)
	return meta, nil
}

// Modified returns the resident chunks that have unsaved edits.
func (s *Store) Modified() []*world.ChunkData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*world.ChunkData
	for _, c := range s.chunks {
		if c.Modified() {
			out = append(out, c)
		}
	}
	return out
}

// SaveModified writes every modified chunk. A failed write is logged, the
// chunk stays modified and the remaining chunks are still saved. The
// returned error joins all failures.
func (s *Store) SaveModified(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	chunks := s.Modified()
	if len(chunks) == 0 {
		return nil
	}

	s.log.Info("saving chunks", "count", len(chunks))
	var errs []error
	nextMark := 1
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := s.save(c); err != nil {
			errs = append(errs, err)
		}
		for nextMark <= 3 && (i+1)*4 >= nextMark*len(chunks) {
			if i+1 < len(chunks) {
				s.log.Info("saving chunks", "progress", fmt.Sprintf("%d%%", nextMark*25))
			}
			nextMark++
		}
	}
	s.log.Info("saved chunks", "count", len(chunks)-len(errs), "failed", len(errs))
	return errors.Join(errs...)
}

func (s *Store) save(c *world.ChunkData) error {
	c.SetModified(false)
	if err := s.persist.SaveChunk(s.name, c); err != nil {
		c.SetModified(true)
		s.log.Error("save chunk failed", "coord", c.Coord, "error", err)
		return fmt.Errorf("save chunk %s: %w", c.Coord, err)
	}
	s.saved.Add(1)
	return nil
}

// Evict drops a resident chunk, saving it first if it was modified. Busy
// chunks, chunks with queued edits and chunks whose save fails stay
// resident.
func (s *Store) Evict(coord world.ChunkCoord) bool {
	c := s.Chunk(coord)
	if c == nil {
		return false
	}
	if !c.TryAcquire() {
		return false
	}
	defer c.Release()
	if c.HasPending() {
		return false
	}
	if c.Modified() && s.persist != nil {
		if err := s.save(c); err != nil {
			return false
		}
	}

	s.mu.Lock()
	// Edits queued during the save keep the chunk resident.
	if c.HasPending() {
		s.mu.Unlock()
		return false
	}
	delete(s.chunks, coord)
	s.mu.Unlock()
	s.evicted.Add(1)
	s.log.Debug("chunk evicted", "coord", coord)
	return true
}
