package world

import (
	"time"

	"github.com/google/uuid"
)

// Metadata describes a saved world.
type Metadata struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Seed      int64     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMetadata creates metadata for a fresh world.
func NewMetadata(name string, seed int64) *Metadata {
	return &Metadata{
		ID:        uuid.New(),
		Name:      name,
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
}
