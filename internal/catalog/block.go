package catalog

import (
	"fmt"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Faces holds per-face texture atlas indices.
type Faces struct {
	Back   int `yaml:"back"`
	Front  int `yaml:"front"`
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// Face returns the atlas index for f.
func (t Faces) Face(f world.Face) int {
	switch f {
	case world.FaceBack:
		return t.Back
	case world.FaceFront:
		return t.Front
	case world.FaceTop:
		return t.Top
	case world.FaceBottom:
		return t.Bottom
	case world.FaceLeft:
		return t.Left
	case world.FaceRight:
		return t.Right
	}
	return 0
}

// BlockType describes one block id.
type BlockType struct {
	Name                string `yaml:"name"`
	Solid               bool   `yaml:"solid"`
	Opacity             uint8  `yaml:"opacity"`
	RenderNeighborFaces bool   `yaml:"render_neighbor_faces"`
	Textures            Faces  `yaml:"textures"`
}

// Blocks is the block table. The id of a block is its index.
type Blocks struct {
	types  []BlockType
	byName map[string]uint8
}

// NewBlocks indexes types by name. Index 0 must be air.
func NewBlocks(types []BlockType) (*Blocks, error) {
	if len(types) == 0 {
		return nil, ErrNoBlocks
	}
	if len(types) > 256 {
		return nil, ErrTooManyBlocks
	}
	b := &Blocks{types: types, byName: make(map[string]uint8, len(types))}
	for i, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("block %d has no name", i)
		}
		if _, dup := b.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate block %q", t.Name)
		}
		if t.Opacity > world.MaxLight {
			return nil, fmt.Errorf("block %q opacity %d exceeds %d", t.Name, t.Opacity, world.MaxLight)
		}
		b.byName[t.Name] = uint8(i)
	}
	if types[0].Name != "air" || types[0].Solid {
		return nil, fmt.Errorf("block 0 must be non-solid air, got %q", types[0].Name)
	}
	return b, nil
}

func (b *Blocks) ByID(id uint8) (BlockType, bool) {
	if int(id) >= len(b.types) {
		return BlockType{}, false
	}
	return b.types[id], true
}

func (b *Blocks) ByName(name string) (uint8, bool) {
	id, ok := b.byName[name]
	return id, ok
}

func (b *Blocks) All() []BlockType { return b.types }

// Len returns the number of block types.
func (b *Blocks) Len() int { return len(b.types) }

// MustID returns the id for name, or an error wrapping ErrUnknownBlock.
func (b *Blocks) MustID(name string) (uint8, error) {
	id, ok := b.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	return id, nil
}

// Solid reports whether id is solid. Unknown ids are treated as air.
func (b *Blocks) Solid(id uint8) bool {
	t, ok := b.ByID(id)
	return ok && t.Solid
}

// Opacity returns how much light id absorbs.
func (b *Blocks) Opacity(id uint8) uint8 {
	t, _ := b.ByID(id)
	return t.Opacity
}

// RenderNeighborFaces reports whether faces adjacent to id are drawn.
func (b *Blocks) RenderNeighborFaces(id uint8) bool {
	t, ok := b.ByID(id)
	if !ok {
		return true
	}
	return t.RenderNeighborFaces
}

// Texture returns the atlas index of one face of id.
func (b *Blocks) Texture(id uint8, f world.Face) int {
	t, _ := b.ByID(id)
	return t.Textures.Face(f)
}
