package catalog

import "fmt"

// FloraKind selects the structure placed by a biome.
type FloraKind string

const (
	FloraTree   FloraKind = "tree"
	FloraCactus FloraKind = "cactus"
)

// Lode is an ore-vein rule. Height bounds are inclusive.
type Lode struct {
	Name        string  `yaml:"name"`
	BlockName   string  `yaml:"block"`
	MinHeight   int     `yaml:"min_height"`
	MaxHeight   int     `yaml:"max_height"`
	Scale       float64 `yaml:"scale"`
	Threshold   float64 `yaml:"threshold"`
	NoiseOffset float64 `yaml:"noise_offset"`

	Block uint8 `yaml:"-"`
}

// Contains reports whether y lies in the lode's height range.
func (l *Lode) Contains(y int) bool { return y >= l.MinHeight && y <= l.MaxHeight }

// Biome holds the terrain parameters of one biome.
type Biome struct {
	Name   string  `yaml:"name"`
	Offset float64 `yaml:"offset"`
	Scale  float64 `yaml:"scale"`

	TerrainHeight float64 `yaml:"terrain_height"`
	TerrainScale  float64 `yaml:"terrain_scale"`

	SurfaceBlockName    string `yaml:"surface_block"`
	SubSurfaceBlockName string `yaml:"subsurface_block"`

	PlaceMajorFlora    bool      `yaml:"place_major_flora"`
	MajorFlora         FloraKind `yaml:"major_flora"`
	ZoneScale          float64   `yaml:"zone_scale"`
	ZoneThreshold      float64   `yaml:"zone_threshold"`
	PlacementScale     float64   `yaml:"placement_scale"`
	PlacementThreshold float64   `yaml:"placement_threshold"`
	MinHeight          int       `yaml:"min_height"`
	MaxHeight          int       `yaml:"max_height"`

	Lodes []Lode `yaml:"lodes"`

	Surface    uint8 `yaml:"-"`
	SubSurface uint8 `yaml:"-"`
}

// Biomes is the resolved biome table.
type Biomes struct {
	list []Biome
}

func (b *Biomes) ByName(name string) (*Biome, bool) {
	for i := range b.list {
		if b.list[i].Name == name {
			return &b.list[i], true
		}
	}
	return nil, false
}

func (b *Biomes) All() []Biome { return b.list }

// Len returns the number of biomes.
func (b *Biomes) Len() int { return len(b.list) }

// At returns the biome at index i.
func (b *Biomes) At(i int) *Biome { return &b.list[i] }

func (b *Biome) resolve(blocks *Blocks) error {
	var err error
	if b.Surface, err = blocks.MustID(b.SurfaceBlockName); err != nil {
		return fmt.Errorf("biome %q surface: %w", b.Name, err)
	}
	if b.SubSurface, err = blocks.MustID(b.SubSurfaceBlockName); err != nil {
		return fmt.Errorf("biome %q subsurface: %w", b.Name, err)
	}
	if b.PlaceMajorFlora {
		switch b.MajorFlora {
		case FloraTree, FloraCactus:
		default:
			return fmt.Errorf("biome %q: unknown flora %q", b.Name, b.MajorFlora)
		}
		if b.MinHeight < 1 || b.MaxHeight < b.MinHeight {
			return fmt.Errorf("biome %q: flora height range [%d,%d] invalid", b.Name, b.MinHeight, b.MaxHeight)
		}
	}
	for i := range b.Lodes {
		l := &b.Lodes[i]
		if l.Block, err = blocks.MustID(l.BlockName); err != nil {
			return fmt.Errorf("biome %q lode %q: %w", b.Name, l.Name, err)
		}
		if l.MaxHeight < l.MinHeight {
			return fmt.Errorf("biome %q lode %q: max height %d below min %d", b.Name, l.Name, l.MaxHeight, l.MinHeight)
		}
	}
	return nil
}
