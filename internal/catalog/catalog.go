// Package catalog holds the static block and biome tables that drive
// generation, lighting and meshing.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoBlocks      = errors.New("catalog has no blocks")
	ErrTooManyBlocks = errors.New("catalog has more than 256 blocks")
	ErrNoBiomes      = errors.New("catalog has no biomes")
	ErrUnknownBlock  = errors.New("unknown block")
)

// Catalog bundles the block and biome tables.
type Catalog struct {
	Blocks *Blocks
	Biomes *Biomes
}

type catalogFile struct {
	Blocks []BlockType `yaml:"blocks"`
	Biomes []Biome     `yaml:"biomes"`
}

// New validates the tables and resolves biome block names to ids.
func New(blocks []BlockType, biomes []Biome) (*Catalog, error) {
	b, err := NewBlocks(append([]BlockType(nil), blocks...))
	if err != nil {
		return nil, err
	}
	if len(biomes) == 0 {
		return nil, ErrNoBiomes
	}

	bs := &Biomes{list: make([]Biome, 0, len(biomes))}
	for _, bm := range biomes {
		if _, dup := bs.ByName(bm.Name); dup {
			return nil, fmt.Errorf("duplicate biome %q", bm.Name)
		}
		bm.Lodes = append([]Lode(nil), bm.Lodes...)
		if err := bm.resolve(b); err != nil {
			return nil, err
		}
		bs.list = append(bs.list, bm)
	}
	return &Catalog{Blocks: b, Biomes: bs}, nil
}

// Parse decodes a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Blocks, f.Biomes)
}

// Load reads a YAML catalog file. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Encode renders the catalog as YAML.
func (c *Catalog) Encode() ([]byte, error) {
	f := catalogFile{Blocks: c.Blocks.All(), Biomes: c.Biomes.All()}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return data, nil
}
