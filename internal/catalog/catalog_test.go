package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	for _, name := range []string{"air", "bedrock", "stone", "grass", "dirt", "sand", "wood", "leaves", "cactus", "cactus_top"} {
		if _, ok := c.Blocks.ByName(name); !ok {
			t.Errorf("default catalog missing block %q", name)
		}
	}

	air, _ := c.Blocks.ByName("air")
	if air != world.Air {
		t.Errorf("air id = %d, want 0", air)
	}
	if c.Blocks.Solid(air) || c.Blocks.Opacity(air) != 0 || !c.Blocks.RenderNeighborFaces(air) {
		t.Error("air should be non-solid, transparent and render neighbor faces")
	}

	stone, _ := c.Blocks.ByName("stone")
	if !c.Blocks.Solid(stone) || c.Blocks.Opacity(stone) != world.MaxLight || c.Blocks.RenderNeighborFaces(stone) {
		t.Error("stone should be solid and opaque")
	}

	grass, _ := c.Blocks.ByName("grass")
	if c.Blocks.Texture(grass, world.FaceTop) == c.Blocks.Texture(grass, world.FaceBack) {
		t.Error("grass top and side textures should differ")
	}

	desert, ok := c.Biomes.ByName("desert")
	if !ok {
		t.Fatal("default catalog missing desert biome")
	}
	sand, _ := c.Blocks.ByName("sand")
	if desert.Surface != sand || desert.MajorFlora != FloraCactus {
		t.Errorf("desert = surface %d flora %q", desert.Surface, desert.MajorFlora)
	}
	if len(desert.Lodes) == 0 {
		t.Fatal("desert has no lodes")
	}
	coal, _ := c.Blocks.ByName("coal_ore")
	found := false
	for _, l := range desert.Lodes {
		if l.Name == "coal" && l.Block == coal {
			found = true
		}
	}
	if !found {
		t.Error("coal lode not resolved to coal_ore id")
	}
}

func TestUnknownIDsTreatedAsAir(t *testing.T) {
	c := Default()
	if c.Blocks.Solid(250) {
		t.Error("unknown id should not be solid")
	}
	if !c.Blocks.RenderNeighborFaces(250) {
		t.Error("unknown id should render neighbor faces")
	}
}

const smallCatalog = `
blocks:
  - name: air
    render_neighbor_faces: true
  - name: bedrock
    solid: true
    opacity: 15
    textures: {back: 1, front: 1, top: 1, bottom: 1, left: 1, right: 1}
  - name: stone
    solid: true
    opacity: 15
  - name: rock
    solid: true
    opacity: 15
biomes:
  - name: barren
    scale: 0.1
    terrain_height: 5
    terrain_scale: 0.2
    surface_block: rock
    subsurface_block: stone
    lodes:
      - name: deep
        block: bedrock
        min_height: 1
        max_height: 3
        scale: 0.5
        threshold: 0.9
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(smallCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Blocks.Len() != 4 {
		t.Errorf("blocks = %d, want 4", c.Blocks.Len())
	}
	b := c.Biomes.At(0)
	if b.Surface != 3 || b.SubSurface != 2 {
		t.Errorf("surface/subsurface = %d/%d, want 3/2", b.Surface, b.SubSurface)
	}
	if b.Lodes[0].Block != 1 || !b.Lodes[0].Contains(3) || b.Lodes[0].Contains(4) {
		t.Errorf("lode = %+v", b.Lodes[0])
	}
	if got := c.Blocks.Texture(1, world.FaceLeft); got != 1 {
		t.Errorf("bedrock left texture = %d, want 1", got)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Biomes.Len() != Default().Biomes.Len() {
		t.Errorf("biomes = %d, want %d", c.Biomes.Len(), Default().Biomes.Len())
	}
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name   string
		blocks []BlockType
		biomes []Biome
		want   error
	}{
		{"no blocks", nil, DefaultBiomes(), ErrNoBlocks},
		{"no biomes", DefaultBlocks(), nil, ErrNoBiomes},
		{
			"unknown surface",
			DefaultBlocks(),
			[]Biome{{Name: "x", SurfaceBlockName: "lava", SubSurfaceBlockName: "dirt"}},
			ErrUnknownBlock,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.blocks, tt.biomes)
			if !errors.Is(err, tt.want) {
				t.Errorf("New error = %v, want %v", err, tt.want)
			}
		})
	}

	bad := DefaultBlocks()
	bad[0], bad[1] = bad[1], bad[0]
	if _, err := New(bad, DefaultBiomes()); err == nil {
		t.Error("expected error when block 0 is not air")
	}

	inverted := DefaultBiomes()
	inverted[0].Lodes[0].MinHeight, inverted[0].Lodes[0].MaxHeight = 20, 10
	if _, err := New(DefaultBlocks(), inverted); err == nil {
		t.Error("expected error for inverted lode range")
	}

	twice := append(DefaultBiomes(), DefaultBiomes()[0])
	if _, err := New(DefaultBlocks(), twice); err == nil {
		t.Error("expected error for duplicate biome name")
	}
}
