package gen

import (
	"reflect"
	"testing"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/world"
)

func testDims() world.Dimensions {
	return world.Dimensions{ChunkWidth: 16, ChunkHeight: 128, SizeInChunks: 4}
}

func newTestGenerator(t *testing.T, seed int64) *Generator {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = seed
	g, err := New(testDims(), catalog.Default(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

// singleBiome builds a catalog with one biome derived from the defaults.
func singleBiome(t *testing.T, edit func(b *catalog.Biome)) *catalog.Catalog {
	t.Helper()
	b := catalog.DefaultBiomes()[0]
	b.Lodes = nil
	b.PlaceMajorFlora = false
	edit(&b)
	c, err := catalog.New(catalog.DefaultBlocks(), []catalog.Biome{b})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func blockID(t *testing.T, c *catalog.Catalog, name string) uint8 {
	t.Helper()
	id, ok := c.Blocks.ByName(name)
	if !ok {
		t.Fatalf("no block %q", name)
	}
	return id
}

func TestGeneratorDeterministic(t *testing.T) {
	g1 := newTestGenerator(t, 42)
	g2 := newTestGenerator(t, 42)

	for x := 0; x < 64; x += 3 {
		for z := 0; z < 64; z += 5 {
			for y := 0; y < 128; y += 7 {
				p := world.BlockPos{X: x, Y: y, Z: z}
				id1, m1 := g1.Generate(p)
				id2, m2 := g2.Generate(p)
				id3, m3 := g1.Generate(p)
				if id1 != id2 || id1 != id3 {
					t.Fatalf("Generate(%v) = %d, %d, %d", p, id1, id2, id3)
				}
				if !reflect.DeepEqual(m1, m2) || !reflect.DeepEqual(m1, m3) {
					t.Fatalf("Generate(%v) mods differ", p)
				}
			}
		}
	}
}

func TestGeneratorDifferentSeeds(t *testing.T) {
	g1 := newTestGenerator(t, 1)
	g2 := newTestGenerator(t, 2)

	for x := 0; x < 64; x++ {
		if g1.SurfaceHeight(x, x*2) != g2.SurfaceHeight(x, x*2) {
			return
		}
	}
	t.Error("different seeds should produce different terrain")
}

func TestGeneratorBedrockAtY0(t *testing.T) {
	g := newTestGenerator(t, 12345)
	bedrock := blockID(t, catalog.Default(), "bedrock")

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			if id, _ := g.Generate(world.BlockPos{X: x, Z: z}); id != bedrock {
				t.Errorf("block at (%d,0,%d) = %d, want %d (bedrock)", x, z, id, bedrock)
			}
		}
	}
}

func TestGeneratorOutsideWorldIsAir(t *testing.T) {
	g := newTestGenerator(t, 7)

	for _, p := range []world.BlockPos{
		{X: -1, Y: 10, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 0, Y: 128, Z: 0},
		{X: 64, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 64},
	} {
		id, mods := g.Generate(p)
		if id != world.Air || mods != nil {
			t.Errorf("Generate(%v) = %d, %v; want air, nil", p, id, mods)
		}
	}
}

func TestBiomeAtPicksSurfaceBlock(t *testing.T) {
	g := newTestGenerator(t, 7)
	top := testDims().ChunkHeight - 1

	seen := map[string]bool{}
	for x := 0; x < 64; x += 3 {
		for z := 0; z < 64; z += 3 {
			b := g.BiomeAt(x, z)
			seen[b.Name] = true
			h := g.SurfaceHeight(x, z)
			if h <= 0 || h >= top {
				continue
			}
			if id, _ := g.Generate(world.BlockPos{X: x, Y: h, Z: z}); id != b.Surface {
				t.Fatalf("surface at (%d,%d) = %d, want %q surface %d", x, z, id, b.Name, b.Surface)
			}
		}
	}
	if len(seen) == 0 {
		t.Fatal("no biome selected")
	}
}

func TestGeneratorColumnLayers(t *testing.T) {
	cat := singleBiome(t, func(b *catalog.Biome) { b.TerrainHeight = 0 })
	g, err := New(testDims(), cat, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	grass := blockID(t, cat, "grass")
	dirt := blockID(t, cat, "dirt")
	stone := blockID(t, cat, "stone")

	tests := []struct {
		y    int
		want uint8
	}{
		{43, world.Air},
		{42, grass},
		{41, dirt},
		{39, dirt},
		{38, stone},
		{1, stone},
	}
	for _, tt := range tests {
		if got, _ := g.Generate(world.BlockPos{X: 5, Y: tt.y, Z: 9}); got != tt.want {
			t.Errorf("y=%d: got %d, want %d", tt.y, got, tt.want)
		}
	}
	if h := g.SurfaceHeight(5, 9); h != 42 {
		t.Errorf("SurfaceHeight = %d, want 42", h)
	}
}

func TestLodeGatedByHeight(t *testing.T) {
	for _, threshold := range []float64{0.99, -1} {
		cat := singleBiome(t, func(b *catalog.Biome) {
			b.TerrainHeight = 0
			b.Lodes = []catalog.Lode{{
				Name: "vein", BlockName: "coal_ore",
				MinHeight: 10, MaxHeight: 20,
				Scale: 0.5, Threshold: threshold,
			}}
		})
		g, err := New(testDims(), cat, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		stone := blockID(t, cat, "stone")
		coal := blockID(t, cat, "coal_ore")

		for x := 0; x < 16; x++ {
			for z := 0; z < 16; z++ {
				for y := 1; y <= 38; y++ {
					id, _ := g.Generate(world.BlockPos{X: x, Y: y, Z: z})
					inRange := y >= 10 && y <= 20
					if !inRange && id != stone {
						t.Fatalf("threshold %v: (%d,%d,%d) = %d outside lode range, want stone", threshold, x, y, z, id)
					}
					if threshold < 0 && inRange && id != coal {
						t.Fatalf("(%d,%d,%d) = %d inside range with threshold -1, want coal", x, y, z, id)
					}
				}
			}
		}
	}
}

func floraCatalog(t *testing.T, kind catalog.FloraKind) *catalog.Catalog {
	return singleBiome(t, func(b *catalog.Biome) {
		b.TerrainHeight = 0
		b.PlaceMajorFlora = true
		b.MajorFlora = kind
		b.ZoneThreshold = -1
		b.PlacementThreshold = -1
		b.MinHeight = 4
		b.MaxHeight = 8
	})
}

func TestTreePlacementDeterministic(t *testing.T) {
	cat := floraCatalog(t, catalog.FloraTree)
	opts := DefaultOptions()
	opts.Seed = 99
	g1, _ := New(testDims(), cat, opts)
	g2, _ := New(testDims(), cat, opts)

	surface := world.BlockPos{X: 20, Y: 42, Z: 30}
	id, mods := g1.Generate(surface)
	if id != blockID(t, cat, "grass") {
		t.Fatalf("surface id = %d, want grass", id)
	}
	if len(mods) == 0 {
		t.Fatal("expected tree mods at surface voxel")
	}
	for range 3 {
		_, again := g1.Generate(surface)
		if !reflect.DeepEqual(mods, again) {
			t.Fatal("tree mods differ across calls")
		}
	}
	if _, other := g2.Generate(surface); !reflect.DeepEqual(mods, other) {
		t.Fatal("tree mods differ across generators with the same seed")
	}

	wood := blockID(t, cat, "wood")
	leaves := blockID(t, cat, "leaves")
	if mods[0].ID != wood || mods[0].Pos != (world.BlockPos{X: 20, Y: 43, Z: 30}) {
		t.Errorf("first mod = %+v, want wood directly above surface", mods[0])
	}
	trunk := 0
	for _, m := range mods {
		switch m.ID {
		case wood:
			trunk++
		case leaves:
		default:
			t.Fatalf("unexpected block %d in tree", m.ID)
		}
	}
	if h := trunk + 1; h < 4 || h > 8 {
		t.Errorf("trunk height %d outside [4,8]", h)
	}
	if want := trunk + 7*7*7; len(mods) != want {
		t.Errorf("tree has %d mods, want %d", len(mods), want)
	}

	if _, below := g1.Generate(world.BlockPos{X: 20, Y: 41, Z: 30}); below != nil {
		t.Error("only the surface voxel should place flora")
	}
}

func TestCactusShape(t *testing.T) {
	cat := floraCatalog(t, catalog.FloraCactus)
	g, err := New(testDims(), cat, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	_, mods := g.Generate(world.BlockPos{X: 3, Y: 42, Z: 3})
	if len(mods) < 4 {
		t.Fatalf("cactus has %d mods, want at least 4", len(mods))
	}
	cactus := blockID(t, cat, "cactus")
	top := blockID(t, cat, "cactus_top")
	for i, m := range mods {
		if m.Pos.X != 3 || m.Pos.Z != 3 || m.Pos.Y != 43+i {
			t.Errorf("mod %d at %v, want column above (3,42,3)", i, m.Pos)
		}
		want := cactus
		if i == len(mods)-1 {
			want = top
		}
		if m.ID != want {
			t.Errorf("mod %d id = %d, want %d", i, m.ID, want)
		}
	}
}

func TestFlatBedrockFloor(t *testing.T) {
	cat := singleBiome(t, func(b *catalog.Biome) { b.TerrainHeight = 0 })
	opts := DefaultOptions()
	opts.SolidGroundHeight = 0
	g, err := New(testDims(), cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	bedrock := blockID(t, cat, "bedrock")

	for x := 0; x < 64; x++ {
		for z := 0; z < 64; z++ {
			if id, _ := g.Generate(world.BlockPos{X: x, Z: z}); id != bedrock {
				t.Fatalf("(%d,0,%d) = %d, want bedrock", x, z, id)
			}
			if id, _ := g.Generate(world.BlockPos{X: x, Y: 1, Z: z}); id != world.Air {
				t.Fatalf("(%d,1,%d) = %d, want air", x, z, id)
			}
		}
	}
}

func TestFlatGenerator(t *testing.T) {
	cat := catalog.Default()
	opts := DefaultOptions()
	opts.Type = TypeFlat
	opts.SolidGroundHeight = 6
	g, err := New(testDims(), cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	plains := cat.Biomes.At(0)
	stone := blockID(t, cat, "stone")
	want := []uint8{
		blockID(t, cat, "bedrock"),
		stone,
		stone,
		plains.SubSurface,
		plains.SubSurface,
		plains.SubSurface,
		plains.Surface,
		world.Air,
	}

	for x := 0; x < 64; x += 5 {
		for z := 0; z < 64; z += 7 {
			for y, id := range want {
				got, mods := g.Generate(world.BlockPos{X: x, Y: y, Z: z})
				if got != id || len(mods) != 0 {
					t.Fatalf("(%d,%d,%d) = %d with %d mods, want %d", x, y, z, got, len(mods), id)
				}
			}
			if h := g.SurfaceHeight(x, z); h != 6 {
				t.Fatalf("surface height = %d, want 6", h)
			}
		}
	}

	opts.Type = "amplified"
	if _, err := New(testDims(), cat, opts); err == nil {
		t.Error("expected error for unknown generator type")
	}
}

func TestPopulateMatchesGenerate(t *testing.T) {
	g := newTestGenerator(t, 5)
	coord := world.ChunkCoord{X: 1, Z: 2}
	c := world.NewChunkData(coord, testDims())
	mods := g.Populate(c)

	if !c.Populated() {
		t.Fatal("chunk not marked populated")
	}
	var want []world.VoxelMod
	for y := 0; y < 128; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				id, m := g.Generate(c.WorldPos(x, y, z))
				if got := c.ID(x, y, z); got != id {
					t.Fatalf("local (%d,%d,%d) = %d, Generate = %d", x, y, z, got, id)
				}
				want = append(want, m...)
			}
		}
	}
	if !reflect.DeepEqual(mods, want) {
		t.Errorf("Populate returned %d mods, Generate %d", len(mods), len(want))
	}
}

func TestNewRequiresStructureBlocks(t *testing.T) {
	blocks := catalog.DefaultBlocks()
	var trimmed []catalog.BlockType
	for _, b := range blocks {
		if b.Name != "leaves" {
			trimmed = append(trimmed, b)
		}
	}
	cat, err := catalog.New(trimmed, catalog.DefaultBiomes())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(testDims(), cat, DefaultOptions()); err == nil {
		t.Error("expected error when tree biomes lack a leaves block")
	}
}
