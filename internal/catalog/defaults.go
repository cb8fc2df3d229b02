package catalog

func same(i int) Faces { return Faces{i, i, i, i, i, i} }

func column(side, top, bottom int) Faces {
	return Faces{Back: side, Front: side, Top: top, Bottom: bottom, Left: side, Right: side}
}

// DefaultBlocks returns the built-in block table.
func DefaultBlocks() []BlockType {
	return []BlockType{
		{Name: "air", Opacity: 0, RenderNeighborFaces: true},
		{Name: "bedrock", Solid: true, Opacity: 15, Textures: same(9)},
		{Name: "stone", Solid: true, Opacity: 15, Textures: same(0)},
		{Name: "grass", Solid: true, Opacity: 15, Textures: column(2, 7, 1)},
		{Name: "furnace", Solid: true, Opacity: 15, Textures: Faces{Back: 12, Front: 11, Top: 13, Bottom: 13, Left: 12, Right: 12}},
		{Name: "sand", Solid: true, Opacity: 15, Textures: same(10)},
		{Name: "dirt", Solid: true, Opacity: 15, Textures: same(1)},
		{Name: "wood", Solid: true, Opacity: 15, Textures: column(5, 6, 6)},
		{Name: "leaves", Solid: true, Opacity: 3, RenderNeighborFaces: true, Textures: same(16)},
		{Name: "cactus", Solid: true, Opacity: 15, Textures: column(18, 19, 19)},
		{Name: "cactus_top", Solid: true, Opacity: 15, Textures: column(18, 17, 19)},
		{Name: "glass", Solid: true, Opacity: 0, RenderNeighborFaces: true, Textures: same(3)},
		{Name: "coal_ore", Solid: true, Opacity: 15, Textures: same(4)},
		{Name: "iron_ore", Solid: true, Opacity: 15, Textures: same(8)},
	}
}

func defaultLodes() []Lode {
	return []Lode{
		{Name: "dirt", BlockName: "dirt", MinHeight: 1, MaxHeight: 255, Scale: 0.1, Threshold: 0.5, NoiseOffset: 0},
		{Name: "caves", BlockName: "air", MinHeight: 5, MaxHeight: 60, Scale: 0.1, Threshold: 0.55, NoiseOffset: 43534},
		{Name: "coal", BlockName: "coal_ore", MinHeight: 5, MaxHeight: 60, Scale: 0.2, Threshold: 0.58, NoiseOffset: 200},
		{Name: "iron", BlockName: "iron_ore", MinHeight: 5, MaxHeight: 30, Scale: 0.2, Threshold: 0.6, NoiseOffset: 600},
	}
}

// DefaultBiomes returns the built-in biome table.
func DefaultBiomes() []Biome {
	return []Biome{
		{
			Name: "grasslands", Offset: 0, Scale: 0.1,
			TerrainHeight: 22, TerrainScale: 0.25,
			SurfaceBlockName: "grass", SubSurfaceBlockName: "dirt",
			PlaceMajorFlora: true, MajorFlora: FloraTree,
			ZoneScale: 1.3, ZoneThreshold: 0.6,
			PlacementScale: 15, PlacementThreshold: 0.8,
			MinHeight: 5, MaxHeight: 12,
			Lodes: defaultLodes(),
		},
		{
			Name: "desert", Offset: 1234, Scale: 0.05,
			TerrainHeight: 10, TerrainScale: 0.05,
			SurfaceBlockName: "sand", SubSurfaceBlockName: "sand",
			PlaceMajorFlora: true, MajorFlora: FloraCactus,
			ZoneScale: 1.05, ZoneThreshold: 0.6,
			PlacementScale: 15, PlacementThreshold: 0.8,
			MinHeight: 2, MaxHeight: 5,
			Lodes: defaultLodes(),
		},
		{
			Name: "forest", Offset: 5678, Scale: 0.08,
			TerrainHeight: 40, TerrainScale: 0.1,
			SurfaceBlockName: "grass", SubSurfaceBlockName: "dirt",
			PlaceMajorFlora: true, MajorFlora: FloraTree,
			ZoneScale: 1.3, ZoneThreshold: 0.4,
			PlacementScale: 15, PlacementThreshold: 0.7,
			MinHeight: 6, MaxHeight: 14,
			Lodes: defaultLodes(),
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultBlocks(), DefaultBiomes())
	if err != nil {
		panic("catalog: invalid defaults: " + err.Error())
	}
	return c
}
