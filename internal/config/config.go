package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OCharnyshevich/voxelworld/internal/storage"
	"github.com/OCharnyshevich/voxelworld/internal/stream"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
	"github.com/OCharnyshevich/voxelworld/internal/world/noise"
)

// Scheduler modes.
const (
	ModeCooperative = "cooperative"
	ModeWorker      = "worker"
)

// Config holds the engine configuration.
type Config struct {
	WorldName         string `yaml:"world_name"`
	Generator         string `yaml:"generator"` // "default" or "flat"
	Seed              int64  `yaml:"seed"`
	Noise             string `yaml:"noise"` // "perlin" or "simplex"
	ChunkWidth        int    `yaml:"chunk_width"`
	ChunkHeight       int    `yaml:"chunk_height"`
	WorldSizeInChunks int    `yaml:"world_size_in_chunks"` // 0 = unbounded
	SolidGroundHeight int    `yaml:"solid_ground_height"`
	AtlasSizeInBlocks int    `yaml:"atlas_size_in_blocks"`
	ViewDistance      int    `yaml:"view_distance"`
	LoadDistance      int    `yaml:"load_distance"`

	Scheduler Scheduler `yaml:"scheduler"`
	Storage   Storage   `yaml:"storage"`

	// CatalogPath points at a YAML block/biome catalog. Empty uses the
	// built-in catalog.
	CatalogPath string `yaml:"catalog_path"`
}

// Scheduler configures chunk streaming.
type Scheduler struct {
	Mode              string        `yaml:"mode"`
	MaxCreatesPerTick int           `yaml:"max_creates_per_tick"`
	MaxUpdatesPerTick int           `yaml:"max_updates_per_tick"`
	MaxModsPerTick    int           `yaml:"max_mods_per_tick"`
	WorkerInterval    time.Duration `yaml:"worker_interval"`
}

// Storage selects the persistence backend.
type Storage struct {
	Backend    string `yaml:"backend"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	dims := world.DefaultDimensions()
	so := stream.DefaultOptions()
	return &Config{
		WorldName:         "world",
		Generator:         gen.TypeDefault,
		Noise:             noise.BackendPerlin,
		ChunkWidth:        dims.ChunkWidth,
		ChunkHeight:       dims.ChunkHeight,
		WorldSizeInChunks: dims.SizeInChunks,
		SolidGroundHeight: gen.DefaultOptions().SolidGroundHeight,
		AtlasSizeInBlocks: 16,
		ViewDistance:      so.ViewDistance,
		LoadDistance:      so.LoadDistance,
		Scheduler: Scheduler{
			Mode:              ModeCooperative,
			MaxCreatesPerTick: so.MaxCreatesPerTick,
			MaxUpdatesPerTick: so.MaxUpdatesPerTick,
			MaxModsPerTick:    so.MaxModsPerTick,
			WorkerInterval:    so.Interval,
		},
		Storage: Storage{
			Backend: storage.BackendDisk,
			Dir:     "data",
		},
	}
}

// Load reads a YAML (or JSON) config file over the defaults. An empty path
// or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["world"] {
		cfg.WorldName = fromFile.WorldName
	}
	if !explicitFlags["generator"] {
		cfg.Generator = fromFile.Generator
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["noise"] {
		cfg.Noise = fromFile.Noise
	}
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["load-distance"] {
		cfg.LoadDistance = fromFile.LoadDistance
	}
	if !explicitFlags["mode"] {
		cfg.Scheduler.Mode = fromFile.Scheduler.Mode
	}
	if !explicitFlags["storage"] {
		cfg.Storage.Backend = fromFile.Storage.Backend
	}
	if !explicitFlags["data"] {
		cfg.Storage.Dir = fromFile.Storage.Dir
	}
	if !explicitFlags["catalog"] {
		cfg.CatalogPath = fromFile.CatalogPath
	}

	// No flags for these.
	cfg.ChunkWidth = fromFile.ChunkWidth
	cfg.ChunkHeight = fromFile.ChunkHeight
	cfg.WorldSizeInChunks = fromFile.WorldSizeInChunks
	cfg.SolidGroundHeight = fromFile.SolidGroundHeight
	cfg.AtlasSizeInBlocks = fromFile.AtlasSizeInBlocks
	cfg.Scheduler.MaxCreatesPerTick = fromFile.Scheduler.MaxCreatesPerTick
	cfg.Scheduler.MaxUpdatesPerTick = fromFile.Scheduler.MaxUpdatesPerTick
	cfg.Scheduler.MaxModsPerTick = fromFile.Scheduler.MaxModsPerTick
	cfg.Scheduler.WorkerInterval = fromFile.Scheduler.WorkerInterval
	cfg.Storage.SQLitePath = fromFile.Storage.SQLitePath
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.WorldName != "", "world_name is required")
	check(c.Generator == gen.TypeDefault || c.Generator == gen.TypeFlat, "unknown generator %q", c.Generator)
	check(c.Noise == noise.BackendPerlin || c.Noise == noise.BackendSimplex, "unknown noise %q", c.Noise)
	check(c.ChunkWidth > 0, "chunk_width must be positive, got %d", c.ChunkWidth)
	check(c.ChunkHeight > 0, "chunk_height must be positive, got %d", c.ChunkHeight)
	check(c.WorldSizeInChunks >= 0, "world_size_in_chunks must not be negative, got %d", c.WorldSizeInChunks)
	check(c.SolidGroundHeight >= 0 && c.SolidGroundHeight < c.ChunkHeight,
		"solid_ground_height %d outside [0,%d)", c.SolidGroundHeight, c.ChunkHeight)
	check(c.AtlasSizeInBlocks > 0, "atlas_size_in_blocks must be positive, got %d", c.AtlasSizeInBlocks)
	check(c.ViewDistance >= 0, "view_distance must not be negative, got %d", c.ViewDistance)
	check(c.LoadDistance >= c.ViewDistance, "load_distance %d is less than view_distance %d", c.LoadDistance, c.ViewDistance)
	check(c.Scheduler.Mode == ModeCooperative || c.Scheduler.Mode == ModeWorker, "unknown scheduler mode %q", c.Scheduler.Mode)
	check(c.Scheduler.MaxCreatesPerTick > 0, "max_creates_per_tick must be positive")
	check(c.Scheduler.MaxUpdatesPerTick > 0, "max_updates_per_tick must be positive")
	check(c.Scheduler.MaxModsPerTick > 0, "max_mods_per_tick must be positive")
	check(c.Scheduler.WorkerInterval > 0, "worker_interval must be positive")

	switch c.Storage.Backend {
	case storage.BackendDisk, storage.BackendSQLite:
		check(c.Storage.Dir != "", "storage dir is required for backend %q", c.Storage.Backend)
	case storage.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	return errors.Join(errs...)
}

// Dimensions returns the world extents.
func (c *Config) Dimensions() world.Dimensions {
	return world.Dimensions{
		ChunkWidth:   c.ChunkWidth,
		ChunkHeight:  c.ChunkHeight,
		SizeInChunks: c.WorldSizeInChunks,
	}
}

// GenOptions returns the generator settings. seed overrides the configured
// seed so a world keeps the seed it was created with.
func (c *Config) GenOptions(seed int64) gen.Options {
	return gen.Options{
		Type:              c.Generator,
		Seed:              seed,
		Noise:             c.Noise,
		SolidGroundHeight: c.SolidGroundHeight,
	}
}

// StreamOptions returns the scheduler settings.
func (c *Config) StreamOptions() stream.Options {
	return stream.Options{
		ViewDistance:      c.ViewDistance,
		LoadDistance:      c.LoadDistance,
		MaxCreatesPerTick: c.Scheduler.MaxCreatesPerTick,
		MaxUpdatesPerTick: c.Scheduler.MaxUpdatesPerTick,
		MaxModsPerTick:    c.Scheduler.MaxModsPerTick,
		Interval:          c.Scheduler.WorkerInterval,
	}
}
