package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadEmptyPathAndMissingFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if *cfg != *DefaultConfig() {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "engine.yaml", `
world_name: atlas
seed: 1234
noise: simplex
view_distance: 3
scheduler:
  mode: worker
  worker_interval: 25ms
storage:
  backend: sqlite
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorldName != "atlas" || cfg.Seed != 1234 || cfg.Noise != "simplex" {
		t.Errorf("world settings = %q %d %q", cfg.WorldName, cfg.Seed, cfg.Noise)
	}
	if cfg.Scheduler.Mode != ModeWorker || cfg.Scheduler.WorkerInterval != 25*time.Millisecond {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	def := DefaultConfig()
	if cfg.ChunkWidth != def.ChunkWidth || cfg.LoadDistance != def.LoadDistance || cfg.Storage.Dir != def.Storage.Dir {
		t.Error("fields missing from the file should keep their defaults")
	}
	if cfg.Scheduler.MaxUpdatesPerTick != def.Scheduler.MaxUpdatesPerTick {
		t.Error("nested fields missing from the file should keep their defaults")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "engine.json", `{"world_name": "json", "chunk_height": 64, "solid_ground_height": 20}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorldName != "json" || cfg.ChunkHeight != 64 || cfg.SolidGroundHeight != 20 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeFile(t, "bad.yaml", "view_distanse: 4\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestMergeRespectsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorldName = "from-flag"
	cfg.ViewDistance = 2

	fromFile := DefaultConfig()
	fromFile.WorldName = "from-file"
	fromFile.ViewDistance = 7
	fromFile.Seed = 99
	fromFile.ChunkWidth = 32
	fromFile.Generator = gen.TypeFlat

	Merge(cfg, fromFile, map[string]bool{"world": true, "view-distance": true})

	if cfg.WorldName != "from-flag" || cfg.ViewDistance != 2 {
		t.Errorf("explicit flags overwritten: %q %d", cfg.WorldName, cfg.ViewDistance)
	}
	if cfg.Seed != 99 || cfg.ChunkWidth != 32 || cfg.Generator != gen.TypeFlat {
		t.Errorf("file values not applied: seed %d width %d generator %q", cfg.Seed, cfg.ChunkWidth, cfg.Generator)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(c *Config)
		substr string
	}{
		{"no world", func(c *Config) { c.WorldName = "" }, "world_name"},
		{"bad noise", func(c *Config) { c.Noise = "value" }, "noise"},
		{"bad generator", func(c *Config) { c.Generator = "amplified" }, "generator"},
		{"zero width", func(c *Config) { c.ChunkWidth = 0 }, "chunk_width"},
		{"ground too high", func(c *Config) { c.SolidGroundHeight = c.ChunkHeight }, "solid_ground_height"},
		{"view beyond load", func(c *Config) { c.ViewDistance = c.LoadDistance + 1 }, "load_distance"},
		{"bad mode", func(c *Config) { c.Scheduler.Mode = "async" }, "scheduler mode"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage backend"},
		{"disk without dir", func(c *Config) { c.Storage.Dir = "" }, "storage dir"},
		{"zero interval", func(c *Config) { c.Scheduler.WorkerInterval = 0 }, "worker_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestMemoryBackendNeedsNoDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Dir = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorldSizeInChunks = 0

	if d := cfg.Dimensions(); d.ChunkWidth != cfg.ChunkWidth || d.SizeInChunks != 0 {
		t.Errorf("Dimensions = %+v", d)
	}
	if o := cfg.GenOptions(5); o.Seed != 5 || o.SolidGroundHeight != cfg.SolidGroundHeight || o.Type != gen.TypeDefault {
		t.Errorf("GenOptions = %+v", o)
	}
	if o := cfg.StreamOptions(); o.ViewDistance != cfg.ViewDistance || o.Interval != cfg.Scheduler.WorkerInterval {
		t.Errorf("StreamOptions = %+v", o)
	}
}
