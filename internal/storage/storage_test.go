package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testDims = world.Dimensions{ChunkWidth: 4, ChunkHeight: 8, SizeInChunks: 0}

func openAll(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()
	out := map[string]Backend{}
	for _, name := range []string{BackendDisk, BackendSQLite, BackendMemory} {
		b, err := Open(name, filepath.Join(dir, name), "", testLogger())
		if err != nil {
			t.Fatalf("Open(%s): %v", name, err)
		}
		t.Cleanup(func() { b.Close() })
		out[name] = b
	}
	return out
}

func TestChunkRoundTrip(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			coord := world.ChunkCoord{X: -3, Z: 7}
			c := world.NewChunkData(coord, testDims)
			c.Fill(func(x, y, z int) uint8 { return uint8((x*3 + y*5 + z) % 7) })
			c.SetLight(1, 1, 1, 12)

			if err := b.SaveChunk("alpha", c); err != nil {
				t.Fatalf("SaveChunk: %v", err)
			}
			got, err := b.LoadChunk("alpha", coord, testDims)
			if err != nil {
				t.Fatalf("LoadChunk: %v", err)
			}
			if got == nil {
				t.Fatal("LoadChunk returned nil for saved chunk")
			}
			if got.Coord != coord {
				t.Errorf("coord = %v, want %v", got.Coord, coord)
			}
			want := c.IDs()
			have := got.IDs()
			for i := range want {
				if want[i] != have[i] {
					t.Fatalf("block %d = %d, want %d", i, have[i], want[i])
				}
			}
			if got.Light(1, 1, 1) != 0 || got.Lit() {
				t.Error("light must not be persisted")
			}
			if !got.Populated() {
				t.Error("loaded chunk should be populated")
			}

			// Overwrite.
			c.SetID(0, 0, 0, 6)
			if err := b.SaveChunk("alpha", c); err != nil {
				t.Fatalf("SaveChunk overwrite: %v", err)
			}
			got, _ = b.LoadChunk("alpha", coord, testDims)
			if got.ID(0, 0, 0) != 6 {
				t.Errorf("overwritten block = %d, want 6", got.ID(0, 0, 0))
			}
		})
	}
}

func TestChunkCount(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			if n, err := b.ChunkCount("alpha"); err != nil || n != 0 {
				t.Fatalf("ChunkCount on empty world = %d, %v", n, err)
			}
			for x := range 3 {
				if err := b.SaveChunk("alpha", world.NewChunkData(world.ChunkCoord{X: x}, testDims)); err != nil {
					t.Fatal(err)
				}
			}
			// Overwrites and other worlds do not count.
			if err := b.SaveChunk("alpha", world.NewChunkData(world.ChunkCoord{}, testDims)); err != nil {
				t.Fatal(err)
			}
			if err := b.SaveChunk("beta", world.NewChunkData(world.ChunkCoord{}, testDims)); err != nil {
				t.Fatal(err)
			}
			if n, err := b.ChunkCount("alpha"); err != nil || n != 3 {
				t.Errorf("ChunkCount = %d, %v, want 3", n, err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			c, err := b.LoadChunk("alpha", world.ChunkCoord{X: 1, Z: 1}, testDims)
			if err != nil || c != nil {
				t.Errorf("LoadChunk missing = %v, %v; want nil, nil", c, err)
			}
			m, err := b.LoadWorld("alpha")
			if err != nil || m != nil {
				t.Errorf("LoadWorld missing = %v, %v; want nil, nil", m, err)
			}
		})
	}
}

func TestWorldsAreSeparate(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			c := world.NewChunkData(world.ChunkCoord{}, testDims)
			c.Fill(func(int, int, int) uint8 { return 1 })
			if err := b.SaveChunk("alpha", c); err != nil {
				t.Fatal(err)
			}
			got, err := b.LoadChunk("beta", world.ChunkCoord{}, testDims)
			if err != nil || got != nil {
				t.Errorf("chunk leaked across worlds: %v, %v", got, err)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			meta := world.NewMetadata("alpha", 987654321)
			if err := b.SaveWorld(meta); err != nil {
				t.Fatalf("SaveWorld: %v", err)
			}
			got, err := b.LoadWorld("alpha")
			if err != nil {
				t.Fatalf("LoadWorld: %v", err)
			}
			if got.ID != meta.ID || got.Seed != meta.Seed || got.Name != meta.Name {
				t.Errorf("LoadWorld = %+v, want %+v", got, meta)
			}
			if !got.CreatedAt.Equal(meta.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, meta.CreatedAt)
			}
		})
	}
}

func TestDimensionMismatch(t *testing.T) {
	for name, b := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			c := world.NewChunkData(world.ChunkCoord{}, testDims)
			c.Fill(func(int, int, int) uint8 { return 2 })
			if err := b.SaveChunk("alpha", c); err != nil {
				t.Fatal(err)
			}
			other := world.Dimensions{ChunkWidth: 4, ChunkHeight: 16}
			if _, err := b.LoadChunk("alpha", world.ChunkCoord{}, other); err == nil {
				t.Error("expected error loading chunk into different dimensions")
			}
		})
	}
}

func TestDiskCorruptChunk(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	coord := world.ChunkCoord{X: 2, Z: 2}
	path := d.chunkPath("alpha", coord)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.LoadChunk("alpha", coord, testDims); err == nil {
		t.Error("expected error for corrupt chunk file")
	}
}

func TestDiskRejectsPathNames(t *testing.T) {
	d, err := NewDisk(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if err := d.SaveWorld(&world.Metadata{Name: name}); err == nil {
			t.Errorf("SaveWorld(%q) succeeded", name)
		}
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("tape", t.TempDir(), "", testLogger()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
