package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// Disk stores each world under <dir>/<world>/ as world.json plus one
// zstd-compressed JSON file per chunk in chunks/.
type Disk struct {
	dir   string
	log   *slog.Logger
	codec *codec
}

// NewDisk creates a Disk rooted at dir, creating it as needed.
func NewDisk(dir string, log *slog.Logger) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	c, err := newCodec()
	if err != nil {
		return nil, err
	}
	return &Disk{dir: dir, log: log, codec: c}, nil
}

// Close releases the compressor.
func (d *Disk) Close() error { return d.codec.close() }

func (d *Disk) worldDir(name string) string { return filepath.Join(d.dir, name) }

func (d *Disk) chunkPath(name string, c world.ChunkCoord) string {
	return filepath.Join(d.dir, name, "chunks", fmt.Sprintf("%d_%d.chunk", c.X, c.Z))
}

// SaveWorld writes world.json atomically.
func (d *Disk) SaveWorld(meta *world.Metadata) error {
	if err := checkWorldName(meta.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(d.worldDir(meta.Name), "chunks"), 0o755); err != nil {
		return fmt.Errorf("create world directory: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal world: %w", err)
	}
	path := filepath.Join(d.worldDir(meta.Name), "world.json")
	if err := atomicWrite(path, append(data, '\n')); err != nil {
		return err
	}
	d.log.Info("saved world", "world", meta.Name, "path", path)
	return nil
}

// LoadWorld reads world.json, returning nil if the world was never saved.
func (d *Disk) LoadWorld(name string) (*world.Metadata, error) {
	if err := checkWorldName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.worldDir(name), "world.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read world %s: %w", name, err)
	}
	var meta world.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse world %s: %w", name, err)
	}
	return &meta, nil
}

// SaveChunk writes one chunk file atomically.
func (d *Disk) SaveChunk(name string, c *world.ChunkData) error {
	if err := checkWorldName(name); err != nil {
		return err
	}
	data, err := json.Marshal(newChunkRecord(c))
	if err != nil {
		return fmt.Errorf("marshal chunk %s: %w", c.Coord, err)
	}
	packed := d.codec.compress(data)

	path := d.chunkPath(name, c.Coord)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}
	if err := atomicWrite(path, packed); err != nil {
		return err
	}
	d.log.Debug("saved chunk", "world", name, "coord", c.Coord,
		"size", humanize.Bytes(uint64(len(packed))), "raw", humanize.Bytes(uint64(len(data))))
	return nil
}

// LoadChunk reads one chunk, returning nil if it was never saved.
func (d *Disk) LoadChunk(name string, coord world.ChunkCoord, dims world.Dimensions) (*world.ChunkData, error) {
	if err := checkWorldName(name); err != nil {
		return nil, err
	}
	packed, err := os.ReadFile(d.chunkPath(name, coord))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read chunk %s: %w", coord, err)
	}
	data, err := d.codec.decompress(packed)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", coord, err)
	}
	var rec chunkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse chunk %s: %w", coord, err)
	}
	if rec.X != coord.X || rec.Z != coord.Z {
		return nil, fmt.Errorf("chunk file %s holds chunk (%d,%d)", coord, rec.X, rec.Z)
	}
	return rec.chunk(dims)
}

// ChunkCount counts the chunk files of a world.
func (d *Disk) ChunkCount(name string) (int, error) {
	if err := checkWorldName(name); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(filepath.Join(d.worldDir(name), "chunks"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".chunk") {
			n++
		}
	}
	return n, nil
}

// atomicWrite writes data using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
