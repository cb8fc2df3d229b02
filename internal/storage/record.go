// Package storage persists world metadata and chunk voxel grids. Light and
// mesh data are never stored; they are recomputed after load.
package storage

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// chunkRecord is the persisted form of a chunk.
type chunkRecord struct {
	X      int    `json:"x"`
	Z      int    `json:"z"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Blocks []byte `json:"blocks"`
}

func newChunkRecord(c *world.ChunkData) chunkRecord {
	d := c.Dims()
	return chunkRecord{
		X:      c.Coord.X,
		Z:      c.Coord.Z,
		Width:  d.ChunkWidth,
		Height: d.ChunkHeight,
		Blocks: c.IDs(),
	}
}

func (r chunkRecord) chunk(dims world.Dimensions) (*world.ChunkData, error) {
	if r.Width != dims.ChunkWidth || r.Height != dims.ChunkHeight {
		return nil, fmt.Errorf("chunk (%d,%d) saved as %dx%d, world is %dx%d",
			r.X, r.Z, r.Width, r.Height, dims.ChunkWidth, dims.ChunkHeight)
	}
	c := world.NewChunkData(world.ChunkCoord{X: r.X, Z: r.Z}, dims)
	if err := c.LoadIDs(r.Blocks); err != nil {
		return nil, err
	}
	return c, nil
}

func checkWorldName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid world name %q", name)
	}
	return nil
}

// codec compresses persisted payloads. EncodeAll and DecodeAll are safe for
// concurrent use.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) compress(data []byte) []byte { return c.enc.EncodeAll(data, nil) }

func (c *codec) decompress(data []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (c *codec) close() error {
	c.dec.Close()
	return c.enc.Close()
}
