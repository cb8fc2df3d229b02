package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// SQLite stores every world in a single database file. Block grids are
// zstd-compressed blobs.
type SQLite struct {
	db    *sql.DB
	log   *slog.Logger
	codec *codec
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, log *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	c, err := newCodec()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("opened sqlite storage", "path", path)
	return &SQLite{db: db, log: log, codec: c}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS worlds (
			name TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			world TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			blocks BLOB NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (world, x, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if err := s.codec.close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

func (s *SQLite) SaveWorld(meta *world.Metadata) error {
	_, err := s.db.Exec(`INSERT INTO worlds (name, id, seed, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET id=excluded.id, seed=excluded.seed, created_at=excluded.created_at`,
		meta.Name, meta.ID.String(), meta.Seed, meta.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save world %s: %w", meta.Name, err)
	}
	return nil
}

func (s *SQLite) LoadWorld(name string) (*world.Metadata, error) {
	var id, created string
	meta := world.Metadata{Name: name}
	err := s.db.QueryRow(`SELECT id, seed, created_at FROM worlds WHERE name=?`, name).
		Scan(&id, &meta.Seed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	if meta.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("world %s id: %w", name, err)
	}
	if meta.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("world %s created_at: %w", name, err)
	}
	return &meta, nil
}

func (s *SQLite) SaveChunk(name string, c *world.ChunkData) error {
	rec := newChunkRecord(c)
	_, err := s.db.Exec(`INSERT INTO chunks (world, x, z, width, height, blocks, saved_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(world, x, z) DO UPDATE SET width=excluded.width, height=excluded.height, blocks=excluded.blocks, saved_at=excluded.saved_at`,
		name, rec.X, rec.Z, rec.Width, rec.Height, s.codec.compress(rec.Blocks), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", c.Coord, err)
	}
	return nil
}

func (s *SQLite) LoadChunk(name string, coord world.ChunkCoord, dims world.Dimensions) (*world.ChunkData, error) {
	rec := chunkRecord{X: coord.X, Z: coord.Z}
	var packed []byte
	err := s.db.QueryRow(`SELECT width, height, blocks FROM chunks WHERE world=? AND x=? AND z=?`, name, coord.X, coord.Z).
		Scan(&rec.Width, &rec.Height, &packed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %s: %w", coord, err)
	}
	if rec.Blocks, err = s.codec.decompress(packed); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", coord, err)
	}
	return rec.chunk(dims)
}

// ChunkCount returns how many chunks are stored for a world.
func (s *SQLite) ChunkCount(name string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks WHERE world=?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
