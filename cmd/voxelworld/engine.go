package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
	"github.com/OCharnyshevich/voxelworld/internal/config"
	"github.com/OCharnyshevich/voxelworld/internal/storage"
	"github.com/OCharnyshevich/voxelworld/internal/stream"
	"github.com/OCharnyshevich/voxelworld/internal/world"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
	"github.com/OCharnyshevich/voxelworld/internal/world/mesh"
	"github.com/OCharnyshevich/voxelworld/internal/world/store"
)

const (
	frameInterval = 16 * time.Millisecond
	statsEvery    = 300
	// The viewer circles the spawn point at this radius, in chunks.
	orbitChunks = 3
	orbitPeriod = 20 * time.Second
)

type runOptions struct {
	frames      int
	editEvery   int
	dumpCatalog string
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, log *slog.Logger) error {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	log.Info("catalog loaded", "blocks", cat.Blocks.Len(), "biomes", cat.Biomes.Len())
	if opts.dumpCatalog != "" {
		data, err := cat.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.dumpCatalog, data, 0o644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
	}

	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.SQLitePath, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	meta, err := store.LoadOrCreateMetadata(log, backend, cfg.WorldName, cfg.Seed)
	if err != nil {
		return err
	}
	g, err := gen.New(cfg.Dimensions(), cat, cfg.GenOptions(meta.Seed))
	if err != nil {
		return err
	}
	st := store.New(log, meta.Name, g, cat.Blocks, backend)
	r := &logRenderer{log: log}
	sched := stream.New(log, st, mesh.New(st, cat.Blocks, cfg.AtlasSizeInBlocks), r, cfg.StreamOptions())

	if cfg.Scheduler.Mode == config.ModeWorker {
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	spawn := st.Spawn()
	so := sched.Options()
	log.Info("world ready",
		"world", meta.Name,
		"id", meta.ID,
		"seed", meta.Seed,
		"generator", cfg.Generator,
		"spawn", spawn,
		"biome", g.BiomeAt(spawn.X, spawn.Z).Name,
		"mode", cfg.Scheduler.Mode,
		"view_distance", so.ViewDistance,
		"load_distance", so.LoadDistance,
	)

	loopErr := walk(ctx, sched, st, cat, spawn, cfg.ChunkWidth, opts, log)

	if err := sched.Stop(); err != nil {
		log.Error("stop scheduler", "error", err)
	}
	// Save on a fresh context: ctx is usually cancelled by now.
	saveErr := st.SaveModified(context.Background())
	stored, err := backend.ChunkCount(meta.Name)
	if err != nil {
		log.Warn("count stored chunks", "error", err)
	}

	s := st.Stats()
	log.Info("shutdown complete",
		"resident", s.Resident,
		"generated", humanize.Comma(s.Generated),
		"loaded", humanize.Comma(s.Loaded),
		"saved", humanize.Comma(s.Saved),
		"evicted", humanize.Comma(s.Evicted),
		"stored", humanize.Comma(int64(stored)),
		"uploads", humanize.Comma(r.uploads),
		"quads", humanize.Comma(r.quads),
	)
	return errors.Join(loopErr, saveErr)
}

// walk moves the viewer on a circle around spawn, one step per frame.
func walk(ctx context.Context, sched *stream.Scheduler, st *store.Store, cat *catalog.Catalog,
	spawn world.BlockPos, chunkWidth int, opts runOptions, log *slog.Logger) error {
	glass, err := cat.Blocks.MustID("glass")
	if err != nil {
		opts.editEvery = 0
	}

	center := mgl32.Vec3{float32(spawn.X) + 0.5, float32(spawn.Y), float32(spawn.Z) + 0.5}
	radius := float32(orbitChunks * chunkWidth)
	step := 2 * math.Pi * float64(frameInterval) / float64(orbitPeriod)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for frame := 0; opts.frames == 0 || frame < opts.frames; frame++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		angle := step * float64(frame)
		viewer := center.Add(mgl32.Vec3{
			radius * float32(math.Cos(angle)),
			0,
			radius * float32(math.Sin(angle)),
		})
		sched.SetViewer(viewer)

		if err := sched.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if opts.editEvery > 0 && frame > 0 && frame%opts.editEvery == 0 {
			pos := world.BlockPos{
				X: int(math.Floor(float64(viewer.X()))),
				Y: st.Dimensions().ChunkHeight - 1,
				Z: int(math.Floor(float64(viewer.Z()))),
			}
			for pos.Y > 0 && !st.IsSolid(pos.Add(world.BlockPos{Y: -1})) {
				pos.Y--
			}
			if _, err := sched.SetVoxel(ctx, pos, glass); err != nil && ctx.Err() == nil {
				log.Warn("place block", "pos", pos, "error", err)
			}
		}

		if frame%statsEvery == 0 {
			s := sched.Stats()
			at, _ := sched.Viewer()
			log.Info("streaming",
				"frame", frame,
				"viewer", at,
				"active", s.Active,
				"inactive", s.Inactive,
				"creating", s.Creating,
				"updating", s.Updating,
				"mods", s.Mods,
				"ready", s.Ready,
			)
		}
	}
	return nil
}

// logRenderer stands in for a GPU renderer and counts what it receives.
type logRenderer struct {
	log     *slog.Logger
	uploads int64
	quads   int64
}

func (r *logRenderer) Upload(m *mesh.Mesh) {
	r.uploads++
	r.quads += int64(m.Quads())
	r.log.Debug("mesh uploaded",
		"coord", m.Coord,
		"quads", m.Quads(),
		"transparent_triangles", len(m.TransparentTriangles)/3,
		"bytes", humanize.Bytes(meshBytes(m)),
	)
}

func (r *logRenderer) SetVisible(coord world.ChunkCoord, visible bool) {
	r.log.Debug("chunk visibility", "coord", coord, "visible", visible)
}

func (r *logRenderer) Release(coord world.ChunkCoord) {
	r.log.Debug("chunk released", "coord", coord)
}

func meshBytes(m *mesh.Mesh) uint64 {
	n := len(m.Vertices)*12 + len(m.Normals)*12 + len(m.UVs)*8 + len(m.Colors)*16 +
		(len(m.Triangles)+len(m.TransparentTriangles))*4
	return uint64(n)
}
