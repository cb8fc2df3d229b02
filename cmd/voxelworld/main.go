package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/voxelworld/internal/config"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		configPath string
		debug      bool
		opts       runOptions
	)
	flag.StringVar(&configPath, "config", "", "YAML or JSON config file")
	flag.StringVar(&cfg.WorldName, "world", cfg.WorldName, "world name")
	flag.StringVar(&cfg.Generator, "generator", cfg.Generator, "terrain generator (default or flat)")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for new worlds")
	flag.StringVar(&cfg.Noise, "noise", cfg.Noise, "noise backend (perlin or simplex)")
	flag.IntVar(&cfg.ViewDistance, "view-distance", cfg.ViewDistance, "active chunk radius around the viewer")
	flag.IntVar(&cfg.LoadDistance, "load-distance", cfg.LoadDistance, "resident chunk radius around the viewer")
	flag.StringVar(&cfg.Scheduler.Mode, "mode", cfg.Scheduler.Mode, "scheduler mode (cooperative or worker)")
	flag.StringVar(&cfg.Storage.Backend, "storage", cfg.Storage.Backend, "storage backend (disk, sqlite or memory)")
	flag.StringVar(&cfg.Storage.Dir, "data", cfg.Storage.Dir, "data directory")
	flag.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "block and biome catalog file")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.IntVar(&opts.frames, "frames", 0, "stop after this many frames (0 runs until interrupted)")
	flag.IntVar(&opts.editEvery, "edit-every", 120, "place a block under the viewer every n frames (0 disables)")
	flag.StringVar(&opts.dumpCatalog, "dump-catalog", "", "write the effective catalog to this file")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if configPath != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

		fromFile, err := config.Load(configPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
		config.Merge(cfg, fromFile, explicit)
		log.Info("loaded config from file", "path", configPath)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("engine error", "error", err)
		os.Exit(1)
	}
}
