package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxelworld/internal/catalog"
)

func main() {
	var (
		src  = flag.String("src", "", "go-getter source of a catalog directory, e.g. git::https://example.com/repo.git//catalogs/default")
		out  = flag.String("o", "./catalog", "output dir path")
		file = flag.String("file", "catalog.yaml", "catalog file inside the downloaded directory")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *src == "" {
		log.Error("source required")
		os.Exit(2)
	}
	if *out == "" {
		log.Error("output dir path required")
		os.Exit(2)
	}

	if err := os.RemoveAll(*out); err != nil {
		log.Error("clean output dir", "path", *out, "error", err)
		os.Exit(1)
	}

	log.Info("downloading catalog", "src", *src, "dst", *out)
	if err := get.Get(*out, *src); err != nil {
		log.Error("download catalog", "error", err)
		os.Exit(1)
	}

	path := filepath.Join(*out, *file)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn("downloaded directory has no catalog file", "path", path)
		return
	}
	cat, err := catalog.Load(path)
	if err != nil {
		log.Error("invalid catalog", "path", path, "error", err)
		os.Exit(1)
	}
	log.Info("catalog ready", "path", path, "blocks", cat.Blocks.Len(), "biomes", cat.Biomes.Len())
}
