// loader snapshots the infrastructure datasets to a local cache
// directory. The server falls back to these files when a startup
// fetch fails, keeping the map usable offline.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/config"
	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/geo"
	"github.com/mirrorhq/infrascene/internal/logger"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string   `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to configuration file"       default:"config.yaml"`
	OutDir     string   `short:"o" long:"out"    env:"CACHE_DIR"   description:"Directory to write snapshots to"  default:"cache"`
	Limit      []string `short:"l" long:"limit"                    description:"Limit to specific categories"`
	Force      bool     `short:"f" long:"force"                    description:"Overwrite existing snapshots"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.DataAPI == "" {
		log.Fatal().Msg("data_api must be set in configuration")
	}

	cats := geo.Categories()
	if len(opts.Limit) > 0 {
		cats = cats[:0]
		seen := make(map[geo.Category]bool)
		for _, name := range opts.Limit {
			cat, ok := geo.ParseCategory(name)
			if !ok {
				log.Error().Str("name", name).Msg("Unknown category in --limit")
				continue
			}
			if !seen[cat] {
				seen[cat] = true
				cats = append(cats, cat)
			}
		}
	}

	client := &http.Client{Timeout: 15 * time.Second}
	ctx := context.Background()

	log.Info().
		Str("data_api", cfg.DataAPI).
		Str("out", opts.OutDir).
		Int("categories", len(cats)).
		Msg("Starting loader")

	failed := 0
	for _, cat := range cats {
		path := filepath.Join(opts.OutDir, dataset.Endpoint(cat)+".geojson")

		if _, err := os.Stat(path); err == nil && !opts.Force {
			log.Debug().Str("path", path).Msg("Snapshot exists, skipping")
			continue
		}

		fc, err := dataset.Fetch(ctx, client, cfg.DataAPI, cat)
		if err != nil {
			log.Error().Err(err).Str("category", string(cat)).Msg("Failed to fetch dataset")
			failed++
			continue
		}

		if err := saveGeoJSON(opts.OutDir, path, fc); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to write snapshot")
			failed++
			continue
		}

		log.Info().
			Str("category", string(cat)).
			Int("features", len(fc.Features)).
			Str("path", path).
			Msg("Snapshot written")
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Loader finished with errors")
	}
	log.Info().Msg("Loader finished successfully")
}

// saveGeoJSON marshals the feature collection and writes it to disk.
func saveGeoJSON(dir, path string, fc *geo.FeatureCollection) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	return json.NewEncoder(f).Encode(fc)
}
