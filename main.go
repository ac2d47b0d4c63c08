// SurgeRulesAutoBuild
// Converts v2fly domain-list-community sources into Surge rulesets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/app"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/builder"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/cache"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/config"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/converter"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/fetcher"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/geoip"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/server"
)

func main() {
	mode := flag.String("mode", "build", "Operating mode: build, fetch or serve")
	dataDir := flag.String("data", "", "Rule-set source directory (overrides DATA_DIR)")
	outDir := flag.String("out", "", "Output directory (overrides OUT_DIR)")
	port := flag.Int("port", 0, "HTTP port for serve mode (overrides SERVER_PORT)")
	fromArchive := flag.Bool("from-archive", false, "Build from the cached upstream archive instead of DATA_DIR")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Source.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := app.NewLogger(cfg.Log)

	switch *mode {
	case "build":
		err = runBuild(cfg, logger, *fromArchive)
	case "fetch":
		err = runFetch(cfg, logger)
	case "serve":
		err = runServe(cfg, logger)
	default:
		err = fmt.Errorf("unknown mode %q (want build, fetch or serve)", *mode)
	}
	if err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newArchiveCache(cfg *config.Config, logger *slog.Logger) *cache.ArchiveCache {
	archiveCache := cache.NewArchiveCache()
	if cfg.Source.ArchiveCachePath == "" {
		return archiveCache
	}
	archiveCache.SetPersistPath(cfg.Source.ArchiveCachePath)
	if err := archiveCache.LoadFromFile(cfg.Source.ArchiveCachePath); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to load archive cache", "path", cfg.Source.ArchiveCachePath, "error", err)
		}
	} else {
		logger.Info("loaded archive cache", "path", cfg.Source.ArchiveCachePath, "etag", archiveCache.ETag())
	}
	return archiveCache
}

func runBuild(cfg *config.Config, logger *slog.Logger, fromArchive bool) error {
	var source converter.Source
	if fromArchive {
		f := fetcher.New(cfg.Source.ArchiveURL, newArchiveCache(cfg, logger))
		reader, etag, err := f.Archive(context.Background())
		if err != nil {
			return fmt.Errorf("fetch archive: %w", err)
		}
		logger.Info("building from upstream archive", "etag", etag)
		source = converter.ZipSource{Reader: reader}
	} else {
		source = converter.DirSource{Dir: cfg.Source.DataDir}
	}

	opts := converter.Options{
		Wildcard: cfg.Output.EnableWildcard,
		Comments: cfg.Output.EnableComments,
	}
	header := builder.Header{
		CommitID:   cfg.Source.CommitID,
		SourceDate: cfg.Source.Date,
	}

	b := builder.New(source, cfg.Output.Dir, opts, header, logger)
	summary, err := b.Build()
	if err != nil {
		return err
	}

	if cfg.GeoIP.DBPath != "" {
		index, err := geoip.LoadFile(cfg.GeoIP.DBPath)
		if err != nil {
			return fmt.Errorf("load geoip db: %w", err)
		}
		written, err := b.BuildGeoIP(index, cfg.GeoIP.Codes)
		if err != nil {
			return err
		}
		logger.Info("geoip rulesets generated", "files", written)
	}

	logger.Info("build complete",
		"rulesets", summary.Rulesets,
		"files", summary.Files,
		"invalid_lines_dropped", summary.DroppedLines,
		"out_dir", cfg.Output.Dir,
	)
	fmt.Printf("Generated %d Surge rulesets into %s/ (%d invalid lines dropped)\n",
		summary.Rulesets, cfg.Output.Dir, summary.DroppedLines)
	return nil
}

func runFetch(cfg *config.Config, logger *slog.Logger) error {
	if cfg.Source.ArchiveCachePath == "" {
		logger.Warn("ARCHIVE_CACHE_PATH not set; fetched archive will not be persisted")
	}
	f := fetcher.New(cfg.Source.ArchiveURL, newArchiveCache(cfg, logger))
	_, etag, err := f.Archive(context.Background())
	if err != nil {
		return fmt.Errorf("fetch archive: %w", err)
	}
	logger.Info("archive fetched", "etag", etag, "cache_path", cfg.Source.ArchiveCachePath)
	return nil
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	archiveCache := newArchiveCache(cfg, logger)
	f := fetcher.New(cfg.Source.ArchiveURL, archiveCache)
	results := cache.NewResultCache(cfg.Server.ResultTTL)
	metrics := server.NewMetrics(nil)

	opts := converter.Options{
		Wildcard: cfg.Output.EnableWildcard,
		Comments: cfg.Output.EnableComments,
	}
	srv := server.New(f, results, opts, metrics, logger)

	// Periodic result-cache cleanup.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			results.Cleanup()
		}
	}()

	// Periodic upstream refresh keeps the archive warm for request handling.
	if cfg.Server.RefreshInterval > 0 {
		go func() {
			refresh := func() {
				before := archiveCache.ETag()
				_, after, err := f.Archive(context.Background())
				if err != nil {
					logger.Warn("archive refresh failed", "error", err)
					return
				}
				if after != "" && after != before {
					logger.Info("archive refreshed", "etag", after)
				}
			}
			refresh()
			ticker := time.NewTicker(cfg.Server.RefreshInterval)
			defer ticker.Stop()
			for range ticker.C {
				refresh()
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"addr", addr,
		"result_ttl", cfg.Server.ResultTTL,
		"refresh_interval", cfg.Server.RefreshInterval,
	)
	return http.ListenAndServe(addr, srv.Router())
}
