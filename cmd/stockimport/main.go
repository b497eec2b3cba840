// Command stockimport loads gzipped stock feeds and inserts them as new
// stock batches.
//
// Usage:
//
//	stockimport [-concurrency N] feed1.gz [feed2.gz ...]
//
// When S3 is enabled, each path is first looked up as S3_PREFIX+path in
// S3_BUCKET and read from disk if that fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"swimshop/internal/config"
	"swimshop/internal/database"
	"swimshop/internal/repository"
	"swimshop/internal/stockfeed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	concurrency := flag.Int("concurrency", 4, "maximum number of feeds loaded in parallel")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		return fmt.Errorf("at least one feed path is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	var s3Loader stockfeed.Loader
	if cfg.S3.Enabled {
		s3Loader, err = stockfeed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	} else {
		logger.Info().Msg("using local file system for stock feeds (S3 disabled)")
	}
	loader := stockfeed.NewFallbackLoader(s3Loader, stockfeed.NewFileLoader(logger), cfg.S3.Prefix, logger)

	importer := stockfeed.NewImporter(loader, repository.NewStockRepository(logger), pool, *concurrency, logger)

	n, err := importer.Import(ctx, paths)
	if err != nil {
		return err
	}

	logger.Info().Int64("batches", n).Msg("stock import finished")

	return nil
}
