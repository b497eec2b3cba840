package stockfeed

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"

	"swimshop/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for gzipped feeds on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based feed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "stock-feed-loader").Logger(),
	}
}

// Load reads a gzipped feed file.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.StockBatch, error) {
	l.logger.Info().Str("file", filePath).Msg("loading stock feed")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open stock feed")
		return nil, fmt.Errorf("failed to open stock feed %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	batches, err := parseFeed(ctx, gzipReader, filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to parse stock feed")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("lots", len(batches)).
		Msg("stock feed loaded")

	return batches, nil
}
