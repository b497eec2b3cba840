package stockfeed

import (
	"context"
	"fmt"

	"swimshop/internal/model"
	"swimshop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Importer loads feeds and inserts their lots as new stock batches.
type Importer struct {
	loader      Loader
	stock       repository.StockRepository
	db          TxBeginner
	concurrency int
	logger      zerolog.Logger
}

// NewImporter creates an importer. concurrency bounds parallel feed loads.
func NewImporter(loader Loader, stock repository.StockRepository, db TxBeginner, concurrency int, logger zerolog.Logger) *Importer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		loader:      loader,
		stock:       stock,
		db:          db,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "stock-importer").Logger(),
	}
}

// Import loads every feed and inserts all lots in one transaction. If any
// feed fails to load nothing is inserted.
func (i *Importer) Import(ctx context.Context, paths []string) (int64, error) {
	loaded := make([][]model.StockBatch, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx, path := range paths {
		g.Go(func() error {
			batches, err := i.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load stock feed %s: %w", path, err)
			}
			loaded[idx] = batches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Error().Err(err).Msg("stock import aborted")
		return 0, err
	}

	var all []model.StockBatch
	for _, batches := range loaded {
		all = append(all, batches...)
	}
	if len(all) == 0 {
		i.logger.Info().Int("feeds", len(paths)).Msg("no stock lots to import")
		return 0, nil
	}

	tx, err := i.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}

	n, err := i.stock.InsertBatches(ctx, tx, all)
	if err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			i.logger.Error().Err(rbErr).Msg("failed to rollback import")
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	i.logger.Info().
		Int("feeds", len(paths)).
		Int64("batches", n).
		Msg("stock import committed")

	return n, nil
}
