package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"swimshop/internal/metrics"
	"swimshop/internal/model"
	"swimshop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// draw is the quantity taken from one batch.
type draw struct {
	BatchID  int64
	Quantity int
}

// planAllocation walks batches largest first, ties broken by lower id, and
// takes from each until quantity is covered. It returns the draws and the
// quantity left uncovered. A non-positive quantity plans nothing.
func planAllocation(batches []model.StockBatch, quantity int) ([]draw, int) {
	if quantity <= 0 {
		return nil, 0
	}

	ordered := slices.Clone(batches)
	slices.SortStableFunc(ordered, func(a, b model.StockBatch) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	remaining := quantity
	var draws []draw
	for _, b := range ordered {
		if remaining == 0 {
			break
		}
		if b.Quantity <= 0 {
			continue
		}
		take := min(remaining, b.Quantity)
		draws = append(draws, draw{BatchID: b.ID, Quantity: take})
		remaining -= take
	}

	return draws, remaining
}

// batchAllocator deducts a product's demand from its stock batches.
type batchAllocator struct {
	stock   repository.StockRepository
	metrics *metrics.CheckoutMetrics
	logger  zerolog.Logger
}

func newBatchAllocator(stock repository.StockRepository, m *metrics.CheckoutMetrics, logger zerolog.Logger) *batchAllocator {
	return &batchAllocator{
		stock:   stock,
		metrics: m,
		logger:  logger.With().Str("step", "allocation").Logger(),
	}
}

// Allocate removes quantity units of the product from its batches. It returns
// an *model.AllocationRaceError when the batches no longer cover quantity.
func (a *batchAllocator) Allocate(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid allocation quantity %d for product %d", quantity, productID)
	}

	batches, err := a.stock.BatchesForAllocation(ctx, tx, productID)
	if err != nil {
		return fmt.Errorf("failed to load stock batches: %w", err)
	}

	draws, remaining := planAllocation(batches, quantity)
	if remaining > 0 {
		a.logger.Warn().
			Int64("product_id", productID).
			Int("requested", quantity).
			Int("remaining", remaining).
			Msg("stock disappeared between check and allocation")
		return &model.AllocationRaceError{
			ProductID: productID,
			Requested: quantity,
			Allocated: quantity - remaining,
		}
	}

	allocated := 0
	for _, d := range draws {
		ok, err := a.stock.DecrementBatch(ctx, tx, d.BatchID, d.Quantity)
		if err != nil {
			return fmt.Errorf("failed to allocate stock: %w", err)
		}
		if !ok {
			a.logger.Warn().
				Int64("product_id", productID).
				Int64("batch_id", d.BatchID).
				Msg("stock batch changed during allocation")
			return &model.AllocationRaceError{
				ProductID: productID,
				Requested: quantity,
				Allocated: allocated,
			}
		}
		allocated += d.Quantity
	}

	a.metrics.ObserveAllocation(allocated, len(draws))

	a.logger.Debug().
		Int64("product_id", productID).
		Int("quantity", allocated).
		Int("batches", len(draws)).
		Msg("stock allocated")

	return nil
}
