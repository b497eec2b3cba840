package service

import (
	"context"
	"fmt"

	"swimshop/internal/model"
	"swimshop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// demand is the total quantity the cart asks for one product.
type demand struct {
	ProductID int64
	Quantity  int
}

// aggregateDemand sums cart quantities per product in first-seen order. A line
// or a per-product sum above model.MaxQuantity yields model.ErrQuantityTooLarge.
func aggregateDemand(items []model.CartItem) ([]demand, error) {
	index := make(map[int64]int, len(items))
	demands := make([]demand, 0, len(items))

	for _, item := range items {
		qty := item.RequestedQuantity()
		if qty > model.MaxQuantity {
			return nil, model.ErrQuantityTooLarge
		}
		if i, ok := index[item.ProductID]; ok {
			if demands[i].Quantity > model.MaxQuantity-qty {
				return nil, model.ErrQuantityTooLarge
			}
			demands[i].Quantity += qty
			continue
		}
		index[item.ProductID] = len(demands)
		demands = append(demands, demand{ProductID: item.ProductID, Quantity: qty})
	}

	return demands, nil
}

// availabilityChecker compares demand with the summed batch quantities.
type availabilityChecker struct {
	stock  repository.StockRepository
	logger zerolog.Logger
}

func newAvailabilityChecker(stock repository.StockRepository, logger zerolog.Logger) *availabilityChecker {
	return &availabilityChecker{
		stock:  stock,
		logger: logger.With().Str("step", "availability").Logger(),
	}
}

// Check returns one shortage per product that cannot be fully supplied.
// It does not modify stock.
func (c *availabilityChecker) Check(ctx context.Context, tx pgx.Tx, demands []demand) ([]model.Shortage, error) {
	ids := make([]int64, len(demands))
	for i, d := range demands {
		ids[i] = d.ProductID
	}

	available, err := c.stock.AvailableQuantities(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	var shortages []model.Shortage
	for _, d := range demands {
		have := available[d.ProductID]
		if have >= d.Quantity {
			continue
		}
		shortages = append(shortages, model.Shortage{
			ProductID: d.ProductID,
			Requested: d.Quantity,
			Available: have,
		})
	}

	if len(shortages) > 0 {
		c.logger.Info().
			Int("short_products", len(shortages)).
			Msg("insufficient stock")
	}

	return shortages, nil
}
