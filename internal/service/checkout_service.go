package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swimshop/internal/config"
	"swimshop/internal/events"
	"swimshop/internal/idempotency"
	"swimshop/internal/metrics"
	"swimshop/internal/model"
	"swimshop/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("swimshop/internal/service")

// checkoutState tracks how far a checkout got. It is only used for logging.
type checkoutState string

const (
	statePending    checkoutState = "pending"
	stateChecking   checkoutState = "checking"
	stateAllocating checkoutState = "allocating"
	stateWriting    checkoutState = "writing"
	stateCommitted  checkoutState = "committed"
	stateAborted    checkoutState = "aborted"
)

// CheckoutDeps groups the collaborators of the checkout service. Guard,
// Events and Metrics are optional.
type CheckoutDeps struct {
	Orders   repository.OrderRepository
	Stock    repository.StockRepository
	Products repository.ProductRepository
	Guard    idempotency.Guard
	Events   events.Publisher
	Metrics  *metrics.CheckoutMetrics
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	orders    repository.OrderRepository
	checker   *availabilityChecker
	allocator *batchAllocator
	writer    *orderWriter
	guard     idempotency.Guard
	events    events.Publisher
	metrics   *metrics.CheckoutMetrics
	txOptions pgx.TxOptions
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(deps CheckoutDeps, cfg config.CheckoutConfig, logger zerolog.Logger) (CheckoutService, error) {
	if deps.Orders == nil || deps.Stock == nil || deps.Products == nil {
		return nil, errors.New("checkout service requires order, stock and product repositories")
	}

	txOptions, err := txOptionsFor(cfg.IsolationLevel)
	if err != nil {
		return nil, err
	}

	if deps.Guard == nil {
		deps.Guard = idempotency.NewNopGuard()
	}
	if deps.Events == nil {
		deps.Events = events.NewNopPublisher()
	}

	log := logger.With().Str("service", "checkout").Logger()

	return &checkoutService{
		orders:    deps.Orders,
		checker:   newAvailabilityChecker(deps.Stock, log),
		allocator: newBatchAllocator(deps.Stock, deps.Metrics, log),
		writer:    newOrderWriter(deps.Orders, deps.Products, cfg.VerifyPrices, log),
		guard:     deps.Guard,
		events:    deps.Events,
		metrics:   deps.Metrics,
		txOptions: txOptions,
		now:       time.Now,
		logger:    log,
	}, nil
}

// txOptionsFor maps a configured isolation level to transaction options.
func txOptionsFor(level string) (pgx.TxOptions, error) {
	switch level {
	case "", config.IsolationReadCommitted:
		return pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, nil
	case config.IsolationRepeatableRead:
		return pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, nil
	case config.IsolationSerializable:
		return pgx.TxOptions{IsoLevel: pgx.Serializable}, nil
	default:
		return pgx.TxOptions{}, fmt.Errorf("unknown checkout isolation level %q", level)
	}
}

// Checkout places an order for the cart.
func (s *checkoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (result *model.CheckoutResult, err error) {
	start := s.now()
	ctx, span := tracer.Start(ctx, "checkout")
	defer func() {
		s.metrics.ObserveCheckout(outcomeOf(err), s.now().Sub(start))
		endSpan(span, err)
	}()

	if req == nil || len(req.Items) == 0 {
		s.logger.Debug().Msg("rejecting empty cart")
		return nil, model.ErrEmptyCart
	}

	demands, err := aggregateDemand(req.Items)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejecting oversized cart")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("checkout.lines", len(req.Items)),
		attribute.Int("checkout.products", len(demands)),
	)

	if key := req.IdempotencyKey; key != "" {
		acquired, gErr := s.guard.Acquire(ctx, key)
		if gErr != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", gErr)
		}
		if !acquired {
			return nil, model.ErrDuplicateCheckout
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := s.guard.Release(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Error().Err(relErr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}()
	}

	order, lines, err := s.placeOrder(ctx, req, demands)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.Int64("order.total", order.Total))

	if pubErr := s.events.PublishOrderPlaced(ctx, events.NewOrderPlaced(order, lines, s.now())); pubErr != nil {
		s.logger.Error().Err(pubErr).Int64("order_id", order.ID).Msg("order committed but event was not published")
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Int64("total", order.Total).
		Int("lines", len(lines)).
		Msg("checkout committed")

	return &model.CheckoutResult{OrderID: order.ID, Total: order.Total}, nil
}

// placeOrder runs check, allocation and write in one transaction and commits.
// Any error rolls the transaction back.
func (s *checkoutService) placeOrder(ctx context.Context, req *model.CheckoutRequest, demands []demand) (order *model.Order, lines []model.OrderLine, err error) {
	state := statePending

	tx, err := s.orders.BeginTx(ctx, s.txOptions)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin checkout transaction")
		return nil, nil, fmt.Errorf("failed to begin checkout: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		// The caller gets the original error even if rollback fails.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		s.logger.Info().
			Err(err).
			Str("failed_in", string(state)).
			Str("state", string(stateAborted)).
			Msg("checkout aborted")
	}()

	state = stateChecking
	shortages, err := s.checkAvailability(ctx, tx, demands)
	if err != nil {
		return nil, nil, err
	}
	if len(shortages) > 0 {
		return nil, nil, &model.InsufficientStockError{Shortages: shortages}
	}

	state = stateAllocating
	if err = s.allocate(ctx, tx, demands); err != nil {
		return nil, nil, err
	}

	state = stateWriting
	order, lines, err = s.writeOrder(ctx, tx, req)
	if err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit checkout")
		return nil, nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	state = stateCommitted
	s.logger.Debug().Str("state", string(state)).Int64("order_id", order.ID).Msg("transaction committed")

	return order, lines, nil
}

func (s *checkoutService) checkAvailability(ctx context.Context, tx pgx.Tx, demands []demand) (shortages []model.Shortage, err error) {
	ctx, span := tracer.Start(ctx, "checkout.check_availability")
	defer func() { endSpan(span, err) }()

	shortages, err = s.checker.Check(ctx, tx, demands)
	span.SetAttributes(attribute.Int("checkout.shortages", len(shortages)))
	return shortages, err
}

func (s *checkoutService) allocate(ctx context.Context, tx pgx.Tx, demands []demand) (err error) {
	ctx, span := tracer.Start(ctx, "checkout.allocate")
	defer func() { endSpan(span, err) }()

	for _, d := range demands {
		if err = s.allocator.Allocate(ctx, tx, d.ProductID, d.Quantity); err != nil {
			span.SetAttributes(attribute.Int64("product.id", d.ProductID), attribute.Int("product.quantity", d.Quantity))
			return err
		}
	}
	return nil
}

func (s *checkoutService) writeOrder(ctx context.Context, tx pgx.Tx, req *model.CheckoutRequest) (order *model.Order, lines []model.OrderLine, err error) {
	ctx, span := tracer.Start(ctx, "checkout.write_order")
	defer func() { endSpan(span, err) }()

	return s.writer.Write(ctx, tx, req.UserID, req.Items)
}

// GetOrder retrieves a finished order with its lines.
func (s *checkoutService) GetOrder(ctx context.Context, id int64) (*model.OrderResponse, error) {
	order, lines, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Int64("order_id", id).Msg("order not found")
		return nil, nil
	}

	return &model.OrderResponse{Order: *order, Items: lines}, nil
}

// outcomeOf classifies a checkout result for metrics.
func outcomeOf(err error) string {
	var insufficient *model.InsufficientStockError
	var race *model.AllocationRaceError

	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, model.ErrEmptyCart), errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrQuantityTooLarge):
		return metrics.OutcomeValidationFailed
	case errors.Is(err, model.ErrDuplicateCheckout):
		return metrics.OutcomeDuplicate
	case errors.As(err, &insufficient):
		return metrics.OutcomeInsufficientStock
	case errors.As(err, &race):
		return metrics.OutcomeAllocationRace
	default:
		return metrics.OutcomeError
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
