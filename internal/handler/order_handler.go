package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"swimshop/internal/middleware"
	"swimshop/internal/model"
	"swimshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader lets clients mark retries of the same checkout.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxBodyBytes = 1 << 20

// OrderHandler handles checkout and order HTTP requests.
type OrderHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.CheckoutService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With().Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()

	var req model.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", logger)
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	result, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		h.writeCheckoutError(w, err, logger)
		return
	}

	writeJSON(w, http.StatusCreated, result, logger)
}

// writeCheckoutError maps checkout failures to responses. Unexpected errors
// get a generic message.
func (h *OrderHandler) writeCheckoutError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var insufficient *model.InsufficientStockError
	var race *model.AllocationRaceError
	var domainErr *model.DomainError

	switch {
	case errors.As(err, &insufficient):
		logger.Info().Int("products", len(insufficient.Shortages)).Msg("checkout rejected: insufficient stock")
		writeJSON(w, http.StatusConflict, model.ShortageResponse{
			Message:      "insufficient stock",
			Insufficient: insufficient.Shortages,
		}, logger)
	case errors.As(err, &race):
		logger.Info().Int64("product_id", race.ProductID).Msg("checkout rejected: stock taken concurrently")
		writeJSON(w, http.StatusConflict, model.ShortageResponse{
			Message:      "insufficient stock",
			Insufficient: []model.Shortage{race.Shortage()},
		}, logger)
	case errors.As(err, &domainErr):
		status := http.StatusBadRequest
		if domainErr.Code == model.ErrCodeDuplicateCheckout {
			status = http.StatusConflict
		}
		writeError(w, status, domainErr.Message, logger)
	default:
		logger.Error().Err(err).Msg("checkout failed")
		writeError(w, http.StatusInternalServerError, "failed to place order", logger)
	}
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	if idParam == "" {
		writeError(w, http.StatusBadRequest, "order ID is required", h.logger)
		return
	}

	orderID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to retrieve order", h.logger)
		return
	}

	if order == nil {
		writeError(w, http.StatusNotFound, "order not found", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}
