package router

import (
	"net/http"

	"swimshop/internal/handler"
	"swimshop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	orderHandler *handler.OrderHandler,
	gatherer prometheus.Gatherer,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.CORS,
		middleware.APIKeyAuth(apiKey, logger),
	)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", orderHandler.Create)
		r.Post("/checkout", orderHandler.Create)
		r.Get("/orders/{id}", orderHandler.GetByID)
	})

	return r
}
