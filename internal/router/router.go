package router

import (
	"net/http"

	"ecostock/internal/handler"
	"ecostock/internal/metrics"
	"ecostock/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	dashboardHandler *handler.DashboardHandler,
	inventoryHandler *handler.InventoryHandler,
	sessionHandler *handler.SessionHandler,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.Handle("GET /metrics", m.Handler())

	// Dashboard routes
	mux.HandleFunc("GET /api/dashboard", dashboardHandler.Get)
	mux.HandleFunc("POST /api/dashboard/upload", dashboardHandler.Upload)

	// Inventory routes
	mux.HandleFunc("GET /api/inventory/export", dashboardHandler.Export)
	mux.HandleFunc("POST /api/inventory", inventoryHandler.Create)
	mux.HandleFunc("DELETE /api/inventory", inventoryHandler.Delete)

	// Session routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.Create)
	mux.HandleFunc("POST /api/sessions/{id}/entries", sessionHandler.Stage)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.Discard)

	// Apply middleware in order: Recovery -> Logging -> Metrics -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Metrics(m)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
