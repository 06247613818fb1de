// handlers/router.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kyipho/wikilynx/models"
)

// DataStore is the read side served to API clients.
type DataStore interface {
	Ping(ctx context.Context) error
	RunQuery(ctx context.Context, query string, limit int) ([]map[string]any, error)
	Categories(ctx context.Context, f models.CategoryFilter, limit int) ([]models.CategoryRow, error)
}

// Refresher is the refresh pipeline as seen by the admin endpoints.
type Refresher interface {
	Status(ctx context.Context) ([]models.TableStatus, error)
	Run(ctx context.Context) (*models.RunReport, error)
}

// API holds the endpoint dependencies. At most one refresh runs at a time.
type API struct {
	store     DataStore
	refresher Refresher
	logger    *slog.Logger

	refreshMu sync.Mutex
}

func NewAPI(store DataStore, refresher Refresher, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{store: store, refresher: refresher, logger: logger}
}

// NewRouter wires every endpoint of the service.
func NewRouter(a *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.logger))

	r.Get("/api/health", a.Health)
	r.Get("/api/query", a.Query)
	r.Get("/api/category", a.Category)

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/staleness", a.Staleness)
		r.Post("/refresh", a.Refresh)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("Handler: request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
