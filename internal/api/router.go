package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rflorenc/ng-migrator/internal/mapping"
	"github.com/rflorenc/ng-migrator/internal/metrics"
	"github.com/rflorenc/ng-migrator/internal/models"
)

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore
	Jobs        *models.JobStore
	Discoveries *ResultStore[*Discovery]
	Reports     *ResultStore[*models.SummaryReport]
	Mappings    mapping.Store
	Metrics     *metrics.Metrics
	Logger      *zap.Logger

	// Defaults fill the migration input fields a request leaves out.
	Defaults    models.MigrationInput
	DefaultMode models.Mode
}

// NewServer creates a Server with empty job and result stores.
func NewServer(conns *models.ConnectionStore, mappings mapping.Store, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mappings == nil {
		mappings = mapping.NewMemoryStore()
	}
	return &Server{
		Connections: conns,
		Jobs:        models.NewJobStore(),
		Discoveries: NewResultStore[*Discovery](),
		Reports:     NewResultStore[*models.SummaryReport](),
		Mappings:    mappings,
		Metrics:     m,
		Logger:      logger,
		DefaultMode: models.ModeSequential,
	}
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Connections
		r.Post("/connections", s.CreateConnection)
		r.Get("/connections", s.ListConnections)
		r.Get("/connections/{id}", s.GetConnection)
		r.Put("/connections/{id}", s.UpdateConnection)
		r.Delete("/connections/{id}", s.DeleteConnection)
		r.Post("/connections/{id}/test", s.TestConnection)

		// Discovery (async)
		r.Post("/discover", s.DiscoverHandler)
		r.Post("/discover/multi", s.DiscoverMultiHandler)
		r.Get("/discover/{jobId}", s.GetDiscovery)
		r.Get("/discover/{jobId}/graph", s.GetDiscoveryGraph)

		// Migration
		r.Post("/migrate", s.MigrateHandler)
		r.Get("/migrate/{jobId}", s.GetMigrationReport)
		r.Post("/export", s.ExportHandler)

		// Jobs
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
		r.Post("/jobs/{id}/cancel", s.CancelJob)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}/logs", s.StreamJobLogs)

	r.Handle("/metrics", s.Metrics.Handler())

	return r
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				l.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
