package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/event-wizard/internal/catalog"
	"github.com/terra-clan/event-wizard/internal/config"
	"github.com/terra-clan/event-wizard/internal/session"
	"github.com/terra-clan/event-wizard/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	sessions session.Manager
	catalog  *catalog.Loader
	events   storage.Repository
}

// NewServer creates a new API server. events may be nil when no event
// store is configured; the events endpoints then answer 503.
func NewServer(
	cfg config.ServerConfig,
	sessions session.Manager,
	loader *catalog.Loader,
	events storage.Repository,
) *Server {
	s := &Server{
		config:   cfg,
		sessions: sessions,
		catalog:  loader,
		events:   events,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	timeout := middleware.Timeout(60 * time.Second)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/wizards", func(r chi.Router) {
			r.With(timeout).Get("/", s.handleListWizards)
			r.With(timeout).Post("/", s.handleCreateWizard)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.sessionContext)

				// Long-lived live channel, outside the request timeout
				r.Get("/live", s.handleLive)

				r.Group(func(r chi.Router) {
					r.Use(timeout)
					r.Get("/", s.handleGetWizard)
					r.Delete("/", s.handleDeleteWizard)
					r.Put("/steps/{step}", s.handleSubmitStep)
					r.Post("/steps/{step}/back", s.handleBack)
					r.Post("/navigate", s.handleNavigate)
					r.Get("/review", s.handleReview)
					r.Post("/confirm", s.handleConfirm)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/categories", s.handleListCategories)
				r.Get("/prohibited-items", s.handleListProhibitedItems)
				r.Get("/steps", s.handleListSteps)
			})

			r.Route("/events", func(r chi.Router) {
				r.Use(s.requireEventStore)
				r.Get("/", s.handleListEvents)
				r.Get("/{id}", s.handleGetEvent)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
