package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"paytrack/internal/log"
	"paytrack/internal/middleware/ratelimit"
	"paytrack/internal/middleware/security"
	"paytrack/internal/store"
)

// Config holds router configuration
type Config struct {
	Store          *store.Store
	Logger         *log.Logger
	AllowedOrigins []string
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.Limiter
}

// NewRouter wires middleware and routes.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	h := NewHandler(cfg.Store)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(recovery(cfg.Logger))
	r.Use(log.Middleware(cfg.Logger, func(r *http.Request) string {
		return chimiddleware.GetReqID(r.Context())
	}))
	r.Use(corsHandler(cfg.AllowedOrigins))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(chimiddleware.Compress(5))
	if cfg.Limiter != nil {
		r.Use(cfg.Limiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).Warn("Rate limit exceeded", log.FieldClientIP, extractClientIP(r))
			w.Header().Set("Retry-After", "60")
			respondError(w, r, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
		}))
	}

	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/view", h.GetView)
		r.Put("/view", h.SelectView)
		r.Post("/reload", h.Reload)

		r.Post("/entries", h.CreateEntry)
		r.Post("/entries/{id}/paid", h.MarkPaid)
		r.Post("/entries/{id}/delete", h.RequestDelete)

		r.Post("/delete/confirm", h.ConfirmDelete)
		r.Post("/delete/cancel", h.CancelDelete)
		r.Post("/undo", h.Undo)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}

func recovery(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Panic recovered",
					log.FieldRequestID, chimiddleware.GetReqID(r.Context()),
					log.FieldPath, r.URL.Path,
					log.FieldError, fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				respondError(w, r, "internal server error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Server is an http.Server that also owns the rate limiter.
type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer returns a ready-to-run server listening on addr.
func NewServer(addr string, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig())
	}
	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		limiter: cfg.Limiter,
		logger:  cfg.Logger.WithComponent(log.ComponentHTTP),
	}
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	return nil
}

// Shutdown stops the rate limiter and drains the HTTP server. Only the
// first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return err
}
