package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"feedback-hub/internal/infra/metrics"
)

// Options tune the HTTP server.
type Options struct {
	Component      string
	CORSOrigins    []string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// Server wraps chi.Router with the common middleware stack.
type Server struct {
	Router chi.Router
	log    zerolog.Logger
	opts   Options
	srv    *http.Server
}

// NewServer creates the HTTP server.
func NewServer(logger zerolog.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(metrics.Middleware(opts.Component))
	return &Server{Router: r, log: logger, opts: opts}
}

// Handler returns the router wrapped with CORS so preflight requests never
// reach the routes.
func (s *Server) Handler() http.Handler {
	if len(s.opts.CORSOrigins) == 0 {
		return s.Router
	}
	return handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-API-Key", "X-Requested-With"}),
		handlers.AllowCredentials(),
	)(s.Router)
}

// Start runs http.Server until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}
	s.log.Info().Str("addr", addr).Msg("http: server started")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
