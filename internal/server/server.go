// Package server exposes a session over a JSON HTTP API, including the
// backing-store contract used by sheet.HTTPStore.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/homebardev/homebar/internal/session"
	"github.com/homebardev/homebar/internal/sheet"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Addr        string
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
	Version     string
}

type Server struct {
	sess     *session.Session
	opts     Options
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	limiter  *rateLimiter
	handler  http.Handler
}

func New(sess *session.Session, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 30
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		sess:     sess,
		opts:     opts,
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
		limiter:  newRateLimiter(opts.RateLimit, opts.RateBurst),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.monitorMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/drinks", s.listDrinks).Methods("GET")
	api.HandleFunc("/drinks/{id}", s.getDrink).Methods("GET")
	api.HandleFunc("/favorites", s.listFavorites).Methods("GET")
	api.HandleFunc("/favorites/toggle", s.toggleFavorite).Methods("POST")
	api.HandleFunc("/inventory", s.getInventory).Methods("GET")
	api.HandleFunc("/inventory/toggle", s.toggleInventory).Methods("POST")
	api.HandleFunc("/ingredients", s.addIngredient).Methods("POST")
	api.HandleFunc("/ingredients/suggest", s.suggestIngredients).Methods("GET")
	r.HandleFunc(sheet.StatePath, s.getState).Methods("GET")
	r.HandleFunc(sheet.StatePath, s.putState).Methods("PUT")

	var h http.Handler = r
	if len(s.opts.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.CORSOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
			handlers.ExposedHeaders([]string{"Content-Length", requestIDHeader}),
		)(h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
		handlers.PrintRecoveryStack(true),
	)(h)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.limiter.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
