/*
PURPOSE:
  HTTP front for the estimate requester. One JSON endpoint, one health check.

REQUIREMENTS:
  User-specified:
  - POST a shipment, get a LoadEstimate back.
  - Fallback answers look like any other answer to the client.

  Implementation-discovered:
  - Every estimate costs a paid API call, so clients are rate limited per IP.
  - Empty fields are rejected here; the estimator does not validate.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/estimate (via Resolver), internal/config, internal/output

ERROR HANDLING:
  - Request errors are JSON {"error": "..."} with 400/415/429.
  - Estimation never produces a 5xx: the estimator always answers.

IMPLEMENTATION RULES:
  - gorilla/mux for routing and method matching.
  - Graceful shutdown when the run context is canceled.

USAGE:
  srv := server.New(cfg.Server, estimator)
  err := srv.Run(ctx)

SELF-HEALING INSTRUCTIONS:
  - If clients sit behind a proxy, the limiter sees the proxy IP.

RELATED FILES:
  - internal/server/handlers.go
  - internal/server/rate_limiter.go

MAINTENANCE:
  - Version new request shapes under a new path prefix.
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/estimate"
	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

const shutdownTimeout = 10 * time.Second

// Resolver resolves one shipment. *estimate.Estimator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, s model.Shipment) estimate.Result
}

// Server serves estimates over HTTP.
type Server struct {
	cfg     config.ServerConfig
	est     Resolver
	limiter *RateLimiter
	router  *mux.Router
}

// New builds the router. A RateLimit of zero or less disables limiting.
func New(cfg config.ServerConfig, est Resolver) *Server {
	s := &Server{cfg: cfg, est: est}
	if cfg.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	if s.limiter != nil {
		api.Use(rateLimitMiddleware(s.limiter))
	}
	api.HandleFunc("/estimate", s.handleEstimate).Methods(http.MethodPost)

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Run listens on cfg.Addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	httpServer := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		output.Logger.Info("Server listening", "addr", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		output.Logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	output.Logger.Info("Server exited")
	return nil
}
