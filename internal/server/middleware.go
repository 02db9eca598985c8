/*
PURPOSE:
  Request middleware: per-client rate limiting and debug request logging.

ARCHITECTURE INTEGRATION:
  - Installed by: internal/server/server.go
  - Uses: github.com/gorilla/mux, internal/server/rate_limiter.go

ERROR HANDLING:
  - Over the limit: 429 with a JSON error body and a warning in the log.

RELATED FILES:
  - internal/server/rate_limiter.go
*/

package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/daryltucker/load-estimator/internal/output"
)

// rateLimitMiddleware rejects clients that exhausted their bucket with 429.
func rateLimitMiddleware(limiter *RateLimiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				output.Logger.Warn("Rate limit exceeded", "client", ip, "path", r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logMiddleware logs each request at debug level.
func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		output.Logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
