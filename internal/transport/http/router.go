// Package httptransport assembles the public HTTP surface: the registration
// desk, the session lifecycle, and operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"playpass/internal/transport/http/shared"
)

// Registrar is implemented by each feature handler that mounts its own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable. A nil
// checker means the dependency is not configured and is skipped.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter wires middleware, feature handlers, and operational endpoints.
func NewRouter(logger *slog.Logger, checkers map[string]HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	// No blanket timeout here: the watch stream must be able to outlive any
	// per-request deadline, so each handler times its own non-streaming
	// routes.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimw.Recoverer)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth(checkers))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, checker := range checkers {
			if checker == nil {
				continue
			}
			if err := checker.Health(r.Context()); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			} else {
				status[name] = "ok"
			}
		}
		shared.WriteJSON(w, code, status)
	}
}

// requestLogger logs one line per request with latency and status, keyed by
// the request ID so handler logs can be correlated.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
