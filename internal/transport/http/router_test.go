package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"playpass/pkg/testutil"
)

type stubChecker struct {
	err error
}

func (c stubChecker) Health(context.Context) error { return c.err }

type stubRegistrar struct{}

func (stubRegistrar) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestRouter(checkers map[string]HealthChecker) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(logger, checkers, stubRegistrar{})
}

func TestRouter(t *testing.T) {
	testutil.Given(t, "the HTTP router", func(t *testing.T) {
		router := newTestRouter(map[string]HealthChecker{"redis": stubChecker{}})

		testutil.When(t, "a feature handler registered a route", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/ping"))

			testutil.Then(t, "the route is reachable", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})

		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it reports ok", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "ok")
				testutil.AssertJSONContains(t, rr, "redis", "ok")
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

			testutil.Then(t, "the prometheus endpoint responds", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})
	})
}

func TestRouterHealthDegraded(t *testing.T) {
	router := newTestRouter(map[string]HealthChecker{
		"redis": stubChecker{err: errors.New("connection refused")},
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(t, rr, "status", "degraded")
	testutil.AssertJSONContains(t, rr, "redis", "connection refused")
}

func TestRouterRecoversFromPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, nil, registrarFunc(func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) {
			panic("kiosk bug")
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() { router.ServeHTTP(rr, req) })
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

type registrarFunc func(chi.Router)

func (f registrarFunc) Register(r chi.Router) { f(r) }
