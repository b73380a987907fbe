package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/storage"
)

func TestLoggingMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	var called bool
	handler := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	handler := recoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestResponseRecorderWriteHeader(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: underlying}
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected status to be recorded")
	}
	if underlying.Code != http.StatusTeapot {
		t.Fatalf("expected status to propagate to ResponseWriter")
	}
}

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&fixedLimiter{retryAfter: time.Second}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&fixedLimiter{retryAfter: time.Second}), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitEnforcesLimit(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req.Clone(req.Context()))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block second request, got %d", rec2.Code)
	}
}

func TestAllocationRateLimitOnlyGuardsCreate(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0), WithAllocationRateLimit(1, 1))

	first := doJSON(t, router, http.MethodPost, "/api/allocations", balancedPayload())
	if first.Code != http.StatusOK {
		t.Fatalf("expected first allocation to succeed, got %d: %s", first.Code, first.Body.String())
	}

	second := doJSON(t, router, http.MethodPost, "/api/allocations", balancedPayload())
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second allocation to be throttled, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on throttled allocation")
	}

	for _, path := range []string{"/api/health", "/api/settings"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected %s to bypass allocation limit, got %d", path, rec.Code)
		}
	}
}

func TestWithAllocationRateLimitDisablesBucketWhenZero(t *testing.T) {
	router := newTestRouter(t,
		WithLogging(false),
		WithRateLimit(0, 0),
		WithAllocationRateLimiter(&fixedLimiter{retryAfter: time.Second}),
		WithAllocationRateLimit(0, 0),
	)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/allocations", balancedPayload())
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected allocation bucket to be disabled, got %d", i, rec.Code)
		}
	}
}

func newTestRouter(t *testing.T, opts ...RouterOption) http.Handler {
	t.Helper()

	logger := zaptest.NewLogger(t)
	store := storage.NewMemoryStorage()
	handler := NewHandler(planner.New(planner.WithLogger(logger)), store)
	return NewRouter(handler, logger, opts...)
}
