package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedLimiter struct {
	ok         bool
	retryAfter time.Duration
}

func (f *fixedLimiter) Take() (bool, time.Duration) {
	return f.ok, f.retryAfter
}

func TestRateLimitMiddlewareRejectsWithRetryAfter(t *testing.T) {
	limited := rateLimitMiddleware(&fixedLimiter{retryAfter: 1500 * time.Millisecond}, "allocation", http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("search must not start when the allocation bucket is empty")
	}))

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/allocations", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestRateLimitMiddlewareNilLimiterPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	rateLimitMiddleware(nil, "api", next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected request to reach handler, got %d", rec.Code)
	}
}

func TestTokenBucketRefusesOnceBurstIsSpent(t *testing.T) {
	bucket := newTokenBucket(0.5, 2)

	for i := 0; i < 2; i++ {
		if ok, _ := bucket.Take(); !ok {
			t.Fatalf("expected token %d within burst", i+1)
		}
	}

	ok, wait := bucket.Take()
	if ok {
		t.Fatalf("expected bucket to be empty")
	}
	if wait <= time.Second || wait > 2*time.Second {
		t.Fatalf("expected roughly 2s until the next token, got %s", wait)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]int{
		0:                       1,
		200 * time.Millisecond:  1,
		time.Second:             1,
		2100 * time.Millisecond: 3,
	}
	for in, want := range cases {
		if got := retryAfterSeconds(in); got != want {
			t.Fatalf("retryAfterSeconds(%s) = %d, want %d", in, got, want)
		}
	}
}
