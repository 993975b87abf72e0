package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return TenantID(rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
}

func hit(h http.Handler, tenantID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/environments", http.NoBody)
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	h := limitedHandler(NewRateLimiter(10, 10))
	for i := range 10 {
		if rec := hit(h, "acme"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	now := time.Now()
	rl.now = func() time.Time { return now }
	h := limitedHandler(rl)

	for range 5 {
		hit(h, "acme")
	}
	rec := hit(h, "acme")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}

	now = now.Add(200 * time.Millisecond)
	if rec := hit(h, "acme"); rec.Code != http.StatusOK {
		t.Errorf("after refill: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterPerTenant(t *testing.T) {
	rl := NewRateLimiter(10, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }
	h := limitedHandler(rl)

	for range 2 {
		hit(h, "acme")
	}
	if rec := hit(h, "acme"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("acme: expected 429, got %d", rec.Code)
	}
	if rec := hit(h, "globex"); rec.Code != http.StatusOK {
		t.Errorf("globex: expected 200, got %d", rec.Code)
	}
	if rec := hit(h, ""); rec.Code != http.StatusOK {
		t.Errorf("default tenant: expected 200, got %d", rec.Code)
	}
	if rl.Len() != 3 {
		t.Errorf("expected 3 buckets, got %d", rl.Len())
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }
	h := limitedHandler(rl)

	hit(h, "acme")
	now = now.Add(time.Minute)
	hit(h, "globex")

	rl.cleanup(30 * time.Second)
	if rl.Len() != 1 {
		t.Errorf("expected 1 bucket after cleanup, got %d", rl.Len())
	}
}
