package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creatorflow/internal/ratelimit"
)

func TestRateLimitMiddlewareHeaders(t *testing.T) {
	limiter := ratelimit.New()
	mw := RateLimitMiddleware(limiter, ratelimit.Config{
		MaxRequests: 2,
		Window:      time.Hour,
		Bucket:      "test",
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doReq := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := doReq()
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}
	if got := first.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
	if got := first.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Errorf("X-RateLimit-Remaining = %q, want 1", got)
	}

	doReq()
	third := doReq()
	if third.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", third.Code)
	}
	if third.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
	if got := third.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining on denial = %q, want 0", got)
	}
}

func TestRateLimitMiddlewareSeparateIPs(t *testing.T) {
	limiter := ratelimit.New()
	mw := RateLimitMiddleware(limiter, ratelimit.Config{
		MaxRequests: 1,
		Window:      time.Hour,
		Bucket:      "test",
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, ip := range []string{"198.51.100.1:80", "198.51.100.2:80"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("first request from %s status = %d, want 200", ip, rec.Code)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	if got := ClientIP(req); got != "192.0.2.10" {
		t.Errorf("ClientIP = %q, want 192.0.2.10", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.50" {
		t.Errorf("ClientIP with X-Forwarded-For = %q, want 203.0.113.50", got)
	}
}
