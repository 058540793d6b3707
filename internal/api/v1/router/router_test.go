package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"creatorflow/internal/config"
	"creatorflow/internal/ratelimit"
)

func signupRequest(handler http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSignupLimitEnforcedByDefault(t *testing.T) {
	cfg := &config.Config{SignupRateLimitMax: 3}
	mw := signupLimitMiddleware(cfg, ratelimit.New())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 3; i++ {
		if rec := signupRequest(handler); rec.Code != http.StatusCreated {
			t.Fatalf("signup %d status = %d, want 201", i+1, rec.Code)
		}
	}
	if rec := signupRequest(handler); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth signup in the window status = %d, want 429", rec.Code)
	}
}

func TestSignupLimitSkippedWhenChecksRelaxed(t *testing.T) {
	cases := []struct {
		name string
		cfg  *config.Config
	}{
		{"rate limit disabled", &config.Config{DisableSignupRateLimit: true, SignupRateLimitMax: 3}},
		{"preview environment", &config.Config{VercelEnv: "preview", SignupRateLimitMax: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := signupLimitMiddleware(tc.cfg, ratelimit.New())
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			}))

			// Well past the configured max from a single IP.
			for i := 0; i < 10; i++ {
				if rec := signupRequest(handler); rec.Code != http.StatusCreated {
					t.Fatalf("relaxed signup %d status = %d, want 201", i+1, rec.Code)
				}
			}
		})
	}
}
