package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rateMw(perSecond float64, burst int) func(http.Handler) http.Handler {
	return NewRateLimiter(WithTTL(5*time.Minute), WithLimit(perSecond, burst)).Middleware()
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/views/jobs", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsRequestUnderLimit(t *testing.T) {
	handlerCalled := false
	handler := rateMw(100, 200)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestFrom("10.0.0.1:5000"))

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	if !handlerCalled {
		t.Error("expected handler to be called")
	}
}

func TestRateLimitMiddleware_RejectsRequestOverLimit(t *testing.T) {
	handler := rateMw(1, 1)(okHandler())

	// First request should succeed (uses the burst)
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, requestFrom("10.0.0.1:5000"))
	if rr1.Code != http.StatusOK {
		t.Errorf("first request: got status %d, want %d", rr1.Code, http.StatusOK)
	}

	// Second request should be rate limited (burst exhausted), even from another port
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, requestFrom("10.0.0.1:5001"))
	if rr2.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got status %d, want %d", rr2.Code, http.StatusTooManyRequests)
	}
	if got := rr2.Header().Get("Retry-After"); got != "1" {
		t.Errorf("got Retry-After %q, want %q", got, "1")
	}
	if ct := rr2.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error body, got content type %q", ct)
	}
}

func TestRateLimitMiddleware_IndependentLimitsPerClient(t *testing.T) {
	handler := rateMw(1, 1)(okHandler())

	// Exhaust client A's limit
	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:5000"))
	rrA := httptest.NewRecorder()
	handler.ServeHTTP(rrA, requestFrom("10.0.0.1:5000"))
	if rrA.Code != http.StatusTooManyRequests {
		t.Errorf("client A second request: got status %d, want %d", rrA.Code, http.StatusTooManyRequests)
	}

	// Client B should still be able to make requests
	rrB := httptest.NewRecorder()
	handler.ServeHTTP(rrB, requestFrom("10.0.0.2:5000"))
	if rrB.Code != http.StatusOK {
		t.Errorf("client B request: got status %d, want %d", rrB.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_ForwardedFor(t *testing.T) {
	handler := rateMw(1, 1)(okHandler())

	first := requestFrom("10.0.0.9:5000")
	first.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.9")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	// Same proxy, different origin client
	other := requestFrom("10.0.0.9:5000")
	other.Header.Set("X-Forwarded-For", "203.0.113.8")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_UnlimitedWhenRateLimitZero(t *testing.T) {
	handlerCallCount := 0
	handler := NewRateLimiter().Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// Make many requests - all should succeed
	for i := range 10 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestFrom("10.0.0.1:5000"))

		if rr.Code != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i, rr.Code, http.StatusOK)
		}
	}

	if handlerCallCount != 10 {
		t.Errorf("expected 10 handler calls, got %d", handlerCallCount)
	}
}

func TestRateLimiter_ExpiredLimiterIsReplaced(t *testing.T) {
	rl := NewRateLimiter(WithTTL(-time.Second), WithLimit(1, 1))

	first := rl.getOrCreateLimiter("10.0.0.1")
	second := rl.getOrCreateLimiter("10.0.0.1")
	if first == second {
		t.Error("expected expired limiter to be replaced")
	}
}
