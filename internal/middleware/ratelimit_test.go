package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/fantastictask/internal/auth"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, per time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, per)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("member:1"); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}
	ok, wait := rl.Allow("member:1")
	if ok {
		t.Error("6th hit should be denied")
	}
	if wait != time.Minute {
		t.Errorf("wait = %v, want 1m", wait)
	}
	if ok, _ := rl.Allow("member:2"); !ok {
		t.Error("keys are limited independently")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 4; i++ {
		rl.Allow("k")
	}
	clock.advance(40 * time.Second)
	if ok, wait := rl.Allow("k"); ok || wait != 20*time.Second {
		t.Errorf("inside window: ok=%v wait=%v, want denied with 20s left", ok, wait)
	}

	clock.advance(20 * time.Second)
	if ok, _ := rl.Allow("k"); !ok {
		t.Error("should be allowed once the window ends")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Allow("expired")
	clock.advance(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired key should have been removed")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active key should remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	handler := rl.Middleware(MemberKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(memberID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/completions/1/approve", nil)
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{MemberID: memberID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(1); rec.Code != http.StatusNoContent {
			t.Fatalf("hit %d: status = %d", i+1, rec.Code)
		}
	}
	rec := send(1)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd hit: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if rec := send(2); rec.Code != http.StatusNoContent {
		t.Errorf("another member should not be limited, got %d", rec.Code)
	}
}

func TestMemberKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "192.168.1.20:5555"
	if got := MemberKey(req); got != "ip:192.168.1.20" {
		t.Errorf("anonymous key = %q", got)
	}

	ctx := auth.WithAuth(req.Context(), auth.AuthContext{MemberID: 12})
	if got := MemberKey(req.WithContext(ctx)); got != "member:12" {
		t.Errorf("member key = %q", got)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.7" {
		t.Errorf("RealIP = %q, want first forwarded address", got)
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.4")
	if got := RealIP(req); got != "198.51.100.4" {
		t.Errorf("RealIP = %q, want Cloudflare header", got)
	}
}
