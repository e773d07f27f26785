package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a controllable clock for window tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(maxPerWindow int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	limiter := New(&Config{
		Window:        time.Minute,
		MaxPerWindow:  maxPerWindow,
		CleanupPeriod: time.Hour,
		Clock:         clock,
	})
	return limiter, clock
}

func TestLimiterAllowsWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(3)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if res := limiter.Check("10.0.0.1"); !res.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
	}

	res := limiter.Check("10.0.0.1")
	if res.Allowed {
		t.Fatal("fourth request allowed, want denied")
	}
	if res.Reason != "ip_window_exceeded" {
		t.Errorf("reason = %q", res.Reason)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("retry after = %v", res.RetryAfter)
	}
}

func TestLimiterWindowReset(t *testing.T) {
	limiter, clock := newTestLimiter(1)
	defer limiter.Close()

	if res := limiter.Check("10.0.0.1"); !res.Allowed {
		t.Fatal("first request denied")
	}
	if res := limiter.Check("10.0.0.1"); res.Allowed {
		t.Fatal("second request allowed within window")
	}

	clock.Advance(time.Minute)
	if res := limiter.Check("10.0.0.1"); !res.Allowed {
		t.Fatal("request denied after window elapsed")
	}
}

func TestLimiterIsolatesIPs(t *testing.T) {
	limiter, _ := newTestLimiter(1)
	defer limiter.Close()

	if res := limiter.Check("10.0.0.1"); !res.Allowed {
		t.Fatal("first IP denied")
	}
	if res := limiter.Check("10.0.0.2"); !res.Allowed {
		t.Fatal("second IP denied, budgets should be independent")
	}
	if res := limiter.Check("10.0.0.1"); res.Allowed {
		t.Fatal("first IP allowed over budget")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:54321"
	if got := ClientIP(r); got != "192.0.2.10" {
		t.Errorf("ClientIP = %q, want 192.0.2.10", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 192.0.2.10")
	if got := ClientIP(r); got != "203.0.113.5" {
		t.Errorf("ClientIP = %q, want first forwarded address", got)
	}
}
