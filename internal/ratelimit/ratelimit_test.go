package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestLimiter(limits Limits) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limits, true)
	rl.now = clock.now
	return rl, clock
}

func TestAllowRequestMinuteWindow(t *testing.T) {
	rl, clock := newTestLimiter(Limits{PerMinute: 2})

	if !rl.AllowRequest("a") || !rl.AllowRequest("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.AllowRequest("a") {
		t.Error("third request in the same minute should be rejected")
	}
	if !rl.AllowRequest("b") {
		t.Error("other client should not share the window")
	}

	clock.t = clock.t.Add(61 * time.Second)
	if !rl.AllowRequest("a") {
		t.Error("request after the window should pass")
	}
}

func TestAllowRequestHourWindow(t *testing.T) {
	rl, clock := newTestLimiter(Limits{PerMinute: 10, PerHour: 3})
	for i := 0; i < 3; i++ {
		if !rl.AllowRequest("a") {
			t.Fatalf("request %d rejected", i)
		}
		clock.t = clock.t.Add(2 * time.Minute)
	}
	if rl.AllowRequest("a") {
		t.Error("hour limit not enforced")
	}
}

func TestDisabledAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(Limits{PerMinute: 1}, false)
	for i := 0; i < 5; i++ {
		if !rl.AllowRequest("a") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
	if rl.GetStats("a").Enabled {
		t.Error("stats should report disabled")
	}
}

func TestGetStats(t *testing.T) {
	rl, _ := newTestLimiter(Limits{PerMinute: 5, PerDay: 100})
	rl.AllowRequest("a")
	rl.AllowRequest("a")

	stats := rl.GetStats("a")
	if stats.RequestsLastMinute != 2 || stats.RemainingThisMinute != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.RemainingThisHour != -1 {
		t.Errorf("unlimited hour window reported %d remaining", stats.RemainingThisHour)
	}
}

func TestPrune(t *testing.T) {
	rl, clock := newTestLimiter(Limits{PerMinute: 5})
	rl.AllowRequest("a")
	clock.t = clock.t.Add(25 * time.Hour)
	rl.AllowRequest("b")

	if n := rl.Prune(); n != 1 {
		t.Errorf("Prune dropped %d, want 1", n)
	}
	if stats := rl.GetStats("b"); stats.Clients != 1 {
		t.Errorf("clients = %d", stats.Clients)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(Limits{PerMinute: 1})
	r := gin.New()
	r.POST("/upload", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := []int{}
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
