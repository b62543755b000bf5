package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(rps, burst, KeyByClientIP())
	r.Use(rl.Handler())
	r.POST("/hook", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := newLimitedRouter(100, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d rejected with %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	// No refill to speak of within the test window.
	r := newLimitedRouter(0.0001, 1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request rejected with %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

func TestRateLimiter_BucketsArePerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, func(c *gin.Context) string {
		return "key:" + c.GetHeader("X-Test-Key")
	})
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/hook", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	send := func(key string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		req.Header.Set("X-Test-Key", key)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if send("a") != http.StatusOK {
		t.Fatal("key a first request rejected")
	}
	if send("a") != http.StatusTooManyRequests {
		t.Fatal("key a second request not limited")
	}
	// A different key gets a fresh bucket.
	if send("b") != http.StatusOK {
		t.Fatal("key b rejected by key a's bucket")
	}
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByClientIP())
	rl.ttl = time.Millisecond

	rl.getVisitor("ip:1.2.3.4")
	time.Sleep(5 * time.Millisecond)

	// Force the opportunistic cleanup path.
	rl.cleanupN = 4999
	rl.getVisitor("ip:5.6.7.8")

	rl.mu.Lock()
	_, stale := rl.visitors["ip:1.2.3.4"]
	rl.mu.Unlock()
	if stale {
		t.Fatal("idle visitor was not evicted")
	}
}
