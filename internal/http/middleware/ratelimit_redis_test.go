package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			db = n
		}
	}

	InitRedisRateLimiter(addr, pass, db)

	// small window for test
	w := 2 * time.Second
	max := 2

	r := gin.New()
	r.GET("/test", RedisRateLimit(max, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client := &http.Client{}

	// do max allowed requests
	for i := 0; i < max; i++ {
		req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
		res, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if res.StatusCode != 200 {
			t.Fatalf("expected 200 got %d", res.StatusCode)
		}
	}

	// next request should be blocked
	req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}

// Per-user purchase limiter counts by user ID, so two users don't share
// a bucket.
func TestPurchaseRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}

	InitRedisRateLimiter(addr, os.Getenv("REDIS_PASSWORD"), 0)

	w := 2 * time.Second
	max := 1

	r := gin.New()
	r.POST("/buy", func(c *gin.Context) {
		uid, _ := strconv.ParseInt(c.Query("uid"), 10, 64)
		c.Set("user_id", uid)
	}, PurchaseRateLimit(max, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	do := func(uid string) int {
		res, err := http.Post(srv.URL+"/buy?uid="+uid, "application/json", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	if code := do("101"); code != 200 {
		t.Fatalf("first purchase for user 101: expected 200 got %d", code)
	}
	if code := do("101"); code != 429 {
		t.Fatalf("second purchase for user 101: expected 429 got %d", code)
	}
	// a different user is not affected
	if code := do("102"); code != 200 {
		t.Fatalf("first purchase for user 102: expected 200 got %d", code)
	}
}
