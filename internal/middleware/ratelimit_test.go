package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per client")
}

func TestRateLimiter_Limit(t *testing.T) {
	limiter := NewRateLimiter(0.5, 1)
	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/make?target=example.com&password=pw", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send("192.0.2.1:1234").Code)

	rec := send("192.0.2.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, send("192.0.2.2:1234").Code)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	assert.Equal(t, float64(1), limiter.rate)
	assert.Equal(t, int64(1), limiter.capacity)
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewRateLimiter(10, 10)
	assert.Equal(t, time.Minute, limiter.idleTTL)

	now := time.Now()
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	for i := 0; i < 100; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Len(t, limiter.buckets, 100)

	now = now.Add(30 * time.Second)
	limiter.Allow("10.0.0.1")

	now = now.Add(40 * time.Second)
	limiter.Allow("10.0.1.1")

	assert.Len(t, limiter.buckets, 2, "only recently seen clients keep a bucket")
	assert.Contains(t, limiter.buckets, "10.0.0.1")
	assert.Contains(t, limiter.buckets, "10.0.1.1")
}

func TestRateLimiter_IdleTTLCoversRefill(t *testing.T) {
	limiter := NewRateLimiter(0.01, 5)
	assert.Equal(t, 500*time.Second, limiter.idleTTL)
}
