package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/rs/zerolog/log"
)

const minIdleTTL = time.Minute

type clientBucket struct {
	bucket   *ratelimit.Bucket
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address. Buckets idle
// long enough to have refilled are dropped.
type RateLimiter struct {
	rate     float64
	capacity int64
	idleTTL  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*clientBucket
	lastSweep time.Time
}

// NewRateLimiter allows rate requests per second per client with bursts
// of up to capacity requests.
func NewRateLimiter(rate float64, capacity int64) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if capacity <= 0 {
		capacity = max(1, int64(rate))
	}

	refill := time.Duration(float64(capacity) / rate * float64(time.Second))
	return &RateLimiter{
		rate:      rate,
		capacity:  capacity,
		idleTTL:   max(minIdleTTL, refill),
		now:       time.Now,
		buckets:   make(map[string]*clientBucket),
		lastSweep: time.Now(),
	}
}

// Allow takes a token from the bucket of key.
func (l *RateLimiter) Allow(key string) bool {
	return l.bucket(key).TakeAvailable(1) > 0
}

func (l *RateLimiter) bucket(key string) *ratelimit.Bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{bucket: ratelimit.NewBucketWithRate(l.rate, l.capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.bucket
}

// sweep drops buckets unused for idleTTL. Such a bucket is full again,
// so a fresh one behaves the same.
func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// Limit answers 429 once the client's bucket is empty.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !l.Allow(key) {
			log.Warn().Str("client", key).Str("uri", r.RequestURI).Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", retryAfter(l.rate))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey is the host of RemoteAddr. Forwarding headers are only
// reflected here when a trusted proxy setup rewrote RemoteAddr upstream.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(rate float64) string {
	if rate <= 0 || rate >= 1 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(1 / rate)))
}
