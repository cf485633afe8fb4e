package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"product-service/pkg/logger"
	"product-service/pkg/utils"

	"golang.org/x/time/rate"
)

// Quota is a token bucket: a sustained rate plus the burst allowed on top of it.
type Quota struct {
	PerSecond rate.Limit
	Burst     int
}

// Each client gets one bucket for reads and another for writes.
type bucketKey struct {
	ip    string
	write bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP and request class.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	read    Quota
	write   Quota
	idleTTL time.Duration
	stop    context.CancelFunc
}

// NewRateLimiter starts a limiter whose idle buckets are swept every
// sweepEvery once unused for idleTTL. Call Shutdown to stop the sweeper.
func NewRateLimiter(ctx context.Context, read, write Quota, sweepEvery, idleTTL time.Duration) *RateLimiter {
	ctx, cancel := context.WithCancel(ctx)
	rl := &RateLimiter{
		buckets: make(map[bucketKey]*bucket),
		read:    read,
		write:   write,
		idleTTL: idleTTL,
		stop:    cancel,
	}
	go rl.sweepLoop(ctx, sweepEvery)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bucketKey{ip: getClientIP(r), write: isWrite(r.Method)}
			res := rl.limiter(key).Reserve()

			if !res.OK() {
				rl.reject(w, r, key, 0)
				return
			}
			if delay := res.Delay(); delay > 0 {
				// Hand the token back; the request is refused, not queued.
				res.Cancel()
				rl.reject(w, r, key, delay)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, key bucketKey, wait time.Duration) {
	if wait > 0 {
		w.Header().Set("Retry-After", retryAfter(wait))
	}
	logger.WithContext(r.Context()).Debug().
		Str("client_ip", key.ip).
		Bool("write", key.write).
		Dur("retry_in", wait).
		Msg("Rate limited")
	utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
}

func (rl *RateLimiter) limiter(key bucketKey) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}

	q := rl.read
	if key.write {
		q = rl.write
	}
	b := &bucket{limiter: rate.NewLimiter(q.PerSecond, q.Burst), lastSeen: now}
	rl.buckets[key] = b
	return b.limiter
}

func (rl *RateLimiter) sweepLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) Shutdown() {
	rl.stop()
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// retryAfter renders a wait as whole seconds, rounded up.
func retryAfter(wait time.Duration) string {
	secs := int64(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
