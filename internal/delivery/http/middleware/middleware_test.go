package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"product-service/config"
	"product-service/internal/domain"
	"product-service/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	utils.SetSecret("middleware-secret")
	token, err := utils.GenerateJWT("u-1", "u@example.com", role, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	var seen *domain.User
	h := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(domain.UserContextKey).(*domain.User)
	}))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: tokenFor(t, domain.RoleAdmin)})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, &domain.User{ID: "u-1", Email: "u@example.com", Role: domain.RoleAdmin}, seen)
	})
}

func TestProtect(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		token   string
		want    int
	}{
		{"disabled lets anyone through", false, "", http.StatusOK},
		{"admin", true, tokenFor(t, domain.RoleAdmin), http.StatusOK},
		{"customer", true, tokenFor(t, "customer"), http.StatusForbidden},
		{"anonymous", true, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products/add", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			Protect(tt.enabled)(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminMiddleware_NoUser(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminMiddleware(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	h := NewCORSMiddleware(&config.Config{AllowedOrigin: "https://shop.example.com, https://admin.example.com"})(http.HandlerFunc(okHandler))

	t.Run("listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/products/x", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestRateLimiter(t *testing.T) {
	generous := Quota{PerSecond: rate.Limit(100), Burst: 100}
	rl := NewRateLimiter(context.Background(), Quota{PerSecond: rate.Limit(1), Burst: 2}, generous, time.Minute, time.Minute)
	defer rl.Shutdown()
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("2.2.2.2"))
}

func TestRateLimiter_RetryAfterFromReservation(t *testing.T) {
	// one token every two seconds
	slow := Quota{PerSecond: rate.Limit(0.5), Burst: 1}
	rl := NewRateLimiter(context.Background(), slow, slow, time.Minute, time.Minute)
	defer rl.Shutdown()
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do().Code)

	// Rejected requests hand their token back, so the wait does not grow.
	for i := 0; i < 3; i++ {
		rec := do()
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_WritesHaveTheirOwnBucket(t *testing.T) {
	reads := Quota{PerSecond: rate.Limit(100), Burst: 100}
	writes := Quota{PerSecond: rate.Limit(1), Burst: 1}
	rl := NewRateLimiter(context.Background(), reads, writes, time.Minute, time.Minute)
	defer rl.Shutdown()
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	hit := func(method string) int {
		req := httptest.NewRequest(method, "/products/x", nil)
		req.RemoteAddr = "192.0.2.20:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit(http.MethodPatch))
	assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodDelete))
	assert.Equal(t, http.StatusTooManyRequests, hit(http.MethodPost))
	assert.Equal(t, http.StatusOK, hit(http.MethodGet))
	assert.Equal(t, http.StatusOK, hit(http.MethodGet))
}

func TestRateLimiter_ZeroBurstRejectsWithoutRetryAfter(t *testing.T) {
	closed := Quota{PerSecond: rate.Limit(1), Burst: 0}
	rl := NewRateLimiter(context.Background(), closed, closed, time.Minute, time.Minute)
	defer rl.Shutdown()

	rec := httptest.NewRecorder()
	rl.Middleware()(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	q := Quota{PerSecond: rate.Limit(1), Burst: 1}
	rl := NewRateLimiter(context.Background(), q, q, time.Hour, time.Minute)
	defer rl.Shutdown()

	rl.limiter(bucketKey{ip: "192.0.2.30"})
	rl.limiter(bucketKey{ip: "192.0.2.30", write: true})

	rl.sweep(time.Now())
	assert.Len(t, rl.buckets, 2)

	rl.sweep(time.Now().Add(2 * time.Minute))
	assert.Empty(t, rl.buckets)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, "1", retryAfter(time.Millisecond))
	assert.Equal(t, "1", retryAfter(time.Second))
	assert.Equal(t, "2", retryAfter(1500*time.Millisecond))
	assert.Equal(t, "60", retryAfter(time.Minute))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	RequestLogger(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}
