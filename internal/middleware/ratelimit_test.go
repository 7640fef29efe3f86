package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube/internal/config"
)

func limiterFixture(t *testing.T, cfg config.RateLimitConfig) echo.HandlerFunc {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return RateLimit(cfg, rdb)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func hitLogin(t *testing.T, h echo.HandlerFunc) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/auth/login")
	require.NoError(t, h(c))
	return rec.Code
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	h := limiterFixture(t, cfg)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitLogin(t, h), "request %d should pass", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hitLogin(t, h))
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	h := RateLimit(config.RateLimitConfig{Enabled: false}, nil)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, hitLogin(t, h))
	}
}
