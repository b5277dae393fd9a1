package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carddash/internal/config"
	"github.com/iliyamo/carddash/internal/dashboard"
	"github.com/iliyamo/carddash/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "role": Role(c)})
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")

	rec = serve(e, http.MethodGet, "/me", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")

	rec = serve(e, http.MethodGet, "/me", bearer(t, "u-1", RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"u-1","role":"USER"}`, rec.Body.String())
}

func TestJWTAuthRejectsForeignSecret(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth("other-secret"))

	rec := serve(e, http.MethodGet, "/me", bearer(t, "u-1", RoleUser))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsTokenWithoutSubject(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": RoleUser,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", whoami, JWTAuth(testSecret), RequireRole(RoleUser))
	e.GET("/maybe", whoami, OptionalJWT(testSecret))

	rec := serve(e, http.MethodGet, "/me", "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/maybe", "Bearer "+signed).Code)
}

func TestOptionalJWT(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, OptionalJWT(testSecret))

	rec := serve(e, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"","role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", bearer(t, "u-2", RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"u-2","role":"USER"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoami, JWTAuth(testSecret), RequireRole(RoleAdmin))

	rec := serve(e, http.MethodGet, "/admin", bearer(t, "u-1", RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/admin", bearer(t, "u-9", RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucket(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_user_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, rdb, slog.New(slog.NewTextHandler(io.Discard, nil))))

	rec := serve(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, nil, nil))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/ping", "").Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/c/abc", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/c/:id")
	c.Set(ctxUserID, "u-1")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:u-1:route:GET /c/:id", buildRateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:u-1", buildRateKey(cfg, c))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "test:cache",
		MaxBodyBytes: 1024,
	}
}

func TestRedisCacheKeysOnConcretePath(t *testing.T) {
	rdb := newRedis(t)
	cfg := cacheConfig()
	calls := map[string]int{}
	e := echo.New()
	e.GET("/c/:id", func(c echo.Context) error {
		calls[c.Param("id")]++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(cfg, rdb))

	rec := serve(e, http.MethodGet, "/c/a", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"a"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/c/a", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"a"}`, rec.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))

	rec = serve(e, http.MethodGet, "/c/b", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":"b"}`, rec.Body.String())

	assert.Equal(t, 1, calls["a"])
	assert.Equal(t, 1, calls["b"])
}

func TestRedisCacheSkipsErrorsAndOversizedBodies(t *testing.T) {
	rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 8
	calls := 0
	e := echo.New()
	e.GET("/missing", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}, NewRedisCache(cfg, rdb))
	e.GET("/big", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "this body is longer than eight bytes")
	}, NewRedisCache(cfg, rdb))

	serve(e, http.MethodGet, "/missing", "")
	serve(e, http.MethodGet, "/missing", "")
	rec := serve(e, http.MethodGet, "/big", "")
	assert.Equal(t, "this body is longer than eight bytes", rec.Body.String())
	rec = serve(e, http.MethodGet, "/big", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 4, calls)
}

func TestCachePurgerDropsConfirmedCards(t *testing.T) {
	rdb := newRedis(t)
	cfg := cacheConfig()
	calls := 0
	e := echo.New()
	e.GET("/c/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, NewRedisCache(cfg, rdb))

	serve(e, http.MethodGet, "/c/a", "")
	assert.Equal(t, "HIT", serve(e, http.MethodGet, "/c/a", "").Header().Get("X-Cache"))

	p := NewCachePurger(cfg, rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NotNil(t, p)

	p.MutationResolved(context.Background(), "u-1", dashboard.Mutation{
		CardID: "a", Kind: dashboard.KindVisibility, State: dashboard.MutationRolledBack,
	})
	assert.Equal(t, "HIT", serve(e, http.MethodGet, "/c/a", "").Header().Get("X-Cache"))

	p.MutationResolved(context.Background(), "u-1", dashboard.Mutation{
		CardID: "a", Kind: dashboard.KindVisibility, State: dashboard.MutationConfirmed,
	})
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/c/a", "").Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestNewCachePurgerDisabled(t *testing.T) {
	cfg := cacheConfig()
	assert.Nil(t, NewCachePurger(cfg, nil, nil))
	cfg.Enabled = false
	assert.Nil(t, NewCachePurger(cfg, newRedis(t), nil))
}
