package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/metrics"
	"github.com/iliyamo/cinema-catalog/internal/utils"
)

func authEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	who := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
	}
	e.GET("/me", who, JWTAuth("secret"))
	e.GET("/admin", who, JWTAuth("secret"), RequireRole("admin"))
	return e
}

func bearer(t *testing.T, secret, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "u-1", role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthAndRole(t *testing.T) {
	e := authEcho(t)
	cases := []struct {
		name, path, auth string
		want             int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "/me", bearer(t, "other", "admin"), http.StatusUnauthorized},
		{"user ok", "/me", bearer(t, "secret", "user"), http.StatusOK},
		{"user on admin route", "/admin", bearer(t, "secret", "user"), http.StatusForbidden},
		{"admin ok", "/admin", bearer(t, "secret", "admin"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"id":"u-1"`)
			} else {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

var cacheCfg = config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1024}

func TestCacheMissStoresResponse(t *testing.T) {
	db, mock := redismock.NewClientMock()
	calls := 0
	h := NewRedisCache(cacheCfg, db)(func(c echo.Context) error {
		calls++
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`[]`))
	})

	key := cacheKey("cache", "0", http.MethodGet, "/api/movies", "page=1")
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {echo.MIMEApplicationJSON}}, []byte(`[]`))
	require.NoError(t, err)
	mock.ExpectGet("cache:gen").RedisNil()
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, payload, time.Minute).SetVal("OK")

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/movies?page=1", nil), rec)
	require.NoError(t, h(c))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, `[]`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheHitSkipsHandler(t *testing.T) {
	db, mock := redismock.NewClientMock()
	h := NewRedisCache(cacheCfg, db)(func(c echo.Context) error {
		t.Fatal("handler must not run on a hit")
		return nil
	})

	key := cacheKey("cache", "3", http.MethodGet, "/api/shows/by-movie/m1", "")
	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {echo.MIMEApplicationJSON}}, []byte(`[{"_id":"s1"}]`))
	require.NoError(t, err)
	mock.ExpectGet("cache:gen").SetVal("3")
	mock.ExpectGet(key).SetVal(string(payload))

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/shows/by-movie/m1", nil), rec)
	require.NoError(t, h(c))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `[{"_id":"s1"}]`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeysDifferByPathAndGeneration(t *testing.T) {
	a := cacheKey("cache", "0", http.MethodGet, "/api/shows/by-movie/m1", "")
	b := cacheKey("cache", "0", http.MethodGet, "/api/shows/by-movie/m2", "")
	c := cacheKey("cache", "1", http.MethodGet, "/api/shows/by-movie/m1", "")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCacheWriteBumpsGeneration(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mw := NewRedisCache(cacheCfg, db)

	ok := mw(func(c echo.Context) error { return c.JSON(http.StatusCreated, echo.Map{"_id": "h1"}) })
	mock.ExpectIncr("cache:gen").SetVal(1)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/halls", nil), httptest.NewRecorder())
	require.NoError(t, ok(c))

	bad := mw(func(c echo.Context) error { return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation"}) })
	c = echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/halls", nil), httptest.NewRecorder())
	require.NoError(t, bad(c))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	called := false
	h := NewRedisCache(cacheCfg, nil)(func(c echo.Context) error { called = true; return nil })
	require.NoError(t, h(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())))
	assert.True(t, called)
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 0, 99})
	assert.False(t, ok)
}

var rlCfg = config.RateLimitConfig{
	Enabled:        true,
	Capacity:       5,
	RefillTokens:   1,
	RefillInterval: time.Second,
	TTL:            time.Minute,
	KeyStrategy:    "ip_user_route",
	Prefix:         "rl",
}

func rateContext(rec *httptest.ResponseRecorder) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	c := echo.New().NewContext(req, rec)
	c.SetPath("/api/movies")
	return c
}

func TestTokenBucket(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	clock := func() time.Time { return now }
	key := "rl:ip:192.0.2.1:user:anon:route:GET /api/movies"
	args := []any{now.UnixMilli(), 5, 1, int64(1000), int64(60)}

	t.Run("allowed", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectEvalSha(LimiterScript.Hash(), []string{key}, args...).SetVal([]any{int64(1), int64(4), int64(0)})
		rec := httptest.NewRecorder()
		called := false
		h := NewTokenBucket(rlCfg, db, clock)(func(c echo.Context) error { called = true; return c.NoContent(http.StatusOK) })
		require.NoError(t, h(rateContext(rec)))
		assert.True(t, called)
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectEvalSha(LimiterScript.Hash(), []string{key}, args...).SetVal([]any{int64(0), int64(0), int64(1500)})
		rec := httptest.NewRecorder()
		h := NewTokenBucket(rlCfg, db, clock)(func(c echo.Context) error {
			t.Fatal("blocked request reached the handler")
			return nil
		})
		require.NoError(t, h(rateContext(rec)))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis down fails open", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectEvalSha(LimiterScript.Hash(), []string{key}, args...).SetErr(errors.New("connection refused"))
		called := false
		h := NewTokenBucket(rlCfg, db, clock)(func(c echo.Context) error { called = true; return nil })
		require.NoError(t, h(rateContext(httptest.NewRecorder())))
		assert.True(t, called)
	})
}

func TestRateKeyStrategies(t *testing.T) {
	c := rateContext(httptest.NewRecorder())
	c.Set(userIDKey, "u-9")
	cfg := rlCfg
	assert.Equal(t, "rl:ip:192.0.2.1:user:u-9:route:GET /api/movies", rateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:192.0.2.1", rateKey(cfg, c))
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:192.0.2.1:route:GET /api/movies", rateKey(cfg, c))
}

func TestMetricsMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/api/halls/:id/seats", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	}, Metrics())

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/halls/:id/seats", "404")
	before := testutil.ToFloat64(counter)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/halls/h1/seats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
