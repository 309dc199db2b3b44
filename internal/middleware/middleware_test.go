package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-bookings/internal/config"
	"github.com/iliyamo/event-bookings/internal/model"
	"github.com/iliyamo/event-bookings/internal/utils"
)

const secret = "mw-secret"

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

// serve runs one request through Authenticate and RequireRole.
func serve(t *testing.T, req *http.Request, roles ...model.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/guarded", ok, Authenticate(secret), RequireRole("/login", roles...))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, id uint64, role model.Role) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		description string
		auth        string
		accept      string
		roles       []model.Role
		wantStatus  int
		wantBody    string
		wantHeader  string
	}{
		{
			description: "anonymous json client",
			accept:      "application/json",
			roles:       []model.Role{model.RoleAdmin},
			wantStatus:  http.StatusUnauthorized,
			wantBody:    `{"error":"unauthenticated"}`,
		},
		{
			description: "anonymous browser",
			accept:      "text/html",
			roles:       []model.Role{model.RoleAdmin},
			wantStatus:  http.StatusFound,
			wantHeader:  "/login",
		},
		{
			description: "wrong role json client",
			auth:        "customer",
			accept:      "application/json",
			roles:       []model.Role{model.RoleAdmin, model.RoleMerchant},
			wantStatus:  http.StatusForbidden,
			wantBody:    `{"error":"forbidden"}`,
		},
		{
			description: "wrong role browser",
			auth:        "customer",
			accept:      "text/html",
			roles:       []model.Role{model.RoleAdmin},
			wantStatus:  http.StatusForbidden,
		},
		{
			description: "empty allow set",
			auth:        "admin",
			accept:      "application/json",
			wantStatus:  http.StatusForbidden,
		},
		{
			description: "allowed",
			auth:        "merchant",
			roles:       []model.Role{model.RoleAdmin, model.RoleMerchant},
			wantStatus:  http.StatusOK,
			wantBody:    "ok",
		},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if tt.accept != "" {
			req.Header.Set(echo.HeaderAccept, tt.accept)
		}
		if tt.auth != "" {
			req.Header.Set(echo.HeaderAuthorization, bearer(t, 3, model.Role(tt.auth)))
		}
		rec := serve(t, req, tt.roles...)
		assert.Equalf(t, tt.wantStatus, rec.Code, tt.description)
		if tt.wantBody != "" {
			if tt.wantBody[0] == '{' {
				assert.JSONEqf(t, tt.wantBody, rec.Body.String(), tt.description)
			} else {
				assert.Equalf(t, tt.wantBody, rec.Body.String(), tt.description)
			}
		}
		if tt.wantHeader != "" {
			assert.Equalf(t, tt.wantHeader, rec.Header().Get(echo.HeaderLocation), tt.description)
		}
	}
}

func TestAuthenticate_InvalidTokenIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	rec := serve(t, req, model.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_SetsPrincipal(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 11, model.RoleCustomer))
	c := e.NewContext(req, httptest.NewRecorder())

	var got *model.Principal
	h := Authenticate(secret)(func(c echo.Context) error {
		got = CurrentPrincipal(c)
		return nil
	})
	require.NoError(t, h(c))
	require.NotNil(t, got)
	assert.Equal(t, model.Principal{UserID: 11, Role: model.RoleCustomer}, *got)
	assert.Equal(t, "customer:11", userID(c))
}

func newContext(path, id string, p *model.Principal) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/"+id+"?x=1", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(path)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if p != nil {
		SetPrincipal(c, p)
	}
	return c
}

func TestCacheKeyFrom(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	admin := &model.Principal{UserID: 1, Role: model.RoleAdmin}
	merchant := &model.Principal{UserID: 1, Role: model.RoleMerchant}

	a := cacheKeyFrom(cfg, newContext("/v1/bookings/:id", "41", admin))
	assert.Equal(t, a, cacheKeyFrom(cfg, newContext("/v1/bookings/:id", "41", admin)))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, newContext("/v1/bookings/:id", "41", merchant)))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, newContext("/v1/bookings/:id", "42", admin)))
	assert.NotEqual(t, a, cacheKeyFrom(cfg, newContext("/v1/bookings/:id", "41", nil)))
	assert.Contains(t, a, "cache:")
}

func TestBuildRateKey(t *testing.T) {
	p := &model.Principal{UserID: 5, Role: model.RoleCustomer}
	c := newContext("/v1/my-bookings/:id", "9", p)

	assert.Equal(t, "rl:user:customer:5", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Equal(t, "rl:route:GET /v1/my-bookings/:id", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "route"}, c))
	assert.Equal(t, "rl:user:guest", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, newContext("/", "1", nil)))
}

func TestParseBucketResult(t *testing.T) {
	res, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
	require.True(t, ok)
	assert.False(t, res.allowed)
	assert.Equal(t, 1500*time.Millisecond, res.retry)

	res, ok = parseBucketResult([]interface{}{int64(1), "7", int64(0)})
	require.True(t, ok)
	assert.True(t, res.allowed)
	assert.Equal(t, int64(7), res.remaining)

	_, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
	for _, mw := range []echo.MiddlewareFunc{
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
	} {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, "ok", rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"id":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"id":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	assert.Equal(t, "abcd", cw.buf.String())
	assert.True(t, cw.truncated())
	assert.Equal(t, "abcdef", rec.Body.String())
}
