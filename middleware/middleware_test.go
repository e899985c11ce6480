package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/config"
	"github.com/riserecover/server/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "middleware-secret"})
	m.Run()
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(), func(ctx *gin.Context) {
		token, exp := CurrentToken(ctx)
		ctx.JSON(http.StatusOK, gin.H{"username": CurrentUsername(ctx), "token": token, "exp": exp})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAuthRequiredAcceptsBearerToken(t *testing.T) {
	token, _, err := utils.GenerateToken("dilani", false, time.Hour)
	require.NoError(t, err)

	w := do(newEngine(), "/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "dilani", got.Username)
	assert.Equal(t, token, got.Token)
}

func TestQueryTokenOnlyAcceptedOnStreams(t *testing.T) {
	token, _, err := utils.GenerateToken("dilani", false, time.Hour)
	require.NoError(t, err)

	r := newEngine()
	r.GET("/stream", StreamAuthRequired(), func(ctx *gin.Context) {
		ctx.String(http.StatusOK, CurrentUsername(ctx))
	})

	w := do(r, "/me?access_token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, errorCode(t, w))

	w = do(r, "/admin?access_token="+token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/stream?access_token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dilani", w.Body.String())

	w = do(r, "/stream", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code, "the header still works on streams")
}

func TestAuthRequiredRejections(t *testing.T) {
	r := newEngine()
	revoked, _, err := utils.GenerateToken("gone", false, time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(revoked, time.Now().Add(time.Hour))

	cases := []struct {
		name string
		auth string
		code int
	}{
		{"missing header", "", 40101},
		{"wrong scheme", "Basic abc", 40102},
		{"empty token", "Bearer   ", 40103},
		{"revoked", "Bearer " + revoked, 40104},
		{"garbage", "Bearer nope", 40105},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, "/me", tc.auth)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestAdminRequired(t *testing.T) {
	r := newEngine()
	member, _, err := utils.GenerateToken("member", false, time.Hour)
	require.NoError(t, err)
	admin, _, err := utils.GenerateToken("admin", true, time.Hour)
	require.NoError(t, err)

	w := do(r, "/admin", "Bearer "+member)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, utils.CodeForbidden, errorCode(t, w))

	w = do(r, "/admin", "Bearer "+admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiterPerKey(t *testing.T) {
	l := NewRateLimiter(4)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst is half the per-minute limit")
	assert.True(t, l.Allow("b"), "buckets are per key")
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", NewRateLimiter(1).Middleware(), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	w := do(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, utils.CodeRateLimited, errorCode(t, w))
}
