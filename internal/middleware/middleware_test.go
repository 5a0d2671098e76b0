package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bdp-api/helper/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("  Bearer abc "))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "txo123", NormalizeToken("txo123"))
	assert.Equal(t, "", NormalizeToken("   "))
}

func TestParseBasic(t *testing.T) {
	enc := func(s string) string { return "Basic " + base64.StdEncoding.EncodeToString([]byte(s)) }

	user, pass, ok := parseBasic(enc("editor:abcd efgh ijkl"))
	require.True(t, ok)
	assert.Equal(t, "editor", user)
	assert.Equal(t, "abcdefghijkl", pass)

	_, _, ok = parseBasic(enc("no-colon"))
	assert.False(t, ok)
	_, _, ok = parseBasic(enc(":secret"))
	assert.False(t, ok)
	_, _, ok = parseBasic("Basic !!!")
	assert.False(t, ok)
	_, _, ok = parseBasic("Bearer abc")
	assert.False(t, ok)
}

func TestMatchAppPassword(t *testing.T) {
	hash, err := HashAppPassword("abcd efgh")
	require.NoError(t, err)
	rows := []models.AppPasswordModel{{Name: "other", Hash: "$2a$10$invalid"}, {Name: "cli", Hash: hash}}

	m := matchAppPassword(rows, "abcdefgh")
	require.NotNil(t, m)
	assert.Equal(t, "cli", m.Name)
	assert.Nil(t, matchAppPassword(rows, "wrong"))
	assert.Nil(t, matchAppPassword(rows, ""))
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	r := gin.New()
	r.POST("/create-listing", Auth(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/create-listing", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"rest_forbidden"`)
}

func TestMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, nil), Idempotence(nil), HTTPCache(nil, HTTPCacheOptions{}))
	r.GET("/fields", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/create-listing", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		path := "/fields"
		if method == http.MethodPost {
			path = "/create-listing"
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCacheHelpers(t *testing.T) {
	assert.Equal(t, "bdp:api-cache:3:/v1/fields?x=1", cacheEntryKey(3, "/v1/fields?x=1"))

	assert.True(t, isCacheableResponse(http.StatusOK, http.Header{}))
	assert.False(t, isCacheableResponse(http.StatusNotFound, http.Header{}))
	assert.False(t, isCacheableResponse(http.StatusOK, http.Header{"Cache-Control": {"private"}}))

	status, ctype, body, ok := decodeCacheEntry(map[string]string{"status": "", "body": "[]"})
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json; charset=utf-8", ctype)
	assert.Equal(t, "[]", string(body))
	_, _, _, ok = decodeCacheEntry(map[string]string{})
	assert.False(t, ok)
}

func TestCapturingWriterStopsAtLimit(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	w := &capturingWriter{ResponseWriter: c.Writer, limit: 4}
	_, _ = w.WriteString("ab")
	assert.Equal(t, "ab", string(w.body))
	_, _ = w.Write([]byte("cde"))
	assert.True(t, w.full)
	assert.Nil(t, w.body)
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/fields", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fields", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/fields", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
