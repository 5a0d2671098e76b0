package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	APICachePrefix = "bdp:api-cache:"
	// cacheGenerationKey is bumped on purge; entries of older generations are
	// never read again and age out through their TTL.
	cacheGenerationKey = APICachePrefix + "gen"

	defaultHTTPCacheTTL     = 15 * time.Second
	defaultHTTPCacheMaxBody = 1 << 20
	cacheHeader             = "x-bdp-cache"
)

// HTTPCacheOptions configures the shared response cache of the lookup routes
// (/fields, /regions, /categories, /tags).
type HTTPCacheOptions struct {
	TTL          time.Duration
	Disable      bool
	MaxBodyBytes int
}

// capturingWriter tees the response body while it stays under limit.
type capturingWriter struct {
	gin.ResponseWriter
	body  []byte
	limit int
	full  bool
}

func (w *capturingWriter) Write(data []byte) (int, error) {
	w.keep(data)
	return w.ResponseWriter.Write(data)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.keep([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *capturingWriter) keep(data []byte) {
	if w.full {
		return
	}
	if len(w.body)+len(data) > w.limit {
		w.full = true
		w.body = nil
		return
	}
	w.body = append(w.body, data...)
}

// HTTPCache serves repeated anonymous GETs from Redis. Each entry is a hash
// {status, type, body} under the current generation; PurgeHTTPCache starts a
// new generation whenever a field snapshot or term lookup is replaced.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	maxAge := "max-age=" + strconv.Itoa(int(opts.TTL/time.Second))

	return func(c *gin.Context) {
		if opts.Disable || rdb == nil || c.Request.Method != http.MethodGet || IsAuthenticated(c) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		gen, err := rdb.Get(ctx, cacheGenerationKey).Int64()
		if err != nil && err != redis.Nil {
			c.Next()
			return
		}
		key := cacheEntryKey(gen, c.Request.URL.RequestURI())

		if entry, err := rdb.HGetAll(ctx, key).Result(); err == nil {
			if status, ctype, body, ok := decodeCacheEntry(entry); ok {
				c.Header(cacheHeader, "hit")
				c.Header("Cache-Control", maxAge)
				c.Data(status, ctype, body)
				c.Abort()
				return
			}
		}

		w := &capturingWriter{ResponseWriter: c.Writer, limit: opts.MaxBodyBytes}
		c.Writer = w
		c.Next()

		if w.full || len(w.body) == 0 || !isCacheableResponse(w.Status(), w.Header()) {
			return
		}
		_, _ = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, "status", w.Status(), "type", w.Header().Get("Content-Type"), "body", w.body)
			p.Expire(ctx, key, opts.TTL)
			return nil
		})
	}
}

// PurgeHTTPCache invalidates every cached response by moving to a new generation.
func PurgeHTTPCache(ctx context.Context, rdb *redis.Client) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.Incr(ctx, cacheGenerationKey).Result()
}

func cacheEntryKey(gen int64, uri string) string {
	return APICachePrefix + strconv.FormatInt(gen, 10) + ":" + uri
}

func decodeCacheEntry(entry map[string]string) (int, string, []byte, bool) {
	body, ok := entry["body"]
	if !ok {
		return 0, "", nil, false
	}
	status, err := strconv.Atoi(entry["status"])
	if err != nil || status <= 0 {
		status = http.StatusOK
	}
	ctype := entry["type"]
	if ctype == "" {
		ctype = "application/json; charset=utf-8"
	}
	return status, ctype, []byte(body), true
}

func isCacheableResponse(status int, headers http.Header) bool {
	if status != http.StatusOK {
		return false
	}
	cc := strings.ToLower(headers.Get("Cache-Control"))
	for _, directive := range []string{"no-cache", "no-store", "private"} {
		if strings.Contains(cc, directive) {
			return false
		}
	}
	return true
}
