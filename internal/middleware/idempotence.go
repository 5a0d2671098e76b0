package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
	idempotencePrefix = "bdp:idempotence:"

	idemPending = "pending"
	idemDone    = "done"
)

// Idempotence guards mutating requests against double submission: the
// first request claims the key, a repeat is rejected with 409
// duplicate_request while the first is in flight and for idempotenceTTL
// after it succeeded. A failed request releases its claim so the caller can
// retry. Routes whose repeats are legitimate are only guarded when the
// caller sends an x-idempotence header.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if c.GetHeader(idempotenceHeader) == "" && shouldSkipFingerprint(c.FullPath()) {
			c.Next()
			return
		}
		id, err := requestFingerprint(c)
		if err != nil {
			c.Next()
			return
		}
		key := idempotencePrefix + id
		ctx := c.Request.Context()

		claimed, err := rdb.SetNX(ctx, key, idemPending, idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			state, err := rdb.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				c.Next()
				return
			}
			msg := "The same request already succeeded within the last 60 seconds."
			if state == idemPending {
				msg = "The same request is still being processed."
			}
			response.Error(c, apperr.Conflict("duplicate_request", msg))
			return
		}

		c.Next()

		if s := c.Writer.Status(); s >= 200 && s < 300 {
			rdb.Set(ctx, key, idemDone, redis.KeepTTL)
		} else {
			rdb.Del(ctx, key)
		}
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut
}

// repeatableRoutes may legitimately receive identical bodies back to back:
// field events signal a refresh, an unchanged update reports no changes and
// a cron job can be re-run on demand.
var repeatableRoutes = []string{
	"/fields/events",
	"/update-listing",
	"/cron/run/:name",
}

func shouldSkipFingerprint(fullPath string) bool {
	p := strings.TrimRight(strings.ToLower(fullPath), "/")
	for _, suffix := range repeatableRoutes {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

// requestFingerprint is the x-idempotence header when given, otherwise a
// hash of caller, route and body. The body is put back for the handler.
func requestFingerprint(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return "h:" + hdr, nil
	}
	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		body = b
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	caller := CurrentUserID(c)
	if caller == "" {
		caller = c.ClientIP() + "|" + c.Request.UserAgent()
	}
	h := sha256.New()
	for _, part := range [][]byte{[]byte(caller), []byte(c.Request.Method), []byte(c.Request.URL.String()), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
