package middleware

import (
	"strconv"
	"time"

	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	rateLimitMax    = 50
	rateLimitWindow = time.Second
	rateLimitPrefix = "bdp:rate_limit:"
)

// RateLimit caps anonymous callers at rateLimitMax requests per window per
// IP (fixed windows in Redis). Authenticated callers and Redis errors pass.
func RateLimit(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rdb == nil || ip == "" || IsAuthenticated(c) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().Truncate(rateLimitWindow).Unix()
		key := rateLimitPrefix + ip + ":" + strconv.FormatInt(window, 10)

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			p.Expire(ctx, key, 2*rateLimitWindow)
			return nil
		})
		if err != nil {
			c.Next()
			return
		}

		switch n := incr.Val(); {
		case n <= rateLimitMax:
			c.Next()
		default:
			if n == rateLimitMax+1 {
				logger.Warn("rate limited", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			}
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow/time.Second)))
			response.TooManyRequests(c)
		}
	}
}
