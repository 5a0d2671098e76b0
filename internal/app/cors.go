package app

import (
	"net/url"
	"strings"

	"github.com/bdp-api/helper/internal/config"
	"github.com/bdp-api/helper/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware lets browser clients call the directory routes. Outside
// development the allowed_origins patterns gate which origins get through.
func corsMiddleware(cfg *config.AppConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "x-bdp-cache", middleware.RequestIDHeader},
		AllowCredentials: true,
		AllowOriginFunc:  func(string) bool { return true },
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		c.AllowOriginFunc = originMatcher(cfg.AllowedOrigins)
	}
	return cors.New(c)
}

// originMatcher accepts exact hosts, "*.domain" suffixes and "host:*" for any port.
func originMatcher(patterns []string) func(string) bool {
	return func(origin string) bool {
		host := origin
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			host = u.Host
		}
		for _, p := range patterns {
			switch {
			case p == host:
				return true
			case strings.HasPrefix(p, "*.") && strings.HasSuffix(host, p[1:]):
				return true
			case strings.HasSuffix(p, ":*") && strings.HasPrefix(host, p[:len(p)-1]):
				return true
			}
		}
		return false
	}
}
