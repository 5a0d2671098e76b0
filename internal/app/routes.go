package app

import (
	"context"
	"net/http"

	"github.com/bdp-api/helper/internal/middleware"
	"github.com/bdp-api/helper/internal/modules/directory/listing"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	"github.com/bdp-api/helper/internal/modules/system/health"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth(a.db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	var rdb *redis.Client
	if a.rc != nil {
		rdb = a.rc.Raw()
	}

	ns := a.cfg.Directory.Namespace
	appInfo := gin.H{"name": "bdp-api-helper", "namespace": ns}
	r.GET("/", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })

	api := r.Group(ns,
		middleware.OptionalAuth(a.db),
		middleware.RateLimit(rdb, a.logger),
		middleware.Idempotence(rdb))

	health.NewHandler(a.sched, processStart, a.healthProbes()).RegisterRoutes(api, authMW)

	cached := api.Group("", middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{}))
	registry.NewHandler(a.fields, a.bus, a.logger).RegisterRoutes(cached, authMW)
	taxonomy.NewHandler(a.terms).RegisterRoutes(cached)
	listing.NewHandler(a.listings, a.cfg.Directory.EditURLTemplate, a.logger).RegisterRoutes(api, authMW)
}

func (a *App) healthProbes() map[string]health.Probe {
	probes := map[string]health.Probe{
		"database": func(ctx context.Context) (interface{}, bool) {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err.Error(), false
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err.Error(), false
			}
			return "up", true
		},
		"fields": func(context.Context) (interface{}, bool) {
			snap := a.fields.Snapshot()
			return gin.H{"count": snap.Len(), "version": snap.Version()}, true
		},
		"terms": func(context.Context) (interface{}, bool) {
			l, err := a.terms.Current()
			if err != nil {
				return err.Error(), false
			}
			return gin.H{"built_at": l.BuiltAt()}, true
		},
	}
	if a.rc != nil {
		probes["redis"] = func(ctx context.Context) (interface{}, bool) {
			if err := a.rc.Ping(ctx); err != nil {
				return err.Error(), false
			}
			return "up", true
		}
	}
	return probes
}
