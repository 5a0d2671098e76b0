package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bdp-api/helper/internal/config"
	"github.com/bdp-api/helper/internal/database"
	"github.com/bdp-api/helper/internal/middleware"
	"github.com/bdp-api/helper/internal/modules/directory/listing"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/store"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	pkgcron "github.com/bdp-api/helper/internal/pkg/cron"
	pkgredis "github.com/bdp-api/helper/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bootTimeout = 30 * time.Second

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	fields   *registry.Cache
	bus      registry.EventBus
	terms    *taxonomy.Service
	listings *listing.Service
}

// New initializes the application: config → DB → Redis → caches → routes.
// Both caches are loaded before New returns, so no request is served
// against an unbuilt lookup.
func New(logger *zap.Logger, cfg *config.AppConfig, autoMigrate bool) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, field events stay in-process and rate limiting is off", zap.Error(err))
		rc = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{cfg: cfg, db: db, rc: rc, logger: logger, cancel: cancel}
	if err := a.buildDirectory(ctx); err != nil {
		cancel()
		return nil, err
	}

	a.sched = pkgcron.New(logger)
	registerCronJobs(a.sched, a, logger)
	go a.sched.Start(ctx)

	a.router = newRouter(cfg, logger)
	a.registerRoutes()
	return a, nil
}

func (a *App) buildDirectory(ctx context.Context) error {
	dir := a.cfg.Directory

	a.fields = registry.NewCache(store.NewFieldStore(a.db), store.NewOptionSlot(a.db), registry.WithLogger(a.logger))
	args := listing.NewArgsBuilder()
	a.fields.OnSwap(args.Rebuild)
	a.fields.OnSwap(func(*registry.Snapshot) { a.purgeResponseCache() })

	a.terms = taxonomy.NewService(store.NewTermStore(a.db),
		taxonomy.WithLogger(a.logger),
		taxonomy.WithStrictNames(dir.StrictTermNames))

	a.listings = listing.NewService(store.NewContentStore(a.db), a.fields, a.terms,
		listing.WithLogger(a.logger),
		listing.WithArgsBuilder(args),
		listing.WithDefaultStatus(dir.DefaultStatus),
		listing.WithCoerceScalarTags(dir.CoerceScalarTags))

	bootCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	defer cancel()
	if err := a.fields.Load(bootCtx); err != nil {
		return fmt.Errorf("field registry: %w", err)
	}
	if _, err := a.terms.Preload(bootCtx); err != nil {
		return fmt.Errorf("term lookups: %w", err)
	}

	if a.rc != nil {
		bus := registry.NewRedisBus(a.rc, a.logger)
		a.bus = bus
		go func() {
			if err := bus.Listen(ctx, a.fields.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("field event listener stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

func newRouter(cfg *config.AppConfig, logger *zap.Logger) *gin.Engine {
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.Use(corsMiddleware(cfg))
	return router
}

// purgeResponseCache drops cached GET responses after a snapshot swap.
func (a *App) purgeResponseCache() {
	if a.rc == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := middleware.PurgeHTTPCache(ctx, a.rc.Raw()); err != nil {
			a.logger.Warn("purge response cache failed", zap.Error(err))
		}
	}()
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	if a.rc != nil {
		_ = a.rc.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

var processStart = time.Now()
