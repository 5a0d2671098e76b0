package app

import (
	"context"

	pkgcron "github.com/bdp-api/helper/internal/pkg/cron"
	"go.uber.org/zap"
)

const (
	jobRefreshFields = "refresh_field_registry"
	jobPreloadTerms  = "preload_term_lookups"
)

// registerCronJobs registers the cache refresh jobs. A zero interval in the
// config disables the job.
func registerCronJobs(sched *pkgcron.Scheduler, a *App, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        jobRefreshFields,
		Description: "Rebuild the form field registry from the field table",
		Interval:    a.cfg.RegistryRefreshInterval(),
		Fn: func(ctx context.Context) error {
			snap, err := a.fields.Refresh(ctx)
			if err != nil {
				return err
			}
			cronLogger.Debug("field registry refreshed", zap.Int("fields", snap.Len()))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        jobPreloadTerms,
		Description: "Rebuild the region, category and tag lookups",
		Interval:    a.cfg.TaxonomyRefreshInterval(),
		Fn: func(ctx context.Context) error {
			if _, err := a.terms.Preload(ctx); err != nil {
				return err
			}
			a.purgeResponseCache()
			return nil
		},
	})
}
