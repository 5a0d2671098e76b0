// Package health reports service readiness and exposes the cache refresh jobs.
package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bdp-api/helper/internal/pkg/cron"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Probe reports the state of one dependency.
type Probe func(ctx context.Context) (detail interface{}, ok bool)

type Handler struct {
	sched  *cron.Scheduler
	probes map[string]Probe
	start  time.Time
}

func NewHandler(sched *cron.Scheduler, start time.Time, probes map[string]Probe) *Handler {
	return &Handler{sched: sched, probes: probes, start: start}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/health", h.health)

	cronGroup := rg.Group("/health/cron", authMW)
	cronGroup.GET("", h.listJobs)
	cronGroup.POST("/run/:name", h.runJob)
}

// health GET /health
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := make(gin.H, len(h.probes))
	for name, probe := range h.probes {
		detail, ok := probe(ctx)
		checks[name] = gin.H{"ok": ok, "detail": detail}
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status": status,
		"uptime": time.Since(h.start).Truncate(time.Second).String(),
		"checks": checks,
	})
}

// listJobs GET /health/cron  [auth]
func (h *Handler) listJobs(c *gin.Context) {
	items := h.sched.List()
	byName := make(map[string]cron.ListItem, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}
	response.OK(c, byName)
}

// runJob POST /health/cron/run/:name  [auth]
func (h *Handler) runJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.sched.RunNow(c.Request.Context(), name); err != nil {
		if errors.Is(err, cron.ErrUnknownJob) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "job finished", "name": name})
}
