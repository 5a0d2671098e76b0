package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bdp-api/helper/internal/pkg/cron"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(sched *cron.Scheduler, probes map[string]Probe) *gin.Engine {
	r := gin.New()
	allow := func(c *gin.Context) { c.Next() }
	NewHandler(sched, time.Now(), probes).RegisterRoutes(r.Group(""), allow)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthReportsDegradedProbe(t *testing.T) {
	up := func(context.Context) (interface{}, bool) { return 3, true }
	down := func(context.Context) (interface{}, bool) { return "not preloaded", false }

	w := serve(newRouter(cron.New(nil), map[string]Probe{"fields": up}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(newRouter(cron.New(nil), map[string]Probe{"fields": up, "terms": down}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestRunJob(t *testing.T) {
	sched := cron.New(nil)
	runs := 0
	sched.Register(cron.Job{Name: "refresh", Interval: time.Hour, Fn: func(context.Context) error {
		runs++
		return nil
	}})
	sched.Register(cron.Job{Name: "broken", Interval: time.Hour, Fn: func(context.Context) error {
		return errors.New("store down")
	}})
	r := newRouter(sched, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/health/cron/run/refresh").Code)
	assert.Equal(t, 1, runs)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodPost, "/health/cron/run/broken").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/health/cron/run/missing").Code)

	w := serve(r, http.MethodGet, "/health/cron")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refresh"`)
}
