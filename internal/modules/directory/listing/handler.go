package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bdp-api/helper/internal/middleware"
	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc          *Service
	editTemplate string
	logger       *zap.Logger
}

// NewHandler serves the mutating routes. editTemplate is a printf pattern
// taking the listing id.
func NewHandler(svc *Service, editTemplate string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, editTemplate: editTemplate, logger: logger.Named("ListingHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/args/:route", h.args)
	rg.POST("/create-listing", authMW, h.create)
	rg.PATCH("/update-listing", authMW, h.update)
}

// args GET /args/:route
func (h *Handler) args(c *gin.Context) {
	route := Route(c.Param("route"))
	shape := h.svc.Shapes(route)
	if shape == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, shape)
}

// create POST /create-listing  [auth]
func (h *Handler) create(c *gin.Context) {
	raw, err := h.params(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), raw, middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success":  true,
		"post":     res.Listing,
		"edit_url": fmt.Sprintf(h.editTemplate, res.EntityID),
		"changes":  changeList(res.Changes),
	})
}

// update PATCH /update-listing  [auth]
func (h *Handler) update(c *gin.Context) {
	raw, err := h.params(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.metaGuard(raw); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.svc.Update(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"success": true,
		"post_id": res.EntityID,
		"updates": changeList(res.Changes),
	})
}

// metaGuard rejects a meta object carrying keys outside the registry before
// anything else looks at the request.
func (h *Handler) metaGuard(raw map[string]interface{}) error {
	m, ok := raw[KeyMeta].(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil
	}
	if err := CheckMetaKeys(m, h.svc.fields.Snapshot()); err != nil {
		h.logger.Warn("rejected meta payload", zap.String("code", apperr.CodeOf(err)), zap.Error(err))
		return err
	}
	return nil
}

// params merges query parameters with the JSON body; body keys win.
func (h *Handler) params(c *gin.Context) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		name := strings.TrimSuffix(key, "[]")
		if len(values) == 1 && name == key {
			raw[name] = values[0]
			continue
		}
		list := make([]interface{}, len(values))
		for i, v := range values {
			list[i] = v
		}
		raw[name] = list
	}

	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return raw, nil
	}
	var body map[string]interface{}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		return nil, apperr.BadRequest(apperr.CodeInvalidParam, "Request body must be a JSON object.")
	}
	for k, v := range body {
		raw[k] = v
	}
	return raw, nil
}

func changeList(changes []ChangeRecord) []ChangeRecord {
	if changes == nil {
		return []ChangeRecord{}
	}
	return changes
}
