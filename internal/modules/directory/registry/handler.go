package registry

import (
	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	cache  *Cache
	bus    EventBus
	logger *zap.Logger
}

// NewHandler serves the registry. bus may be nil, in which case events are
// applied to this process only.
func NewHandler(cache *Cache, bus EventBus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cache: cache, bus: bus, logger: logger.Named("RegistryHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/fields", h.list)
	rg.POST("/fields/events", authMW, h.event)
}

// list GET /fields
func (h *Handler) list(c *gin.Context) {
	fields := h.cache.ListFields()
	if len(fields) == 0 {
		h.logger.Warn("field registry is empty")
		response.Error(c, apperr.NotFound(apperr.CodeNoFields, "No BDP fields found."))
		return
	}
	response.OK(c, fields)
}

// event POST /fields/events  [auth]
func (h *Handler) event(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ev, err := DecodeEvent(body)
	if err != nil {
		response.BadRequest(c, "invalid field event: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	if h.bus != nil {
		err := h.bus.Publish(ctx, ev)
		if err == nil {
			response.OK(c, gin.H{"success": true, "broadcast": true})
			return
		}
		h.logger.Warn("broadcast failed, refreshing locally", zap.Error(err))
	}
	if err := h.cache.HandleEvent(ctx, ev); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"success": true, "broadcast": false})
}
