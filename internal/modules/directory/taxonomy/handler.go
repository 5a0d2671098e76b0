package taxonomy

import (
	"net/http"

	"github.com/bdp-api/helper/internal/pkg/apperr"
	"github.com/bdp-api/helper/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/regions", h.table(KindRegion))
	rg.GET("/categories", h.table(KindCategory))
	rg.GET("/tags", h.table(KindTag))
}

// table GET /regions | /categories | /tags
func (h *Handler) table(k Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, err := h.svc.Current()
		if err != nil {
			response.Error(c, NotReadyError(err))
			return
		}
		response.OK(c, l.Table(k).Entries())
	}
}

// NotReadyError is the client-facing error for lookups that were never built.
func NotReadyError(err error) *apperr.Error {
	return apperr.New(apperr.CodeLookupNotReady, http.StatusServiceUnavailable, "Term lookups are not loaded yet.").Wrap(err)
}
