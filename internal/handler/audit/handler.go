package audit

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-core/internal/middleware"
	auditService "github.com/jwalitptl/hospital-core/internal/service/audit"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

type Handler struct {
	service *auditService.Service
}

func NewHandler(service *auditService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-logs", h.ListLogs)
}

func (h *Handler) ListLogs(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.RespondWithError(c, errors.BadRequest("invalid limit", err))
			return
		}
		limit = n
	}

	logs, err := h.service.List(c.Request.Context(), branchID, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, logs)
}
