package policy

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/model"
	policyService "github.com/jwalitptl/hospital-core/internal/service/policy"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

type Handler struct {
	service *policyService.Service
}

func NewHandler(service *policyService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	policies := r.Group("/policy")
	{
		policies.GET("", h.GetPolicy)
		policies.PUT("", h.SetPolicy)
	}
}

func (h *Handler) GetPolicy(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	policy, err := h.service.GetPolicy(c.Request.Context(), branchID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, policy)
}

func (h *Handler) SetPolicy(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	var req model.SetBranchPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	policy := model.PreconditionPolicy{
		Consent:    model.Gate(req.ConsentGate),
		Anesthesia: model.Gate(req.AnesthesiaGate),
		Checklist:  model.Gate(req.ChecklistGate),
	}
	if err := h.service.SetPolicy(c.Request.Context(), branchID, policy); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, policy)
}
