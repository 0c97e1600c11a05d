package location

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	locationService "github.com/jwalitptl/hospital-core/internal/service/location"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

type Handler struct {
	service    *locationService.Service
	outboxRepo repository.OutboxRepository
}

func NewHandler(service *locationService.Service, outboxRepo repository.OutboxRepository) *Handler {
	return &Handler{service: service, outboxRepo: outboxRepo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	locations := r.Group("/locations")
	{
		locations.POST("", h.CreateNode)
		locations.GET("/tree", h.GetTree)
		locations.GET("/:id/code", h.GetCodeAt)
		locations.GET("/:id/revisions", h.ListRevisions)
		locations.POST("/:id/revisions", h.ReviseNode)
	}
}

func (h *Handler) CreateNode(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	var req model.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid parent ID", err))
			return
		}
		parentID = &id
	}

	effectiveFrom := time.Now().UTC()
	if req.EffectiveFrom != nil {
		effectiveFrom = *req.EffectiveFrom
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	node, rev, err := h.service.CreateNode(c.Request.Context(), locationService.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKind(req.Kind),
		ParentID:      parentID,
		Code:          req.Code,
		Name:          req.Name,
		IsActive:      isActive,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		ActorID:       middleware.ActorID(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "LOCATION_CREATE", gin.H{"node": node, "revision": rev})
	httputil.RespondWithCreated(c, gin.H{"node": node, "revision": rev})
}

func (h *Handler) ReviseNode(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	nodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid location ID", err))
		return
	}

	var req model.ReviseLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	rev, err := h.service.ReviseNode(c.Request.Context(), branchID, nodeID, locationService.ReviseNodeInput{
		Code:          req.Code,
		Name:          req.Name,
		IsActive:      req.IsActive,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		ActorID:       middleware.ActorID(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "LOCATION_REVISE", rev)
	httputil.RespondWithCreated(c, rev)
}

func (h *Handler) GetTree(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	at, err := instantParam(c, "at")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid at instant", err))
		return
	}

	tree, err := h.service.TreeAt(c.Request.Context(), branchID, at)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tree)
}

func (h *Handler) GetCodeAt(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	nodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid location ID", err))
		return
	}

	at, err := instantParam(c, "at")
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid at instant", err))
		return
	}

	code, err := h.service.CurrentCodeAt(c.Request.Context(), branchID, nodeID, at)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"code": code, "at": at})
}

func (h *Handler) ListRevisions(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	nodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid location ID", err))
		return
	}

	revs, err := h.service.GetRevisions(c.Request.Context(), branchID, nodeID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, revs)
}

func (h *Handler) emitEvent(c *gin.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal event payload")
		return
	}
	if err := h.outboxRepo.Create(c.Request.Context(), &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to create outbox event")
	}
}

func instantParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
