package unit

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	registryService "github.com/jwalitptl/hospital-core/internal/service/registry"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

type Handler struct {
	service    *registryService.Service
	outboxRepo repository.OutboxRepository
}

func NewHandler(service *registryService.Service, outboxRepo repository.OutboxRepository) *Handler {
	return &Handler{service: service, outboxRepo: outboxRepo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	units := r.Group("/units")
	{
		units.POST("", h.CreateUnit)
		units.GET("", h.ListUnits)
		units.GET("/:id", h.GetUnit)
		units.PUT("/:id", h.UpdateUnit)

		units.POST("/:id/rooms", h.CreateRoom)
		units.GET("/:id/rooms", h.ListRooms)

		units.POST("/:id/resources", h.CreateResource)
		units.GET("/:id/resources", h.ListResources)
	}

	rooms := r.Group("/rooms")
	{
		rooms.PUT("/:id", h.UpdateRoom)
	}

	resources := r.Group("/resources")
	{
		resources.GET("/:id", h.GetResource)
		resources.PUT("/:id", h.UpdateResource)
		resources.POST("/:id/state", h.SetResourceState)
	}
}

func (h *Handler) CreateUnit(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	var req model.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid department ID", err))
		return
	}
	unitTypeID, err := uuid.Parse(req.UnitTypeID)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit type ID", err))
		return
	}

	unit, err := h.service.CreateUnit(c.Request.Context(), registryService.CreateUnitInput{
		BranchID:     branchID,
		DepartmentID: departmentID,
		UnitTypeID:   unitTypeID,
		Code:         req.Code,
		Name:         req.Name,
		UsesRooms:    req.UsesRooms,
		ActorID:      middleware.ActorID(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "UNIT_CREATE", unit)
	httputil.RespondWithCreated(c, unit)
}

func (h *Handler) GetUnit(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	unit, err := h.service.GetUnit(c.Request.Context(), branchID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, unit)
}

func (h *Handler) ListUnits(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	filters := &model.UnitFilters{Status: c.Query("status")}
	if raw := c.Query("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid department ID", err))
			return
		}
		filters.DepartmentID = &id
	}

	units, err := h.service.ListUnits(c.Request.Context(), branchID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, units)
}

func (h *Handler) UpdateUnit(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	var req model.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	unit, err := h.service.UpdateUnit(c.Request.Context(), branchID, id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "UNIT_UPDATE", unit)
	httputil.RespondWithSuccess(c, unit)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), branchID, unitID, req.Code, req.Name, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "ROOM_CREATE", room)
	httputil.RespondWithCreated(c, room)
}

func (h *Handler) ListRooms(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), branchID, unitID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rooms)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid room ID", err))
		return
	}

	var req model.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	room, err := h.service.UpdateRoom(c.Request.Context(), branchID, id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "ROOM_UPDATE", room)
	httputil.RespondWithSuccess(c, room)
}

func (h *Handler) CreateResource(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	var req model.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	var roomID *uuid.UUID
	if req.RoomID != nil {
		id, err := uuid.Parse(*req.RoomID)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid room ID", err))
			return
		}
		roomID = &id
	}

	res, err := h.service.CreateResource(c.Request.Context(), registryService.CreateResourceInput{
		BranchID:      branchID,
		UnitID:        unitID,
		RoomID:        roomID,
		ResourceType:  model.ResourceType(req.ResourceType),
		Code:          req.Code,
		Name:          req.Name,
		IsSchedulable: req.IsSchedulable,
		ActorID:       middleware.ActorID(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "RESOURCE_CREATE", res)
	httputil.RespondWithCreated(c, res)
}

func (h *Handler) ListResources(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}

	resources, err := h.service.ListResources(c.Request.Context(), branchID, unitID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resources)
}

func (h *Handler) GetResource(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid resource ID", err))
		return
	}

	res, err := h.service.GetResource(c.Request.Context(), branchID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, res)
}

func (h *Handler) UpdateResource(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid resource ID", err))
		return
	}

	var req model.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	res, err := h.service.UpdateResource(c.Request.Context(), branchID, id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "RESOURCE_UPDATE", res)
	httputil.RespondWithSuccess(c, res)
}

func (h *Handler) SetResourceState(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid resource ID", err))
		return
	}

	var req model.SetResourceStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	res, err := h.service.SetState(c.Request.Context(), branchID, id, model.ResourceState(req.State), middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "RESOURCE_STATE_CHANGE", res)
	httputil.RespondWithSuccess(c, res)
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
