package booking

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	schedulingService "github.com/jwalitptl/hospital-core/internal/service/scheduling"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/httputil"
)

type Handler struct {
	service    *schedulingService.Service
	outboxRepo repository.OutboxRepository
}

func NewHandler(service *schedulingService.Service, outboxRepo repository.OutboxRepository) *Handler {
	return &Handler{service: service, outboxRepo: outboxRepo}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid unit ID", err))
		return
	}
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid resource ID", err))
		return
	}

	var patientID, departmentID *uuid.UUID
	if req.PatientID != nil {
		id, err := uuid.Parse(*req.PatientID)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid patient ID", err))
			return
		}
		patientID = &id
	}
	if req.DepartmentID != nil {
		id, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid department ID", err))
			return
		}
		departmentID = &id
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), schedulingService.CreateBookingInput{
		BranchID:     branchID,
		UnitID:       unitID,
		ResourceID:   resourceID,
		PatientID:    patientID,
		DepartmentID: departmentID,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		ConsentOk:    req.ConsentOk,
		AnesthesiaOk: req.AnesthesiaOk,
		ChecklistOk:  req.ChecklistOk,
		ActorID:      middleware.ActorID(c),
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "BOOKING_CREATE", booking)
	httputil.RespondWithCreated(c, booking)
}

func (h *Handler) GetBooking(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid booking ID", err))
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), branchID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, booking)
}

func (h *Handler) ListBookings(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), branchID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	branchID, ok := middleware.BranchID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid booking ID", err))
		return
	}

	var req model.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), branchID, id, req.Reason, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.emitEvent(c, "BOOKING_CANCEL", booking)
	httputil.RespondWithSuccess(c, booking)
}

func parseFilters(c *gin.Context) (*model.BookingFilters, error) {
	filters := &model.BookingFilters{
		Status: model.BookingStatus(c.Query("status")),
	}

	if raw := c.Query("unit_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		filters.UnitID = &id
	}
	if raw := c.Query("resource_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		filters.ResourceID = &id
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		filters.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		filters.To = &t
	}

	return filters, nil
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
