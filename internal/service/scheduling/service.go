package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	"github.com/jwalitptl/hospital-core/internal/service/audit"
	"github.com/jwalitptl/hospital-core/internal/service/policy"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/metrics"
)

// ResourceReader is the registry's public read surface. Scheduling never
// touches resource storage directly so the registry's invariants stay
// centrally enforced; reads are branch-scoped and out-of-scope entities
// come back as not found.
type ResourceReader interface {
	GetUnit(ctx context.Context, branchID, id uuid.UUID) (*model.Unit, error)
	GetResource(ctx context.Context, branchID, id uuid.UUID) (*model.UnitResource, error)
}

// PolicySource resolves the per-branch precondition gate modes.
type PolicySource interface {
	GetPolicy(ctx context.Context, branchID uuid.UUID) (model.PreconditionPolicy, error)
}

type CreateBookingInput struct {
	BranchID     uuid.UUID
	UnitID       uuid.UUID
	ResourceID   uuid.UUID
	PatientID    *uuid.UUID
	DepartmentID *uuid.UUID
	StartAt      time.Time
	EndAt        time.Time
	ConsentOk    bool
	AnesthesiaOk bool
	ChecklistOk  bool
	ActorID      uuid.UUID
}

type Service struct {
	repo     repository.BookingRepository
	registry ResourceReader
	policies PolicySource
	auditor  *audit.Service
	metrics  *metrics.Metrics
}

func NewService(repo repository.BookingRepository, registry ResourceReader, policies PolicySource, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		policies: policies,
		auditor:  auditor,
		metrics:  m,
	}
}

var _ PolicySource = (*policy.Service)(nil)

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RejectedBookings.WithLabelValues(reason).Inc()
	}
}

// CreateBooking validates a booking request in a fixed order, each step
// short-circuiting on failure: unit, precondition gates, resource, time
// window, overlap scan, persist.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.ProcedureBooking, error) {
	unit, err := s.registry.GetUnit(ctx, in.BranchID, in.UnitID)
	if err != nil {
		return nil, err
	}
	if !unit.IsActive {
		return nil, errors.BadRequest(fmt.Sprintf("unit %s is inactive", unit.Code), nil)
	}

	gatePolicy, err := s.policies.GetPolicy(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	warnings, err := evaluateGates(gatePolicy, in)
	if err != nil {
		s.reject("precondition")
		return nil, err
	}

	res, err := s.registry.GetResource(ctx, in.BranchID, in.ResourceID)
	if err != nil {
		return nil, err
	}
	// A resource from another unit is rejected even if schedulable;
	// cross-unit bookings would make double-booking ambiguity possible.
	if res.UnitID != unit.ID {
		return nil, errors.BadRequest(fmt.Sprintf("resource %s does not belong to unit %s", res.Code, unit.Code), nil)
	}
	if !res.IsActive {
		return nil, errors.BadRequest(fmt.Sprintf("resource %s is inactive", res.Code), nil)
	}
	if !res.IsSchedulable {
		return nil, errors.BadRequest(fmt.Sprintf("resource %s is not schedulable", res.Code), nil)
	}

	if !in.StartAt.Before(in.EndAt) {
		return nil, errors.InvalidTimeWindow("start_at must be before end_at")
	}

	conflicts, err := s.repo.FindOverlapping(ctx, in.ResourceID, in.StartAt, in.EndAt)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		first := conflicts[0]
		s.reject("conflict")
		return nil, errors.SchedulingConflict(fmt.Sprintf(
			"resource %s is already booked from %s to %s",
			res.Code,
			first.StartAt.Format(time.RFC3339),
			first.EndAt.Format(time.RFC3339),
		))
	}

	now := time.Now()
	booking := &model.ProcedureBooking{
		Base:            model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BranchID:        in.BranchID,
		UnitID:          in.UnitID,
		ResourceID:      in.ResourceID,
		PatientID:       in.PatientID,
		DepartmentID:    in.DepartmentID,
		StartAt:         in.StartAt,
		EndAt:           in.EndAt,
		Status:          model.BookingStatusScheduled,
		ConsentOk:       in.ConsentOk,
		AnesthesiaOk:    in.AnesthesiaOk,
		ChecklistOk:     in.ChecklistOk,
		CreatedByUserID: in.ActorID,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		// A race-lost insert surfaces as a conflict from the store.
		if errors.HasCode(err, errors.ErrSchedulingConflict) {
			s.reject("conflict")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsScheduled.Inc()
	}
	meta := map[string]interface{}{"booking": booking}
	if len(warnings) > 0 {
		meta["gate_warnings"] = warnings
	}
	s.auditor.Log(ctx, in.BranchID, in.ActorID, model.AuditActionCreate, model.AuditEntityBooking, booking.ID, meta)
	return booking, nil
}

// evaluateGates applies the branch's gate policy to the request flags.
// BLOCK gates collect failures so a request missing two gates reports
// both; WARN gates return warnings for the audit trail; SKIP ignores.
func evaluateGates(p model.PreconditionPolicy, in CreateBookingInput) ([]string, error) {
	type gateCheck struct {
		name string
		mode model.Gate
		ok   bool
	}
	checks := []gateCheck{
		{"consent", p.Consent, in.ConsentOk},
		{"anesthesia", p.Anesthesia, in.AnesthesiaOk},
		{"checklist", p.Checklist, in.ChecklistOk},
	}

	var failures, warnings []string
	for _, g := range checks {
		if g.ok {
			continue
		}
		switch g.mode {
		case model.GateBlock:
			failures = append(failures, fmt.Sprintf("%s verification is required before scheduling", g.name))
		case model.GateWarn:
			warnings = append(warnings, fmt.Sprintf("%s verification is missing", g.name))
		}
	}

	if len(failures) > 0 {
		return nil, errors.PreconditionNotMet(strings.Join(failures, "; "))
	}
	return warnings, nil
}

// getBooking fetches a booking and hides it when it belongs to another
// branch; out-of-scope bookings read as not found.
func (s *Service) getBooking(ctx context.Context, branchID, id uuid.UUID) (*model.ProcedureBooking, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.BranchID != branchID {
		return nil, errors.NotFound("booking", nil)
	}
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, branchID, id uuid.UUID) (*model.ProcedureBooking, error) {
	return s.getBooking(ctx, branchID, id)
}

func (s *Service) ListBookings(ctx context.Context, branchID uuid.UUID, filters *model.BookingFilters) ([]*model.ProcedureBooking, error) {
	return s.repo.List(ctx, branchID, filters)
}

// CancelBooking soft-cancels a scheduled booking. CANCELLED is terminal
// and the row is never deleted; bookings are part of the clinical and
// financial audit trail.
func (s *Service) CancelBooking(ctx context.Context, branchID, id uuid.UUID, reason string, actorID uuid.UUID) (*model.ProcedureBooking, error) {
	booking, err := s.getBooking(ctx, branchID, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingStatusScheduled {
		return nil, errors.BadRequest(fmt.Sprintf("cannot cancel a booking in status %s", booking.Status), nil)
	}

	booking.Status = model.BookingStatusCancelled
	booking.CancelReason = &reason
	if err := s.repo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCancelled.Inc()
	}
	s.auditor.Log(ctx, booking.BranchID, actorID, model.AuditActionCancel, model.AuditEntityBooking, id, map[string]interface{}{
		"reason": reason,
	})
	return booking, nil
}
