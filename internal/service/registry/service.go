package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/codes"
	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository"
	"github.com/jwalitptl/hospital-core/internal/service/audit"
	"github.com/jwalitptl/hospital-core/pkg/errors"
	"github.com/jwalitptl/hospital-core/pkg/metrics"
)

type CreateUnitInput struct {
	BranchID     uuid.UUID
	DepartmentID uuid.UUID
	UnitTypeID   uuid.UUID
	Code         string
	Name         string
	UsesRooms    bool
	ActorID      uuid.UUID
}

type CreateResourceInput struct {
	BranchID      uuid.UUID
	UnitID        uuid.UUID
	RoomID        *uuid.UUID
	ResourceType  model.ResourceType
	Code          string
	Name          string
	IsSchedulable *bool
	ActorID       uuid.UUID
}

type Service struct {
	repo    repository.UnitRepository
	auditor *audit.Service
	metrics *metrics.Metrics
}

func NewService(repo repository.UnitRepository, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{repo: repo, auditor: auditor, metrics: m}
}

// getUnit fetches a unit and hides it when it belongs to another branch.
// Entities outside the caller's scope read as not found, never forbidden.
func (s *Service) getUnit(ctx context.Context, branchID, id uuid.UUID) (*model.Unit, error) {
	unit, err := s.repo.GetUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit.BranchID != branchID {
		return nil, errors.NotFound("unit", nil)
	}
	return unit, nil
}

func (s *Service) getRoom(ctx context.Context, branchID, id uuid.UUID) (*model.UnitRoom, error) {
	room, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.BranchID != branchID {
		return nil, errors.NotFound("room", nil)
	}
	return room, nil
}

func (s *Service) getResource(ctx context.Context, branchID, id uuid.UUID) (*model.UnitResource, error) {
	res, err := s.repo.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.BranchID != branchID {
		return nil, errors.NotFound("resource", nil)
	}
	return res, nil
}

func (s *Service) CreateUnit(ctx context.Context, in CreateUnitInput) (*model.Unit, error) {
	code, err := codes.ValidateUnitCode(in.Code)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.HasUnitCode(ctx, in.BranchID, code)
	if err != nil {
		return nil, err
	}
	if taken {
		if s.metrics != nil {
			s.metrics.CodeCollisions.Inc()
		}
		return nil, errors.CodeCollision(fmt.Sprintf("unit code %q is already in use in this branch", code))
	}

	now := time.Now()
	unit := &model.Unit{
		Base:         model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BranchID:     in.BranchID,
		DepartmentID: in.DepartmentID,
		UnitTypeID:   in.UnitTypeID,
		Code:         code,
		Name:         in.Name,
		UsesRooms:    in.UsesRooms,
		IsActive:     true,
	}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, in.BranchID, in.ActorID, model.AuditActionCreate, model.AuditEntityUnit, unit.ID, unit)
	return unit, nil
}

func (s *Service) GetUnit(ctx context.Context, branchID, id uuid.UUID) (*model.Unit, error) {
	return s.getUnit(ctx, branchID, id)
}

func (s *Service) ListUnits(ctx context.Context, branchID uuid.UUID, filters *model.UnitFilters) ([]*model.Unit, error) {
	return s.repo.ListUnits(ctx, branchID, filters)
}

// UpdateUnit changes name and active flag only; unit codes are immutable
// post-creation because billing and scheduling integrations reference
// them externally. Deactivation cascades to rooms and resources.
func (s *Service) UpdateUnit(ctx context.Context, branchID, id uuid.UUID, req *model.UpdateUnitRequest, actorID uuid.UUID) (*model.Unit, error) {
	unit, err := s.getUnit(ctx, branchID, id)
	if err != nil {
		return nil, err
	}

	if req.IsActive != nil && !*req.IsActive && unit.IsActive {
		if err := s.repo.DeactivateUnitCascade(ctx, id); err != nil {
			return nil, err
		}
		unit.IsActive = false
		s.auditor.Log(ctx, unit.BranchID, actorID, model.AuditActionDeactivate, model.AuditEntityUnit, id, nil)
	}

	if req.Name != nil {
		unit.Name = *req.Name
	}
	if req.IsActive != nil {
		unit.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateUnit(ctx, unit); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, unit.BranchID, actorID, model.AuditActionUpdate, model.AuditEntityUnit, id, req)
	return unit, nil
}

func (s *Service) CreateRoom(ctx context.Context, branchID, unitID uuid.UUID, rawCode, name string, actorID uuid.UUID) (*model.UnitRoom, error) {
	unit, err := s.getUnit(ctx, branchID, unitID)
	if err != nil {
		return nil, err
	}
	if !unit.UsesRooms {
		return nil, errors.RoomsNotSupported(fmt.Sprintf("unit %s is open-bay and does not support rooms", unit.Code))
	}

	code, err := codes.ValidateRoomCode(unit.Code, rawCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := &model.UnitRoom{
		Base:     model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UnitID:   unitID,
		BranchID: unit.BranchID,
		Code:     code,
		Name:     name,
		IsActive: true,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, unit.BranchID, actorID, model.AuditActionCreate, model.AuditEntityRoom, room.ID, room)
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, branchID, id uuid.UUID, req *model.UpdateRoomRequest, actorID uuid.UUID) (*model.UnitRoom, error) {
	room, err := s.getRoom(ctx, branchID, id)
	if err != nil {
		return nil, err
	}

	if req.IsActive != nil && !*req.IsActive && room.IsActive {
		if err := s.repo.DeactivateRoomCascade(ctx, id); err != nil {
			return nil, err
		}
		room.IsActive = false
		s.auditor.Log(ctx, room.BranchID, actorID, model.AuditActionDeactivate, model.AuditEntityRoom, id, nil)
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, room.BranchID, actorID, model.AuditActionUpdate, model.AuditEntityRoom, id, req)
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context, branchID, unitID uuid.UUID) ([]*model.UnitRoom, error) {
	if _, err := s.getUnit(ctx, branchID, unitID); err != nil {
		return nil, err
	}
	return s.repo.ListRooms(ctx, unitID)
}

// CreateResource attaches a schedulable asset to a unit, or to a room
// within a room-based unit. Open-bay units forbid a room reference; room
// based units require one.
func (s *Service) CreateResource(ctx context.Context, in CreateResourceInput) (*model.UnitResource, error) {
	if !in.ResourceType.Valid() {
		return nil, errors.InvalidCode(fmt.Sprintf("unknown resource type %q", in.ResourceType))
	}

	unit, err := s.getUnit(ctx, in.BranchID, in.UnitID)
	if err != nil {
		return nil, err
	}

	roomCode := ""
	if unit.UsesRooms {
		if in.RoomID == nil {
			return nil, errors.RoomRequired(fmt.Sprintf("unit %s uses rooms; a room_id is required", unit.Code))
		}
		room, err := s.getRoom(ctx, in.BranchID, *in.RoomID)
		if err != nil {
			return nil, err
		}
		if room.UnitID != unit.ID {
			return nil, errors.InvalidParentScope("room belongs to a different unit")
		}
		roomCode = room.Code
	} else if in.RoomID != nil {
		return nil, errors.RoomForbidden(fmt.Sprintf("unit %s is open-bay; a room_id must not be supplied", unit.Code))
	}

	code, err := codes.ValidateResourceCode(unit.Code, roomCode, in.ResourceType, in.Code)
	if err != nil {
		return nil, err
	}

	schedulable := in.ResourceType.SchedulableByDefault()
	if in.IsSchedulable != nil {
		schedulable = *in.IsSchedulable
	}

	now := time.Now()
	res := &model.UnitResource{
		Base:          model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UnitID:        unit.ID,
		RoomID:        in.RoomID,
		BranchID:      unit.BranchID,
		ResourceType:  in.ResourceType,
		Code:          code,
		Name:          in.Name,
		State:         model.ResourceStateAvailable,
		IsActive:      true,
		IsSchedulable: schedulable,
	}
	if err := s.repo.CreateResource(ctx, res); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, unit.BranchID, in.ActorID, model.AuditActionCreate, model.AuditEntityResource, res.ID, res)
	return res, nil
}

func (s *Service) GetResource(ctx context.Context, branchID, id uuid.UUID) (*model.UnitResource, error) {
	return s.getResource(ctx, branchID, id)
}

func (s *Service) ListResources(ctx context.Context, branchID, unitID uuid.UUID) ([]*model.UnitResource, error) {
	if _, err := s.getUnit(ctx, branchID, unitID); err != nil {
		return nil, err
	}
	return s.repo.ListResources(ctx, unitID)
}

func (s *Service) UpdateResource(ctx context.Context, branchID, id uuid.UUID, req *model.UpdateResourceRequest, actorID uuid.UUID) (*model.UnitResource, error) {
	res, err := s.getResource(ctx, branchID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		res.Name = *req.Name
	}
	if req.IsSchedulable != nil {
		res.IsSchedulable = *req.IsSchedulable
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
		// Soft-deactivating equipment also parks its operational state.
		if !*req.IsActive {
			res.State = model.ResourceStateInactive
		}
	}
	if err := s.repo.UpdateResource(ctx, res); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, res.BranchID, actorID, model.AuditActionUpdate, model.AuditEntityResource, id, req)
	return res, nil
}

// SetState drives the resource state machine. State changes are
// independent of the is_active and is_schedulable flags.
func (s *Service) SetState(ctx context.Context, branchID, id uuid.UUID, next model.ResourceState, actorID uuid.UUID) (*model.UnitResource, error) {
	res, err := s.getResource(ctx, branchID, id)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(res.ResourceType, res.State, next); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateResourceState(ctx, id, next); err != nil {
		return nil, err
	}
	prev := res.State
	res.State = next

	if s.metrics != nil {
		s.metrics.StateTransitions.WithLabelValues(string(res.ResourceType), string(prev), string(next)).Inc()
	}
	s.auditor.Log(ctx, res.BranchID, actorID, model.AuditActionSetState, model.AuditEntityResource, id, map[string]interface{}{
		"from": prev,
		"to":   next,
	})
	return res, nil
}
