package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
)

// All repository interfaces in one file
type (
	// LocationRepository persists location nodes and their effective-dated
	// revisions. Multi-row invariant writes run in a single transaction.
	LocationRepository interface {
		CreateNodeWithRevision(ctx context.Context, node *model.LocationNode, rev *model.LocationNodeRevision) error
		GetNode(ctx context.Context, id uuid.UUID) (*model.LocationNode, error)
		GetRevisionAt(ctx context.Context, nodeID uuid.UUID, at time.Time) (*model.LocationNodeRevision, error)
		GetOpenRevision(ctx context.Context, nodeID uuid.UUID) (*model.LocationNodeRevision, error)
		ListRevisions(ctx context.Context, nodeID uuid.UUID) ([]*model.LocationNodeRevision, error)
		// HasCodeOverlap reports whether any other node in the branch holds
		// the canonical code over an interval intersecting [from, to).
		HasCodeOverlap(ctx context.Context, branchID uuid.UUID, code string, from time.Time, to *time.Time, excludeNodeID uuid.UUID) (bool, error)
		// CloseAndInsertRevision closes the open revision at closeAt and
		// inserts the successor atomically.
		CloseAndInsertRevision(ctx context.Context, openRevisionID uuid.UUID, closeAt time.Time, next *model.LocationNodeRevision) error
		ListEffectiveAt(ctx context.Context, branchID uuid.UUID, at time.Time) ([]*model.EffectiveLocation, error)
	}

	UnitRepository interface {
		CreateUnit(ctx context.Context, unit *model.Unit) error
		GetUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error)
		UpdateUnit(ctx context.Context, unit *model.Unit) error
		ListUnits(ctx context.Context, branchID uuid.UUID, filters *model.UnitFilters) ([]*model.Unit, error)
		HasUnitCode(ctx context.Context, branchID uuid.UUID, code string) (bool, error)

		CreateRoom(ctx context.Context, room *model.UnitRoom) error
		GetRoom(ctx context.Context, id uuid.UUID) (*model.UnitRoom, error)
		UpdateRoom(ctx context.Context, room *model.UnitRoom) error
		ListRooms(ctx context.Context, unitID uuid.UUID) ([]*model.UnitRoom, error)

		CreateResource(ctx context.Context, res *model.UnitResource) error
		GetResource(ctx context.Context, id uuid.UUID) (*model.UnitResource, error)
		UpdateResource(ctx context.Context, res *model.UnitResource) error
		UpdateResourceState(ctx context.Context, id uuid.UUID, state model.ResourceState) error
		ListResources(ctx context.Context, unitID uuid.UUID) ([]*model.UnitResource, error)

		// DeactivateUnitCascade soft-deactivates the unit, its rooms and its
		// resources and forces resource state INACTIVE, in one transaction.
		DeactivateUnitCascade(ctx context.Context, unitID uuid.UUID) error
		DeactivateRoomCascade(ctx context.Context, roomID uuid.UUID) error
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.ProcedureBooking) error
		Get(ctx context.Context, id uuid.UUID) (*model.ProcedureBooking, error)
		Update(ctx context.Context, booking *model.ProcedureBooking) error
		List(ctx context.Context, branchID uuid.UUID, filters *model.BookingFilters) ([]*model.ProcedureBooking, error)
		// FindOverlapping returns SCHEDULED bookings on the resource whose
		// half-open window intersects [start, end).
		FindOverlapping(ctx context.Context, resourceID uuid.UUID, start, end time.Time) ([]*model.ProcedureBooking, error)
	}

	PolicyRepository interface {
		// GetBranchPolicy returns nil when the branch has no stored policy.
		GetBranchPolicy(ctx context.Context, branchID uuid.UUID) (*model.BranchPolicy, error)
		UpsertBranchPolicy(ctx context.Context, policy *model.BranchPolicy) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, branchID uuid.UUID, limit int) ([]*model.AuditLog, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
