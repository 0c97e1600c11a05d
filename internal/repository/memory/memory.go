// Package memory provides in-memory repository implementations backed by
// mutex-protected maps. Used by unit tests and local development; the
// postgres package is the production store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

type LocationRepository struct {
	mu        sync.RWMutex
	nodes     map[uuid.UUID]*model.LocationNode
	revisions map[uuid.UUID]*model.LocationNodeRevision
}

func NewLocationRepository() *LocationRepository {
	return &LocationRepository{
		nodes:     make(map[uuid.UUID]*model.LocationNode),
		revisions: make(map[uuid.UUID]*model.LocationNodeRevision),
	}
}

func (r *LocationRepository) CreateNodeWithRevision(_ context.Context, node *model.LocationNode, rev *model.LocationNodeRevision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := *node
	v := *rev
	r.nodes[n.ID] = &n
	r.revisions[v.ID] = &v
	return nil
}

func (r *LocationRepository) GetNode(_ context.Context, id uuid.UUID) (*model.LocationNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil, errors.NotFound("location node", nil)
	}
	n := *node
	return &n, nil
}

func (r *LocationRepository) GetRevisionAt(_ context.Context, nodeID uuid.UUID, at time.Time) (*model.LocationNodeRevision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rev := range r.revisions {
		if rev.NodeID == nodeID && rev.Covers(at) {
			v := *rev
			return &v, nil
		}
	}
	return nil, errors.NoEffectiveRevision("node has no revision effective at " + at.Format(time.RFC3339))
}

func (r *LocationRepository) GetOpenRevision(_ context.Context, nodeID uuid.UUID) (*model.LocationNodeRevision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rev := range r.revisions {
		if rev.NodeID == nodeID && rev.EffectiveTo == nil {
			v := *rev
			return &v, nil
		}
	}
	return nil, errors.NoEffectiveRevision("node has no open revision")
}

func (r *LocationRepository) ListRevisions(_ context.Context, nodeID uuid.UUID) ([]*model.LocationNodeRevision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var revs []*model.LocationNodeRevision
	for _, rev := range r.revisions {
		if rev.NodeID == nodeID {
			v := *rev
			revs = append(revs, &v)
		}
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].EffectiveFrom.Before(revs[j].EffectiveFrom) })
	return revs, nil
}

func (r *LocationRepository) HasCodeOverlap(_ context.Context, branchID uuid.UUID, code string, from time.Time, to *time.Time, excludeNodeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rev := range r.revisions {
		if rev.NodeID == excludeNodeID || rev.Code != code {
			continue
		}
		node, ok := r.nodes[rev.NodeID]
		if !ok || node.BranchID != branchID {
			continue
		}
		if rev.Overlaps(from, to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *LocationRepository) CloseAndInsertRevision(_ context.Context, openRevisionID uuid.UUID, closeAt time.Time, next *model.LocationNodeRevision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	open, ok := r.revisions[openRevisionID]
	if !ok || open.EffectiveTo != nil {
		return errors.NoEffectiveRevision("open revision was closed by a concurrent writer")
	}
	closed := closeAt
	open.EffectiveTo = &closed

	v := *next
	r.revisions[v.ID] = &v
	return nil
}

func (r *LocationRepository) ListEffectiveAt(_ context.Context, branchID uuid.UUID, at time.Time) ([]*model.EffectiveLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*model.EffectiveLocation
	for _, rev := range r.revisions {
		if !rev.Covers(at) {
			continue
		}
		node, ok := r.nodes[rev.NodeID]
		if !ok || node.BranchID != branchID {
			continue
		}
		rows = append(rows, &model.EffectiveLocation{
			NodeID:   node.ID,
			BranchID: node.BranchID,
			Kind:     node.Kind,
			ParentID: node.ParentID,
			Code:     rev.Code,
			Name:     rev.Name,
			IsActive: rev.IsActive,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

type UnitRepository struct {
	mu        sync.RWMutex
	units     map[uuid.UUID]*model.Unit
	rooms     map[uuid.UUID]*model.UnitRoom
	resources map[uuid.UUID]*model.UnitResource
}

func NewUnitRepository() *UnitRepository {
	return &UnitRepository{
		units:     make(map[uuid.UUID]*model.Unit),
		rooms:     make(map[uuid.UUID]*model.UnitRoom),
		resources: make(map[uuid.UUID]*model.UnitResource),
	}
}

func (r *UnitRepository) CreateUnit(_ context.Context, unit *model.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *unit
	r.units[u.ID] = &u
	return nil
}

func (r *UnitRepository) GetUnit(_ context.Context, id uuid.UUID) (*model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.units[id]
	if !ok {
		return nil, errors.NotFound("unit", nil)
	}
	u := *unit
	return &u, nil
}

func (r *UnitRepository) UpdateUnit(_ context.Context, unit *model.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[unit.ID]; !ok {
		return errors.NotFound("unit", nil)
	}
	u := *unit
	r.units[u.ID] = &u
	return nil
}

func (r *UnitRepository) ListUnits(_ context.Context, branchID uuid.UUID, filters *model.UnitFilters) ([]*model.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var units []*model.Unit
	for _, unit := range r.units {
		if unit.BranchID != branchID {
			continue
		}
		if filters != nil {
			if filters.DepartmentID != nil && unit.DepartmentID != *filters.DepartmentID {
				continue
			}
			if filters.Status == "active" && !unit.IsActive {
				continue
			}
			if filters.Status == "inactive" && unit.IsActive {
				continue
			}
		}
		u := *unit
		units = append(units, &u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Code < units[j].Code })
	return units, nil
}

func (r *UnitRepository) HasUnitCode(_ context.Context, branchID uuid.UUID, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, unit := range r.units {
		if unit.BranchID == branchID && unit.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *UnitRepository) CreateRoom(_ context.Context, room *model.UnitRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *room
	r.rooms[m.ID] = &m
	return nil
}

func (r *UnitRepository) GetRoom(_ context.Context, id uuid.UUID) (*model.UnitRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, errors.NotFound("room", nil)
	}
	m := *room
	return &m, nil
}

func (r *UnitRepository) UpdateRoom(_ context.Context, room *model.UnitRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; !ok {
		return errors.NotFound("room", nil)
	}
	m := *room
	r.rooms[m.ID] = &m
	return nil
}

func (r *UnitRepository) ListRooms(_ context.Context, unitID uuid.UUID) ([]*model.UnitRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rooms []*model.UnitRoom
	for _, room := range r.rooms {
		if room.UnitID == unitID {
			m := *room
			rooms = append(rooms, &m)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms, nil
}

func (r *UnitRepository) CreateResource(_ context.Context, res *model.UnitResource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := *res
	r.resources[v.ID] = &v
	return nil
}

func (r *UnitRepository) GetResource(_ context.Context, id uuid.UUID) (*model.UnitResource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, errors.NotFound("resource", nil)
	}
	v := *res
	return &v, nil
}

func (r *UnitRepository) UpdateResource(_ context.Context, res *model.UnitResource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[res.ID]; !ok {
		return errors.NotFound("resource", nil)
	}
	v := *res
	r.resources[v.ID] = &v
	return nil
}

func (r *UnitRepository) UpdateResourceState(_ context.Context, id uuid.UUID, state model.ResourceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return errors.NotFound("resource", nil)
	}
	res.State = state
	res.UpdatedAt = time.Now()
	return nil
}

func (r *UnitRepository) ListResources(_ context.Context, unitID uuid.UUID) ([]*model.UnitResource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var resources []*model.UnitResource
	for _, res := range r.resources {
		if res.UnitID == unitID {
			v := *res
			resources = append(resources, &v)
		}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Code < resources[j].Code })
	return resources, nil
}

func (r *UnitRepository) DeactivateUnitCascade(_ context.Context, unitID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[unitID]
	if !ok {
		return errors.NotFound("unit", nil)
	}
	unit.IsActive = false
	for _, room := range r.rooms {
		if room.UnitID == unitID {
			room.IsActive = false
		}
	}
	for _, res := range r.resources {
		if res.UnitID == unitID {
			res.IsActive = false
			res.State = model.ResourceStateInactive
		}
	}
	return nil
}

func (r *UnitRepository) DeactivateRoomCascade(_ context.Context, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return errors.NotFound("room", nil)
	}
	room.IsActive = false
	for _, res := range r.resources {
		if res.RoomID != nil && *res.RoomID == roomID {
			res.IsActive = false
			res.State = model.ResourceStateInactive
		}
	}
	return nil
}

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*model.ProcedureBooking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[uuid.UUID]*model.ProcedureBooking)}
}

func (r *BookingRepository) Create(_ context.Context, booking *model.ProcedureBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the database exclusion constraint.
	for _, existing := range r.bookings {
		if existing.ResourceID == booking.ResourceID &&
			existing.Status == model.BookingStatusScheduled &&
			existing.Overlaps(booking.StartAt, booking.EndAt) {
			return errors.SchedulingConflict("another booking already holds this resource for an overlapping window")
		}
	}

	b := *booking
	r.bookings[b.ID] = &b
	return nil
}

func (r *BookingRepository) Get(_ context.Context, id uuid.UUID) (*model.ProcedureBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, errors.NotFound("booking", nil)
	}
	b := *booking
	return &b, nil
}

func (r *BookingRepository) Update(_ context.Context, booking *model.ProcedureBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return errors.NotFound("booking", nil)
	}
	b := *booking
	r.bookings[b.ID] = &b
	return nil
}

func (r *BookingRepository) List(_ context.Context, branchID uuid.UUID, filters *model.BookingFilters) ([]*model.ProcedureBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var bookings []*model.ProcedureBooking
	for _, booking := range r.bookings {
		if booking.BranchID != branchID {
			continue
		}
		if filters != nil {
			if filters.UnitID != nil && booking.UnitID != *filters.UnitID {
				continue
			}
			if filters.ResourceID != nil && booking.ResourceID != *filters.ResourceID {
				continue
			}
			if filters.From != nil && !booking.EndAt.After(*filters.From) {
				continue
			}
			if filters.To != nil && !booking.StartAt.Before(*filters.To) {
				continue
			}
			if filters.Status != "" && booking.Status != filters.Status {
				continue
			}
		}
		b := *booking
		bookings = append(bookings, &b)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].StartAt.Before(bookings[j].StartAt) })
	return bookings, nil
}

func (r *BookingRepository) FindOverlapping(_ context.Context, resourceID uuid.UUID, start, end time.Time) ([]*model.ProcedureBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var bookings []*model.ProcedureBooking
	for _, booking := range r.bookings {
		if booking.ResourceID == resourceID &&
			booking.Status == model.BookingStatusScheduled &&
			booking.Overlaps(start, end) {
			b := *booking
			bookings = append(bookings, &b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].StartAt.Before(bookings[j].StartAt) })
	return bookings, nil
}

type PolicyRepository struct {
	mu       sync.RWMutex
	policies map[uuid.UUID]*model.BranchPolicy
}

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{policies: make(map[uuid.UUID]*model.BranchPolicy)}
}

func (r *PolicyRepository) GetBranchPolicy(_ context.Context, branchID uuid.UUID) (*model.BranchPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	policy, ok := r.policies[branchID]
	if !ok {
		return nil, nil
	}
	p := *policy
	return &p, nil
}

func (r *PolicyRepository) UpsertBranchPolicy(_ context.Context, policy *model.BranchPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *policy
	r.policies[p.BranchID] = &p
	return nil
}

type OutboxRepository struct {
	mu     sync.RWMutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *event
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = string(model.OutboxStatusPending)
	}
	r.events = append(r.events, &e)
	return nil
}

func (r *OutboxRepository) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var events []*model.OutboxEvent
	for _, ev := range r.events {
		if ev.Status != string(model.OutboxStatusPending) {
			continue
		}
		e := *ev
		events = append(events, &e)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id {
			ev.Status = string(status)
			ev.ErrorMessage = errorMessage
			return nil
		}
	}
	return errors.NotFound("outbox event", nil)
}

type AuditRepository struct {
	mu   sync.RWMutex
	logs []*model.AuditLog
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := *log
	r.logs = append(r.logs, &l)
	return nil
}

func (r *AuditRepository) List(_ context.Context, branchID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var logs []*model.AuditLog
	for i := len(r.logs) - 1; i >= 0 && (limit <= 0 || len(logs) < limit); i-- {
		if r.logs[i].BranchID == branchID {
			l := *r.logs[i]
			logs = append(logs, &l)
		}
	}
	return logs, nil
}
