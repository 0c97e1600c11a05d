package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository/memory"
	"github.com/jwalitptl/hospital-core/internal/service/audit"
	"github.com/jwalitptl/hospital-core/internal/service/policy"
	"github.com/jwalitptl/hospital-core/internal/service/registry"
	"github.com/jwalitptl/hospital-core/internal/service/scheduling"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

type fixture struct {
	scheduling *scheduling.Service
	registry   *registry.Service
	policies   *policy.Service
	branchID   uuid.UUID
	unit       *model.Unit
	table      *model.UnitResource
}

// newFixture wires the scheduling service against in-memory stores with
// one open-bay OT unit holding one schedulable table.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	auditor := audit.NewService(memory.NewAuditRepository())
	registrySvc := registry.NewService(memory.NewUnitRepository(), auditor, nil)
	policySvc := policy.NewService(memory.NewPolicyRepository(), policy.DefaultConfig())
	schedulingSvc := scheduling.NewService(memory.NewBookingRepository(), registrySvc, policySvc, auditor, nil)

	branchID := uuid.New()
	unit, err := registrySvc.CreateUnit(context.Background(), registry.CreateUnitInput{
		BranchID:     branchID,
		DepartmentID: uuid.New(),
		UnitTypeID:   uuid.New(),
		Code:         "OTC-MAIN-01",
		Name:         "Main OT Complex",
	})
	require.NoError(t, err)

	table, err := registrySvc.CreateResource(context.Background(), registry.CreateResourceInput{
		BranchID:     branchID,
		UnitID:       unit.ID,
		ResourceType: model.ResourceTypeOTTable,
		Code:         "OTC-MAIN-01-OT001",
		Name:         "Table 1",
	})
	require.NoError(t, err)

	return &fixture{
		scheduling: schedulingSvc,
		registry:   registrySvc,
		policies:   policySvc,
		branchID:   branchID,
		unit:       unit,
		table:      table,
	}
}

func (f *fixture) bookingInput(start, end time.Time) scheduling.CreateBookingInput {
	return scheduling.CreateBookingInput{
		BranchID:     f.branchID,
		UnitID:       f.unit.ID,
		ResourceID:   f.table.ID,
		StartAt:      start,
		EndAt:        end,
		ConsentOk:    true,
		AnesthesiaOk: true,
		ChecklistOk:  true,
		ActorID:      uuid.New(),
	}
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestCreateBookingOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 0), at(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, first.Status)

	// Any intersection of the half-open windows conflicts.
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 30), at(11, 30)))
	assert.True(t, errors.HasCode(err, errors.ErrSchedulingConflict))

	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(9, 0), at(12, 0)))
	assert.True(t, errors.HasCode(err, errors.ErrSchedulingConflict))

	// Back-to-back is legal: [10,11) then [11,12).
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(11, 0), at(12, 0)))
	require.NoError(t, err)

	// And immediately before as well.
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(9, 0), at(10, 0)))
	require.NoError(t, err)
}

func TestCreateBookingTimeWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 0), at(10, 0)))
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTimeWindow))

	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(11, 0), at(10, 0)))
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTimeWindow))
}

func TestGateEnforcementBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The default policy blocks on every unmet gate, and the error names
	// each missing one.
	in := f.bookingInput(at(10, 0), at(11, 0))
	in.ConsentOk = false
	in.ChecklistOk = false
	_, err := f.scheduling.CreateBooking(ctx, in)
	require.True(t, errors.HasCode(err, errors.ErrPreconditionNotMet))
	assert.Contains(t, err.Error(), "consent")
	assert.Contains(t, err.Error(), "checklist")
	assert.NotContains(t, err.Error(), "anesthesia")
}

func TestGateEnforcementOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Gates are checked before the resource is even resolved.
	in := f.bookingInput(at(10, 0), at(11, 0))
	in.ConsentOk = false
	in.ResourceID = uuid.New()
	_, err := f.scheduling.CreateBooking(ctx, in)
	assert.True(t, errors.HasCode(err, errors.ErrPreconditionNotMet))
}

func TestGateWarnAndSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.policies.SetPolicy(ctx, f.branchID, model.PreconditionPolicy{
		Consent:    model.GateWarn,
		Anesthesia: model.GateSkip,
		Checklist:  model.GateSkip,
	}))

	in := f.bookingInput(at(10, 0), at(11, 0))
	in.ConsentOk = false
	in.AnesthesiaOk = false
	in.ChecklistOk = false
	booking, err := f.scheduling.CreateBooking(ctx, in)
	require.NoError(t, err)
	assert.False(t, booking.ConsentOk)
}

func TestCreateBookingResourceChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A bed is non-schedulable by default.
	bed, err := f.registry.CreateResource(ctx, registry.CreateResourceInput{
		BranchID:     f.branchID,
		UnitID:       f.unit.ID,
		ResourceType: model.ResourceTypeBed,
		Code:         "OTC-MAIN-01-B001",
		Name:         "Holding Bed",
	})
	require.NoError(t, err)

	in := f.bookingInput(at(10, 0), at(11, 0))
	in.ResourceID = bed.ID
	_, err = f.scheduling.CreateBooking(ctx, in)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	// A resource belonging to another unit is rejected.
	otherUnit, err := f.registry.CreateUnit(ctx, registry.CreateUnitInput{
		BranchID:     f.branchID,
		DepartmentID: uuid.New(),
		UnitTypeID:   uuid.New(),
		Code:         "OTC-MAIN-02",
		Name:         "Second OT Complex",
	})
	require.NoError(t, err)
	otherTable, err := f.registry.CreateResource(ctx, registry.CreateResourceInput{
		BranchID:     f.branchID,
		UnitID:       otherUnit.ID,
		ResourceType: model.ResourceTypeOTTable,
		Code:         "OTC-MAIN-02-OT001",
		Name:         "Table 1",
	})
	require.NoError(t, err)

	in = f.bookingInput(at(10, 0), at(11, 0))
	in.ResourceID = otherTable.ID
	_, err = f.scheduling.CreateBooking(ctx, in)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	// A branch mismatch reads as not found, not forbidden.
	in = f.bookingInput(at(10, 0), at(11, 0))
	in.BranchID = uuid.New()
	_, err = f.scheduling.CreateBooking(ctx, in)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	booking, err := f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 0), at(11, 0)))
	require.NoError(t, err)

	cancelled, err := f.scheduling.CancelBooking(ctx, f.branchID, booking.ID, "patient unfit", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "patient unfit", *cancelled.CancelReason)

	// CANCELLED is terminal.
	_, err = f.scheduling.CancelBooking(ctx, f.branchID, booking.ID, "again", uuid.New())
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	// A cancelled booking releases its window.
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 0), at(11, 0)))
	require.NoError(t, err)
}

// A booking id leaked across branches must not let a foreign caller read
// or cancel it; both operations report not found and the booking stays
// scheduled with its window held.
func TestBookingBranchScopeIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	foreign := uuid.New()

	booking, err := f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 0), at(11, 0)))
	require.NoError(t, err)

	_, err = f.scheduling.GetBooking(ctx, foreign, booking.ID)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = f.scheduling.CancelBooking(ctx, foreign, booking.ID, "not yours", uuid.New())
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	got, err := f.scheduling.GetBooking(ctx, f.branchID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, got.Status)

	// The window is still held.
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(10, 30), at(11, 30)))
	assert.True(t, errors.HasCode(err, errors.ErrSchedulingConflict))
}

func TestListBookingsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	morning, err := f.scheduling.CreateBooking(ctx, f.bookingInput(at(9, 0), at(10, 0)))
	require.NoError(t, err)
	_, err = f.scheduling.CreateBooking(ctx, f.bookingInput(at(14, 0), at(15, 0)))
	require.NoError(t, err)

	from := at(8, 0)
	to := at(12, 0)
	bookings, err := f.scheduling.ListBookings(ctx, f.branchID, &model.BookingFilters{
		From: &from,
		To:   &to,
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, morning.ID, bookings[0].ID)
}
