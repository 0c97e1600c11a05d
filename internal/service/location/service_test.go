package location_test

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
	"github.com/jwalitptl/hospital-core/internal/service/location"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestService() *location.Service {
	return location.NewService(
		memory.NewLocationRepository(),
		audit.NewService(memory.NewAuditRepository()),
		nil,
	)
}

func createCampus(t *testing.T, svc *location.Service, branchID uuid.UUID, code string) *model.LocationNode {
	t.Helper()
	node, _, err := svc.CreateNode(context.Background(), location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindCampus,
		Code:          code,
		Name:          "Campus " + code,
		IsActive:      true,
		EffectiveFrom: t0,
	})
	require.NoError(t, err)
	return node
}

func TestCreateNodeHierarchy(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	building, rev, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		ParentID:      &campus.ID,
		Code:          "C01-B01",
		Name:          "Main Block",
		IsActive:      true,
		EffectiveFrom: t0,
	})
	require.NoError(t, err)
	assert.Equal(t, "C01-B01", rev.Code)

	floor, _, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindFloor,
		ParentID:      &building.ID,
		Code:          "c01-b01-f03",
		Name:          "Third Floor",
		IsActive:      true,
		EffectiveFrom: t0,
	})
	require.NoError(t, err)

	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindZone,
		ParentID:      &floor.ID,
		Code:          "C01-B01-F03-Z01",
		Name:          "East Wing",
		IsActive:      true,
		EffectiveFrom: t0,
	})
	require.NoError(t, err)
}

func TestCreateNodeParentScope(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	// A floor cannot hang directly off a campus.
	_, _, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindFloor,
		ParentID:      &campus.ID,
		Code:          "C01-B01-F01",
		Name:          "Floor",
		EffectiveFrom: t0,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParentScope))

	// Non-campus kinds require a parent.
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		Code:          "C01-B01",
		Name:          "Orphan",
		EffectiveFrom: t0,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParentScope))

	// Parents from another branch are invisible.
	otherCampus := createCampus(t, svc, uuid.New(), "C09")
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		ParentID:      &otherCampus.ID,
		Code:          "C09-B01",
		Name:          "Cross-branch",
		EffectiveFrom: t0,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParentScope))

	// The child code must extend the parent's code.
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		ParentID:      &campus.ID,
		Code:          "C02-B01",
		Name:          "Wrong prefix",
		EffectiveFrom: t0,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidCode))
}

func TestAreaNesting(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	// Areas hang off any structural kind.
	area, _, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindArea,
		ParentID:      &campus.ID,
		Code:          "C01-A01",
		Name:          "Courtyard",
		IsActive:      true,
		EffectiveFrom: t0,
	})
	require.NoError(t, err)

	// But never off another area.
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindArea,
		ParentID:      &area.ID,
		Code:          "C01-A01-A01",
		Name:          "Nested",
		EffectiveFrom: t0,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidParentScope))
}

// Node ids from another branch are invisible to every by-id operation.
func TestNodeBranchScopeIsolation(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	foreign := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	newName := "Hijacked"
	reviseAt := t0.Add(24 * time.Hour)
	_, err := svc.ReviseNode(ctx, foreign, campus.ID, location.ReviseNodeInput{
		Name:          &newName,
		EffectiveFrom: &reviseAt,
	})
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = svc.CurrentCodeAt(ctx, foreign, campus.ID, t0.Add(time.Hour))
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = svc.GetRevisions(ctx, foreign, campus.ID)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	// The owning branch still reads a single untouched revision.
	revs, err := svc.GetRevisions(ctx, branchID, campus.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "Campus C01", revs[0].Name)
}

func TestCodeCollisionAcrossTime(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	first := createCampus(t, svc, branchID, "C01")

	// Same code, overlapping open-ended period.
	_, _, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindCampus,
		Code:          "C01",
		Name:          "Duplicate",
		EffectiveFrom: t0.Add(24 * time.Hour),
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodeCollision))

	// The same code in a different branch is fine.
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      uuid.New(),
		Kind:          model.LocationKindCampus,
		Code:          "C01",
		Name:          "Other branch",
		EffectiveFrom: t0,
	})
	require.NoError(t, err)

	// After the first campus is renamed, its old code becomes reusable
	// for periods past the rename.
	renameAt := t0.Add(48 * time.Hour)
	newCode := "C02"
	_, err = svc.ReviseNode(ctx, branchID, first.ID, location.ReviseNodeInput{
		Code:          &newCode,
		EffectiveFrom: &renameAt,
	})
	require.NoError(t, err)

	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindCampus,
		Code:          "C01",
		Name:          "Recycled code",
		EffectiveFrom: renameAt,
	})
	require.NoError(t, err)
}

func TestReviseNodePreservesHistory(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	reviseAt := t0.Add(72 * time.Hour)
	newCode := "C05"
	newName := "North Campus"
	rev, err := svc.ReviseNode(ctx, branchID, campus.ID, location.ReviseNodeInput{
		Code:          &newCode,
		Name:          &newName,
		EffectiveFrom: &reviseAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "C05", rev.Code)

	// Queries before the revision instant still see the old identity.
	code, err := svc.CurrentCodeAt(ctx, branchID, campus.ID, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "C01", code)

	code, err = svc.CurrentCodeAt(ctx, branchID, campus.ID, reviseAt)
	require.NoError(t, err)
	assert.Equal(t, "C05", code)

	revs, err := svc.GetRevisions(ctx, branchID, campus.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "C01", revs[0].Code)
	require.NotNil(t, revs[0].EffectiveTo)
	assert.True(t, revs[0].EffectiveTo.Equal(reviseAt))
	assert.Nil(t, revs[1].EffectiveTo)
}

func TestReviseNodeRejectsBackdatedStart(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")

	for _, at := range []time.Time{t0, t0.Add(-time.Hour)} {
		at := at
		name := "Renamed"
		_, err := svc.ReviseNode(ctx, branchID, campus.ID, location.ReviseNodeInput{
			Name:          &name,
			EffectiveFrom: &at,
		})
		assert.True(t, errors.HasCode(err, errors.ErrInvalidEffectiveDate))
	}
}

func TestQueryBeforeFirstRevision(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	campus := createCampus(t, svc, branchID, "C01")

	_, err := svc.CurrentCodeAt(context.Background(), branchID, campus.ID, t0.Add(-time.Minute))
	assert.True(t, errors.HasCode(err, errors.ErrNoEffectiveRevision))
}

func TestTreeAt(t *testing.T) {
	svc := newTestService()
	branchID := uuid.New()
	ctx := context.Background()

	campus := createCampus(t, svc, branchID, "C01")
	building, _, err := svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		ParentID:      &campus.ID,
		Code:          "C01-B02",
		Name:          "Annex",
		IsActive:      true,
		EffectiveFrom: t0.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, _, err = svc.CreateNode(ctx, location.CreateNodeInput{
		BranchID:      branchID,
		Kind:          model.LocationKindBuilding,
		ParentID:      &campus.ID,
		Code:          "C01-B01",
		Name:          "Main",
		IsActive:      true,
		EffectiveFrom: t0.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	// Before the buildings exist, only the campus shows.
	tree, err := svc.TreeAt(ctx, branchID, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Empty(t, tree[0].Children)

	// Afterwards both buildings appear, sorted by code.
	tree, err = svc.TreeAt(ctx, branchID, t0.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "C01-B01", tree[0].Children[0].Code)
	assert.Equal(t, "C01-B02", tree[0].Children[1].Code)
	assert.Equal(t, building.ID, tree[0].Children[1].ID)
}
