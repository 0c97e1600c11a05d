package policy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/internal/repository/memory"
	"github.com/jwalitptl/hospital-core/internal/service/policy"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

func TestGetPolicyDefaultsToBlock(t *testing.T) {
	svc := policy.NewService(memory.NewPolicyRepository(), policy.DefaultConfig())

	got, err := svc.GetPolicy(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPreconditionPolicy(), got)
	assert.Equal(t, model.GateBlock, got.Consent)
	assert.Equal(t, model.GateBlock, got.Anesthesia)
	assert.Equal(t, model.GateBlock, got.Checklist)
}

func TestSetPolicyRoundTrip(t *testing.T) {
	svc := policy.NewService(memory.NewPolicyRepository(), policy.DefaultConfig())
	branchID := uuid.New()
	ctx := context.Background()

	want := model.PreconditionPolicy{
		Consent:    model.GateBlock,
		Anesthesia: model.GateWarn,
		Checklist:  model.GateSkip,
	}
	require.NoError(t, svc.SetPolicy(ctx, branchID, want))

	got, err := svc.GetPolicy(ctx, branchID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Updating the policy replaces the cached entry too.
	want.Checklist = model.GateWarn
	require.NoError(t, svc.SetPolicy(ctx, branchID, want))
	got, err = svc.GetPolicy(ctx, branchID)
	require.NoError(t, err)
	assert.Equal(t, model.GateWarn, got.Checklist)
}

func TestSetPolicyRejectsUnknownGate(t *testing.T) {
	svc := policy.NewService(memory.NewPolicyRepository(), policy.DefaultConfig())

	err := svc.SetPolicy(context.Background(), uuid.New(), model.PreconditionPolicy{
		Consent:    model.Gate("MAYBE"),
		Anesthesia: model.GateBlock,
		Checklist:  model.GateBlock,
	})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidGateMode))
}

func TestGetPolicyRejectsCorruptRow(t *testing.T) {
	repo := memory.NewPolicyRepository()
	svc := policy.NewService(repo, policy.DefaultConfig())
	branchID := uuid.New()
	ctx := context.Background()

	// A row written around the service, e.g. by a bad migration.
	require.NoError(t, repo.UpsertBranchPolicy(ctx, &model.BranchPolicy{
		BranchID:       branchID,
		ConsentGate:    "ALLOW",
		AnesthesiaGate: "BLOCK",
		ChecklistGate:  "BLOCK",
	}))

	_, err := svc.GetPolicy(ctx, branchID)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidGateMode))
}
