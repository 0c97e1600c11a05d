package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
)

func (r *policyRepository) GetBranchPolicy(ctx context.Context, branchID uuid.UUID) (*model.BranchPolicy, error) {
	query := `
		SELECT branch_id, consent_gate, anesthesia_gate, checklist_gate
		FROM branch_policies
		WHERE branch_id = $1
	`
	var policy model.BranchPolicy
	if err := r.db.GetContext(ctx, &policy, query, branchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get branch policy: %w", err)
	}
	return &policy, nil
}

func (r *policyRepository) UpsertBranchPolicy(ctx context.Context, policy *model.BranchPolicy) error {
	query := `
		INSERT INTO branch_policies (branch_id, consent_gate, anesthesia_gate, checklist_gate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (branch_id) DO UPDATE
		SET consent_gate = EXCLUDED.consent_gate,
			anesthesia_gate = EXCLUDED.anesthesia_gate,
			checklist_gate = EXCLUDED.checklist_gate
	`
	if _, err := r.db.ExecContext(ctx, query,
		policy.BranchID, policy.ConsentGate, policy.AnesthesiaGate, policy.ChecklistGate,
	); err != nil {
		return fmt.Errorf("failed to upsert branch policy: %w", err)
	}
	return nil
}
