package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, branch_id, actor_id, action, entity_type, entity_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.BranchID, log.ActorID, log.Action,
		log.EntityType, log.EntityID, log.Meta, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, branchID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, branch_id, actor_id, action, entity_type, entity_id, meta, created_at
		FROM audit_logs
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, branchID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
