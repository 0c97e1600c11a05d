package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

func (r *locationRepository) CreateNodeWithRevision(ctx context.Context, node *model.LocationNode, rev *model.LocationNodeRevision) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nodeQuery := `
		INSERT INTO location_nodes (id, branch_id, kind, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, nodeQuery,
		node.ID, node.BranchID, node.Kind, node.ParentID, node.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create location node: %w", translateConstraintError(err))
	}

	revQuery := `
		INSERT INTO location_node_revisions (
			id, node_id, code, name, is_active,
			effective_from, effective_to, created_by_user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, revQuery,
		rev.ID, rev.NodeID, rev.Code, rev.Name, rev.IsActive,
		rev.EffectiveFrom, rev.EffectiveTo, rev.CreatedByUserID, rev.CreatedAt,
	); err != nil {
		return translateConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit node creation: %w", translateConstraintError(err))
	}
	return nil
}

func (r *locationRepository) GetNode(ctx context.Context, id uuid.UUID) (*model.LocationNode, error) {
	query := `
		SELECT id, branch_id, kind, parent_id, created_at
		FROM location_nodes
		WHERE id = $1
	`
	var node model.LocationNode
	if err := r.db.GetContext(ctx, &node, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("location node", err)
		}
		return nil, fmt.Errorf("failed to get location node: %w", err)
	}
	return &node, nil
}

func (r *locationRepository) GetRevisionAt(ctx context.Context, nodeID uuid.UUID, at time.Time) (*model.LocationNodeRevision, error) {
	query := `
		SELECT id, node_id, code, name, is_active,
			   effective_from, effective_to, created_by_user_id, created_at
		FROM location_node_revisions
		WHERE node_id = $1
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
	`
	var rev model.LocationNodeRevision
	if err := r.db.GetContext(ctx, &rev, query, nodeID, at); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NoEffectiveRevision(fmt.Sprintf("node has no revision effective at %s", at.Format(time.RFC3339)))
		}
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}
	return &rev, nil
}

func (r *locationRepository) GetOpenRevision(ctx context.Context, nodeID uuid.UUID) (*model.LocationNodeRevision, error) {
	query := `
		SELECT id, node_id, code, name, is_active,
			   effective_from, effective_to, created_by_user_id, created_at
		FROM location_node_revisions
		WHERE node_id = $1 AND effective_to IS NULL
	`
	var rev model.LocationNodeRevision
	if err := r.db.GetContext(ctx, &rev, query, nodeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NoEffectiveRevision("node has no open revision")
		}
		return nil, fmt.Errorf("failed to get open revision: %w", err)
	}
	return &rev, nil
}

func (r *locationRepository) ListRevisions(ctx context.Context, nodeID uuid.UUID) ([]*model.LocationNodeRevision, error) {
	query := `
		SELECT id, node_id, code, name, is_active,
			   effective_from, effective_to, created_by_user_id, created_at
		FROM location_node_revisions
		WHERE node_id = $1
		ORDER BY effective_from ASC
	`
	var revs []*model.LocationNodeRevision
	if err := r.db.SelectContext(ctx, &revs, query, nodeID); err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	return revs, nil
}

func (r *locationRepository) HasCodeOverlap(ctx context.Context, branchID uuid.UUID, code string, from time.Time, to *time.Time, excludeNodeID uuid.UUID) (bool, error) {
	// Interval intersection with NULL effective_to treated as +infinity.
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM location_node_revisions r
			JOIN location_nodes n ON n.id = r.node_id
			WHERE n.branch_id = $1
			  AND r.code = $2
			  AND r.node_id != $3
			  AND r.effective_from < COALESCE($5, 'infinity'::timestamptz)
			  AND COALESCE(r.effective_to, 'infinity'::timestamptz) > $4
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, branchID, code, excludeNodeID, from, to); err != nil {
		return false, fmt.Errorf("failed to check code overlap: %w", err)
	}
	return exists, nil
}

func (r *locationRepository) CloseAndInsertRevision(ctx context.Context, openRevisionID uuid.UUID, closeAt time.Time, next *model.LocationNodeRevision) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	closeQuery := `
		UPDATE location_node_revisions
		SET effective_to = $1
		WHERE id = $2 AND effective_to IS NULL
	`
	result, err := tx.ExecContext(ctx, closeQuery, closeAt, openRevisionID)
	if err != nil {
		return translateConstraintError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NoEffectiveRevision("open revision was closed by a concurrent writer")
	}

	insertQuery := `
		INSERT INTO location_node_revisions (
			id, node_id, code, name, is_active,
			effective_from, effective_to, created_by_user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, insertQuery,
		next.ID, next.NodeID, next.Code, next.Name, next.IsActive,
		next.EffectiveFrom, next.EffectiveTo, next.CreatedByUserID, next.CreatedAt,
	); err != nil {
		return translateConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateConstraintError(err)
	}
	return nil
}

func (r *locationRepository) ListEffectiveAt(ctx context.Context, branchID uuid.UUID, at time.Time) ([]*model.EffectiveLocation, error) {
	query := `
		SELECT n.id AS node_id, n.branch_id, n.kind, n.parent_id,
			   r.code, r.name, r.is_active
		FROM location_nodes n
		JOIN location_node_revisions r ON r.node_id = n.id
		WHERE n.branch_id = $1
		  AND r.effective_from <= $2
		  AND (r.effective_to IS NULL OR r.effective_to > $2)
		ORDER BY r.code ASC
	`
	var rows []*model.EffectiveLocation
	if err := r.db.SelectContext(ctx, &rows, query, branchID, at); err != nil {
		return nil, fmt.Errorf("failed to list effective locations: %w", err)
	}
	return rows, nil
}
