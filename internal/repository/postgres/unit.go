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

func (r *unitRepository) CreateUnit(ctx context.Context, unit *model.Unit) error {
	query := `
		INSERT INTO units (
			id, branch_id, department_id, unit_type_id,
			code, name, uses_rooms, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		unit.ID, unit.BranchID, unit.DepartmentID, unit.UnitTypeID,
		unit.Code, unit.Name, unit.UsesRooms, unit.IsActive,
		unit.CreatedAt, unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", translateConstraintError(err))
	}
	return nil
}

func (r *unitRepository) GetUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	query := `
		SELECT id, branch_id, department_id, unit_type_id,
			   code, name, uses_rooms, is_active, created_at, updated_at
		FROM units
		WHERE id = $1
	`
	var unit model.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("unit", err)
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return &unit, nil
}

func (r *unitRepository) UpdateUnit(ctx context.Context, unit *model.Unit) error {
	query := `
		UPDATE units
		SET name = $1, is_active = $2, updated_at = $3
		WHERE id = $4
	`
	unit.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query, unit.Name, unit.IsActive, unit.UpdatedAt, unit.ID)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("unit", nil)
	}
	return nil
}

func (r *unitRepository) ListUnits(ctx context.Context, branchID uuid.UUID, filters *model.UnitFilters) ([]*model.Unit, error) {
	query := `
		SELECT id, branch_id, department_id, unit_type_id,
			   code, name, uses_rooms, is_active, created_at, updated_at
		FROM units
		WHERE branch_id = $1
	`
	args := []interface{}{branchID}
	argCount := 2

	if filters != nil {
		if filters.DepartmentID != nil {
			query += fmt.Sprintf(" AND department_id = $%d", argCount)
			args = append(args, *filters.DepartmentID)
			argCount++
		}
		if filters.Status == "active" {
			query += " AND is_active = true"
		} else if filters.Status == "inactive" {
			query += " AND is_active = false"
		}
		if filters.CreatedAfter != nil {
			query += fmt.Sprintf(" AND created_at > $%d", argCount)
			args = append(args, *filters.CreatedAfter)
			argCount++
		}
	}

	query += " ORDER BY code ASC"

	var units []*model.Unit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (r *unitRepository) HasUnitCode(ctx context.Context, branchID uuid.UUID, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM units WHERE branch_id = $1 AND code = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, branchID, code); err != nil {
		return false, fmt.Errorf("failed to check unit code: %w", err)
	}
	return exists, nil
}

func (r *unitRepository) CreateRoom(ctx context.Context, room *model.UnitRoom) error {
	query := `
		INSERT INTO unit_rooms (id, unit_id, branch_id, code, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.UnitID, room.BranchID, room.Code, room.Name,
		room.IsActive, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", translateConstraintError(err))
	}
	return nil
}

func (r *unitRepository) GetRoom(ctx context.Context, id uuid.UUID) (*model.UnitRoom, error) {
	query := `
		SELECT id, unit_id, branch_id, code, name, is_active, created_at, updated_at
		FROM unit_rooms
		WHERE id = $1
	`
	var room model.UnitRoom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("room", err)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (r *unitRepository) UpdateRoom(ctx context.Context, room *model.UnitRoom) error {
	query := `
		UPDATE unit_rooms
		SET name = $1, is_active = $2, updated_at = $3
		WHERE id = $4
	`
	room.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query, room.Name, room.IsActive, room.UpdatedAt, room.ID)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("room", nil)
	}
	return nil
}

func (r *unitRepository) ListRooms(ctx context.Context, unitID uuid.UUID) ([]*model.UnitRoom, error) {
	query := `
		SELECT id, unit_id, branch_id, code, name, is_active, created_at, updated_at
		FROM unit_rooms
		WHERE unit_id = $1
		ORDER BY code ASC
	`
	var rooms []*model.UnitRoom
	if err := r.db.SelectContext(ctx, &rooms, query, unitID); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (r *unitRepository) CreateResource(ctx context.Context, res *model.UnitResource) error {
	query := `
		INSERT INTO unit_resources (
			id, unit_id, room_id, branch_id, resource_type,
			code, name, state, is_active, is_schedulable, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.UnitID, res.RoomID, res.BranchID, res.ResourceType,
		res.Code, res.Name, res.State, res.IsActive, res.IsSchedulable,
		res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", translateConstraintError(err))
	}
	return nil
}

func (r *unitRepository) GetResource(ctx context.Context, id uuid.UUID) (*model.UnitResource, error) {
	query := `
		SELECT id, unit_id, room_id, branch_id, resource_type,
			   code, name, state, is_active, is_schedulable, created_at, updated_at
		FROM unit_resources
		WHERE id = $1
	`
	var res model.UnitResource
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("resource", err)
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &res, nil
}

func (r *unitRepository) UpdateResource(ctx context.Context, res *model.UnitResource) error {
	query := `
		UPDATE unit_resources
		SET name = $1, state = $2, is_active = $3, is_schedulable = $4, updated_at = $5
		WHERE id = $6
	`
	res.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		res.Name, res.State, res.IsActive, res.IsSchedulable, res.UpdatedAt, res.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("resource", nil)
	}
	return nil
}

func (r *unitRepository) UpdateResourceState(ctx context.Context, id uuid.UUID, state model.ResourceState) error {
	query := `
		UPDATE unit_resources
		SET state = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, state, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update resource state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("resource", nil)
	}
	return nil
}

func (r *unitRepository) ListResources(ctx context.Context, unitID uuid.UUID) ([]*model.UnitResource, error) {
	query := `
		SELECT id, unit_id, room_id, branch_id, resource_type,
			   code, name, state, is_active, is_schedulable, created_at, updated_at
		FROM unit_resources
		WHERE unit_id = $1
		ORDER BY code ASC
	`
	var resources []*model.UnitResource
	if err := r.db.SelectContext(ctx, &resources, query, unitID); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resources, nil
}

func (r *unitRepository) DeactivateUnitCascade(ctx context.Context, unitID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.ExecContext(ctx,
		`UPDATE units SET is_active = false, updated_at = $1 WHERE id = $2`, now, unitID)
	if err != nil {
		return fmt.Errorf("failed to deactivate unit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("unit", nil)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE unit_rooms SET is_active = false, updated_at = $1 WHERE unit_id = $2`, now, unitID); err != nil {
		return fmt.Errorf("failed to deactivate rooms: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE unit_resources SET is_active = false, state = $1, updated_at = $2 WHERE unit_id = $3`,
		model.ResourceStateInactive, now, unitID); err != nil {
		return fmt.Errorf("failed to deactivate resources: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unit deactivation: %w", err)
	}
	return nil
}

func (r *unitRepository) DeactivateRoomCascade(ctx context.Context, roomID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	result, err := tx.ExecContext(ctx,
		`UPDATE unit_rooms SET is_active = false, updated_at = $1 WHERE id = $2`, now, roomID)
	if err != nil {
		return fmt.Errorf("failed to deactivate room: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("room", nil)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE unit_resources SET is_active = false, state = $1, updated_at = $2 WHERE room_id = $3`,
		model.ResourceStateInactive, now, roomID); err != nil {
		return fmt.Errorf("failed to deactivate resources: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit room deactivation: %w", err)
	}
	return nil
}
