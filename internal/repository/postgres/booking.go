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

func (r *bookingRepository) Create(ctx context.Context, booking *model.ProcedureBooking) error {
	// Serializable so the overlap check and the insert cannot interleave
	// with a concurrent writer; the exclusion constraint backs this up.
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO procedure_bookings (
			id, branch_id, unit_id, resource_id, patient_id, department_id,
			start_at, end_at, status, consent_ok, anesthesia_ok, checklist_ok,
			cancel_reason, created_by_user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	if _, err := tx.ExecContext(ctx, query,
		booking.ID, booking.BranchID, booking.UnitID, booking.ResourceID,
		booking.PatientID, booking.DepartmentID,
		booking.StartAt, booking.EndAt, booking.Status,
		booking.ConsentOk, booking.AnesthesiaOk, booking.ChecklistOk,
		booking.CancelReason, booking.CreatedByUserID,
		booking.CreatedAt, booking.UpdatedAt,
	); err != nil {
		return translateConstraintError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateConstraintError(err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.ProcedureBooking, error) {
	query := `
		SELECT id, branch_id, unit_id, resource_id, patient_id, department_id,
			   start_at, end_at, status, consent_ok, anesthesia_ok, checklist_ok,
			   cancel_reason, created_by_user_id, created_at, updated_at
		FROM procedure_bookings
		WHERE id = $1
	`
	var booking model.ProcedureBooking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("booking", err)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.ProcedureBooking) error {
	query := `
		UPDATE procedure_bookings
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	booking.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		booking.Status, booking.CancelReason, booking.UpdatedAt, booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("booking", nil)
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, branchID uuid.UUID, filters *model.BookingFilters) ([]*model.ProcedureBooking, error) {
	query := `
		SELECT id, branch_id, unit_id, resource_id, patient_id, department_id,
			   start_at, end_at, status, consent_ok, anesthesia_ok, checklist_ok,
			   cancel_reason, created_by_user_id, created_at, updated_at
		FROM procedure_bookings
		WHERE branch_id = $1
	`
	args := []interface{}{branchID}
	argCount := 2

	if filters != nil {
		if filters.UnitID != nil {
			query += fmt.Sprintf(" AND unit_id = $%d", argCount)
			args = append(args, *filters.UnitID)
			argCount++
		}
		if filters.ResourceID != nil {
			query += fmt.Sprintf(" AND resource_id = $%d", argCount)
			args = append(args, *filters.ResourceID)
			argCount++
		}
		if filters.From != nil {
			query += fmt.Sprintf(" AND end_at > $%d", argCount)
			args = append(args, *filters.From)
			argCount++
		}
		if filters.To != nil {
			query += fmt.Sprintf(" AND start_at < $%d", argCount)
			args = append(args, *filters.To)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += " ORDER BY start_at ASC"

	var bookings []*model.ProcedureBooking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, start, end time.Time) ([]*model.ProcedureBooking, error) {
	// Half-open windows: back-to-back bookings do not overlap.
	query := `
		SELECT id, branch_id, unit_id, resource_id, patient_id, department_id,
			   start_at, end_at, status, consent_ok, anesthesia_ok, checklist_ok,
			   cancel_reason, created_by_user_id, created_at, updated_at
		FROM procedure_bookings
		WHERE resource_id = $1
		  AND status = $2
		  AND start_at < $4
		  AND end_at > $3
		ORDER BY start_at ASC
	`
	var bookings []*model.ProcedureBooking
	if err := r.db.SelectContext(ctx, &bookings, query, resourceID, model.BookingStatusScheduled, start, end); err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return bookings, nil
}
