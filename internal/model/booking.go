package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "SCHEDULED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ProcedureBooking reserves a schedulable resource for the half-open
// window [StartAt, EndAt). Bookings are never physically deleted.
type ProcedureBooking struct {
	Base
	BranchID        uuid.UUID     `db:"branch_id" json:"branch_id"`
	UnitID          uuid.UUID     `db:"unit_id" json:"unit_id"`
	ResourceID      uuid.UUID     `db:"resource_id" json:"resource_id"`
	PatientID       *uuid.UUID    `db:"patient_id" json:"patient_id,omitempty"`
	DepartmentID    *uuid.UUID    `db:"department_id" json:"department_id,omitempty"`
	StartAt         time.Time     `db:"start_at" json:"start_at"`
	EndAt           time.Time     `db:"end_at" json:"end_at"`
	Status          BookingStatus `db:"status" json:"status"`
	ConsentOk       bool          `db:"consent_ok" json:"consent_ok"`
	AnesthesiaOk    bool          `db:"anesthesia_ok" json:"anesthesia_ok"`
	ChecklistOk     bool          `db:"checklist_ok" json:"checklist_ok"`
	CancelReason    *string       `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedByUserID uuid.UUID     `db:"created_by_user_id" json:"created_by_user_id"`
}

// Overlaps applies the half-open overlap predicate; back-to-back windows
// do not overlap.
func (b *ProcedureBooking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && b.EndAt.After(start)
}

type CreateBookingRequest struct {
	UnitID       string    `json:"unit_id" binding:"required,uuid"`
	ResourceID   string    `json:"resource_id" binding:"required,uuid"`
	PatientID    *string   `json:"patient_id"`
	DepartmentID *string   `json:"department_id"`
	StartAt      time.Time `json:"start_at" binding:"required"`
	EndAt        time.Time `json:"end_at" binding:"required"`
	ConsentOk    bool      `json:"consent_ok"`
	AnesthesiaOk bool      `json:"anesthesia_ok"`
	ChecklistOk  bool      `json:"checklist_ok"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type BookingFilters struct {
	UnitID     *uuid.UUID
	ResourceID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Status     BookingStatus
}
