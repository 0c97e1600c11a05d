package model

import (
	"time"

	"github.com/google/uuid"
)

// Unit is an organizational unit (ward, OT complex, ICU). Units are not
// revisioned; identity is the code plus an active flag.
type Unit struct {
	Base
	BranchID     uuid.UUID `db:"branch_id" json:"branch_id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	UnitTypeID   uuid.UUID `db:"unit_type_id" json:"unit_type_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	UsesRooms    bool      `db:"uses_rooms" json:"uses_rooms"`
	IsActive     bool      `db:"is_active" json:"is_active"`
}

// UnitRoom groups resources inside a room-based unit. Only legal when the
// parent unit has UsesRooms set.
type UnitRoom struct {
	Base
	UnitID   uuid.UUID `db:"unit_id" json:"unit_id"`
	BranchID uuid.UUID `db:"branch_id" json:"branch_id"`
	Code     string    `db:"code" json:"code"`
	Name     string    `db:"name" json:"name"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

type CreateUnitRequest struct {
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	UnitTypeID   string `json:"unit_type_id" binding:"required,uuid"`
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	UsesRooms    bool   `json:"uses_rooms"`
}

type UpdateUnitRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type CreateRoomRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type UpdateRoomRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type UnitFilters struct {
	DepartmentID *uuid.UUID
	Status       string
	CreatedAfter *time.Time
}
