package model

import (
	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceTypeBed             ResourceType = "BED"
	ResourceTypeOTTable         ResourceType = "OT_TABLE"
	ResourceTypeRecoveryBay     ResourceType = "RECOVERY_BAY"
	ResourceTypeICUBed          ResourceType = "ICU_BED"
	ResourceTypeIsolationBed    ResourceType = "ISOLATION_BED"
	ResourceTypeDialysisStation ResourceType = "DIALYSIS_STATION"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTypeBed, ResourceTypeOTTable, ResourceTypeRecoveryBay,
		ResourceTypeICUBed, ResourceTypeIsolationBed, ResourceTypeDialysisStation:
		return true
	}
	return false
}

// SchedulableByDefault reports the default booking eligibility for a
// resource type. Beds are allocated through admission workflows, not
// interval booking, so they default to non-schedulable.
func (t ResourceType) SchedulableByDefault() bool {
	return t != ResourceTypeBed
}

type ResourceState string

const (
	ResourceStateAvailable   ResourceState = "AVAILABLE"
	ResourceStateOccupied    ResourceState = "OCCUPIED"
	ResourceStateCleaning    ResourceState = "CLEANING"
	ResourceStateMaintenance ResourceState = "MAINTENANCE"
	ResourceStateInactive    ResourceState = "INACTIVE"
)

func (s ResourceState) Valid() bool {
	switch s {
	case ResourceStateAvailable, ResourceStateOccupied, ResourceStateCleaning,
		ResourceStateMaintenance, ResourceStateInactive:
		return true
	}
	return false
}

// UnitResource is a schedulable physical asset (bed, operating table).
// RoomID is required iff the owning unit uses rooms.
type UnitResource struct {
	Base
	UnitID        uuid.UUID     `db:"unit_id" json:"unit_id"`
	RoomID        *uuid.UUID    `db:"room_id" json:"room_id,omitempty"`
	BranchID      uuid.UUID     `db:"branch_id" json:"branch_id"`
	ResourceType  ResourceType  `db:"resource_type" json:"resource_type"`
	Code          string        `db:"code" json:"code"`
	Name          string        `db:"name" json:"name"`
	State         ResourceState `db:"state" json:"state"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	IsSchedulable bool          `db:"is_schedulable" json:"is_schedulable"`
}

type CreateResourceRequest struct {
	RoomID        *string `json:"room_id"`
	ResourceType  string  `json:"resource_type" binding:"required,resourcetype"`
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	IsSchedulable *bool   `json:"is_schedulable"`
}

type UpdateResourceRequest struct {
	Name          *string `json:"name"`
	IsActive      *bool   `json:"is_active"`
	IsSchedulable *bool   `json:"is_schedulable"`
}

type SetResourceStateRequest struct {
	State string `json:"state" binding:"required,resourcestate"`
}
