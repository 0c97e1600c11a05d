package model

import (
	"time"

	"github.com/google/uuid"
)

type LocationKind string

const (
	LocationKindCampus   LocationKind = "CAMPUS"
	LocationKindBuilding LocationKind = "BUILDING"
	LocationKindFloor    LocationKind = "FLOOR"
	LocationKindZone     LocationKind = "ZONE"
	LocationKindArea     LocationKind = "AREA"
)

// Valid reports whether k is a recognized location kind.
func (k LocationKind) Valid() bool {
	switch k {
	case LocationKindCampus, LocationKindBuilding, LocationKindFloor, LocationKindZone, LocationKindArea:
		return true
	}
	return false
}

// LocationNode is the identity of a physical location. All mutable
// attributes live on its revisions; the node row itself never changes
// after creation.
type LocationNode struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	BranchID  uuid.UUID    `db:"branch_id" json:"branch_id"`
	Kind      LocationKind `db:"kind" json:"kind"`
	ParentID  *uuid.UUID   `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// LocationNodeRevision records what was true about a node during
// [EffectiveFrom, EffectiveTo). A nil EffectiveTo means the revision is
// still open.
type LocationNodeRevision struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	NodeID          uuid.UUID  `db:"node_id" json:"node_id"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	EffectiveFrom   time.Time  `db:"effective_from" json:"effective_from"`
	EffectiveTo     *time.Time `db:"effective_to" json:"effective_to,omitempty"`
	CreatedByUserID uuid.UUID  `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Covers reports whether the revision interval contains the instant.
func (r *LocationNodeRevision) Covers(at time.Time) bool {
	if at.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || at.Before(*r.EffectiveTo)
}

// Overlaps applies the half-open interval intersection test against
// [from, to), with nil treated as +infinity.
func (r *LocationNodeRevision) Overlaps(from time.Time, to *time.Time) bool {
	if to != nil && !r.EffectiveFrom.Before(*to) {
		return false
	}
	if r.EffectiveTo != nil && !from.Before(*r.EffectiveTo) {
		return false
	}
	return true
}

// EffectiveLocation joins a node with its revision effective at a given
// instant; the raw material for tree building.
type EffectiveLocation struct {
	NodeID   uuid.UUID    `db:"node_id" json:"node_id"`
	BranchID uuid.UUID    `db:"branch_id" json:"branch_id"`
	Kind     LocationKind `db:"kind" json:"kind"`
	ParentID *uuid.UUID   `db:"parent_id" json:"parent_id,omitempty"`
	Code     string       `db:"code" json:"code"`
	Name     string       `db:"name" json:"name"`
	IsActive bool         `db:"is_active" json:"is_active"`
}

// LocationTreeNode is one node of the forest returned by the tree-at query.
type LocationTreeNode struct {
	ID       uuid.UUID           `json:"id"`
	Kind     LocationKind        `json:"kind"`
	Code     string              `json:"code"`
	Name     string              `json:"name"`
	IsActive bool                `json:"is_active"`
	Children []*LocationTreeNode `json:"children"`
}

type CreateLocationRequest struct {
	Kind          string     `json:"kind" binding:"required,locationkind"`
	ParentID      *string    `json:"parent_id"`
	Code          string     `json:"code" binding:"required"`
	Name          string     `json:"name" binding:"required"`
	IsActive      *bool      `json:"is_active"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}

type ReviseLocationRequest struct {
	Code          *string    `json:"code"`
	Name          *string    `json:"name"`
	IsActive      *bool      `json:"is_active"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}
