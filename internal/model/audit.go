package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	BranchID   uuid.UUID       `json:"branch_id" db:"branch_id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Meta       json.RawMessage `json:"meta" db:"meta"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate     = "create"
	AuditActionRevise     = "revise"
	AuditActionUpdate     = "update"
	AuditActionSetState   = "set_state"
	AuditActionCancel     = "cancel"
	AuditActionDeactivate = "deactivate"

	// Entity types
	AuditEntityLocation = "location_node"
	AuditEntityUnit     = "unit"
	AuditEntityRoom     = "unit_room"
	AuditEntityResource = "unit_resource"
	AuditEntityBooking  = "procedure_booking"
)
