package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Gate is the enforcement mode for one scheduling precondition.
type Gate string

const (
	GateBlock Gate = "BLOCK"
	GateWarn  Gate = "WARN"
	GateSkip  Gate = "SKIP"
)

// ParseGate converts stored text into a Gate; unknown modes are rejected
// at this boundary rather than deep in scheduling logic.
func ParseGate(raw string) (Gate, error) {
	switch Gate(strings.ToUpper(strings.TrimSpace(raw))) {
	case GateBlock:
		return GateBlock, nil
	case GateWarn:
		return GateWarn, nil
	case GateSkip:
		return GateSkip, nil
	}
	return "", fmt.Errorf("unknown gate mode %q", raw)
}

// PreconditionPolicy is the per-branch enforcement mode for the three
// scheduling safety gates.
type PreconditionPolicy struct {
	Consent    Gate `json:"consent"`
	Anesthesia Gate `json:"anesthesia"`
	Checklist  Gate `json:"checklist"`
}

// DefaultPreconditionPolicy is maximally strict: every gate blocks.
func DefaultPreconditionPolicy() PreconditionPolicy {
	return PreconditionPolicy{
		Consent:    GateBlock,
		Anesthesia: GateBlock,
		Checklist:  GateBlock,
	}
}

type SetBranchPolicyRequest struct {
	ConsentGate    string `json:"consent_gate" binding:"required,gatemode"`
	AnesthesiaGate string `json:"anesthesia_gate" binding:"required,gatemode"`
	ChecklistGate  string `json:"checklist_gate" binding:"required,gatemode"`
}

// BranchPolicy is the stored per-branch policy row.
type BranchPolicy struct {
	BranchID       uuid.UUID `db:"branch_id" json:"branch_id"`
	ConsentGate    string    `db:"consent_gate" json:"consent_gate"`
	AnesthesiaGate string    `db:"anesthesia_gate" json:"anesthesia_gate"`
	ChecklistGate  string    `db:"checklist_gate" json:"checklist_gate"`
}
