package postgres

import (
	stderrors "errors"

	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-core/pkg/errors"
)

// Postgres error codes the repositories translate into typed failures.
// The exclusion constraints in migrations/0001_init.sql make the database
// the final arbiter of the interval invariants; a concurrent writer that
// slips past the service-level check loses here instead.
const (
	pqExclusionViolation    = "23P01"
	pqUniqueViolation       = "23505"
	pqSerializationFailure  = "40001"
	bookingOverlapConstr    = "procedure_bookings_no_overlap"
	revisionCodeExclConstr  = "location_node_revisions_code_excl"
	revisionRangeExclConstr = "location_node_revisions_node_excl"
)

// translateConstraintError maps pq constraint violations onto the
// application error taxonomy. Unrecognized errors pass through unchanged.
func translateConstraintError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pqExclusionViolation:
		switch pqErr.Constraint {
		case bookingOverlapConstr:
			return errors.SchedulingConflict("another booking already holds this resource for an overlapping window")
		case revisionCodeExclConstr:
			return errors.CodeCollision("another location already holds this code for an overlapping period")
		case revisionRangeExclConstr:
			return errors.InvalidEffectiveDate("revision interval overlaps an existing revision of this node")
		}
		return errors.CodeCollision(pqErr.Message)
	case pqUniqueViolation:
		return errors.CodeCollision("code already in use")
	case pqSerializationFailure:
		return errors.SchedulingConflict("concurrent modification detected, retry the request")
	}

	return err
}
