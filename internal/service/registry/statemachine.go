package registry

import (
	"fmt"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

// CheckTransition validates a resource state change. Every state reaches
// every other, with one exception: a bed may not go OCCUPIED -> AVAILABLE
// directly. A vacated bed must pass through CLEANING before it can be
// offered again, the housekeeping gate. Other resource types turn over
// differently; an OT table may go straight back to AVAILABLE.
func CheckTransition(resourceType model.ResourceType, from, to model.ResourceState) error {
	if !to.Valid() {
		return errors.InvalidTransition(fmt.Sprintf("unknown resource state %q", to))
	}
	if resourceType == model.ResourceTypeBed &&
		from == model.ResourceStateOccupied && to == model.ResourceStateAvailable {
		return errors.InvalidTransition("an occupied bed must pass through CLEANING before becoming available")
	}
	return nil
}
