// Package codes canonicalizes and validates the hierarchical codes used
// for campuses, buildings, floors, zones, units, rooms and resources.
// Everything here is pure: no state, no I/O.
package codes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwalitptl/hospital-core/internal/model"
	"github.com/jwalitptl/hospital-core/pkg/errors"
)

var (
	campusPattern   = regexp.MustCompile(`^C\d{2}$`)
	buildingPattern = regexp.MustCompile(`^C\d{2}-B\d{2}$`)
	floorPattern    = regexp.MustCompile(`^C\d{2}-B\d{2}-F\d{2}$`)
	// Zones are strictly numeric. Alphabetic zone identifiers are rejected
	// even where the UI accepts free text for names.
	zonePattern     = regexp.MustCompile(`^C\d{2}-B\d{2}-F\d{2}-Z\d{2}$`)
	areaSegment     = regexp.MustCompile(`^A\d{2}$`)
	unitPattern     = regexp.MustCompile(`^[A-Z]{2,5}-[A-Z0-9]{2,5}-\d{2}$`)
	roomSegment     = regexp.MustCompile(`^R\d{3}$`)
	resourceSegment = regexp.MustCompile(`^([A-Z]{1,3})(\d{3})$`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// resourcePrefixes maps a resource type to the mandatory code prefix of
// its trailing segment.
var resourcePrefixes = map[model.ResourceType]string{
	model.ResourceTypeBed:             "B",
	model.ResourceTypeOTTable:         "OT",
	model.ResourceTypeRecoveryBay:     "RB",
	model.ResourceTypeICUBed:          "IB",
	model.ResourceTypeIsolationBed:    "SB",
	model.ResourceTypeDialysisStation: "DS",
}

// ResourcePrefix returns the code prefix for a resource type.
func ResourcePrefix(t model.ResourceType) (string, bool) {
	p, ok := resourcePrefixes[t]
	return p, ok
}

// Canonicalize normalizes a raw code for comparison and storage:
// trim, uppercase, spaces and underscores to hyphens, hyphen runs
// collapsed. Total and side-effect-free.
func Canonicalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = multiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidateLocationCode canonicalizes code and checks both its shape for
// the given kind and its containment under parentCode. The returned code
// is the canonical form.
func ValidateLocationCode(kind model.LocationKind, code, parentCode string) (string, error) {
	c := Canonicalize(code)
	if c == "" {
		return "", errors.InvalidCode("location code is required")
	}

	switch kind {
	case model.LocationKindCampus:
		if parentCode != "" {
			return "", errors.InvalidCode("campus codes cannot have a parent")
		}
		if !campusPattern.MatchString(c) {
			return "", errors.InvalidCode(fmt.Sprintf("campus code %q must match C##", c))
		}
	case model.LocationKindBuilding:
		if !buildingPattern.MatchString(c) {
			return "", errors.InvalidCode(fmt.Sprintf("building code %q must match C##-B##", c))
		}
		if err := requirePrefix(c, parentCode, "-B"); err != nil {
			return "", err
		}
	case model.LocationKindFloor:
		if !floorPattern.MatchString(c) {
			return "", errors.InvalidCode(fmt.Sprintf("floor code %q must match C##-B##-F##", c))
		}
		if err := requirePrefix(c, parentCode, "-F"); err != nil {
			return "", err
		}
	case model.LocationKindZone:
		if !zonePattern.MatchString(c) {
			return "", errors.InvalidCode(fmt.Sprintf("zone code %q must match C##-B##-F##-Z## (numeric zones only)", c))
		}
		if err := requirePrefix(c, parentCode, "-Z"); err != nil {
			return "", err
		}
	case model.LocationKindArea:
		parent := Canonicalize(parentCode)
		if parent == "" {
			return "", errors.InvalidCode("area codes require a parent")
		}
		seg, ok := strings.CutPrefix(c, parent+"-")
		if !ok {
			return "", errors.InvalidCode(fmt.Sprintf("area code %q must start with its parent code %q", c, parent))
		}
		if !areaSegment.MatchString(seg) {
			return "", errors.InvalidCode(fmt.Sprintf("area code %q must end with segment A##", c))
		}
	default:
		return "", errors.InvalidCode(fmt.Sprintf("unknown location kind %q", kind))
	}

	return c, nil
}

func requirePrefix(code, parentCode, discriminator string) error {
	parent := Canonicalize(parentCode)
	if parent == "" {
		return errors.InvalidCode("parent code is required")
	}
	if !strings.HasPrefix(code, parent+discriminator) {
		return errors.InvalidCode(fmt.Sprintf("code %q must start with parent code %q followed by %q", code, parent, discriminator))
	}
	return nil
}

// ValidateUnitCode canonicalizes and validates a unit code (XX-YYY-##).
func ValidateUnitCode(code string) (string, error) {
	c := Canonicalize(code)
	if !unitPattern.MatchString(c) {
		return "", errors.InvalidCode(fmt.Sprintf("unit code %q must match XX-YYY-## (e.g. WARD-MED-01)", c))
	}
	return c, nil
}

// ValidateRoomCode validates a room code against its unit (unit + -R###).
func ValidateRoomCode(unitCode, roomCode string) (string, error) {
	unit := Canonicalize(unitCode)
	c := Canonicalize(roomCode)
	seg, ok := strings.CutPrefix(c, unit+"-")
	if !ok {
		return "", errors.InvalidCode(fmt.Sprintf("room code %q must start with unit code %q", c, unit))
	}
	if !roomSegment.MatchString(seg) {
		return "", errors.InvalidCode(fmt.Sprintf("room code %q must end with segment R###", c))
	}
	return c, nil
}

// ValidateResourceCode validates a resource code against its immediate
// parent: the room when roomCode is non-empty, otherwise the unit
// (open-bay). When resourceType is non-empty the trailing segment's
// prefix must match the type's table entry exactly.
func ValidateResourceCode(unitCode, roomCode string, resourceType model.ResourceType, code string) (string, error) {
	parent := Canonicalize(roomCode)
	if parent == "" {
		parent = Canonicalize(unitCode)
	}
	if parent == "" {
		return "", errors.InvalidCode("resource codes require a parent unit or room code")
	}

	c := Canonicalize(code)
	seg, ok := strings.CutPrefix(c, parent+"-")
	if !ok {
		return "", errors.InvalidCode(fmt.Sprintf("resource code %q must start with its parent code %q", c, parent))
	}

	m := resourceSegment.FindStringSubmatch(seg)
	if m == nil {
		return "", errors.InvalidCode(fmt.Sprintf("resource code %q must end with segment <prefix><seq3> (e.g. B001)", c))
	}

	if resourceType != "" {
		prefix, known := resourcePrefixes[resourceType]
		if !known {
			return "", errors.InvalidCode(fmt.Sprintf("unknown resource type %q", resourceType))
		}
		if m[1] != prefix {
			return "", errors.InvalidCode(fmt.Sprintf("resource code %q must use prefix %q for type %s", c, prefix, resourceType))
		}
	}

	return c, nil
}

// GenerateLocationCode builds the next code for a child of the given kind
// under parentCode, using a 1-based sequence number.
func GenerateLocationCode(kind model.LocationKind, parentCode string, seq int) (string, error) {
	parent := Canonicalize(parentCode)
	switch kind {
	case model.LocationKindCampus:
		return fmt.Sprintf("C%02d", seq), nil
	case model.LocationKindBuilding:
		return fmt.Sprintf("%s-B%02d", parent, seq), nil
	case model.LocationKindFloor:
		return fmt.Sprintf("%s-F%02d", parent, seq), nil
	case model.LocationKindZone:
		return fmt.Sprintf("%s-Z%02d", parent, seq), nil
	case model.LocationKindArea:
		return fmt.Sprintf("%s-A%02d", parent, seq), nil
	}
	return "", errors.InvalidCode(fmt.Sprintf("unknown location kind %q", kind))
}

// GenerateUnitCode builds a unit code from a category prefix, a specialty
// mnemonic and a sequence number.
func GenerateUnitCode(category, specialty string, seq int) string {
	return fmt.Sprintf("%s-%s-%02d", Canonicalize(category), Canonicalize(specialty), seq)
}

// GenerateRoomCode builds the next room code under a unit.
func GenerateRoomCode(unitCode string, seq int) string {
	return fmt.Sprintf("%s-R%03d", Canonicalize(unitCode), seq)
}

// GenerateResourceCode builds the next resource code under a unit or room.
func GenerateResourceCode(parentCode string, resourceType model.ResourceType, seq int) (string, error) {
	prefix, ok := resourcePrefixes[resourceType]
	if !ok {
		return "", errors.InvalidCode(fmt.Sprintf("unknown resource type %q", resourceType))
	}
	return fmt.Sprintf("%s-%s%03d", Canonicalize(parentCode), prefix, seq), nil
}
