package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-core/internal/model"
	apperrors "github.com/jwalitptl/hospital-core/pkg/errors"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "c01-b01", "C01-B01"},
		{"spaces", " c01 b01 ", "C01-B01"},
		{"underscores", "ward_med_01", "WARD-MED-01"},
		{"collapsed hyphens", "C01--B01---F01", "C01-B01-F01"},
		{"leading trailing hyphens", "-C01-", "C01"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestValidateLocationCode_Hierarchy(t *testing.T) {
	campus, err := ValidateLocationCode(model.LocationKindCampus, "c01", "")
	require.NoError(t, err)
	assert.Equal(t, "C01", campus)

	building, err := ValidateLocationCode(model.LocationKindBuilding, "C01-B01", campus)
	require.NoError(t, err)
	assert.Equal(t, "C01-B01", building)

	floor, err := ValidateLocationCode(model.LocationKindFloor, "C01-B01-F01", building)
	require.NoError(t, err)
	assert.Equal(t, "C01-B01-F01", floor)

	zone, err := ValidateLocationCode(model.LocationKindZone, "C01-B01-F01-Z01", floor)
	require.NoError(t, err)
	assert.Equal(t, "C01-B01-F01-Z01", zone)
}

func TestValidateLocationCode_Failures(t *testing.T) {
	tests := []struct {
		name   string
		kind   model.LocationKind
		code   string
		parent string
	}{
		{"alphabetic zone", model.LocationKindZone, "C01-B01-F01-ZA", "C01-B01-F01"},
		{"building under wrong campus", model.LocationKindBuilding, "C02-B01", "C01"},
		{"campus with parent", model.LocationKindCampus, "C01", "C09"},
		{"malformed campus", model.LocationKindCampus, "CAMPUS1", ""},
		{"building without parent", model.LocationKindBuilding, "C01-B01", ""},
		{"floor skipping building", model.LocationKindFloor, "C01-F01", "C01-B01"},
		{"unknown kind", model.LocationKind("WING"), "C01-W01", "C01"},
		{"empty code", model.LocationKindCampus, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateLocationCode(tt.kind, tt.code, tt.parent)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidCode))
		})
	}
}

func TestValidateLocationCode_ChildStartsWithParent(t *testing.T) {
	// P1: every valid child code is lexically contained in its parent.
	cases := []struct {
		kind          model.LocationKind
		code, parent  string
		discriminator string
	}{
		{model.LocationKindBuilding, "C03-B12", "C03", "-B"},
		{model.LocationKindFloor, "C03-B12-F04", "C03-B12", "-F"},
		{model.LocationKindZone, "C03-B12-F04-Z09", "C03-B12-F04", "-Z"},
	}
	for _, c := range cases {
		got, err := ValidateLocationCode(c.kind, c.code, c.parent)
		require.NoError(t, err)
		assert.Contains(t, got, c.parent+c.discriminator)
	}
}

func TestValidateUnitCode(t *testing.T) {
	code, err := ValidateUnitCode("ward_med_01")
	require.NoError(t, err)
	assert.Equal(t, "WARD-MED-01", code)

	for _, bad := range []string{"WARD", "W-MED-01", "WARD-MED-1", "WARD-MED-001", ""} {
		_, err := ValidateUnitCode(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestValidateRoomCode(t *testing.T) {
	code, err := ValidateRoomCode("WARD-MED-01", "WARD-MED-01-R001")
	require.NoError(t, err)
	assert.Equal(t, "WARD-MED-01-R001", code)

	_, err = ValidateRoomCode("WARD-MED-01", "WARD-SUR-01-R001")
	require.Error(t, err)

	_, err = ValidateRoomCode("WARD-MED-01", "WARD-MED-01-001")
	require.Error(t, err)
}

func TestValidateResourceCode(t *testing.T) {
	// Room-based unit: room is the immediate parent.
	code, err := ValidateResourceCode("WARD-MED-01", "WARD-MED-01-R001", model.ResourceTypeBed, "WARD-MED-01-R001-B001")
	require.NoError(t, err)
	assert.Equal(t, "WARD-MED-01-R001-B001", code)

	// Skipping the room on a room-based unit fails the containment check.
	_, err = ValidateResourceCode("WARD-MED-01", "WARD-MED-01-R001", model.ResourceTypeBed, "WARD-MED-01-B001")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidCode))

	// Open-bay unit: unit is the immediate parent.
	code, err = ValidateResourceCode("OT-GEN-01", "", model.ResourceTypeOTTable, "OT-GEN-01-OT001")
	require.NoError(t, err)
	assert.Equal(t, "OT-GEN-01-OT001", code)
}

func TestValidateResourceCode_PrefixTable(t *testing.T) {
	tests := []struct {
		name    string
		rtype   model.ResourceType
		code    string
		wantErr bool
	}{
		{"bed prefix", model.ResourceTypeBed, "ICU-MED-01-B001", false},
		{"ot table prefix", model.ResourceTypeOTTable, "ICU-MED-01-OT002", false},
		{"recovery bay prefix", model.ResourceTypeRecoveryBay, "ICU-MED-01-RB003", false},
		{"wrong prefix for bed", model.ResourceTypeBed, "ICU-MED-01-OT001", true},
		{"wrong prefix for table", model.ResourceTypeOTTable, "ICU-MED-01-B001", true},
		{"unknown type", model.ResourceType("VENTILATOR"), "ICU-MED-01-V001", true},
		{"missing sequence", model.ResourceTypeBed, "ICU-MED-01-B", true},
		{"short sequence", model.ResourceTypeBed, "ICU-MED-01-B01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateResourceCode("ICU-MED-01", "", tt.rtype, tt.code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateResourceCode_NoTypeSkipsPrefixCheck(t *testing.T) {
	code, err := ValidateResourceCode("ICU-MED-01", "", "", "ICU-MED-01-XY004")
	require.NoError(t, err)
	assert.Equal(t, "ICU-MED-01-XY004", code)
}

func TestGenerateCodes(t *testing.T) {
	code, err := GenerateLocationCode(model.LocationKindBuilding, "C01", 2)
	require.NoError(t, err)
	assert.Equal(t, "C01-B02", code)

	code, err = GenerateLocationCode(model.LocationKindCampus, "", 7)
	require.NoError(t, err)
	assert.Equal(t, "C07", code)

	assert.Equal(t, "WARD-MED-03", GenerateUnitCode("ward", "med", 3))
	assert.Equal(t, "WARD-MED-01-R012", GenerateRoomCode("WARD-MED-01", 12))

	code, err = GenerateResourceCode("WARD-MED-01-R001", model.ResourceTypeBed, 5)
	require.NoError(t, err)
	assert.Equal(t, "WARD-MED-01-R001-B005", code)

	// Generated codes round-trip through validation.
	_, err = ValidateResourceCode("WARD-MED-01", "WARD-MED-01-R001", model.ResourceTypeBed, code)
	assert.NoError(t, err)
}
