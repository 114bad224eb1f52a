package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchedule = `minutes: 180
pattern: [tango, tango, vals, tango, tango, milonga]
sizes:
  tango: 4
  vals: 3
  milonga: 3
roles:
  - position: 4
    role: classic
`

func TestLoadSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSchedule), 0644))

	schedule, err := LoadSchedule(path)
	require.NoError(t, err)

	assert.Equal(t, 180, schedule.Minutes)
	assert.Len(t, schedule.Pattern, 6)

	slots := schedule.Slots()
	require.Len(t, slots, 6)

	assert.Equal(t, "tango", slots[0].Style)
	assert.Equal(t, 4, slots[0].Size)
	assert.Equal(t, "vals", slots[2].Style)
	assert.Equal(t, 3, slots[2].Size)

	// Explicit assignment wins over the positional default (modern here).
	assert.Equal(t, "classic", slots[4].Role)
	// Positional defaults: opening third classic, middle rich, closing modern.
	assert.Equal(t, "classic", slots[0].Role)
	assert.Equal(t, "rich", slots[2].Role)
	assert.Equal(t, "modern", slots[5].Role)

	for i, slot := range slots {
		assert.Equal(t, i, slot.Position)
	}
}

func TestScheduleValidate(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		wantErr  bool
	}{
		{"valid", Schedule{Pattern: []string{"tango"}, Sizes: map[string]int{"tango": 4}}, false},
		{"empty pattern", Schedule{}, true},
		{"blank style", Schedule{Pattern: []string{" "}}, true},
		{"non-positive size", Schedule{Pattern: []string{"tango"}, Sizes: map[string]int{"tango": 0}}, true},
		{"role position out of range", Schedule{Pattern: []string{"tango"}, Roles: []RoleAssignment{{Position: 5, Role: "classic"}}}, true},
		{"unknown role", Schedule{Pattern: []string{"tango"}, Roles: []RoleAssignment{{Position: 0, Role: "baroque"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduleSizeDefaults(t *testing.T) {
	s := Schedule{Pattern: []string{"tango", "vals", "chacarera"}}
	slots := s.Slots()

	assert.Equal(t, 4, slots[0].Size, "tango default")
	assert.Equal(t, 3, slots[1].Size, "vals default")
	assert.Equal(t, 4, slots[2].Size, "unknown style falls back")
}

func TestDefaultRoleProgression(t *testing.T) {
	total := 9
	assert.Equal(t, Classic, DefaultRole(0, total))
	assert.Equal(t, Classic, DefaultRole(2, total))
	assert.Equal(t, Rich, DefaultRole(3, total))
	assert.Equal(t, Rich, DefaultRole(5, total))
	assert.Equal(t, Modern, DefaultRole(6, total))
	assert.Equal(t, Modern, DefaultRole(8, total))
}
