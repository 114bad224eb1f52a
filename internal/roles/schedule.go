package roles

import (
	"fmt"
	"os"
	"strings"

	"github.com/johntango/milonga/internal/models"
	"gopkg.in/yaml.v3"
)

// Schedule describes the program pattern for one generation run: the ordered
// style sequence, per-style group sizes, and optional explicit role
// assignments by position.
type Schedule struct {
	Minutes int              `yaml:"minutes" json:"minutes"`
	Pattern []string         `yaml:"pattern" json:"pattern"`
	Sizes   map[string]int   `yaml:"sizes" json:"sizes,omitempty"`
	Roles   []RoleAssignment `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// RoleAssignment pins a role to a slot position.
type RoleAssignment struct {
	Position int    `yaml:"position" json:"position"`
	Role     string `yaml:"role" json:"role"`
}

// defaultSizes apply when a schedule omits a style's group size.
var defaultSizes = map[string]int{
	"tango":   4,
	"vals":    3,
	"milonga": 3,
}

const fallbackSize = 4

// LoadSchedule reads and validates a YAML schedule file.
func LoadSchedule(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var schedule Schedule
	if err := yaml.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Validate checks the schedule for structural problems.
func (s *Schedule) Validate() error {
	if len(s.Pattern) == 0 {
		return fmt.Errorf("schedule pattern is empty")
	}
	for i, style := range s.Pattern {
		if strings.TrimSpace(style) == "" {
			return fmt.Errorf("schedule pattern position %d has an empty style", i)
		}
	}
	for style, size := range s.Sizes {
		if size <= 0 {
			return fmt.Errorf("schedule size for %q must be positive, got %d", style, size)
		}
	}
	for _, a := range s.Roles {
		if a.Position < 0 || a.Position >= len(s.Pattern) {
			return fmt.Errorf("role assignment position %d outside pattern", a.Position)
		}
		if _, ok := ByName(a.Role); !ok {
			return fmt.Errorf("unknown role %q at position %d", a.Role, a.Position)
		}
	}
	return nil
}

// Slots expands the schedule into ordered slot values with sizes and roles
// resolved. Explicit role assignments win; other slots get the positional
// default.
func (s *Schedule) Slots() []models.Slot {
	explicit := make(map[int]string, len(s.Roles))
	for _, a := range s.Roles {
		explicit[a.Position] = strings.ToLower(a.Role)
	}

	slots := make([]models.Slot, 0, len(s.Pattern))
	for i, style := range s.Pattern {
		style = strings.ToLower(strings.TrimSpace(style))
		role, ok := explicit[i]
		if !ok {
			role = DefaultRole(i, len(s.Pattern)).Name
		}
		slots = append(slots, models.Slot{
			Style:    style,
			Size:     s.sizeFor(style),
			Role:     role,
			Position: i,
		})
	}
	return slots
}

func (s *Schedule) sizeFor(style string) int {
	if size, ok := s.Sizes[style]; ok {
		return size
	}
	if size, ok := defaultSizes[style]; ok {
		return size
	}
	return fallbackSize
}

// DefaultRole is the positional fallback when the schedule assigns no role:
// the program opens classic, moves through rich, and closes modern.
func DefaultRole(position, total int) Role {
	if total <= 0 {
		return Classic
	}
	switch {
	case position*3 < total:
		return Classic
	case position*3 < total*2:
		return Rich
	default:
		return Modern
	}
}
