package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the milonga service.
// Implementations include SavedPlan.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is an immutable view over one library recording.
//
// Tracks load once from the library snapshot and are never mutated in place;
// catalog overrides produce merged copies via [TrackOverride.Apply].
type Track struct {
	ID       string         `json:"id"` // canonical normalized identity key
	Title    string         `json:"title"`
	Artist   string         `json:"artist"` // performing origin (orchestra/ensemble)
	Album    string         `json:"album,omitempty"`
	Year     int            `json:"year,omitempty"` // 0 means unknown
	Styles   []string       `json:"styles,omitempty"`
	BPM      float64        `json:"bpm,omitempty"`
	Energy   float64        `json:"energy,omitempty"` // 0.0 to 1.0
	Key      string         `json:"key,omitempty"`    // Camelot notation, e.g. "8A"
	Duration int            `json:"duration"`         // seconds
	Meta     map[string]any `json:"meta,omitempty"`
}

// Style returns the primary style tag, or "" for untagged tracks.
func (t Track) Style() string {
	if len(t.Styles) == 0 {
		return ""
	}
	return t.Styles[0]
}

// HasStyle reports whether any style tag equals style (case-insensitive tags
// are normalized at library load, so a plain comparison suffices here).
func (t Track) HasStyle(style string) bool {
	for _, s := range t.Styles {
		if s == style {
			return true
		}
	}
	return false
}

// Decade returns the track's decade (e.g. 1940) or 0 when the year is unknown.
func (t Track) Decade() int {
	if t.Year == 0 {
		return 0
	}
	return (t.Year / 10) * 10
}

// IsPlaceholder reports whether the track is an unresolved sentinel member.
func (t Track) IsPlaceholder() bool {
	return t.ID == ""
}

// Placeholder returns the sentinel marking an unresolved tanda member.
// Placeholders carry no identity and are never treated as playable.
func Placeholder() Track {
	return Track{Title: "(unresolved)"}
}

// ReferenceEntry is a caller-supplied partial track descriptor. Each entry
// must resolve to exactly one library track via identity matching; its
// optional overrides merge onto the resolved track.
type ReferenceEntry struct {
	Path      string         `json:"path"` // identity token, possibly encoded
	Title     string         `json:"title,omitempty"`
	Artist    string         `json:"artist,omitempty"`
	Overrides *TrackOverride `json:"overrides,omitempty"`
}

// TrackOverride describes per-track metadata corrections from a reference
// catalog. Scalar fields are pointers so "absent" and "zero" stay distinct.
type TrackOverride struct {
	Title    *string        `json:"title,omitempty"`
	Artist   *string        `json:"artist,omitempty"`
	Album    *string        `json:"album,omitempty"`
	Year     *int           `json:"year,omitempty"`
	BPM      *float64       `json:"bpm,omitempty"`
	Energy   *float64       `json:"energy,omitempty"`
	Key      *string        `json:"key,omitempty"`
	Duration *int           `json:"duration,omitempty"`
	Styles   []string       `json:"styles,omitempty"` // replaces wholesale when present
	Meta     map[string]any `json:"meta,omitempty"`   // merges key-by-key
}

// Apply merges the override onto t and returns the merged copy.
//
// Scalar fields replace when set, the Styles slice replaces wholesale, and
// the Meta map merges key-by-key. Fields the override does not mention keep
// the original track's values. The receiver track is never mutated.
func (o *TrackOverride) Apply(t Track) Track {
	if o == nil {
		return t
	}
	merged := t
	if o.Title != nil {
		merged.Title = *o.Title
	}
	if o.Artist != nil {
		merged.Artist = *o.Artist
	}
	if o.Album != nil {
		merged.Album = *o.Album
	}
	if o.Year != nil {
		merged.Year = *o.Year
	}
	if o.BPM != nil {
		merged.BPM = *o.BPM
	}
	if o.Energy != nil {
		merged.Energy = *o.Energy
	}
	if o.Key != nil {
		merged.Key = *o.Key
	}
	if o.Duration != nil {
		merged.Duration = *o.Duration
	}
	if o.Styles != nil {
		merged.Styles = append([]string(nil), o.Styles...)
	}
	if len(o.Meta) > 0 {
		meta := make(map[string]any, len(t.Meta)+len(o.Meta))
		for k, v := range t.Meta {
			meta[k] = v
		}
		for k, v := range o.Meta {
			meta[k] = v
		}
		merged.Meta = meta
	}
	return merged
}

// Slot is one position of the program pattern.
type Slot struct {
	Style    string `json:"style"`
	Size     int    `json:"size"`
	Role     string `json:"role,omitempty"` // empty means positional default
	Position int    `json:"position"`
}

// Tanda is a filled group of tracks for one slot.
//
// The track list always has exactly the slot's size; members that could not
// be resolved are placeholders. Tandas are created per run and handed to the
// caller, never reused.
type Tanda struct {
	Style    string   `json:"style"`
	Role     string   `json:"role,omitempty"`
	Tracks   []Track  `json:"tracks"`
	Seconds  int      `json:"seconds"` // sum of real track durations
	Notes    []string `json:"notes,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RealTracks returns the playable members, excluding placeholders.
func (t Tanda) RealTracks() []Track {
	real := make([]Track, 0, len(t.Tracks))
	for _, tr := range t.Tracks {
		if !tr.IsPlaceholder() {
			real = append(real, tr)
		}
	}
	return real
}

// RealCount returns the number of playable members.
func (t Tanda) RealCount() int {
	n := 0
	for _, tr := range t.Tracks {
		if !tr.IsPlaceholder() {
			n++
		}
	}
	return n
}

// LastKey returns the harmonic key of the last resolvable member, or "".
func (t Tanda) LastKey() string {
	for i := len(t.Tracks) - 1; i >= 0; i-- {
		if !t.Tracks[i].IsPlaceholder() && t.Tracks[i].Key != "" {
			return t.Tracks[i].Key
		}
	}
	return ""
}

// Cortina is a short non-program track inserted between tandas.
type Cortina struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist,omitempty"`
	Duration int    `json:"duration"` // seconds
}

// Plan is the assembled sequence: tanda i is followed by cortina i (when one
// exists). Total duration is bounded by the requested budget plus at most one
// cortina unit.
type Plan struct {
	Tandas       []Tanda   `json:"tandas"`
	Cortinas     []Cortina `json:"cortinas"`
	Warnings     []string  `json:"warnings"`
	TotalSeconds int       `json:"totalSeconds"`
}

// Duration recomputes the plan's total seconds from its members.
func (p Plan) Duration() int {
	total := 0
	for _, t := range p.Tandas {
		total += t.Seconds
	}
	for _, c := range p.Cortinas {
		total += c.Duration
	}
	return total
}

// SavedPlan is a completed plan persisted for later browsing and export.
type SavedPlan struct {
	id        string
	sequence  int
	name      string
	minutes   int
	plan      Plan
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewSavedPlan creates a SavedPlan ready for persistence. The ID is assigned
// by the repository on Create.
func NewSavedPlan(name string, minutes int, plan Plan) *SavedPlan {
	now := time.Now()
	return &SavedPlan{
		name:      name,
		minutes:   minutes,
		plan:      plan,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *SavedPlan) ID() string            { return p.id }
func (p *SavedPlan) Sequence() int         { return p.sequence }
func (p *SavedPlan) Name() string          { return p.name }
func (p *SavedPlan) Minutes() int          { return p.minutes }
func (p *SavedPlan) Plan() Plan            { return p.plan }
func (p *SavedPlan) CreatedAt() time.Time  { return p.createdAt }
func (p *SavedPlan) UpdatedAt() time.Time  { return p.updatedAt }
func (p *SavedPlan) DeletedAt() *time.Time { return p.deletedAt }

func (p *SavedPlan) SetID(id string)            { p.id = id }
func (p *SavedPlan) SetSequence(seq int)        { p.sequence = seq }
func (p *SavedPlan) SetUpdatedAt(t time.Time)   { p.updatedAt = t }
func (p *SavedPlan) SetDeletedAt(t *time.Time)  { p.deletedAt = t }
func (p *SavedPlan) SetCreatedAt(t time.Time)   { p.createdAt = t }
func (p *SavedPlan) SetPlan(plan Plan)          { p.plan = plan }
func (p *SavedPlan) SetMinutes(minutes int)     { p.minutes = minutes }
func (p *SavedPlan) SetName(name string)        { p.name = name }

// Validate checks if the saved plan's data is valid.
func (p *SavedPlan) Validate() error {
	if p.name == "" {
		return fmt.Errorf("saved plan name is required")
	}
	if p.minutes <= 0 {
		return fmt.Errorf("saved plan minutes must be positive, got %d", p.minutes)
	}
	if len(p.plan.Tandas) != len(p.plan.Cortinas) && len(p.plan.Tandas) != len(p.plan.Cortinas)+1 {
		return fmt.Errorf("saved plan has %d tandas but %d cortinas", len(p.plan.Tandas), len(p.plan.Cortinas))
	}
	return nil
}
