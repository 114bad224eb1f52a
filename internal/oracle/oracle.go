// Package oracle integrates the external generative recommendation service.
//
// The oracle is untrusted: every call sends a restricted candidate list and a
// strict output schema, and every response is schema-validated before the
// planner sees it. Identity-level enforcement (discarding ids outside the
// candidate list) happens in the planner; this package guarantees shape.
package oracle

import (
	"context"

	"github.com/johntango/milonga/internal/models"
)

// Oracle is the narrow planner-facing interface over the recommendation
// service. Implementations must be safe for sequential use within a run;
// calls carry per-call timeouts via their context.
type Oracle interface {
	// SuggestTracks asks for an ordered pick of track ids for one tanda,
	// chosen only from the supplied candidates.
	SuggestTracks(ctx context.Context, req TrackRequest) (*TrackResponse, error)

	// SuggestOrigins asks for a ranked shortlist of performing origins for
	// the next tanda of a style.
	SuggestOrigins(ctx context.Context, req OriginRequest) ([]string, error)

	// SuggestReplacement asks for a primary replacement plus ranked
	// alternates from a slimmed candidate pool.
	SuggestReplacement(ctx context.Context, req ReplacementRequest) (*ReplacementResponse, error)
}

// Candidate is the restricted per-track view the oracle is allowed to see:
// enough to judge continuity and fit, nothing else.
type Candidate struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	BPM      float64 `json:"bpm,omitempty"`
	Energy   float64 `json:"energy,omitempty"`
	Key      string  `json:"key,omitempty"`
	Duration int     `json:"duration"`
}

// CandidateFromTrack slims a track down to its oracle-visible fields.
func CandidateFromTrack(t models.Track) Candidate {
	return Candidate{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		BPM:      t.BPM,
		Energy:   t.Energy,
		Key:      t.Key,
		Duration: t.Duration,
	}
}

// Candidates converts a track slice for an oracle payload.
func Candidates(tracks []models.Track) []Candidate {
	out := make([]Candidate, len(tracks))
	for i, t := range tracks {
		out[i] = CandidateFromTrack(t)
	}
	return out
}

// TrackRequest describes one tanda-fill call.
type TrackRequest struct {
	Style            string      `json:"style"`
	Role             string      `json:"role,omitempty"`
	Size             int         `json:"size"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Origin           string      `json:"origin,omitempty"` // empty means any
	PrevKey          string      `json:"prev_key,omitempty"`
	Candidates       []Candidate `json:"candidates"`
	UsedIDs          []string    `json:"used_ids,omitempty"`
}

// TrackResponse is the schema the oracle must return for a tanda fill.
type TrackResponse struct {
	TrackIDs []string `json:"track_ids"`
	Notes    string   `json:"notes,omitempty"`
}

// OriginOption is one origin the oracle may rank, with how many unused
// tracks it has available.
type OriginOption struct {
	Name      string `json:"name"`
	Available int    `json:"available"`
}

// OriginRequest describes one origin-shortlist call.
type OriginRequest struct {
	Style   string         `json:"style"`
	PrevKey string         `json:"prev_key,omitempty"`
	Recent  []string       `json:"recent,omitempty"` // last chosen origins, most recent first
	Options []OriginOption `json:"options"`
}

// originResponse is the schema for origin shortlists.
type originResponse struct {
	Origins []string `json:"origins"`
}

// ReplacementRequest describes one single-track replacement call.
type ReplacementRequest struct {
	Style      string      `json:"style"`
	PrevKey    string      `json:"prev_key,omitempty"`
	NextKey    string      `json:"next_key,omitempty"`
	Candidates []Candidate `json:"candidates"`
	TopK       int         `json:"top_k"`
}

// ReplacementResponse is the schema for replacement picks.
type ReplacementResponse struct {
	Primary    string   `json:"primary"`
	Alternates []string `json:"alternates,omitempty"`
}
