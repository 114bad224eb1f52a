package planner

import (
	"context"
	"sort"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/oracle"
	"github.com/johntango/milonga/internal/scoring"
	"github.com/johntango/milonga/internal/shared"
)

// defaultTopK is how many alternates a replacement carries when the caller
// does not say.
const defaultTopK = 5

// oracleCandidateCap bounds how much of the ranked pool is shown to the
// oracle; everything past it is continuity-distant noise.
const oracleCandidateCap = 24

// Broadening steps recorded on a replacement when the restricted pool
// starves below topK.
const (
	BroadenedNone   = ""
	BroadenedOrigin = "origin"
	BroadenedStyles = "styles"
	BroadenedAll    = "all"
)

// compatibleStyles maps each program style to the styles a starved
// replacement pool may widen into before dropping the style restriction
// entirely.
var compatibleStyles = map[string][]string{
	"tango":   {"vals", "milonga"},
	"vals":    {"tango", "milonga"},
	"milonga": {"tango", "vals"},
}

// ReplaceRequest describes one single-track replacement.
type ReplaceRequest struct {
	Style      string
	Origin     string // optional restriction; ignored when the pool starves
	Homogenize bool   // restrict to the group's most frequent origin
	Group      []models.Track
	Prev       *models.Track
	Next       *models.Track
	Avoid      []string
	Rejected   []string
	TopK       int
	Snapshot   *library.Snapshot
}

// ReplaceResult is a validated replacement pick plus ranked alternates.
type ReplaceResult struct {
	Replacement models.Track
	Suggestions []models.Track
	Broadened   string // which broadening step fired, if any
}

// Replace proposes a substitute for one tanda position.
//
// The pool is same-style tracks minus the current group, the avoid set, and
// earlier rejections, narrowed by origin only while enough candidates
// remain. A starved pool broadens progressively: drop the origin, widen to
// compatible styles, then drop the style restriction entirely. The oracle
// ranks a continuity-ordered slice of the pool; any pick it returns from
// outside the pool is discarded and a lowest-cost fallback substitutes.
func (p *Planner) Replace(ctx context.Context, req ReplaceRequest) (*ReplaceResult, error) {
	if req.Snapshot == nil || req.Snapshot.Size() == 0 {
		return nil, shared.ErrLibraryNotLoaded
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	excluded := models.NewUsedSet()
	for _, id := range req.Avoid {
		excluded.Add(id)
	}
	for _, id := range req.Rejected {
		excluded.Add(id)
	}
	for _, t := range req.Group {
		excluded.Add(t.ID)
	}

	origin := library.NormalizeOrigin(req.Origin)
	if req.Homogenize && origin == "" {
		origin = dominantOrigin(req.Group)
	}

	pool, broadened := p.replacementPool(req, excluded, origin, topK)
	if len(pool) == 0 {
		return nil, shared.ErrInsufficientCandidates
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return scoring.Cost(pool[i], req.Prev, req.Next) < scoring.Cost(pool[j], req.Prev, req.Next)
	})
	slim := pool
	if len(slim) > oracleCandidateCap {
		slim = slim[:oracleCandidateCap]
	}

	byID := make(map[string]models.Track, len(slim))
	for _, t := range slim {
		byID[t.ID] = t
	}

	resp, err := p.oracle.SuggestReplacement(ctx, oracle.ReplacementRequest{
		Style:      req.Style,
		PrevKey:    neighborKey(req.Prev),
		NextKey:    neighborKey(req.Next),
		Candidates: oracle.Candidates(slim),
		TopK:       topK,
	})
	if err != nil {
		p.logger.Warn("replacement oracle call failed, using continuity fallback", "style", req.Style, "error", err)
		resp = nil
	}
	if resp == nil {
		resp = &oracle.ReplacementResponse{}
	}

	result := &ReplaceResult{Broadened: broadened}
	if track, ok := validPick(resp.Primary, byID, excluded); ok {
		result.Replacement = track
	} else {
		result.Replacement = p.fallbackPick(slim, req.Prev, req.Next)
	}

	seen := models.NewUsedSet()
	seen.Add(result.Replacement.ID)
	for _, id := range resp.Alternates {
		if len(result.Suggestions) == topK {
			break
		}
		track, ok := validPick(id, byID, excluded)
		if !ok || seen.Has(track.ID) {
			continue
		}
		seen.Add(track.ID)
		result.Suggestions = append(result.Suggestions, track)
	}
	for _, t := range slim {
		if len(result.Suggestions) == topK {
			break
		}
		if seen.Has(t.ID) {
			continue
		}
		seen.Add(t.ID)
		result.Suggestions = append(result.Suggestions, t)
	}

	return result, nil
}

// replacementPool builds the candidate pool, widening step by step while it
// holds fewer than topK tracks.
func (p *Planner) replacementPool(req ReplaceRequest, excluded *models.UsedSet, origin string, topK int) ([]models.Track, string) {
	filter := func(tracks []models.Track, origin string) []models.Track {
		var out []models.Track
		for _, t := range tracks {
			if excluded.Has(t.ID) {
				continue
			}
			if origin != "" && library.NormalizeOrigin(t.Artist) != origin {
				continue
			}
			out = append(out, t)
		}
		return out
	}

	styled := req.Snapshot.Style(req.Style)
	if origin != "" {
		pool := filter(styled, origin)
		if len(pool) >= topK {
			return pool, BroadenedNone
		}
	}

	pool := filter(styled, "")
	broadened := BroadenedNone
	if origin != "" {
		broadened = BroadenedOrigin
	}
	if len(pool) >= topK {
		return pool, broadened
	}

	compatible := compatibleStyles[req.Style]
	if len(compatible) == 0 {
		compatible = req.Snapshot.ProgramStyles()
	}
	widened := append([]models.Track(nil), pool...)
	for _, style := range compatible {
		if style == req.Style {
			continue
		}
		widened = append(widened, filter(req.Snapshot.Style(style), "")...)
	}
	if len(widened) >= topK {
		return widened, BroadenedStyles
	}
	if len(widened) > len(pool) {
		pool, broadened = widened, BroadenedStyles
	}

	var all []models.Track
	for _, style := range req.Snapshot.ProgramStyles() {
		all = append(all, filter(req.Snapshot.Style(style), "")...)
	}
	if len(all) > len(pool) {
		return all, BroadenedAll
	}
	return pool, broadened
}

// fallbackPick draws uniformly among the lowest-cost candidates so repeated
// oracle failures do not pin one deterministic answer.
func (p *Planner) fallbackPick(pool []models.Track, prev, next *models.Track) models.Track {
	best := scoring.Cost(pool[0], prev, next)
	n := 1
	for ; n < len(pool); n++ {
		if scoring.Cost(pool[n], prev, next) > best {
			break
		}
	}
	return pool[p.randIntn(n)]
}

func validPick(id string, byID map[string]models.Track, excluded *models.UsedSet) (models.Track, bool) {
	if id == "" {
		return models.Track{}, false
	}
	track, ok := byID[models.NormalizeID(id)]
	if !ok || excluded.Has(track.ID) {
		return models.Track{}, false
	}
	return track, ok
}

func neighborKey(t *models.Track) string {
	if t == nil {
		return ""
	}
	return t.Key
}

func dominantOrigin(group []models.Track) string {
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, t := range group {
		if t.IsPlaceholder() {
			continue
		}
		origin := library.NormalizeOrigin(t.Artist)
		counts[origin]++
		if counts[origin] > bestN {
			best, bestN = origin, counts[origin]
		}
	}
	return best
}
