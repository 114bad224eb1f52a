package planner

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/oracle"
	"github.com/johntango/milonga/internal/roles"
	"github.com/johntango/milonga/internal/scoring"
)

// defaultOriginRetries bounds the alternative-origin rung of the ladder when
// configuration supplies no value.
const defaultOriginRetries = 3

// Planner fills individual tandas through the oracle with a bounded
// fallback ladder. One Planner serves many runs; all per-run state lives in
// the request values.
type Planner struct {
	oracle        oracle.Oracle
	mu            sync.Mutex // guards rng across concurrent runs
	rng           *rand.Rand
	originRetries int
	logger        *log.Logger
}

// NewPlanner creates a Planner. A nil rng seeds from the clock; tests inject
// a deterministic source. originRetries <= 0 selects the default.
func NewPlanner(o oracle.Oracle, rng *rand.Rand, originRetries int, logger *log.Logger) *Planner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if originRetries <= 0 {
		originRetries = defaultOriginRetries
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{oracle: o, rng: rng, originRetries: originRetries, logger: logger}
}

// randFloat64 and randIntn serialize draws; *rand.Rand is not goroutine
// safe and one Planner serves concurrent runs.
func (p *Planner) randFloat64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *Planner) randIntn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// GroupRequest describes one tanda to fill. RemainingSeconds caps the
// tanda's cumulative duration; zero means uncapped.
type GroupRequest struct {
	Style            string
	Role             roles.Role
	Size             int
	RemainingSeconds int
	Origin           string // normalized origin restriction, "" means any
	PrevKey          string
	Snapshot         *library.Snapshot
	Used             *models.UsedSet
}

// strategy is one rung of the fallback ladder: a candidate pool plus the
// origin hint sent to the oracle.
type strategy struct {
	name   string
	origin string
	pool   []models.Track
}

// attempt is one oracle round-trip's validated outcome. Quality is the
// number of real identities recovered; capped marks a result cut short by
// the remaining time budget rather than the pool.
type attempt struct {
	tracks   []models.Track
	notes    []string
	warnings []string
	real     int
	capped   bool
}

// PlanGroup fills one tanda. The returned track list always has exactly
// req.Size members; unresolved positions hold placeholders with warnings
// attached. Oracle failures and short answers degrade rung by rung: the
// requested origin, then up to originRetries alternative origins ranked by
// diversity, then the unrestricted style pool, then the best result so far.
func (p *Planner) PlanGroup(ctx context.Context, req GroupRequest) models.Tanda {
	ladder := p.ladder(req)

	var best attempt
	tried := 0
	for _, s := range ladder {
		if len(s.pool) == 0 {
			continue
		}
		tried++
		a := p.attempt(ctx, req, s)
		if a.real > best.real || (tried == 1 && best.tracks == nil) {
			best = a
		}
		if a.capped {
			// No wider pool helps once the clock is the constraint.
			break
		}
		if best.real >= req.Size-1 {
			break
		}
	}

	if best.tracks == nil {
		best = pad(attempt{}, req.Size)
		best.warnings = append(best.warnings, "no playable candidates for "+req.Style)
	}
	if best.real < req.Size && !best.capped {
		// Keep a single exhaustion note even when a rung already warned.
		if best.real < req.Size-1 && tried > 1 {
			best.warnings = append(best.warnings, "candidate pool exhausted after fallback")
		}
	}

	ordered := append(scoring.Order(realOnly(best.tracks)), placeholders(req.Size-best.real)...)
	seconds := 0
	for _, t := range ordered {
		seconds += t.Duration
	}
	return models.Tanda{
		Style:    req.Style,
		Role:     req.Role.Name,
		Tracks:   ordered,
		Seconds:  seconds,
		Notes:    best.notes,
		Warnings: best.warnings,
	}
}

// ladder builds the ordered strategy list for a request. The first rung is
// the requested origin, pre-widened to the full style pool when the
// restriction leaves fewer raw candidates than the group needs.
func (p *Planner) ladder(req GroupRequest) []strategy {
	styled := p.candidates(req, "")
	origin := req.Origin
	if origin != "" && len(p.candidates(req, origin)) < req.Size {
		p.logger.Debug("origin restriction too thin, widening before first call",
			"style", req.Style, "origin", origin)
		origin = ""
	}

	ladder := []strategy{{name: "requested", origin: origin, pool: p.candidates(req, origin)}}

	counts := availability(req.Snapshot, req.Style, req.Used)
	for i, alt := range rankedAltOrigins(counts, req.Size, origin) {
		if i >= p.originRetries {
			break
		}
		ladder = append(ladder, strategy{name: "alternate origin", origin: alt, pool: p.candidates(req, alt)})
	}

	// Broadest rung: the whole style pool with role fit relaxed to a
	// ranking preference.
	broad := p.broadCandidates(req)
	if len(broad) > len(styled) || origin != "" {
		ladder = append(ladder, strategy{name: "unrestricted", origin: "", pool: broad})
	}
	return ladder
}

// candidates filters the style pool by role fit, used identities, and an
// optional origin restriction.
func (p *Planner) candidates(req GroupRequest, origin string) []models.Track {
	var out []models.Track
	for _, t := range req.Snapshot.Style(req.Style) {
		if req.Used.Has(t.ID) {
			continue
		}
		if !roles.Fits(t, req.Role) {
			continue
		}
		if origin != "" && library.NormalizeOrigin(t.Artist) != origin {
			continue
		}
		out = append(out, t)
	}
	return out
}

// broadCandidates is the last-rung pool: every unused track of the style,
// ordered by role boost so fitting tracks surface first.
func (p *Planner) broadCandidates(req GroupRequest) []models.Track {
	var out []models.Track
	for _, t := range req.Snapshot.Style(req.Style) {
		if !req.Used.Has(t.ID) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return roles.Boost(out[i], req.Role) > roles.Boost(out[j], req.Role)
	})
	return out
}

// attempt runs one oracle call for a rung and validates its answer: unknown
// and used identities are discarded, short answers padded with placeholders.
func (p *Planner) attempt(ctx context.Context, req GroupRequest, s strategy) attempt {
	byID := make(map[string]models.Track, len(s.pool))
	for _, t := range s.pool {
		byID[t.ID] = t
	}

	resp, err := p.oracle.SuggestTracks(ctx, oracle.TrackRequest{
		Style:            req.Style,
		Role:             req.Role.Name,
		Size:             req.Size,
		RemainingSeconds: req.RemainingSeconds,
		Origin:           s.origin,
		PrevKey:          req.PrevKey,
		Candidates:       oracle.Candidates(s.pool),
		UsedIDs:          req.Used.IDs(),
	})
	if err != nil {
		p.logger.Warn("tanda fill attempt failed", "style", req.Style, "rung", s.name, "error", err)
		return pad(attempt{warnings: []string{"oracle call failed (" + s.name + ")"}}, req.Size)
	}

	var a attempt
	picked := models.NewUsedSet()
	dropped := 0
	seconds := 0
	for _, id := range resp.TrackIDs {
		track, listed := byID[models.NormalizeID(id)]
		if !listed || req.Used.Has(id) || picked.Has(id) {
			dropped++
			continue
		}
		if req.RemainingSeconds > 0 && seconds+track.Duration > req.RemainingSeconds {
			a.capped = true
			break
		}
		picked.Add(track.ID)
		a.tracks = append(a.tracks, track)
		seconds += track.Duration
		if len(a.tracks) == req.Size {
			break
		}
	}
	a.real = len(a.tracks)
	if resp.Notes != "" {
		a.notes = append(a.notes, resp.Notes)
	}
	if dropped > 0 {
		a.warnings = append(a.warnings, "discarded "+strconv.Itoa(dropped)+" oracle picks outside the candidate list")
	}
	if a.capped {
		a.warnings = append(a.warnings, "time budget cut the tanda to "+strconv.Itoa(a.real)+" of "+strconv.Itoa(req.Size)+" positions")
	} else if a.real < req.Size {
		a.warnings = append(a.warnings, "oracle filled "+strconv.Itoa(a.real)+" of "+strconv.Itoa(req.Size)+" positions")
	}
	return pad(a, req.Size)
}

func pad(a attempt, size int) attempt {
	for len(a.tracks) < size {
		a.tracks = append(a.tracks, models.Placeholder())
	}
	return a
}

func realOnly(tracks []models.Track) []models.Track {
	var out []models.Track
	for _, t := range tracks {
		if !t.IsPlaceholder() {
			out = append(out, t)
		}
	}
	return out
}

func placeholders(n int) []models.Track {
	out := make([]models.Track, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Placeholder())
	}
	return out
}

