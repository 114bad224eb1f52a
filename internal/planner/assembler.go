package planner

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/catalog"
	"github.com/johntango/milonga/internal/formatter"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/roles"
	"github.com/johntango/milonga/internal/shared"
)

// maxSlotAttempts bounds how many times one slot may be planned before it is
// skipped. PlanGroup already runs its own ladder per attempt, so this only
// guards against repeated all-placeholder outcomes.
const maxSlotAttempts = 2

// Assembler runs the slot-by-slot generation state machine and streams
// events to the caller. One Assembler serves many runs; all per-run state is
// local to Run.
type Assembler struct {
	planner         *Planner
	cortinas        library.CortinaProvider
	shuffleCortinas bool
	fallbackCortina int // seconds assumed per cortina when the pool is empty
	logger          *log.Logger
}

// NewAssembler wires an assembler over a planner and cortina provider.
func NewAssembler(p *Planner, cortinas library.CortinaProvider, cfg shared.PlanConfig, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.Default()
	}
	fallback := cfg.CortinaSeconds
	if fallback <= 0 {
		fallback = 45
	}
	return &Assembler{
		planner:         p,
		cortinas:        cortinas,
		shuffleCortinas: cfg.ShuffleCortinas,
		fallbackCortina: fallback,
		logger:          logger,
	}
}

// RunRequest describes one generation run.
type RunRequest struct {
	Minutes  int
	Slots    []models.Slot
	Entries  []models.ReferenceEntry // optional reference catalog
	Snapshot *library.Snapshot
}

// Run assembles a plan for the request, sending events as groups become
// ready. It returns the finished plan after a done event, or an error after
// an error event. A canceled context stops the run without a terminal event;
// no further oracle calls are issued once the consumer is gone.
func (a *Assembler) Run(ctx context.Context, req RunRequest, events chan<- Event) (*models.Plan, error) {
	snap, result, err := catalog.WorkingSnapshot(req.Entries, req.Snapshot)
	if err != nil {
		emit(ctx, events, errorEvent(err, ""))
		return nil, err
	}
	if snap == nil || snap.Size() == 0 {
		emit(ctx, events, errorEvent(shared.ErrEmptyLibrary, ""))
		return nil, shared.ErrEmptyLibrary
	}

	plan := &models.Plan{Warnings: []string{}}
	if result != nil {
		for _, path := range result.Unmatched {
			plan.Warnings = append(plan.Warnings, "reference entry not in library: "+path)
		}
	}

	if !emit(ctx, events, startEvent(req.Minutes, req.Slots)) {
		return nil, ctx.Err()
	}

	pool := a.cortinas.Cortinas(len(req.Slots), a.shuffleCortinas)
	unit := a.fallbackCortina
	if len(pool) > 0 {
		total := 0
		for _, c := range pool {
			total += c.Duration
		}
		unit = total / len(pool)
	}

	used := models.NewUsedSet()
	remaining := req.Minutes * 60
	var recent []string
	prevKey := ""

	for i, slot := range req.Slots {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if remaining <= unit {
			plan.Warnings = append(plan.Warnings, shared.ErrBudgetExhausted.Error()+", stopping early")
			if !emit(ctx, events, warningEvent("%s after %d tandas", shared.ErrBudgetExhausted, len(plan.Tandas))) {
				return nil, ctx.Err()
			}
			break
		}

		role, ok := roles.ByName(slot.Role)
		if !ok {
			role = roles.DefaultRole(slot.Position, len(req.Slots))
		}

		var tanda models.Tanda
		for attempt := 0; attempt < maxSlotAttempts; attempt++ {
			origin := ""
			if attempt == 0 {
				origin = a.planner.PickOrigin(ctx, slot.Style, prevKey, recent, snap, used, slot.Size)
			}
			tanda = a.planner.PlanGroup(ctx, GroupRequest{
				Style:            slot.Style,
				Role:             role,
				Size:             slot.Size,
				RemainingSeconds: remaining,
				Origin:           origin,
				PrevKey:          prevKey,
				Snapshot:         snap,
				Used:             used,
			})
			if tanda.RealCount() > 0 {
				break
			}
		}
		if tanda.RealCount() == 0 {
			plan.Warnings = append(plan.Warnings, "skipped "+slot.Style+" slot: no playable tracks")
			if !emit(ctx, events, warningEvent("skipped %s slot %d: no playable tracks", slot.Style, i)) {
				return nil, ctx.Err()
			}
			continue
		}

		for _, t := range tanda.RealTracks() {
			used.Add(t.ID)
		}
		plan.Warnings = append(plan.Warnings, tanda.Warnings...)
		remaining -= tanda.Seconds
		plan.Tandas = append(plan.Tandas, tanda)

		if len(pool) > 0 {
			cortina := pool[len(plan.Cortinas)%len(pool)]
			plan.Cortinas = append(plan.Cortinas, cortina)
			remaining -= cortina.Duration
		}

		if key := tanda.LastKey(); key != "" {
			prevKey = key
		}
		recent = pushRecent(recent, tandaOrigin(tanda))

		if !emit(ctx, events, tandaEvent(i, remaining, tanda)) {
			return nil, ctx.Err()
		}
	}

	// A plan never ends on a cortina; the trailing one is dropped
	// regardless of how close the budget came.
	if len(plan.Cortinas) == len(plan.Tandas) && len(plan.Cortinas) > 0 {
		plan.Cortinas = plan.Cortinas[:len(plan.Cortinas)-1]
	}
	plan.TotalSeconds = plan.Duration()

	placeholders := 0
	positions := 0
	for _, t := range plan.Tandas {
		positions += len(t.Tracks)
		placeholders += len(t.Tracks) - t.RealCount()
	}
	if !emit(ctx, events, qualityEvent("%d of %d positions resolved, %d warnings",
		positions-placeholders, positions, len(plan.Warnings))) {
		return nil, ctx.Err()
	}
	if !emit(ctx, events, summaryEvent("%d tandas, %d cortinas, %s total",
		len(plan.Tandas), len(plan.Cortinas), shared.FormatDuration(plan.TotalSeconds))) {
		return nil, ctx.Err()
	}

	display := Display{Timeline: formatter.Timeline(*plan), Summary: formatter.Summary(*plan)}
	if !emit(ctx, events, doneEvent(*plan, display)) {
		return nil, ctx.Err()
	}
	return plan, nil
}

// emit delivers an event unless the consumer's context is gone.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// tandaOrigin is the dominant normalized origin among a tanda's real tracks.
func tandaOrigin(t models.Tanda) string {
	counts := make(map[string]int)
	best, bestN := "", 0
	for _, track := range t.RealTracks() {
		origin := library.NormalizeOrigin(track.Artist)
		counts[origin]++
		if counts[origin] > bestN {
			best, bestN = origin, counts[origin]
		}
	}
	return best
}

func pushRecent(recent []string, origin string) []string {
	if origin == "" {
		return recent
	}
	recent = append(recent, origin)
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	return recent
}

// DefaultPattern builds a style rotation sized to the time budget, skipping
// styles the library does not carry.
func DefaultPattern(snap *library.Snapshot, minutes int) []string {
	available := make(map[string]bool)
	for _, style := range snap.ProgramStyles() {
		available[style] = true
	}
	rotation := []string{"tango", "tango", "vals", "tango", "tango", "milonga"}

	// A tanda plus cortina averages out near a quarter hour.
	slots := minutes / 15
	if slots < 1 {
		slots = 1
	}
	var pattern []string
	for i := 0; len(pattern) < slots; i++ {
		style := rotation[i%len(rotation)]
		if available[style] {
			pattern = append(pattern, style)
			continue
		}
		// Library lacks the rotation style; fall back to any program style.
		if len(snap.ProgramStyles()) == 0 {
			break
		}
		pattern = append(pattern, snap.ProgramStyles()[0])
	}
	return pattern
}
