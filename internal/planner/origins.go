package planner

import (
	"context"
	"sort"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/oracle"
)

const (
	// jitter range applied to roulette weights so identical catalogs do
	// not resolve to the same origin every run.
	jitterMin = 0.85
	jitterMax = 1.15

	// recentWindow is how many previously chosen origins discourage an
	// immediate repeat.
	recentWindow = 2

	// Medium-depth catalogs get a selection bonus and very large ones a
	// penalty, so one big-catalog orchestra cannot dominate every run.
	mediumLow     = 3
	mediumHigh    = 15
	largeCutoff   = 30
	mediumBonus   = 1.25
	largePenalty  = 0.4
	neutralWeight = 1.0
)

// diversityMultiplier rewards origins with a medium unused-track depth and
// penalizes those with a very large one.
func diversityMultiplier(available int) float64 {
	switch {
	case available > largeCutoff:
		return largePenalty
	case available >= mediumLow && available <= mediumHigh:
		return mediumBonus
	default:
		return neutralWeight
	}
}

// availability counts unused tracks per normalized origin for a style.
func availability(snap *library.Snapshot, style string, used *models.UsedSet) map[string]int {
	counts := make(map[string]int)
	for origin, tracks := range snap.Origins(style) {
		n := 0
		for _, t := range tracks {
			if !used.Has(t.ID) {
				n++
			}
		}
		if n > 0 {
			counts[origin] = n
		}
	}
	return counts
}

func recentRepeats(origin string, recent []string) int {
	n := 0
	for _, r := range recent {
		if r == origin {
			n++
		}
	}
	return n
}

// PickOrigin chooses the performing origin for the next tanda of a style, or
// "" when no origin has enough unused tracks anywhere.
//
// The oracle proposes a ranked shortlist; suggestions with at least size
// unused tracks enter a roulette-wheel draw weighted by availability,
// jittered, discounted for recent repeats, and diversity-adjusted. When no
// suggestion qualifies (including oracle failure) the pick degrades to a
// uniform draw over qualifying origins, preferring those outside the recent
// window.
func (p *Planner) PickOrigin(ctx context.Context, style, prevKey string, recent []string, snap *library.Snapshot, used *models.UsedSet, size int) string {
	counts := availability(snap, style, used)
	if len(counts) == 0 {
		return ""
	}

	options := make([]oracle.OriginOption, 0, len(counts))
	for origin, n := range counts {
		options = append(options, oracle.OriginOption{Name: origin, Available: n})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Name < options[j].Name })

	suggestions, err := p.oracle.SuggestOrigins(ctx, oracle.OriginRequest{
		Style:   style,
		PrevKey: prevKey,
		Recent:  recent,
		Options: options,
	})
	if err != nil {
		p.logger.Warn("origin shortlist unavailable, using uniform fallback", "style", style, "error", err)
	}

	type weighted struct {
		origin string
		weight float64
	}
	var wheel []weighted
	total := 0.0
	seen := make(map[string]bool)
	for _, s := range suggestions {
		origin := library.NormalizeOrigin(s)
		if seen[origin] {
			continue
		}
		seen[origin] = true
		avail := counts[origin]
		if avail < size {
			continue
		}
		jitter := jitterMin + p.randFloat64()*(jitterMax-jitterMin)
		w := float64(avail) * jitter * diversityMultiplier(avail) / float64(1+recentRepeats(origin, recent))
		wheel = append(wheel, weighted{origin: origin, weight: w})
		total += w
	}

	if total > 0 {
		spin := p.randFloat64() * total
		for _, w := range wheel {
			spin -= w.weight
			if spin <= 0 {
				return w.origin
			}
		}
		return wheel[len(wheel)-1].origin
	}

	// Uniform fallback over qualifying origins, fresh ones first.
	var fresh, stale []string
	for _, opt := range options {
		if opt.Available < size {
			continue
		}
		if recentRepeats(opt.Name, recent) > 0 {
			stale = append(stale, opt.Name)
		} else {
			fresh = append(fresh, opt.Name)
		}
	}
	pool := fresh
	if len(pool) == 0 {
		pool = stale
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[p.randIntn(len(pool))]
}

// rankedAltOrigins returns qualifying origins ordered by the diversity
// weighting, medium-depth catalogs first, excluding skip.
func rankedAltOrigins(counts map[string]int, size int, skip string) []string {
	type ranked struct {
		origin string
		weight float64
	}
	var out []ranked
	for origin, avail := range counts {
		if origin == skip || avail < size {
			continue
		}
		out = append(out, ranked{origin: origin, weight: float64(avail) * diversityMultiplier(avail)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].origin < out[j].origin
	})
	origins := make([]string, len(out))
	for i, r := range out {
		origins[i] = r.origin
	}
	return origins
}
