package scoring

import (
	"math"
	"sort"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
)

// Greedy extension limits: a step is acceptable while tempo stays close and
// the key change stays mixable.
const (
	maxTempoStep = 12.0
	maxKeyStep   = 4
)

// Order arranges a deterministically-assembled group for smooth playback.
//
// Tracks cluster by (origin, decade); the largest cluster seeds the order,
// sorted by absolute tempo distance from the cluster's median. The order is
// then greedily extended with the remaining tracks while tempo and key steps
// stay within bounds and each addition shares an era or origin with its
// predecessor. Leftovers that satisfy no constraint append at the end, so
// the result is always a permutation of the input.
func Order(tracks []models.Track) []models.Track {
	if len(tracks) <= 1 {
		return tracks
	}

	type clusterKey struct {
		origin string
		decade int
	}

	clusters := make(map[clusterKey][]models.Track)
	for _, t := range tracks {
		k := clusterKey{origin: library.NormalizeOrigin(t.Artist), decade: t.Decade()}
		clusters[k] = append(clusters[k], t)
	}

	var seedKey clusterKey
	best := -1
	for k, members := range clusters {
		if len(members) > best ||
			(len(members) == best && (k.origin < seedKey.origin || (k.origin == seedKey.origin && k.decade < seedKey.decade))) {
			best = len(members)
			seedKey = k
		}
	}

	seed := clusters[seedKey]
	median := medianBPM(seed)
	sort.SliceStable(seed, func(i, j int) bool {
		di := math.Abs(seed[i].BPM - median)
		dj := math.Abs(seed[j].BPM - median)
		if di != dj {
			return di < dj
		}
		return seed[i].ID < seed[j].ID
	})

	ordered := append([]models.Track(nil), seed...)
	inSeed := make(map[string]bool, len(seed))
	for _, t := range seed {
		inSeed[t.ID] = true
	}

	rest := make([]models.Track, 0, len(tracks)-len(seed))
	for _, t := range tracks {
		if !inSeed[t.ID] {
			rest = append(rest, t)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })

	for len(rest) > 0 {
		last := ordered[len(ordered)-1]
		picked := -1
		for i, t := range rest {
			if extendable(last, t) {
				picked = i
				break
			}
		}
		if picked == -1 {
			// No remaining track satisfies the constraints; append the rest.
			ordered = append(ordered, rest...)
			break
		}
		ordered = append(ordered, rest[picked])
		rest = append(rest[:picked], rest[picked+1:]...)
	}

	return ordered
}

// extendable reports whether next may follow prev in the greedy extension.
func extendable(prev, next models.Track) bool {
	if prev.BPM > 0 && next.BPM > 0 && math.Abs(prev.BPM-next.BPM) > maxTempoStep {
		return false
	}
	if KeyDistance(prev.Key, next.Key) > maxKeyStep {
		return false
	}
	sameEra := prev.Decade() != 0 && prev.Decade() == next.Decade()
	sameOrigin := library.NormalizeOrigin(prev.Artist) == library.NormalizeOrigin(next.Artist)
	return sameEra || sameOrigin
}

func medianBPM(tracks []models.Track) float64 {
	bpms := make([]float64, 0, len(tracks))
	for _, t := range tracks {
		if t.BPM > 0 {
			bpms = append(bpms, t.BPM)
		}
	}
	if len(bpms) == 0 {
		return 0
	}
	sort.Float64s(bpms)
	mid := len(bpms) / 2
	if len(bpms)%2 == 0 {
		return (bpms[mid-1] + bpms[mid]) / 2
	}
	return bpms[mid]
}
