package scoring

import (
	"math"

	"github.com/johntango/milonga/internal/models"
)

// Axis weights. Harmonic steps count whole; tempo is in BPM so it gets a
// small weight; energy lives on [0,1] so it gets a larger one.
const (
	tempoWeight  = 0.05
	energyWeight = 0.2
)

// Cost scores how smoothly track sits between its neighbors; lower is
// better. Either neighbor may be nil (start or end of a group).
func Cost(track models.Track, prev, next *models.Track) float64 {
	cost := 0.0

	if prev != nil {
		cost += neighborCost(track, *prev)
	}
	if next != nil {
		cost += neighborCost(track, *next)
	}
	return cost
}

func neighborCost(a, b models.Track) float64 {
	cost := cappedKeyDistance(a.Key, b.Key)
	if a.BPM > 0 && b.BPM > 0 {
		cost += tempoWeight * math.Abs(a.BPM-b.BPM)
	}
	if a.Energy > 0 && b.Energy > 0 {
		cost += energyWeight * math.Abs(a.Energy-b.Energy)
	}
	return cost
}
