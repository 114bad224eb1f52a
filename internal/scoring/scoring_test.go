package scoring

import (
	"testing"

	"github.com/johntango/milonga/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		idx  int
		ok   bool
	}{
		{"1A", 0, true},
		{"1B", 1, true},
		{"8A", 14, true},
		{"12B", 23, true},
		{"12b", 23, true},
		{" 3A ", 4, true},
		{"", 0, false},
		{"A", 0, false},
		{"13A", 0, false},
		{"0B", 0, false},
		{"8C", 0, false},
		{"Cm", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			idx, ok := ParseKey(tt.key)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.idx, idx)
			}
		})
	}
}

func TestKeyDistanceProperties(t *testing.T) {
	keys := []string{"1A", "1B", "3A", "6B", "8A", "12B"}

	for _, k := range keys {
		assert.Equal(t, 0, KeyDistance(k, k), "dist(k,k) must be 0")
	}

	for _, a := range keys {
		for _, b := range keys {
			assert.Equal(t, KeyDistance(a, b), KeyDistance(b, a), "distance must be symmetric")
			assert.LessOrEqual(t, KeyDistance(a, b), 12, "distance bounded by half the wheel")
			assert.GreaterOrEqual(t, KeyDistance(a, b), 0)
		}
	}
}

func TestKeyDistanceWraps(t *testing.T) {
	// 12B (index 23) and 1A (index 0) are one step apart around the cycle.
	assert.Equal(t, 1, KeyDistance("12B", "1A"))
	// Opposite sides of the wheel.
	assert.Equal(t, 12, KeyDistance("1A", "7A"))
}

func TestKeyDistanceUnknownNeutral(t *testing.T) {
	assert.Equal(t, 0, KeyDistance("", "8A"))
	assert.Equal(t, 0, KeyDistance("bogus", "8A"))
}

func TestCost(t *testing.T) {
	track := models.Track{Key: "8A", BPM: 60, Energy: 0.5}
	prev := models.Track{Key: "8A", BPM: 60, Energy: 0.5}
	next := models.Track{Key: "9A", BPM: 70, Energy: 0.7}

	assert.Zero(t, Cost(track, &prev, nil), "identical neighbor costs nothing")

	got := Cost(track, &prev, &next)
	// 9A is two steps from 8A; tempo delta 10 at 0.05; energy delta 0.2 at 0.2.
	assert.InDelta(t, 2+0.5+0.04, got, 1e-9)

	assert.Zero(t, Cost(track, nil, nil))
}

func TestCostCapsHarmonicTerm(t *testing.T) {
	track := models.Track{Key: "1A"}
	far := models.Track{Key: "7A"} // 12 raw steps, capped at 4

	assert.InDelta(t, 4, Cost(track, &far, nil), 1e-9)
	assert.InDelta(t, 8, Cost(track, &far, &far), 1e-9, "cap applies per neighbor")
}

func TestOrderSeedsLargestCluster(t *testing.T) {
	tracks := []models.Track{
		{ID: "a", Artist: "Carlos Di Sarli", Year: 1942, BPM: 64, Key: "8A"},
		{ID: "b", Artist: "Carlos Di Sarli y su Orquesta Típica", Year: 1944, BPM: 60, Key: "8A"},
		{ID: "c", Artist: "Carlos Di Sarli", Year: 1946, BPM: 70, Key: "9A"},
		{ID: "d", Artist: "Juan D'Arienzo", Year: 1951, BPM: 72, Key: "9A"},
	}

	ordered := Order(tracks)
	require.Len(t, ordered, 4)

	// a, b, c share origin and decade; median BPM 64 puts a first.
	assert.Equal(t, "a", ordered[0].ID)

	seen := map[string]bool{}
	for _, tr := range ordered {
		seen[tr.ID] = true
	}
	assert.Len(t, seen, 4, "result must be a permutation of the input")
}

func TestOrderAppendsUnextendable(t *testing.T) {
	tracks := []models.Track{
		{ID: "a", Artist: "X", Year: 1942, BPM: 60, Key: "1A"},
		{ID: "b", Artist: "X", Year: 1943, BPM: 62, Key: "1A"},
		{ID: "z", Artist: "Y", Year: 1990, BPM: 140, Key: "7A"}, // fails every constraint
	}

	ordered := Order(tracks)
	require.Len(t, ordered, 3)
	assert.Equal(t, "z", ordered[2].ID)
}

func TestOrderSingleAndEmpty(t *testing.T) {
	assert.Empty(t, Order(nil))
	one := []models.Track{{ID: "a"}}
	assert.Equal(t, one, Order(one))
}
