// Package scoring measures harmonic, tempo, and energy continuity between
// tracks.
//
// Harmonic keys use Camelot notation: twelve wheel positions in two modes
// ("8A", "12B"), forming a 24-point cycle. Distance is the minimal number of
// forward or backward steps around that cycle; neighboring positions mix
// smoothly, opposite positions clash.
package scoring

import (
	"strconv"
	"strings"
)

// wheelSize is the full Camelot cycle: 12 positions x 2 modes.
const wheelSize = 24

// harmonicCap bounds the per-neighbor harmonic term so one bad key change
// cannot dominate the whole cost.
const harmonicCap = 4

// ParseKey parses a Camelot key like "8A" or "12b" into its wheel index.
// Returns false for malformed or absent keys.
func ParseKey(key string) (int, bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) < 2 {
		return 0, false
	}

	mode := k[len(k)-1]
	if mode != 'A' && mode != 'B' {
		return 0, false
	}

	pos, err := strconv.Atoi(k[:len(k)-1])
	if err != nil || pos < 1 || pos > 12 {
		return 0, false
	}

	idx := (pos - 1) * 2
	if mode == 'B' {
		idx++
	}
	return idx, true
}

// KeyDistance is the minimal step count between two keys on the 24-point
// wheel. Unknown or malformed keys are treated as neutral (distance 0) so
// untagged tracks are not penalized.
func KeyDistance(a, b string) int {
	ai, ok := ParseKey(a)
	if !ok {
		return 0
	}
	bi, ok := ParseKey(b)
	if !ok {
		return 0
	}

	d := ai - bi
	if d < 0 {
		d = -d
	}
	if d > wheelSize/2 {
		d = wheelSize - d
	}
	return d
}

// cappedKeyDistance applies the per-neighbor harmonic cap.
func cappedKeyDistance(a, b string) float64 {
	d := KeyDistance(a, b)
	if d > harmonicCap {
		d = harmonicCap
	}
	return float64(d)
}
