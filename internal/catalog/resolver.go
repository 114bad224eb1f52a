// Package catalog reconciles caller-supplied reference catalogs against the
// track library.
//
// Reference entries identify tracks by path or opaque encoded token; matching
// is tolerant of case, percent-encoding, separator style, and transcoded
// extensions. Resolution merges per-entry overrides onto copies of the
// library tracks, never mutating the snapshot itself.
package catalog

import (
	"fmt"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

// sampleLimit caps how many keys a MismatchError carries from each side.
const sampleLimit = 5

// MismatchError reports a reference catalog that shares no identity with the
// library. It carries sample keys from both sides so the caller can diagnose
// the alignment problem; it is recoverable by fixing the catalog, not a crash.
type MismatchError struct {
	ReferenceSamples []string
	LibrarySamples   []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: reference keys %v vs library keys %v",
		shared.ErrCatalogMismatch, e.ReferenceSamples, e.LibrarySamples)
}

func (e *MismatchError) Unwrap() error {
	return shared.ErrCatalogMismatch
}

// Result is the outcome of a successful resolution.
type Result struct {
	// WorkingSet holds the resolved tracks with overrides applied, in
	// reference order.
	WorkingSet []models.Track
	// Overrides maps each resolved track's canonical identity to the
	// override that produced it, for callers that report merge provenance.
	Overrides map[string]*models.TrackOverride
	// Unmatched lists reference paths that resolved to no library track.
	Unmatched []string
}

// Resolve matches reference entries against the library snapshot and merges
// their overrides onto the resolved tracks.
//
// Entries that match nothing are reported in Result.Unmatched; a catalog
// where nothing at all matches fails with *MismatchError.
func Resolve(entries []models.ReferenceEntry, snap *library.Snapshot) (*Result, error) {
	if snap == nil || snap.Size() == 0 {
		return nil, shared.ErrLibraryNotLoaded
	}

	result := &Result{Overrides: make(map[string]*models.TrackOverride)}
	seen := models.NewUsedSet()

	for _, entry := range entries {
		track, ok := snap.Lookup(entry.Path)
		if !ok {
			result.Unmatched = append(result.Unmatched, entry.Path)
			continue
		}
		if seen.Has(track.ID) {
			// Two reference entries resolving to one track keep the first.
			continue
		}
		seen.Add(track.ID)

		merged := entry.Overrides.Apply(track)
		result.WorkingSet = append(result.WorkingSet, merged)
		if entry.Overrides != nil {
			result.Overrides[track.ID] = entry.Overrides
		}
	}

	if len(entries) > 0 && len(result.WorkingSet) == 0 {
		return nil, &MismatchError{
			ReferenceSamples: sampleKeys(entries),
			LibrarySamples:   sampleLibraryKeys(snap),
		}
	}

	return result, nil
}

// WorkingSnapshot resolves entries and builds a run-scoped snapshot over the
// working set. With no entries the full library snapshot is used as-is.
func WorkingSnapshot(entries []models.ReferenceEntry, snap *library.Snapshot) (*library.Snapshot, *Result, error) {
	if len(entries) == 0 {
		return snap, &Result{}, nil
	}

	result, err := Resolve(entries, snap)
	if err != nil {
		return nil, nil, err
	}

	working := result.WorkingSet
	// The cortina pool is disjoint from the program and rides along even when
	// the reference catalog never mentions it.
	working = append(working, snap.Style(library.CortinaStyle)...)

	return library.NewSnapshot(working), result, nil
}

func sampleKeys(entries []models.ReferenceEntry) []string {
	samples := make([]string, 0, sampleLimit)
	for _, e := range entries {
		if len(samples) == sampleLimit {
			break
		}
		samples = append(samples, models.NormalizeID(e.Path))
	}
	return samples
}

func sampleLibraryKeys(snap *library.Snapshot) []string {
	samples := make([]string, 0, sampleLimit)
	for _, t := range snap.Tracks() {
		if len(samples) == sampleLimit {
			break
		}
		samples = append(samples, t.ID)
	}
	return samples
}
