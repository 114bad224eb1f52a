package models

import (
	"testing"
)

func TestNormalizeIDIdempotent(t *testing.T) {
	inputs := []string{
		"Music/Tango/Di Sarli/Bahia Blanca.mp3",
		"Music%2FTango%2FDi%20Sarli%2FBahia%20Blanca.mp3",
		"Music%252FTango%252FDi%2520Sarli.mp3",
		"C:\\Music\\Tango\\La Cumparsita.flac",
		"100% Tango.mp3",
		"",
		"   padded.mp3  ",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := NormalizeID(in)
			twice := NormalizeID(once)
			if once != twice {
				t.Errorf("NormalizeID not idempotent: %q -> %q -> %q", in, once, twice)
			}
		})
	}
}

func TestNormalizeIDVariantsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"case fold", "Music/Tango/POEMA.mp3", "music/tango/poema.mp3"},
		{"separators", "Music\\Tango\\Poema.mp3", "Music/Tango/Poema.mp3"},
		{"url encoding", "Music/Di%20Sarli/Poema.mp3", "Music/Di Sarli/Poema.mp3"},
		{"double encoding", "Music%2FDi%2520Sarli%2FPoema.mp3", "music/di sarli/poema.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if NormalizeID(tt.a) != NormalizeID(tt.b) {
				t.Errorf("expected %q and %q to normalize equal, got %q vs %q",
					tt.a, tt.b, NormalizeID(tt.a), NormalizeID(tt.b))
			}
		})
	}
}

func TestStripExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"music/tango/poema.mp3", "music/tango/poema"},
		{"music/tango/poema.flac", "music/tango/poema"},
		{"music/tango/poema", "music/tango/poema"},
		{"sonata op. 27", "sonata op. 27"},
		{"notes.txt", "notes.txt"},
	}

	for _, tt := range tests {
		if got := StripExtension(tt.in); got != tt.want {
			t.Errorf("StripExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCandidateKeysOpaqueToken(t *testing.T) {
	keys := CandidateKeys("Music%2FTango%2FPoema.mp3")

	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}

	if !want["music/tango/poema.mp3"] {
		t.Errorf("decoded path-like key missing from %v", keys)
	}
	if !want["music/tango/poema"] {
		t.Errorf("extension-stripped decoded key missing from %v", keys)
	}
}

func TestUsedSetNormalizationTolerant(t *testing.T) {
	tests := []struct {
		name  string
		added string
		query string
	}{
		{"exact", "music/tango/poema.mp3", "music/tango/poema.mp3"},
		{"case", "Music/Tango/Poema.mp3", "music/tango/POEMA.mp3"},
		{"encoding", "Music/Di%20Sarli/Poema.mp3", "music/di sarli/poema.mp3"},
		{"transcoded", "music/tango/poema.mp3", "music/tango/poema.flac"},
		{"separators", "music\\tango\\poema.mp3", "music/tango/poema.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used := NewUsedSet()
			used.Add(tt.added)

			if !used.Has(tt.query) {
				t.Errorf("UsedSet should contain %q after adding %q", tt.query, tt.added)
			}
			if used.Len() != 1 {
				t.Errorf("expected Len 1, got %d", used.Len())
			}
		})
	}
}

func TestUsedSetAddIsMonotonic(t *testing.T) {
	used := NewUsedSet()
	used.Add("a/b/one.mp3")
	used.Add("a/b/two.mp3")
	used.Add("A/B/One.mp3") // duplicate under normalization

	if used.Len() != 2 {
		t.Errorf("expected 2 distinct identities, got %d", used.Len())
	}
	if ids := used.IDs(); len(ids) != 2 || ids[0] != "a/b/one.mp3" || ids[1] != "a/b/two.mp3" {
		t.Errorf("unexpected IDs order: %v", used.IDs())
	}
}

func TestUsedSetEmptyIdentity(t *testing.T) {
	used := NewUsedSet()
	used.Add("")

	if used.Len() != 0 {
		t.Errorf("empty identity should not be recorded")
	}
	if used.Has("") {
		t.Errorf("empty identity should never match")
	}
}
