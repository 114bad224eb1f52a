// Package roles classifies tracks into era/style buckets.
//
// A role constrains which tracks may fill a slot: an inclusive year range
// plus, for "alt" roles, membership in the alternative-music lexicon. Year
// tags on late pressings are frequently reissue dates rather than recording
// dates, so classification works on an effective year that discounts
// unreliable tags instead of taking the literal value.
package roles

import (
	"strings"

	"github.com/johntango/milonga/internal/models"
)

// Role is an era/style bucket constraining slot eligibility.
type Role struct {
	Name    string
	MinYear int
	MaxYear int
	Alt     bool // requires an alternative-lexicon match in addition to the year
}

// The standard role set. Ranges overlap at the edges on purpose: a 1951
// recording fits both classic and rich programming.
var (
	Classic = Role{Name: "classic", MinYear: 1935, MaxYear: 1955}
	Rich    = Role{Name: "rich", MinYear: 1950, MaxYear: 1972}
	Modern  = Role{Name: "modern", MinYear: 1973, MaxYear: 2100}
	Alt     = Role{Name: "alt", MinYear: 1985, MaxYear: 2100, Alt: true}
)

var byName = map[string]Role{
	Classic.Name: Classic,
	Rich.Name:    Rich,
	Modern.Name:  Modern,
	Alt.Name:     Alt,
}

// ByName resolves a role by name.
func ByName(name string) (Role, bool) {
	r, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// trustCutoff is the year at which literal year tags stop being trusted for
// core-style tracks that look like reissues. Vintage recordings remastered
// after this point commonly carry the remaster date.
const trustCutoff = 1995

// coreStyles are the program styles whose late-year tags get the reissue
// treatment. Genuinely contemporary material in other styles keeps its year.
var coreStyles = map[string]bool{
	"tango":   true,
	"vals":    true,
	"milonga": true,
}

// reissueMarkers are title/album tokens suggesting the year tag is a
// reissue, remaster, or compilation date.
var reissueMarkers = []string{
	"remaster",
	"remastered",
	"reissue",
	"re-issue",
	"compilation",
	"collection",
	"colección",
	"coleccion",
	"anthology",
	"antología",
	"antologia",
	"best of",
	"greatest hits",
	"grandes éxitos",
	"grandes exitos",
	"edición",
	"edicion",
	"rca victor 100",
	"obra completa",
}

// altLexicon marks tracks as alternative material: neo/electro tango and
// non-traditional styles played in alt slots.
var altLexicon = []string{
	"neotango",
	"neo tango",
	"neo-tango",
	"electrotango",
	"electro tango",
	"electro-tango",
	"nuevo",
	"fusion",
	"fusión",
	"alternative",
	"alt",
	"non-tango",
	"nontango",
	"crossover",
	"world",
	"swing",
	"blues",
}

// EffectiveYear returns the year used for classification and whether it is
// known. Literal years at or after the trust cutoff on core-style tracks
// whose title or album reads like a reissue are treated as unknown.
func EffectiveYear(track models.Track) (int, bool) {
	if track.Year == 0 {
		return 0, false
	}
	if track.Year >= trustCutoff && isCoreStyle(track) && looksReissue(track) {
		return 0, false
	}
	return track.Year, true
}

// YearDiscounted reports whether the track's literal year was rejected as a
// reissue date.
func YearDiscounted(track models.Track) bool {
	_, known := EffectiveYear(track)
	return track.Year != 0 && !known
}

// Fits reports whether a track belongs to the role's bucket. Tracks with
// unknown effective year fit permissively; alt roles additionally require an
// alternative-lexicon match.
func Fits(track models.Track, role Role) bool {
	if role.Alt && !matchesAltLexicon(track) {
		return false
	}
	year, known := EffectiveYear(track)
	if !known {
		return true
	}
	return year >= role.MinYear && year <= role.MaxYear
}

// Boost scores how well a fitting track suits the role; higher is better.
//
// The score peaks at the role's year midpoint with triangular falloff, adds
// a flat bonus for alt-lexicon matches on alt roles, and slightly penalizes
// discounted-year tracks on classic/rich roles so dated vintage material
// outranks undated reissues.
func Boost(track models.Track, role Role) float64 {
	const (
		peak            = 1.0
		altBonus        = 0.25
		discountPenalty = 0.15
	)

	score := 0.0
	year, known := EffectiveYear(track)
	if known {
		mid := float64(role.MinYear+role.MaxYear) / 2
		half := float64(role.MaxYear-role.MinYear) / 2
		if half > 0 {
			dist := year - int(mid)
			if dist < 0 {
				dist = -dist
			}
			score = peak - float64(dist)/half
			if score < 0 {
				score = 0
			}
		}
	}

	if role.Alt && matchesAltLexicon(track) {
		score += altBonus
	}

	if (role.Name == Classic.Name || role.Name == Rich.Name) && YearDiscounted(track) {
		score -= discountPenalty
	}

	return score
}

func isCoreStyle(track models.Track) bool {
	for _, s := range track.Styles {
		if coreStyles[s] {
			return true
		}
	}
	return false
}

func looksReissue(track models.Track) bool {
	haystack := strings.ToLower(track.Title + " " + track.Album)
	for _, marker := range reissueMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}

func matchesAltLexicon(track models.Track) bool {
	for _, s := range track.Styles {
		if lexiconMatch(strings.ToLower(s)) {
			return true
		}
	}
	if v, ok := track.Meta["genre"].(string); ok {
		return lexiconMatch(strings.ToLower(v))
	}
	return false
}

// lexiconMatch requires exact equality for short lexicon words ("alt") so
// they cannot fire on substrings of unrelated tags.
func lexiconMatch(tag string) bool {
	for _, word := range altLexicon {
		if tag == word {
			return true
		}
		if len(word) > 4 && strings.Contains(tag, word) {
			return true
		}
	}
	return false
}
