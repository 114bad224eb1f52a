package models

import (
	"net/url"
	"path"
	"strings"
)

// audioExtensions lists file extensions stripped when deriving the
// extension-free candidate key. Transcoded copies of one recording differ
// only in extension, so both keys participate in matching.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".aac":  true,
	".aif":  true,
	".aiff": true,
	".wma":  true,
}

// NormalizeID canonicalizes a raw track identity token.
//
// Normalization case-folds, converts backslash separators, trims surrounding
// whitespace, and percent-decodes until stable. The result is idempotent:
// NormalizeID(string(NormalizeID(x))) == NormalizeID(x).
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\\", "/")

	// Percent-decode to a fixpoint so doubly-encoded paths and already-decoded
	// paths normalize to the same key. Decoding stops if an escape is invalid.
	for range 4 {
		decoded, err := url.PathUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = decoded
	}

	return strings.ToLower(s)
}

// StripExtension removes a trailing audio file extension from a normalized key.
// Keys without a known audio extension are returned unchanged.
func StripExtension(key string) string {
	ext := path.Ext(key)
	if audioExtensions[strings.ToLower(ext)] {
		return strings.TrimSuffix(key, ext)
	}
	return key
}

// CandidateKeys expands a raw identity token into every key it may match
// under: the normalized form, its extension-stripped variant, and, when the
// token is opaque but percent-decodes to something path-like, the decoded
// forms as well. Matching two identities means their key sets intersect.
func CandidateKeys(raw string) []string {
	keys := make([]string, 0, 4)
	seen := make(map[string]bool, 4)

	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	norm := NormalizeID(raw)
	add(norm)
	add(StripExtension(norm))

	// Opaque tokens are speculatively decoded; a decoded form that contains a
	// path separator is treated as an additional identity candidate.
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "\\") {
		if decoded, err := url.QueryUnescape(raw); err == nil && strings.ContainsAny(decoded, "/\\") {
			dn := NormalizeID(decoded)
			add(dn)
			add(StripExtension(dn))
		}
	}

	return keys
}

// UsedSet tracks identities consumed during one generation run.
//
// Membership is normalization-tolerant: two encodings of one path, or the
// same path with a transcoded extension, count as the same identity. The set
// is monotonic within a run and request-scoped, so it needs no locking.
type UsedSet struct {
	keys map[string]bool
	ids  []string
}

// NewUsedSet creates an empty UsedSet.
func NewUsedSet() *UsedSet {
	return &UsedSet{keys: make(map[string]bool)}
}

// Add records an identity and all of its candidate keys.
// Adding an identity already present is a no-op.
func (s *UsedSet) Add(raw string) {
	if raw == "" || s.Has(raw) {
		return
	}
	s.ids = append(s.ids, NormalizeID(raw))
	for _, k := range CandidateKeys(raw) {
		s.keys[k] = true
	}
}

// Has reports whether any candidate key of raw has been recorded.
func (s *UsedSet) Has(raw string) bool {
	if raw == "" {
		return false
	}
	for _, k := range CandidateKeys(raw) {
		if s.keys[k] {
			return true
		}
	}
	return false
}

// Len returns the number of distinct identities added.
func (s *UsedSet) Len() int {
	return len(s.ids)
}

// IDs returns the normalized identities in insertion order.
func (s *UsedSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
