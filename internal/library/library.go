package library

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
)

// CortinaStyle is the style tag marking transition tracks. Cortinas form a
// pool disjoint from the program styles and never appear inside tandas.
const CortinaStyle = "cortina"

// libraryFile is the on-disk shape of a library JSON file.
type libraryFile struct {
	Tracks []models.Track `json:"tracks"`
}

// Snapshot is an immutable, indexed view over the track library.
type Snapshot struct {
	tracks   []models.Track
	byKey    map[string]int // candidate key -> index into tracks
	byStyle  map[string][]models.Track
	styles   []string
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from tracks, canonicalizing identities and
// style tags once at ingestion. Tracks without an identity are dropped.
func NewSnapshot(tracks []models.Track) *Snapshot {
	s := &Snapshot{
		byKey:    make(map[string]int, len(tracks)*2),
		byStyle:  make(map[string][]models.Track),
		loadedAt: time.Now(),
	}

	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		t.ID = models.NormalizeID(t.ID)
		for i, style := range t.Styles {
			t.Styles[i] = strings.ToLower(strings.TrimSpace(style))
		}

		idx := len(s.tracks)
		s.tracks = append(s.tracks, t)
		for _, k := range models.CandidateKeys(t.ID) {
			if _, exists := s.byKey[k]; !exists {
				s.byKey[k] = idx
			}
		}
		for _, style := range t.Styles {
			s.byStyle[style] = append(s.byStyle[style], t)
		}
	}

	for style := range s.byStyle {
		s.styles = append(s.styles, style)
	}
	sort.Strings(s.styles)

	return s
}

// Load reads a library JSON file and builds a snapshot from it.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}

	var file libraryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse library file: %w", err)
	}
	if len(file.Tracks) == 0 {
		return nil, shared.ErrEmptyLibrary
	}

	return NewSnapshot(file.Tracks), nil
}

// Write serializes tracks to a library JSON file at path.
func Write(path string, tracks []models.Track) error {
	data, err := json.MarshalIndent(libraryFile{Tracks: tracks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write library file: %w", err)
	}
	return nil
}

// Size returns the number of tracks in the snapshot.
func (s *Snapshot) Size() int {
	return len(s.tracks)
}

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Tracks returns all tracks. The returned slice must not be modified.
func (s *Snapshot) Tracks() []models.Track {
	return s.tracks
}

// Lookup resolves a raw identity token to a track, tolerating encoding, case,
// separator, and extension variations.
func (s *Snapshot) Lookup(raw string) (models.Track, bool) {
	for _, k := range models.CandidateKeys(raw) {
		if idx, ok := s.byKey[k]; ok {
			return s.tracks[idx], true
		}
	}
	return models.Track{}, false
}

// Style returns all tracks tagged with the given style.
func (s *Snapshot) Style(style string) []models.Track {
	return s.byStyle[strings.ToLower(style)]
}

// Styles returns the sorted list of style tags present in the library.
func (s *Snapshot) Styles() []string {
	return s.styles
}

// ProgramStyles returns the styles excluding the cortina pool.
func (s *Snapshot) ProgramStyles() []string {
	out := make([]string, 0, len(s.styles))
	for _, style := range s.styles {
		if style != CortinaStyle {
			out = append(out, style)
		}
	}
	return out
}

// Origins groups a style's tracks by normalized origin name.
func (s *Snapshot) Origins(style string) map[string][]models.Track {
	groups := make(map[string][]models.Track)
	for _, t := range s.Style(style) {
		groups[NormalizeOrigin(t.Artist)] = append(groups[NormalizeOrigin(t.Artist)], t)
	}
	return groups
}

// originBoilerplate lists ensemble suffixes stripped during origin
// normalization, so cosmetically different spellings of one orchestra
// compare equal. Longer phrases come first so they win over their prefixes.
var originBoilerplate = []string{
	" y su orquesta tipica",
	" y su orquesta típica",
	" and his orchestra",
	" et son orchestre",
	" y su orquesta",
	" y su sexteto",
	" y sus muchachos",
	" y su cuarteto",
	" orquesta tipica",
	" orquesta típica",
	" sexteto",
	" orquesta",
	" quinteto",
	" trio",
	" trío",
}

// NormalizeOrigin canonicalizes a performing-origin name for comparison and
// grouping: case-folded, whitespace-collapsed, ensemble boilerplate stripped.
func NormalizeOrigin(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(n), " ")
	for _, suffix := range originBoilerplate {
		if trimmed := strings.TrimSuffix(n, suffix); trimmed != n && trimmed != "" {
			n = strings.TrimSpace(trimmed)
			break
		}
	}
	return n
}

// Store holds the current library snapshot behind an atomic pointer.
//
// Reload replaces the snapshot as a whole value; in-flight runs keep the one
// they started with.
type Store struct {
	snap    atomic.Pointer[Snapshot]
	path    string
	modTime time.Time
	logger  *log.Logger
}

// NewStore creates a store reading from the given library file path.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{path: path, logger: logger}
}

// Snapshot returns the current snapshot, or nil before the first Load.
func (st *Store) Snapshot() *Snapshot {
	return st.snap.Load()
}

// Replace swaps in a prebuilt snapshot (used by tests and the scan command).
func (st *Store) Replace(snap *Snapshot) {
	st.snap.Store(snap)
}

// Load reads the library file and atomically swaps the snapshot.
func (st *Store) Load() error {
	info, err := os.Stat(st.path)
	if err != nil {
		return fmt.Errorf("failed to stat library file: %w", err)
	}

	snap, err := Load(st.path)
	if err != nil {
		return err
	}

	st.snap.Store(snap)
	st.modTime = info.ModTime()
	st.logger.Info("library loaded", "path", st.path, "tracks", snap.Size(), "styles", len(snap.Styles()))
	return nil
}

// ReloadIfChanged reloads the library when the file's mtime has advanced.
// Returns whether a reload happened.
func (st *Store) ReloadIfChanged() (bool, error) {
	info, err := os.Stat(st.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat library file: %w", err)
	}
	if !info.ModTime().After(st.modTime) {
		return false, nil
	}
	if err := st.Load(); err != nil {
		return false, err
	}
	return true, nil
}
