package library

import (
	"math/rand"
	"sync"

	"github.com/johntango/milonga/internal/models"
)

// CortinaProvider supplies transition tracks for a generation run.
//
// The assembler cycles through the returned pool; implementations may shuffle
// or return deterministically per the caller's flag.
type CortinaProvider interface {
	Cortinas(count int, shuffle bool) []models.Cortina
}

// SnapshotSource yields the current library snapshot. *Store implements it;
// the provider reads it per call so a reload is picked up by the next run.
type SnapshotSource interface {
	Snapshot() *Snapshot
}

// PoolProvider implements CortinaProvider over the source's cortina pool.
type PoolProvider struct {
	source SnapshotSource
	mu     sync.Mutex // guards rng; one provider serves concurrent runs
	rng    *rand.Rand
}

// NewPoolProvider creates a provider over source. A nil rng keeps shuffles
// non-deterministic; tests pass a seeded source.
func NewPoolProvider(source SnapshotSource, rng *rand.Rand) *PoolProvider {
	return &PoolProvider{source: source, rng: rng}
}

// Cortinas returns up to count cortinas from the current snapshot's pool.
// When the pool is smaller than count the pool is cycled; when shuffle is
// set the pool order is randomized first.
func (p *PoolProvider) Cortinas(count int, shuffle bool) []models.Cortina {
	snap := p.source.Snapshot()
	if snap == nil || count <= 0 {
		return nil
	}
	pool := snap.Style(CortinaStyle)
	if len(pool) == 0 {
		return nil
	}

	ordered := make([]models.Track, len(pool))
	copy(ordered, pool)
	if shuffle {
		p.shufflePool(ordered)
	}

	out := make([]models.Cortina, 0, count)
	for i := 0; i < count; i++ {
		t := ordered[i%len(ordered)]
		out = append(out, models.Cortina{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Duration: t.Duration,
		})
	}
	return out
}

func (p *PoolProvider) shufflePool(ordered []models.Track) {
	if p.rng == nil {
		rand.New(rand.NewSource(rand.Int63())).Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
}
