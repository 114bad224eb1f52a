package planner

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/oracle"
	"github.com/johntango/milonga/internal/shared"
	itesting "github.com/johntango/milonga/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssembler(mock *itesting.MockOracle, snap *library.Snapshot) *Assembler {
	store := library.NewStore("", nil)
	store.Replace(snap)
	provider := library.NewPoolProvider(store, rand.New(rand.NewSource(1)))
	return NewAssembler(testPlanner(mock), provider, shared.PlanConfig{CortinaSeconds: 45}, nil)
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func eventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestRunSingleSlot(t *testing.T) {
	snap := testSnapshot()
	mock := &itesting.MockOracle{
		OriginResponses: [][]string{{"Carlos Di Sarli"}},
		TrackFn:         pickFirst(4),
	}
	a := testAssembler(mock, snap)

	events := make(chan Event, 32)
	plan, err := a.Run(context.Background(), RunRequest{
		Minutes:  30,
		Slots:    []models.Slot{{Style: "tango", Size: 4, Role: "classic", Position: 0}},
		Snapshot: snap,
	}, events)
	close(events)
	require.NoError(t, err)

	got := collect(events)
	assert.Equal(t, []string{"start", "tanda", "quality", "summary", "done"}, eventTypes(got))

	require.Len(t, plan.Tandas, 1)
	tanda := plan.Tandas[0]
	assert.Equal(t, 4, tanda.RealCount())

	seen := models.NewUsedSet()
	for _, track := range tanda.RealTracks() {
		assert.False(t, seen.Has(track.ID), "identity repeated: %s", track.ID)
		seen.Add(track.ID)
	}

	assert.Empty(t, plan.Cortinas, "a plan never ends on a cortina")
	assert.LessOrEqual(t, plan.TotalSeconds, 30*60+45)

	done := got[len(got)-1]
	require.NotNil(t, done.Plan)
	require.NotNil(t, done.Display)
	assert.NotEmpty(t, done.Display.Timeline)
	assert.NotEmpty(t, done.Display.Summary)

	tandaEv := got[1]
	require.NotNil(t, tandaEv.Index)
	assert.Equal(t, 0, *tandaEv.Index)
	require.NotNil(t, tandaEv.Tanda)
	assert.Len(t, tandaEv.Tanda.Tracks, 4)
}

func TestRunStopsWhenBudgetExhausted(t *testing.T) {
	snap := library.NewSnapshot([]models.Track{
		track("milonga/canaro/one.mp3", "Milonga Sentimental", "Francisco Canaro", 1933, 100, "4A", 15, "milonga"),
		track("milonga/canaro/two.mp3", "Milonga Brava", "Francisco Canaro", 1938, 102, "4B", 15, "milonga"),
		track("milonga/canaro/three.mp3", "No Hay Tierra Como La Mía", "Francisco Canaro", 1939, 104, "4A", 15, "milonga"),
		track("milonga/canaro/four.mp3", "Reliquias Porteñas", "Francisco Canaro", 1938, 101, "5A", 15, "milonga"),
		track("cortinas/jazz.mp3", "Take Five", "Dave Brubeck", 0, 0, "", 30, "cortina"),
	})
	mock := &itesting.MockOracle{
		OriginResponses: [][]string{{"Francisco Canaro"}, {"Francisco Canaro"}, {"Francisco Canaro"}},
		TrackFn:         pickFirst(2),
	}
	a := testAssembler(mock, snap)

	slots := []models.Slot{
		{Style: "milonga", Size: 2, Role: "classic", Position: 0},
		{Style: "milonga", Size: 2, Role: "classic", Position: 1},
		{Style: "milonga", Size: 2, Role: "classic", Position: 2},
	}
	events := make(chan Event, 32)
	plan, err := a.Run(context.Background(), RunRequest{Minutes: 1, Slots: slots, Snapshot: snap}, events)
	close(events)
	require.NoError(t, err)

	// First tanda (30s) plus its cortina (30s) consume the whole minute;
	// the second slot must never be planned.
	require.Len(t, plan.Tandas, 1)
	assert.Contains(t, eventTypes(collect(events)), "warning")
	assert.Contains(t, plan.Warnings, shared.ErrBudgetExhausted.Error()+", stopping early")
	assert.LessOrEqual(t, plan.TotalSeconds, 60+30)
}

func TestRunNeverOvershootsBudget(t *testing.T) {
	// Every candidate is far longer than the whole evening; the oracle
	// happily returns them all anyway.
	snap := library.NewSnapshot([]models.Track{
		track("tango/pugliese/one.mp3", "Gallo Ciego", "Osvaldo Pugliese", 1959, 110, "6A", 600, "tango"),
		track("tango/pugliese/two.mp3", "La Yumba", "Osvaldo Pugliese", 1946, 112, "6B", 600, "tango"),
		track("tango/pugliese/three.mp3", "Recuerdo", "Osvaldo Pugliese", 1944, 108, "7A", 600, "tango"),
		track("tango/pugliese/four.mp3", "Emancipación", "Osvaldo Pugliese", 1957, 111, "6A", 600, "tango"),
		track("cortinas/jazz.mp3", "Take Five", "Dave Brubeck", 0, 0, "", 30, "cortina"),
	})
	mock := &itesting.MockOracle{TrackFn: pickFirst(4)}
	a := testAssembler(mock, snap)

	events := make(chan Event, 32)
	plan, err := a.Run(context.Background(), RunRequest{
		Minutes:  2,
		Slots:    []models.Slot{{Style: "tango", Size: 4, Role: "rich", Position: 0}},
		Snapshot: snap,
	}, events)
	close(events)
	require.NoError(t, err)

	assert.LessOrEqual(t, plan.TotalSeconds, 2*60+30, "duration stays within the budget plus one filler unit")
	assert.NotEmpty(t, plan.Warnings)
	assert.Contains(t, eventTypes(collect(events)), "done")
}

func TestRunConcurrently(t *testing.T) {
	snap := testSnapshot()
	mock := &itesting.MockOracle{TrackFn: pickFirst(4)}
	a := testAssembler(mock, snap)

	req := RunRequest{
		Minutes:  30,
		Slots:    []models.Slot{{Style: "tango", Size: 4, Role: "classic", Position: 0}},
		Snapshot: snap,
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			events := make(chan Event, 32)
			_, errs[i] = a.Run(context.Background(), req, events)
			close(events)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "run %d", i)
	}
}

func TestRunStopsWhenConsumerGone(t *testing.T) {
	snap := testSnapshot()
	mock := &itesting.MockOracle{TrackFn: pickFirst(4)}
	a := testAssembler(mock, snap)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan Event) // unbuffered, nobody reading
	plan, err := a.Run(ctx, RunRequest{
		Minutes:  30,
		Slots:    []models.Slot{{Style: "tango", Size: 4, Position: 0}},
		Snapshot: snap,
	}, events)

	assert.Nil(t, plan)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.TrackCalls, "no oracle work after the consumer is gone")
}

func TestRunEmptyLibrary(t *testing.T) {
	mock := &itesting.MockOracle{}
	snap := library.NewSnapshot(nil)
	a := testAssembler(mock, snap)

	events := make(chan Event, 4)
	_, err := a.Run(context.Background(), RunRequest{Minutes: 30, Snapshot: snap}, events)
	close(events)
	assert.ErrorIs(t, err, shared.ErrEmptyLibrary)

	got := collect(events)
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Type)
	assert.True(t, got[0].Terminal())
}

func TestRunCatalogMismatchTerminates(t *testing.T) {
	snap := testSnapshot()
	mock := &itesting.MockOracle{}
	a := testAssembler(mock, snap)

	events := make(chan Event, 4)
	_, err := a.Run(context.Background(), RunRequest{
		Minutes:  30,
		Slots:    []models.Slot{{Style: "tango", Size: 4}},
		Entries:  []models.ReferenceEntry{{Path: "nowhere/unknown.mp3"}},
		Snapshot: snap,
	}, events)
	close(events)

	assert.ErrorIs(t, err, shared.ErrCatalogMismatch)
	got := collect(events)
	require.Len(t, got, 1)
	assert.Equal(t, "error", got[0].Type)
}

func TestRunSkipsUnfillableSlot(t *testing.T) {
	snap := testSnapshot()
	mock := &itesting.MockOracle{
		TrackFn: func(req oracle.TrackRequest) (*oracle.TrackResponse, error) { return nil, errors.New("down") },
	}
	a := testAssembler(mock, snap)

	events := make(chan Event, 32)
	plan, err := a.Run(context.Background(), RunRequest{
		Minutes:  30,
		Slots:    []models.Slot{{Style: "vals", Size: 3, Position: 0}},
		Snapshot: snap,
	}, events)
	close(events)
	require.NoError(t, err)

	assert.Empty(t, plan.Tandas)
	types := eventTypes(collect(events))
	assert.Contains(t, types, "warning")
	assert.Contains(t, types, "done", "an empty plan is still a valid outcome")
}
