// Package planner assembles tanda sequences from a library snapshot.
//
// A run walks the schedule slot by slot: pick an origin, ask the oracle to
// fill the tanda from a restricted candidate list, validate the answer, and
// emit one event per produced group. The oracle is never trusted; every
// anomaly degrades into a placeholder plus warning so the caller gets a
// partial, explainable plan instead of a hard failure.
package planner

import (
	"fmt"

	"github.com/johntango/milonga/internal/models"
)

// Event is one line of the generation stream. Every event carries Type;
// the remaining fields are populated per type and omitted otherwise, so
// each marshaled line parses independently.
type Event struct {
	Type string `json:"type"`

	// start
	Minutes int   `json:"minutes,omitempty"`
	Slots   int   `json:"slots,omitempty"`
	Sizes   []int `json:"sizes,omitempty"`

	// tanda
	Index            *int          `json:"index,omitempty"`
	RemainingSeconds *int          `json:"remainingSeconds,omitempty"`
	Tanda            *models.Tanda `json:"tanda,omitempty"`

	// warning, quality, summary
	Message string `json:"message,omitempty"`

	// done
	Plan    *models.Plan `json:"plan,omitempty"`
	Display *Display     `json:"display,omitempty"`

	// error
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Display carries pre-rendered human-readable views of a finished plan so
// thin consumers can show something without reimplementing formatting.
type Display struct {
	Timeline string `json:"timeline"`
	Summary  string `json:"summary"`
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	return e.Type == "done" || e.Type == "error"
}

func startEvent(minutes int, slots []models.Slot) Event {
	sizes := make([]int, len(slots))
	for i, s := range slots {
		sizes[i] = s.Size
	}
	return Event{Type: "start", Minutes: minutes, Slots: len(slots), Sizes: sizes}
}

func tandaEvent(index, remaining int, tanda models.Tanda) Event {
	return Event{
		Type:             "tanda",
		Index:            &index,
		RemainingSeconds: &remaining,
		Tanda:            &tanda,
	}
}

func warningEvent(format string, args ...any) Event {
	return Event{Type: "warning", Message: fmt.Sprintf(format, args...)}
}

func qualityEvent(format string, args ...any) Event {
	return Event{Type: "quality", Message: fmt.Sprintf(format, args...)}
}

func summaryEvent(format string, args ...any) Event {
	return Event{Type: "summary", Message: fmt.Sprintf(format, args...)}
}

func doneEvent(plan models.Plan, display Display) Event {
	return Event{Type: "done", Plan: &plan, Display: &display}
}

func errorEvent(err error, details string) Event {
	return Event{Type: "error", Error: err.Error(), Details: details}
}
