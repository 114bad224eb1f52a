package ui

import (
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/planner"
)

// plansLoadedMsg carries the saved plan listing into the model.
type plansLoadedMsg struct {
	plans []*models.SavedPlan
	err   error
}

// runEventMsg carries one generation event into the model.
type runEventMsg planner.Event

// runCompleteMsg carries the finished run into the model.
type runCompleteMsg struct {
	plan *models.Plan
	err  error
}
