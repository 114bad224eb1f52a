package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/johntango/milonga/internal/formatter"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlansList lists saved plans.
func (r *Runner) PlansList(ctx context.Context, cmd *cli.Command) error {
	plans, err := r.openPlans()
	if err != nil {
		return err
	}

	var criteria map[string]any
	if name := cmd.String("name"); name != "" {
		criteria = map[string]any{"name": name}
	}

	saved, err := plans.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type planSummary struct {
			ID       string `json:"id"`
			Sequence int    `json:"sequence"`
			Name     string `json:"name"`
			Minutes  int    `json:"minutes"`
			Tandas   int    `json:"tandas"`
		}
		summaries := make([]planSummary, 0, len(saved))
		for _, p := range saved {
			summaries = append(summaries, planSummary{
				ID:       p.ID(),
				Sequence: p.Sequence(),
				Name:     p.Name(),
				Minutes:  p.Minutes(),
				Tandas:   len(p.Plan().Tandas),
			})
		}
		return r.writeJSON(summaries, true)
	}

	if len(saved) == 0 {
		r.writePlain("No saved plans\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Saved Plans (%d)", len(saved)))
	for _, p := range saved {
		plan := p.Plan()
		total := plan.TotalSeconds
		if total == 0 {
			total = plan.Duration()
		}
		r.writePlain("#%-3d %-30s %d tandas, %s\n", p.Sequence(), p.Name(), len(plan.Tandas), shared.FormatDuration(total))
	}
	return nil
}

// PlansShow renders one saved plan.
func (r *Runner) PlansShow(ctx context.Context, cmd *cli.Command) error {
	saved, err := r.lookupPlan(cmd.StringArg("ref"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"id":       saved.ID(),
			"sequence": saved.Sequence(),
			"name":     saved.Name(),
			"minutes":  saved.Minutes(),
			"plan":     saved.Plan(),
		}, cmd.Bool("pretty"))
	}

	plan := saved.Plan()
	r.writePlainHeader(fmt.Sprintf("#%d %s", saved.Sequence(), saved.Name()))
	r.writePlain("%s\n", formatter.Timeline(plan))
	r.writePlain("%s\n", formatter.Summary(plan))
	return nil
}

// PlansExport writes one saved plan to a file.
func (r *Runner) PlansExport(ctx context.Context, cmd *cli.Command) error {
	saved, err := r.lookupPlan(cmd.StringArg("ref"))
	if err != nil {
		return err
	}

	written, err := formatter.WriteExport(saved.Plan(), cmd.String("format"), cmd.String("output"), saved.Name())
	if err != nil {
		return err
	}
	r.writePlain("✓ Exported #%d %s to %s\n", saved.Sequence(), saved.Name(), written)
	return nil
}

// lookupPlan resolves a saved plan by sequence number or id.
func (r *Runner) lookupPlan(ref string) (*models.SavedPlan, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: plan reference required", shared.ErrMissingArgument)
	}

	plans, err := r.openPlans()
	if err != nil {
		return nil, err
	}

	if seq, convErr := strconv.Atoi(ref); convErr == nil {
		return plans.GetBySequence(seq)
	}
	return plans.Get(ref)
}
