package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/johntango/milonga/internal/formatter"
	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/planner"
	"github.com/johntango/milonga/internal/roles"
	"github.com/urfave/cli/v3"
)

// Plan assembles a tanda sequence and streams progress to the output.
func (r *Runner) Plan(ctx context.Context, cmd *cli.Command) error {
	_, assembler, store, err := r.buildEngine()
	if err != nil {
		return err
	}
	snap := store.Snapshot()

	schedule, err := r.resolveSchedule(cmd, snap)
	if err != nil {
		return err
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	var entries []models.ReferenceEntry
	if catalogPath := cmd.String("catalog"); catalogPath != "" {
		entries, err = loadCatalog(catalogPath)
		if err != nil {
			return err
		}
		r.logger.Info("reference catalog loaded", "path", catalogPath, "entries", len(entries))
	}

	rawJSON := cmd.Bool("json")
	events := make(chan planner.Event, 50)
	done := make(chan struct{})
	encoder := json.NewEncoder(r.output)

	go func() {
		defer close(done)
		for ev := range events {
			if rawJSON {
				encoder.Encode(ev)
				continue
			}
			r.renderEvent(ev)
		}
	}()

	plan, runErr := assembler.Run(ctx, planner.RunRequest{
		Minutes:  schedule.Minutes,
		Slots:    schedule.Slots(),
		Entries:  entries,
		Snapshot: snap,
	}, events)
	close(events)
	<-done

	if runErr != nil {
		return runErr
	}

	if name := cmd.String("save"); name != "" {
		plans, err := r.openPlans()
		if err != nil {
			return err
		}
		saved := models.NewSavedPlan(name, schedule.Minutes, *plan)
		if err := plans.Create(saved); err != nil {
			return fmt.Errorf("failed to save plan: %w", err)
		}
		r.logger.Info("plan saved", "name", name, "sequence", saved.Sequence())
		if !rawJSON {
			r.writePlain("Saved as #%d %s\n", saved.Sequence(), name)
		}
	}

	if path := cmd.String("export"); path != "" {
		written, err := formatter.WriteExport(*plan, cmd.String("format"), path, cmd.String("save"))
		if err != nil {
			return err
		}
		if !rawJSON {
			r.writePlain("Exported to %s\n", written)
		}
	}

	return nil
}

// renderEvent writes one generation event in human form.
func (r *Runner) renderEvent(ev planner.Event) {
	switch ev.Type {
	case "start":
		r.writePlain("Planning %d tandas over %d minutes...\n\n", ev.Slots, ev.Minutes)
	case "tanda":
		if ev.Index != nil && ev.Tanda != nil {
			r.writePlain("✓ Tanda %d: %s", *ev.Index+1, ev.Tanda.Style)
			if ev.Tanda.Role != "" {
				r.writePlain(" / %s", ev.Tanda.Role)
			}
			r.writePlain(" (%d tracks)\n", ev.Tanda.RealCount())
		}
	case "warning":
		r.writePlain("⚠ %s\n", ev.Message)
	case "quality":
		r.writePlain("\n%s\n", ev.Message)
	case "summary":
		r.writePlain("%s\n", ev.Message)
	case "done":
		if ev.Display != nil {
			r.writePlainHeader("Plan Complete")
			r.writePlain("%s\n", ev.Display.Timeline)
			r.writePlain("%s\n", ev.Display.Summary)
		}
	case "error":
		r.writePlain("✗ %s\n", ev.Error)
	}
}

// resolveSchedule builds the slot schedule from flags, a schedule file, or
// the library's default rotation, in that order of preference.
func (r *Runner) resolveSchedule(cmd *cli.Command, snap *library.Snapshot) (*roles.Schedule, error) {
	minutes := cmd.Int("minutes")
	if minutes <= 0 {
		minutes = r.config.Plan.Minutes
	}
	if minutes <= 0 {
		minutes = 180
	}

	if styles := cmd.StringSlice("style"); len(styles) > 0 {
		return &roles.Schedule{Minutes: minutes, Pattern: styles}, nil
	}

	schedulePath := cmd.String("schedule")
	if schedulePath == "" {
		schedulePath = r.config.Plan.SchedulePath
	}
	if schedulePath != "" {
		schedule, err := roles.LoadSchedule(schedulePath)
		if err != nil {
			return nil, err
		}
		if schedule.Minutes == 0 {
			schedule.Minutes = minutes
		}
		return schedule, nil
	}

	return &roles.Schedule{Minutes: minutes, Pattern: planner.DefaultPattern(snap, minutes)}, nil
}

// loadCatalog reads a JSON array of reference entries.
func loadCatalog(path string) ([]models.ReferenceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var entries []models.ReferenceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return entries, nil
}
