package main

import (
	"context"
	"fmt"

	"github.com/johntango/milonga/internal/models"
	"github.com/johntango/milonga/internal/planner"
	"github.com/johntango/milonga/internal/shared"
	"github.com/urfave/cli/v3"
)

// Replace suggests a replacement for a single track position.
func (r *Runner) Replace(ctx context.Context, cmd *cli.Command) error {
	p, _, store, err := r.buildEngine()
	if err != nil {
		return err
	}
	snap := store.Snapshot()

	group := make([]models.Track, 0)
	for _, key := range cmd.StringSlice("group") {
		track, ok := snap.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: group track %q not in library", shared.ErrInvalidArgument, key)
		}
		group = append(group, track)
	}

	req := planner.ReplaceRequest{
		Style:      cmd.String("style"),
		Origin:     cmd.String("origin"),
		Homogenize: cmd.Bool("homogenize"),
		Group:      group,
		Avoid:      cmd.StringSlice("avoid"),
		Rejected:   cmd.StringSlice("rejected"),
		TopK:       cmd.Int("top"),
		Snapshot:   snap,
	}
	if prev := cmd.String("prev"); prev != "" {
		if track, ok := snap.Lookup(prev); ok {
			req.Prev = &track
		}
	}
	if next := cmd.String("next"); next != "" {
		if track, ok := snap.Lookup(next); ok {
			req.Next = &track
		}
	}

	result, err := p.Replace(ctx, req)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Replacement")
	r.writePlain("→ %s - %s [%s]\n", result.Replacement.Artist, result.Replacement.Title, shared.FormatDuration(result.Replacement.Duration))
	if result.Broadened != planner.BroadenedNone {
		r.writePlain("  (pool broadened: %s)\n", result.Broadened)
	}

	if len(result.Suggestions) > 0 {
		r.writePlainln("Alternates:")
		for i, track := range result.Suggestions {
			r.writePlain("  %d. %s - %s [%s]\n", i+1, track.Artist, track.Title, shared.FormatDuration(track.Duration))
		}
	}

	return nil
}
