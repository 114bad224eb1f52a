package main

import (
	"context"
	"fmt"

	"github.com/johntango/milonga/internal/library"
	"github.com/johntango/milonga/internal/shared"
	"github.com/urfave/cli/v3"
)

// LibraryScan walks an audio directory, reads tags, and writes the library file.
func (r *Runner) LibraryScan(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Library.ScanDir
	}
	if dir == "" {
		return fmt.Errorf("%w: --dir or library.scan_dir must be set", shared.ErrMissingArgument)
	}

	output := cmd.String("output")
	if output == "" {
		output = r.config.Library.Path
	}
	if output == "" {
		return fmt.Errorf("%w: --output or library.path must be set", shared.ErrMissingConfig)
	}

	r.logger.Info("scanning audio directory", "dir", dir)
	tracks, err := library.Scan(ctx, dir, r.logger)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no audio files found under %s", shared.ErrEmptyLibrary, dir)
	}

	if err := library.Write(output, tracks); err != nil {
		return err
	}

	snap := library.NewSnapshot(tracks)
	r.writePlain("✓ Scanned %d tracks into %s\n", snap.Size(), output)
	for _, style := range snap.Styles() {
		r.writePlain("  %-10s %d\n", style, len(snap.Style(style)))
	}
	return nil
}

// LibraryStyles lists styles and track counts.
func (r *Runner) LibraryStyles(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}
	snap := store.Snapshot()

	if cmd.Bool("json") {
		type styleInfo struct {
			Name   string `json:"name"`
			Tracks int    `json:"tracks"`
		}
		styles := make([]styleInfo, 0)
		for _, style := range snap.Styles() {
			styles = append(styles, styleInfo{Name: style, Tracks: len(snap.Style(style))})
		}
		return r.writeJSON(map[string]any{"styles": styles, "tracks": snap.Size()}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Library: %d tracks", snap.Size()))
	for _, style := range snap.Styles() {
		r.writePlain("%-10s %d\n", style, len(snap.Style(style)))
	}
	return nil
}

// LibraryReload reloads the library when the file changed on disk.
func (r *Runner) LibraryReload(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	reloaded, err := store.ReloadIfChanged()
	if err != nil {
		return err
	}
	if reloaded {
		r.writePlain("✓ Library reloaded: %d tracks\n", store.Snapshot().Size())
	} else {
		r.writePlain("Library unchanged\n")
	}
	return nil
}
