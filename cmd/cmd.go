// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// planCommand generates a plan from the configured library.
func planCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Assemble a tanda sequence for an evening",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "minutes",
				Aliases: []string{"m"},
				Usage:   "Time budget in minutes",
			},
			&cli.StringSliceFlag{
				Name:    "style",
				Aliases: []string{"s"},
				Usage:   "Slot style, repeatable (e.g. -s tango -s vals)",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Path to a YAML schedule file",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Path to a JSON reference catalog restricting the working set",
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Persist the finished plan under this name",
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "Write the plan to this file after assembly",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format: csv, markdown, or text",
				Value: "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Stream raw NDJSON events instead of rendered output",
			},
		},
		Action: r.Plan,
	}
}

// replaceCommand swaps a single track inside an existing tanda.
func replaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "replace",
		Usage: "Suggest a replacement for one track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "style",
				Usage:    "Style of the tanda being repaired",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Orchestra to stay within while the pool holds",
			},
			&cli.BoolFlag{
				Name:  "homogenize",
				Usage: "Target the dominant orchestra of --group",
			},
			&cli.StringSliceFlag{
				Name:  "group",
				Usage: "Tracks already in the tanda, repeatable",
			},
			&cli.StringFlag{
				Name:  "prev",
				Usage: "Track preceding the open position",
			},
			&cli.StringFlag{
				Name:  "next",
				Usage: "Track following the open position",
			},
			&cli.StringSliceFlag{
				Name:  "avoid",
				Usage: "Tracks that must not come back, repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "rejected",
				Usage: "Tracks already rejected for this position, repeatable",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of alternates to list",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Replace,
	}
}

// libraryCommand handles track library operations.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Track library operations",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Scan an audio directory and write the library file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to scan (defaults to library.scan_dir)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Library file to write (defaults to library.path)",
					},
				},
				Action: r.LibraryScan,
			},
			{
				Name:   "styles",
				Usage:  "List styles and track counts in the library",
				Action: r.LibraryStyles,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
			},
			{
				Name:   "reload",
				Usage:  "Reload the library if the file changed on disk",
				Action: r.LibraryReload,
			},
		},
	}
}

// plansCommand browses and exports saved plans.
func plansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "Saved plan operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved plans",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Filter by plan name",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlansList,
			},
			{
				Name:  "show",
				Usage: "Show one saved plan",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlansShow,
			},
			{
				Name:  "export",
				Usage: "Export one saved plan to a file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, or text",
						Value: "text",
					},
				},
				Action: r.PlansExport,
			},
		},
	}
}

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the plan API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Bind port (defaults to server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive plan browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for plan browsing and generation",
		Action:  r.TUI,
	}
}
