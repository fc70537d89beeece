// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and configuration.
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
		Action: r.SetupDatabase,
	}
}

// submitCommand creates a processing job for a video URL.
func submitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit a video URL for processing",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
				Max:  1,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Pipeline preset",
				Value: "auto",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Track the job interactively after submission",
			},
		},
		Action: r.Submit,
	}
}

// statusCommand reports the current pipeline position of a job.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the status of a processing job",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Job ID (defaults to the project's recorded job)",
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
		Action: r.Status,
	}
}

// ideasCommand fetches and exports the ranked ideas of a completed job.
func ideasCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ideas",
		Usage: "List ranked ideas extracted from a processed video",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Job ID (defaults to the project's recorded job)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv, or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Ideas,
	}
}

// timelineCommand fetches playback metadata for a job.
func timelineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Show the playback timeline of a processed video",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Job ID (defaults to the project's recorded job)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Timeline,
	}
}

// resetCommand discards the locally recorded job for the configured project.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Forget the tracked job for the configured project",
		Action: r.Reset,
	}
}

// apiCommand handles direct calls against the pipeline backend.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the pipeline backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
						Max:  1,
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
						Max:  1,
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// watchCommand returns the top-level TUI command for interactive job tracking.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Track a processing job interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
				Max:  1,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Pipeline preset for a new submission",
				Value: "auto",
			},
		},
		Action: r.Watch,
	}
}
