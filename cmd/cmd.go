// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func playlistFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Source (Spotify) playlist ID, overrides configuration",
		},
		&cli.StringFlag{
			Name:    "dest",
			Aliases: []string{"d"},
			Usage:   "Destination (YouTube) playlist ID, overrides configuration",
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Set up configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a starter configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles OAuth2 authentication flows.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with streaming services",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthSpotify,
			},
		},
	}
}

// syncCommand handles playlist reconciliation operations.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the destination playlist with the source playlist",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a full reconciliation: fetch, resolve, diff, apply",
				Flags:  playlistFlags(),
				Action: r.SyncRun,
			},
			{
				Name:  "plan",
				Usage: "Compute the operation plan without modifying the destination",
				Flags: append(playlistFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				),
				Action: r.SyncPlan,
			},
			{
				Name:  "status",
				Usage: "Show the most recent run's status record",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SyncStatus,
			},
		},
	}
}

// cacheCommand manages the resolution cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the track resolution cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show resolution cache statistics",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:   "prune",
				Usage:  "Remove expired resolution cache entries",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CachePrune,
			},
			{
				Name:   "clear",
				Usage:  "Remove all resolution cache entries",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}
