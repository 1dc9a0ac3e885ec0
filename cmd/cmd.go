// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the authorization and export HTTP API",
		Action: r.Serve,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify (PKCE) and print an access token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the credential as JSON",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
		},
	}
}

// generateCommand asks the text generator for a track list
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate a track list from a prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "prompt",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Playlist name used in headers and file names",
				Value: "Generated Playlist",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: txt, md or csv",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the listing to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw generator text and parsed tracks as JSON",
			},
		},
		Action: r.Generate,
	}
}

// exportCommand creates a Spotify playlist from a track list
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a track list to a new Spotify playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Playlist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Spotify access token (see auth login)",
				Sources: cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Numbered track list (1. Title -- Artist)",
			},
			&cli.StringFlag{
				Name:  "prompt",
				Usage: "Generate the track list from a prompt",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create a private playlist",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print progress lines instead of the interactive view",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the track review",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the export result as JSON (implies --plain)",
			},
		},
		Action: r.Export,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:  "path",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
