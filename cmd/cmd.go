// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/twhispr/internal/formatter"
	"github.com/urfave/cli/v3"
)

// uploadCommand uploads one asset and attaches it to the author's playlist
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload an audio file once and attach it to the author's playlist",
		UsageText: "twhispr upload <file> <author>",
		Description: "Prints only the track id on stdout. Uploading an asset that already exists " +
			"prints the existing id and sends no upload.",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
			&cli.StringArg{Name: "author"},
		},
		Action: r.Upload,
	}
}

// dedupeCommand deletes tracks sharing a title, keeping the first
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dedupe",
		Usage: "Delete duplicate tracks by title, keeping the first of each group",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Deduplicate the tracks of this playlist id",
			},
			&cli.StringFlag{
				Name:    "author",
				Aliases: []string{"a"},
				Usage:   "Deduplicate your tracks tagged with this author",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be deleted without deleting",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: " + strings.Join(formatter.Formats, ", "),
				Value:   formatter.FormatText,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent delete requests (defaults to dedupe.workers)",
			},
		},
		Action: r.Dedupe,
	}
}

// playlistsCommand lists an author's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "playlists",
		Usage:     "List the playlists belonging to an author and mark the current one",
		UsageText: "twhispr playlists <author>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "author"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// historyCommand reads the upload journal
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded uploads, playlist changes and deletions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "author",
				Aliases: []string{"a"},
				Usage:   "Only show entries for this author",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show entries of this kind (e.g. uploaded, attach_failed)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   50,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the journal database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the journal database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
