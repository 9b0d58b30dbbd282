package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "twhispr",
		Usage:   "Upload audio assets once and keep them in per-author playlists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (TOML, or YAML for .yml/.yaml)",
				Value:   "config.toml",
				Sources: cli.EnvVars("TWHISPR_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colors in text output",
			},
			&cli.BoolFlag{
				Name:  "debug-http",
				Usage: "Log every request sent to the hosting service",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}
