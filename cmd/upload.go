package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/desertthunder/twhispr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Upload uploads one asset and prints its track id.
//
// Stdout carries nothing but the id so the command can be used from scripts.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	defer r.finish(cmd)

	path := cmd.StringArg("file")
	author := cmd.StringArg("author")
	if path == "" || author == "" {
		return fmt.Errorf("%w: usage: %s", shared.ErrMissingArgument, cmd.UsageText)
	}

	asset, err := models.NewAsset(path, author)
	if err != nil {
		return err
	}

	progressCh, stop := r.watchProgress()
	engine, err := r.newEngine(ctx, progressCh)
	if err != nil {
		stop()
		return err
	}

	result, err := engine.Upload(ctx, asset)
	stop()
	if err != nil {
		return err
	}

	logger := r.logger.With("track_id", result.TrackID, "outcome", result.Outcome)
	if a := result.Attach; a != nil {
		logger = logger.With("playlist", a.Playlist, "attach", a.Outcome)
		if a.Outcome == tasks.AttachUpdateFailed {
			logger.Warn("track is not in a playlist", "error", a.Err)
		}
	}
	logger.Info("upload complete")

	return r.writePlain("%d\n", result.TrackID)
}
