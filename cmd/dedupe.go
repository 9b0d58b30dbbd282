package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/twhispr/internal/formatter"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/desertthunder/twhispr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Dedupe deletes duplicate tracks and writes a report.
//
// Failures are logged and never change the exit status.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	defer r.finish(cmd)

	if err := r.dedupe(ctx, cmd); err != nil {
		r.logger.Error("dedupe failed", "error", err)
	}
	return nil
}

func (r *Runner) dedupe(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !slices.Contains(formatter.Formats, format) {
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	scope := tasks.DedupeScope{PlaylistID: cmd.String("playlist"), Author: cmd.String("author")}
	if scope.PlaylistID != "" && scope.Author != "" {
		return fmt.Errorf("%w: --playlist and --author cannot be combined", shared.ErrInvalidArgument)
	}

	progressCh, stop := r.watchProgress()
	defer stop()

	engine, err := r.newEngine(ctx, progressCh)
	if err != nil {
		return err
	}

	tracks, err := engine.TracksForScope(ctx, scope)
	if err != nil {
		return err
	}

	opts := tasks.DedupeOpts{
		Workers:   r.config.Dedupe.Workers,
		RateLimit: r.config.Dedupe.RateLimit,
		DryRun:    cmd.Bool("dry-run"),
	}
	if cmd.IsSet("workers") {
		opts.Workers = int(cmd.Int("workers"))
	}

	report, err := engine.Dedupe(ctx, tracks, opts)
	if report != nil {
		r.logger.Info("dedupe finished", "tracks", report.Total, "groups", len(report.Groups),
			"deleted", report.DeletedCount(), "failed", report.FailedCount(), "dry_run", report.DryRun)
		if werr := formatter.WriteReport(r.output, report, format, r.plain); werr != nil {
			return werr
		}
	}
	return err
}

// Playlists lists the author's playlists in the order the resolver sees them.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	defer r.finish(cmd)

	author := cmd.StringArg("author")
	if author == "" {
		return fmt.Errorf("%w: usage: %s", shared.ErrMissingArgument, cmd.UsageText)
	}

	engine, err := r.newEngine(ctx, nil)
	if err != nil {
		return err
	}

	playlists, err := engine.AuthorPlaylists(ctx, author)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	_, err = r.output.Write(formatter.PlaylistsToText(author, playlists, r.plain))
	return err
}
