package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/twhispr/internal/formatter"
	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/repositories"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/urfave/cli/v3"
)

// History prints journal entries, most recent first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	journal, err := r.openJournal()
	if err != nil {
		return err
	}
	if journal == nil {
		return fmt.Errorf("%w: database.path is empty, the journal is disabled", shared.ErrMissingConfig)
	}

	events, err := journal.List(ctx, repositories.EventCriteria{
		Author: cmd.String("author"),
		Kind:   models.EventKind(cmd.String("kind")),
		Limit:  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := formatter.HistoryToJSON(events)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return r.writePlain("%s\n", data)
	}

	_, err = r.output.Write(formatter.HistoryToText(events, r.plain))
	return err
}
