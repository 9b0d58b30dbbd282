package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/services"
	"github.com/desertthunder/twhispr/internal/shared"
)

// Outcome describes how [Engine.Upload] obtained its track id.
type Outcome string

const (
	OutcomeUploaded  Outcome = "uploaded"  // created by this call
	OutcomeExisting  Outcome = "existing"  // found by identity, nothing sent
	OutcomeRecovered Outcome = "recovered" // create timed out but the track was committed
)

// UploadResult is the result of a successful [Engine.Upload].
type UploadResult struct {
	TrackID int64
	Outcome Outcome
	Attach  *AttachResult // nil for [OutcomeExisting]
}

// Upload ensures asset exists remotely exactly once and is attached to the
// author's playlist.
//
// An existing match returns immediately. A gateway timeout on create is
// resolved by searching the user's tracks for the expected title.
func (e *Engine) Upload(ctx context.Context, asset models.Asset) (*UploadResult, error) {
	logger := e.logger.With("author", asset.Author, "identity", asset.Identity)

	existing, err := e.FindExisting(ctx, asset.Author, asset.Identity)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug("track already uploaded", "track_id", existing.ID)
		e.record(ctx, models.Event{
			Kind:     models.EventExisting,
			Author:   asset.Author,
			Identity: asset.Identity,
			TrackID:  existing.ID,
		})
		e.countUpload(OutcomeExisting)
		return &UploadResult{TrackID: existing.ID, Outcome: OutcomeExisting}, nil
	}

	trackID, outcome, err := e.createTrack(ctx, asset)
	if err != nil {
		return nil, err
	}
	logger.Info("track uploaded", "track_id", trackID, "outcome", outcome)

	kind := models.EventUploaded
	if outcome == OutcomeRecovered {
		kind = models.EventRecovered
	}
	e.record(ctx, models.Event{Kind: kind, Author: asset.Author, Identity: asset.Identity, TrackID: trackID})
	e.countUpload(outcome)

	attach, err := e.Attach(ctx, asset.Author, trackID)
	if err != nil {
		return nil, fmt.Errorf("track %d uploaded but not attached: %w", trackID, err)
	}

	return &UploadResult{TrackID: trackID, Outcome: outcome, Attach: attach}, nil
}

func (e *Engine) createTrack(ctx context.Context, asset models.Asset) (int64, Outcome, error) {
	f, err := os.Open(asset.Path)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	filename := filepath.Base(asset.Path)
	upload := services.TrackUpload{
		Title:       asset.Title(),
		Description: asset.Identity,
		TagList:     asset.TagList(),
		Filename:    filename,
		ContentType: services.DetectContentType(f, filename),
		Asset:       f,
	}

	e.sendProgress(uploadTrackUpdate(upload.Title))
	track, err := e.client.CreateTrack(ctx, upload)
	switch {
	case services.IsStatus(err, http.StatusGatewayTimeout):
		e.logger.Warn("gateway timeout on upload, checking for committed track", "title", upload.Title)
		id, recErr := e.recoverTrack(ctx, upload.Title)
		if recErr != nil {
			return 0, "", errors.Join(recErr, err)
		}
		return id, OutcomeRecovered, nil
	case err != nil:
		if errors.Is(err, shared.ErrTransport) {
			return 0, "", fmt.Errorf("failed to upload %s: %w", upload.Title, err)
		}
		return 0, "", fmt.Errorf("%w: failed to upload %s: %w", shared.ErrTransport, upload.Title, err)
	case track == nil || track.ID == 0:
		return 0, "", fmt.Errorf("%w: %s", shared.ErrMissingTrack, upload.Title)
	}

	return track.ID, OutcomeUploaded, nil
}

// recoverTrack searches the user's tracks for an exact title after an
// ambiguous create.
func (e *Engine) recoverTrack(ctx context.Context, title string) (int64, error) {
	e.sendProgress(recoverUploadUpdate(title))

	tracks, err := e.client.MyTracks(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w: failed to list tracks: %w", shared.ErrAmbiguousUpload, shared.ErrTransport, err)
	}

	for _, t := range tracks {
		if t.Title == title && t.ID != 0 {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %w: %s not found in my tracks", shared.ErrAmbiguousUpload, shared.ErrTransport, title)
}
