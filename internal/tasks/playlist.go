package tasks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/services"
	"github.com/desertthunder/twhispr/internal/shared"
)

// AttachOutcome describes what [Engine.Attach] did.
type AttachOutcome string

const (
	AttachCreated      AttachOutcome = "created"       // first playlist for the author
	AttachAppended     AttachOutcome = "appended"      // current playlist updated
	AttachUnchanged    AttachOutcome = "unchanged"     // track already in the current playlist
	AttachSplit        AttachOutcome = "split"         // successor playlist created
	AttachUpdateFailed AttachOutcome = "update_failed" // lookup or update failed, track left unattached
)

// AttachResult is the result of [Engine.Attach].
type AttachResult struct {
	Outcome  AttachOutcome
	Playlist string // title of the playlist holding the track
	URI      string
	Err      error // update error for [AttachUpdateFailed]
}

// Attach appends trackID to the author's current playlist.
//
// When the author has no playlist one is created. When the playlist cannot
// take another track, a successor is created holding only trackID. Lookup and
// update failures are logged and reported in the result; only playlist
// creation failures return an error.
func (e *Engine) Attach(ctx context.Context, author string, trackID int64) (*AttachResult, error) {
	unlock := e.locks.lock(author)
	defer unlock()

	logger := e.logger.With("author", author, "track_id", trackID)

	current, err := e.CurrentPlaylist(ctx, author)
	if err != nil {
		return e.attachFailed(ctx, logger, author, trackID, nil, err), nil
	}

	if current == nil {
		created, err := e.createPlaylist(ctx, author, author, trackID)
		if err != nil {
			return nil, err
		}
		logger.Info("playlist created", "playlist", created.Title)
		return e.attached(AttachCreated, created), nil
	}

	if slices.Contains(current.TrackIDs(), trackID) {
		logger.Debug("track already in playlist", "playlist", current.Title)
		e.countAttach(AttachUnchanged)
		return &AttachResult{Outcome: AttachUnchanged, Playlist: current.Title, URI: current.URI}, nil
	}

	ids := appendUnique(current.TrackIDs(), trackID)

	if len(ids) > e.capacity || current.Size() >= e.capacity {
		logger.Info("playlist full", "playlist", current.Title, "tracks", current.Size())
		return e.split(ctx, author, trackID, current)
	}

	// The update replaces the whole list, so every current track must be known.
	if current.Size() > len(current.Tracks) {
		err := fmt.Errorf("listing holds %d of %d tracks", len(current.Tracks), current.Size())
		return e.attachFailed(ctx, logger, author, trackID, current, err), nil
	}

	e.sendProgress(attachTrackUpdate(current.Title, len(ids)))
	if err := e.client.UpdatePlaylist(ctx, current.URI, ids); err != nil {
		return e.attachFailed(ctx, logger, author, trackID, current, err), nil
	}
	return e.attached(AttachAppended, current), nil
}

// attachFailed journals and counts an attach that left the track outside any
// playlist. current is nil when the lookup itself failed.
func (e *Engine) attachFailed(ctx context.Context, logger *log.Logger, author string, trackID int64, current *models.Playlist, err error) *AttachResult {
	res := &AttachResult{Outcome: AttachUpdateFailed}
	if current != nil {
		res.Playlist, res.URI = current.Title, current.URI
		res.Err = fmt.Errorf("%w: %s: %w", shared.ErrPlaylistUpdate, current.Title, err)
	} else {
		res.Err = fmt.Errorf("%w: %w", shared.ErrPlaylistUpdate, err)
	}

	logger.Warn("failed to attach track", "playlist", res.Playlist, "error", err)
	e.record(ctx, models.Event{
		Kind:     models.EventAttachFailed,
		Author:   author,
		TrackID:  trackID,
		Playlist: res.Playlist,
		Detail:   err.Error(),
	})
	e.countAttach(AttachUpdateFailed)
	return res
}

// split creates the successor of current holding only trackID.
func (e *Engine) split(ctx context.Context, author string, trackID int64, current *models.Playlist) (*AttachResult, error) {
	title := SuccessorTitle(author, current.Title)
	created, err := e.createPlaylist(ctx, author, title, trackID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is full: %w", shared.ErrPlaylistCapacity, current.Title, err)
	}

	e.record(ctx, models.Event{
		Kind:     models.EventPlaylistSplit,
		Author:   author,
		TrackID:  trackID,
		Playlist: created.Title,
		Detail:   "successor of " + current.Title,
	})
	return e.attached(AttachSplit, created), nil
}

func (e *Engine) createPlaylist(ctx context.Context, author, title string, trackID int64) (*models.Playlist, error) {
	e.sendProgress(createPlaylistUpdate(title))

	created, err := e.client.CreatePlaylist(ctx, services.PlaylistCreate{
		Title:    title,
		Sharing:  e.sharing,
		TrackIDs: []int64{trackID},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrPlaylistCreate, title, err)
	}
	if created == nil {
		return nil, fmt.Errorf("%w: %s: empty response", shared.ErrPlaylistCreate, title)
	}
	if created.Title == "" {
		created.Title = title
	}

	e.record(ctx, models.Event{Kind: models.EventPlaylistCreated, Author: author, TrackID: trackID, Playlist: created.Title})
	return created, nil
}

func (e *Engine) attached(outcome AttachOutcome, p *models.Playlist) *AttachResult {
	e.countAttach(outcome)
	return &AttachResult{Outcome: outcome, Playlist: p.Title, URI: p.URI}
}

// SuccessorTitle names the playlist that follows current: "{author}_{N+1}"
// when current carries the suffix "{author}_{N}", otherwise "{author}_2".
func SuccessorTitle(author, current string) string {
	marker := author + "_"
	for rest := current; ; {
		i := strings.Index(rest, marker)
		if i < 0 {
			break
		}
		rest = rest[i+len(marker):]

		digits := rest[:len(rest)-len(strings.TrimLeftFunc(rest, unicode.IsDigit))]
		if n, err := strconv.Atoi(digits); err == nil {
			return marker + strconv.Itoa(n+1)
		}
	}
	return marker + "2"
}

// appendUnique appends id to ids and drops repeated ids, keeping first occurrences.
func appendUnique(ids []int64, id int64) []int64 {
	seen := make(map[int64]struct{}, len(ids)+1)
	out := make([]int64, 0, len(ids)+1)
	for _, v := range append(slices.Clone(ids), id) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
