package tasks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
)

// AuthorPlaylists returns the playlists whose title starts with author, sorted by title.
//
// The query sent to the service is only a hint; the prefix filter is applied here.
func (e *Engine) AuthorPlaylists(ctx context.Context, author string) ([]models.Playlist, error) {
	e.sendProgress(resolvePlaylistUpdate(author))

	playlists, err := e.client.Playlists(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists for %s: %w", shared.ErrTransport, author, err)
	}

	matched := make([]models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if strings.HasPrefix(p.Title, author) {
			matched = append(matched, p)
		}
	}

	slices.SortStableFunc(matched, func(a, b models.Playlist) int {
		return strings.Compare(a.Title, b.Title)
	})
	return matched, nil
}

// CurrentPlaylist returns the author's current playlist: the matching title
// that sorts last. A nil playlist with a nil error means the author has none.
// Its Tracks hold the full track list whenever the service returns one.
//
// Titles compare as strings, so "alice_10" sorts before "alice_2".
func (e *Engine) CurrentPlaylist(ctx context.Context, author string) (*models.Playlist, error) {
	playlists, err := e.AuthorPlaylists(ctx, author)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return nil, nil
	}

	current := playlists[len(playlists)-1]
	if current.Size() <= len(current.Tracks) {
		return &current, nil
	}
	return e.fullPlaylist(ctx, current)
}

// fullPlaylist fetches p by id when its listing embeds fewer tracks than it reports.
//
// The result may still be short of TrackCount when the service hides some
// tracks; callers must not replace the track list of such a playlist.
func (e *Engine) fullPlaylist(ctx context.Context, p models.Playlist) (*models.Playlist, error) {
	full, err := e.client.Playlist(ctx, strconv.FormatInt(p.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlist %s: %w", shared.ErrTransport, p.Title, err)
	}
	if full == nil {
		return &p, nil
	}

	if full.TrackCount < p.TrackCount {
		full.TrackCount = p.TrackCount
	}
	if full.URI == "" {
		full.URI = p.URI
	}
	if full.Title == "" {
		full.Title = p.Title
	}
	return full, nil
}

// FindExisting looks for a track already uploaded for (author, identity) in
// the author's current playlist. A nil track with a nil error means no match.
func (e *Engine) FindExisting(ctx context.Context, author, identity string) (*models.Track, error) {
	playlist, err := e.CurrentPlaylist(ctx, author)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, nil
	}

	title := models.TrackTitle(author, identity)
	for _, t := range playlist.Tracks {
		if t.HasTag(identity) || (e.matchTitle && t.Title == title) {
			track := t
			return &track, nil
		}
	}
	return nil, nil
}
