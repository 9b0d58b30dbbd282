package services

import (
	"context"
	"io"

	"github.com/desertthunder/twhispr/internal/models"
)

// Client is the remote capability consumed by the upload and dedupe flows.
type Client interface {
	// Playlists returns the user's playlists. The query is a server-side hint only;
	// callers must still filter the result.
	Playlists(ctx context.Context, query string) ([]models.Playlist, error)

	// Playlist returns one playlist with its tracks.
	Playlist(ctx context.Context, id string) (*models.Playlist, error)

	// MyTracks returns every track owned by the authenticated user.
	MyTracks(ctx context.Context) ([]models.Track, error)

	// CreateTrack uploads an asset. A nil track with a nil error means the
	// service accepted the request without describing the result.
	CreateTrack(ctx context.Context, upload TrackUpload) (*models.Track, error)

	// CreatePlaylist creates a playlist holding the given track ids in order.
	CreatePlaylist(ctx context.Context, create PlaylistCreate) (*models.Playlist, error)

	// UpdatePlaylist replaces the playlist's track list.
	UpdatePlaylist(ctx context.Context, uri string, trackIDs []int64) error

	// DeleteTrack deletes a track by id.
	DeleteTrack(ctx context.Context, id int64) error

	// Name returns the name of the service (e.g., "SoundCloud")
	Name() string
}

// TrackUpload is a multipart track creation request.
type TrackUpload struct {
	Title       string
	Description string
	TagList     string
	Filename    string
	ContentType string
	Asset       io.Reader
}

// PlaylistCreate is a playlist creation request.
type PlaylistCreate struct {
	Title    string
	Sharing  string
	TrackIDs []int64
}

type trackRef struct {
	ID int64 `json:"id"`
}

// trackRefs converts ids to the {"id": n} reference list, dropping repeats.
func trackRefs(ids []int64) []trackRef {
	seen := make(map[int64]struct{}, len(ids))
	refs := make([]trackRef, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, trackRef{ID: id})
	}
	return refs
}
