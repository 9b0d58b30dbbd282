package testing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/services"
)

const fakeBaseURL = "https://api.soundcloud.test"

// FakeCalls counts requests made against a [FakeSoundCloud].
type FakeCalls struct {
	Playlists      int
	Playlist       int
	MyTracks       int
	CreateTrack    int
	CreatePlaylist int
	UpdatePlaylist int
	DeleteTrack    int
}

// FakeSoundCloud is an in-memory [services.Client].
//
// Error fields are returned from the matching method. CreateTrackErr combined
// with CommitOnError models a gateway timeout for an upload the server still
// committed.
type FakeSoundCloud struct {
	mu        sync.Mutex
	nextID    int64
	tracks    []models.Track
	playlists []*models.Playlist

	PlaylistsErr      error
	MyTracksErr       error
	CreateTrackErr    error
	CommitOnError     bool
	CreateTrackNil    bool
	CreatePlaylistErr error
	UpdateErr         error
	DeleteErrs        map[int64]error

	// PlaylistsErrAfter lets that many Playlists calls succeed before PlaylistsErr applies.
	PlaylistsErrAfter int

	// ListingLimit truncates the tracks embedded in Playlists results, as the
	// real listing does. Playlist still returns every track. Zero disables it.
	ListingLimit int

	Calls   FakeCalls
	Deleted []int64
	Updates [][]int64
}

// NewFakeSoundCloud creates an empty fake. Generated ids start at 1000.
func NewFakeSoundCloud() *FakeSoundCloud {
	return &FakeSoundCloud{nextID: 1000, DeleteErrs: map[int64]error{}}
}

func (f *FakeSoundCloud) Name() string { return "fake" }

func (f *FakeSoundCloud) id() int64 {
	f.nextID++
	return f.nextID
}

// AddTrack stores a track owned by the user and returns it.
func (f *FakeSoundCloud) AddTrack(title, tagList string) models.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTrack(f.id(), title, tagList)
}

// AddTrackWithID stores a track with a fixed id.
func (f *FakeSoundCloud) AddTrackWithID(id int64, title, tagList string) models.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTrack(id, title, tagList)
}

func (f *FakeSoundCloud) addTrack(id int64, title, tagList string) models.Track {
	t := models.Track{
		ID:      id,
		Title:   title,
		TagList: tagList,
		URI:     fmt.Sprintf("%s/tracks/%d", fakeBaseURL, id),
	}
	f.tracks = append(f.tracks, t)
	return t
}

// AddPlaylist stores a playlist holding the given track ids.
func (f *FakeSoundCloud) AddPlaylist(title string, trackIDs ...int64) models.Playlist {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.addPlaylist(title, "public", trackIDs)
}

// SetTrackCount overrides the reported count of a playlist, as the service
// does when some of its tracks are hidden from every listing.
func (f *FakeSoundCloud) SetTrackCount(title string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.byTitle(title); p != nil {
		p.TrackCount = n
	}
}

// PlaylistByTitle returns a copy of the playlist with the given title.
func (f *FakeSoundCloud) PlaylistByTitle(title string) (models.Playlist, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.byTitle(title); p != nil {
		return clonePlaylist(p), true
	}
	return models.Playlist{}, false
}

// Tracks returns a copy of the user's tracks.
func (f *FakeSoundCloud) Tracks() []models.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tracks)
}

func (f *FakeSoundCloud) byTitle(title string) *models.Playlist {
	for _, p := range f.playlists {
		if p.Title == title {
			return p
		}
	}
	return nil
}

func (f *FakeSoundCloud) addPlaylist(title, sharing string, trackIDs []int64) *models.Playlist {
	id := f.id()
	p := &models.Playlist{
		ID:      id,
		URI:     fmt.Sprintf("%s/playlists/%d", fakeBaseURL, id),
		Title:   title,
		Sharing: sharing,
	}
	f.setTracks(p, trackIDs)
	f.playlists = append(f.playlists, p)
	return p
}

func (f *FakeSoundCloud) setTracks(p *models.Playlist, trackIDs []int64) {
	p.Tracks = make([]models.Track, 0, len(trackIDs))
	for _, id := range trackIDs {
		p.Tracks = append(p.Tracks, f.lookup(id))
	}
	p.TrackCount = len(p.Tracks)
}

func (f *FakeSoundCloud) lookup(id int64) models.Track {
	for _, t := range f.tracks {
		if t.ID == id {
			return t
		}
	}
	return models.Track{ID: id}
}

func clonePlaylist(p *models.Playlist) models.Playlist {
	c := *p
	c.Tracks = slices.Clone(p.Tracks)
	return c
}

func statusError(code int, method, path string) error {
	return &services.APIError{StatusCode: code, Method: method, Path: path, Message: http.StatusText(code)}
}

// Playlists returns every playlist regardless of query.
func (f *FakeSoundCloud) Playlists(ctx context.Context, query string) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.Playlists++
	if f.PlaylistsErr != nil && f.Calls.Playlists > f.PlaylistsErrAfter {
		return nil, f.PlaylistsErr
	}

	out := make([]models.Playlist, 0, len(f.playlists))
	for _, p := range f.playlists {
		c := clonePlaylist(p)
		if f.ListingLimit > 0 && len(c.Tracks) > f.ListingLimit {
			c.Tracks = c.Tracks[:f.ListingLimit]
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *FakeSoundCloud) Playlist(ctx context.Context, id string) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.Playlist++

	for _, p := range f.playlists {
		if strconv.FormatInt(p.ID, 10) == id {
			c := clonePlaylist(p)
			return &c, nil
		}
	}
	return nil, statusError(http.StatusNotFound, http.MethodGet, "/me/playlists/"+id)
}

func (f *FakeSoundCloud) MyTracks(ctx context.Context) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.MyTracks++
	if f.MyTracksErr != nil {
		return nil, f.MyTracksErr
	}
	return slices.Clone(f.tracks), nil
}

func (f *FakeSoundCloud) CreateTrack(ctx context.Context, upload services.TrackUpload) (*models.Track, error) {
	if upload.Asset != nil {
		if _, err := io.Copy(io.Discard, upload.Asset); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.CreateTrack++

	if f.CreateTrackErr != nil {
		if f.CommitOnError {
			f.addTrack(f.id(), upload.Title, upload.TagList)
		}
		return nil, f.CreateTrackErr
	}
	if f.CreateTrackNil {
		return nil, nil
	}

	t := f.addTrack(f.id(), upload.Title, upload.TagList)
	t.Description = upload.Description
	f.tracks[len(f.tracks)-1] = t
	return &t, nil
}

func (f *FakeSoundCloud) CreatePlaylist(ctx context.Context, create services.PlaylistCreate) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.CreatePlaylist++
	if f.CreatePlaylistErr != nil {
		return nil, f.CreatePlaylistErr
	}

	c := clonePlaylist(f.addPlaylist(create.Title, create.Sharing, create.TrackIDs))
	return &c, nil
}

func (f *FakeSoundCloud) UpdatePlaylist(ctx context.Context, uri string, trackIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.UpdatePlaylist++
	f.Updates = append(f.Updates, slices.Clone(trackIDs))
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	for _, p := range f.playlists {
		if p.URI != uri {
			continue
		}
		f.setTracks(p, trackIDs)
		return nil
	}
	return statusError(http.StatusNotFound, http.MethodPut, uri)
}

func (f *FakeSoundCloud) DeleteTrack(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls.DeleteTrack++
	if err := f.DeleteErrs[id]; err != nil {
		return err
	}

	idx := slices.IndexFunc(f.tracks, func(t models.Track) bool { return t.ID == id })
	if idx < 0 {
		return statusError(http.StatusNotFound, http.MethodDelete, fmt.Sprintf("/me/tracks/%d", id))
	}
	f.tracks = slices.Delete(f.tracks, idx, idx+1)
	for _, p := range f.playlists {
		p.Tracks = slices.DeleteFunc(p.Tracks, func(t models.Track) bool { return t.ID == id })
		p.TrackCount = len(p.Tracks)
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

var _ services.Client = (*FakeSoundCloud)(nil)
