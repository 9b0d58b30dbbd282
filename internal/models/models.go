package models

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/twhispr/internal/shared"
)

// Asset is a local audio file scheduled for upload.
type Asset struct {
	Path     string
	Identity string // basename without extension, immutable once derived
	Author   string
}

// NewAsset derives an [Asset] from a file path and author.
func NewAsset(path, author string) (Asset, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return Asset{}, fmt.Errorf("%w: author must not be empty", shared.ErrInvalidInput)
	}

	identity := Identity(path)
	if identity == "" {
		return Asset{}, fmt.Errorf("%w: cannot derive identity from path %q", shared.ErrInvalidInput, path)
	}

	return Asset{Path: path, Identity: identity, Author: author}, nil
}

// Identity returns the basename of path without its extension.
func Identity(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title returns the remote title for the asset: "{author}-{identity}".
func (a Asset) Title() string {
	return TrackTitle(a.Author, a.Identity)
}

// TagList returns the space-delimited tag list sent on upload.
func (a Asset) TagList() string {
	return strings.Join([]string{a.Identity, a.Author}, " ")
}

// TrackTitle builds the title shared by every upload for (author, identity).
func TrackTitle(author, identity string) string {
	return author + "-" + identity
}

// Track is a track object owned by the remote service.
type Track struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TagList      string `json:"tag_list"`
	Description  string `json:"description"`
	URI          string `json:"uri"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Tags splits the tag list on whitespace.
func (t Track) Tags() []string {
	return strings.Fields(t.TagList)
}

// HasTag reports whether tok is one of the whitespace separated tags.
//
// Matching is by token equality so "12" never matches a track tagged "120".
func (t Track) HasTag(tok string) bool {
	if tok == "" {
		return false
	}
	return slices.Contains(t.Tags(), tok)
}

// Playlist is a remote collection of tracks. Track order is insertion order.
type Playlist struct {
	ID         int64   `json:"id"`
	URI        string  `json:"uri"`
	Title      string  `json:"title"`
	Sharing    string  `json:"sharing"`
	TrackCount int     `json:"track_count"`
	Tracks     []Track `json:"tracks"`
}

// TrackIDs returns the ids of the playlist's tracks in order.
func (p Playlist) TrackIDs() []int64 {
	ids := make([]int64, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Size is the larger of the reported track count and the number of tracks listed.
//
// Playlist listings may embed a truncated track representation, so the
// reported count wins when it is larger.
func (p Playlist) Size() int {
	return max(p.TrackCount, len(p.Tracks))
}

// EventKind names a journaled operation.
type EventKind string

const (
	EventUploaded        EventKind = "uploaded"
	EventExisting        EventKind = "existing"
	EventRecovered       EventKind = "recovered"
	EventPlaylistCreated EventKind = "playlist_created"
	EventPlaylistSplit   EventKind = "playlist_split"
	EventAttachFailed    EventKind = "attach_failed"
	EventDuplicateDelete EventKind = "duplicate_deleted"
	EventDeleteFailed    EventKind = "delete_failed"
)

// Event is a journal entry describing one remote side effect.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Author    string    `json:"author,omitempty"`
	Identity  string    `json:"identity,omitempty"`
	TrackID   int64     `json:"track_id,omitempty"`
	Playlist  string    `json:"playlist,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the fields required for persistence.
func (e Event) Validate() error {
	if e.Kind == "" {
		return fmt.Errorf("event kind is required")
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("event timestamp is required")
	}
	return nil
}
