package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/twhispr/internal/shared"
	tu "github.com/desertthunder/twhispr/internal/testing"
)

func TestCurrentPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("No Playlists", func(t *testing.T) {
		e := newTestEngine(t, tu.NewFakeSoundCloud())
		p, err := e.CurrentPlaylist(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p != nil {
			t.Errorf("expected no playlist, got %s", p.Title)
		}
	})

	t.Run("Filters By Prefix", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.AddPlaylist("alice")
		fake.AddPlaylist("zed")
		fake.AddPlaylist("alice_2")
		fake.AddPlaylist("my alice")

		e := newTestEngine(t, fake)
		p, err := e.CurrentPlaylist(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p == nil || p.Title != "alice_2" {
			t.Fatalf("expected alice_2, got %+v", p)
		}

		all, err := e.AuthorPlaylists(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(all) != 2 || all[0].Title != "alice" {
			t.Errorf("expected [alice alice_2], got %+v", all)
		}
	})

	t.Run("Lexicographic Order Past Nine", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.AddPlaylist("alice_9")
		fake.AddPlaylist("alice_10")

		e := newTestEngine(t, fake)
		p, err := e.CurrentPlaylist(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		// "alice_9" sorts after "alice_10"
		if p.Title != "alice_9" {
			t.Errorf("expected alice_9, got %s", p.Title)
		}
	})

	t.Run("Prefix Includes Longer Names", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.AddPlaylist("alice_2")
		fake.AddPlaylist("alicebob")

		e := newTestEngine(t, fake)
		p, err := e.CurrentPlaylist(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p.Title != "alicebob" {
			t.Errorf("expected alicebob, got %s", p.Title)
		}
	})

	t.Run("Fetches Truncated Listing", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		ids := fillPlaylist(fake, "alice", 150)
		fake.ListingLimit = 2

		e := newTestEngine(t, fake)
		p, err := e.CurrentPlaylist(ctx, "alice")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(p.TrackIDs(), ids) {
			t.Errorf("expected all 150 tracks, got %d", len(p.Tracks))
		}
		if fake.Calls.Playlist != 1 {
			t.Errorf("expected one playlist fetch, got %d", fake.Calls.Playlist)
		}
	})

	t.Run("Complete Listing Not Refetched", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fillPlaylist(fake, "alice", 3)

		e := newTestEngine(t, fake)
		if _, err := e.CurrentPlaylist(ctx, "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fake.Calls.Playlist != 0 {
			t.Errorf("expected no playlist fetch, got %d", fake.Calls.Playlist)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		fake.PlaylistsErr = errors.New("connection reset")

		e := newTestEngine(t, fake)
		if _, err := e.CurrentPlaylist(ctx, "alice"); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})
}

func TestFindExisting(t *testing.T) {
	ctx := context.Background()

	t.Run("Matches Tag Token", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		tr := fake.AddTrack("something else", "12 alice")
		fake.AddPlaylist("alice", tr.ID)

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || got.ID != tr.ID {
			t.Errorf("expected track %d, got %+v", tr.ID, got)
		}
	})

	t.Run("Matches Beyond Truncated Listing", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		var ids []int64
		for range 120 {
			ids = append(ids, fake.AddTrack("other", "").ID)
		}
		tr := fake.AddTrack("alice-12", "12 alice")
		fake.AddPlaylist("alice", append(ids, tr.ID)...)
		fake.ListingLimit = 10

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || got.ID != tr.ID {
			t.Errorf("expected track %d, got %+v", tr.ID, got)
		}
	})

	t.Run("Token Not Substring", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		tr := fake.AddTrack("alice-120", "120 alice")
		fake.AddPlaylist("alice", tr.ID)

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected no match for 12, got %+v", got)
		}
	})

	t.Run("Title Fallback", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		tr := fake.AddTrack("alice-12", "")
		fake.AddPlaylist("alice", tr.ID)

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got == nil || got.ID != tr.ID {
			t.Errorf("expected title match, got %+v", got)
		}

		e = newTestEngine(t, fake, func(o *EngineOpts) { o.MatchTitle = false })
		got, err = e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected no match with title matching off, got %+v", got)
		}
	})

	t.Run("Only Current Playlist Is Scanned", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		old := fake.AddTrack("alice-12", "12 alice")
		fake.AddPlaylist("alice", old.ID)
		fake.AddPlaylist("alice_2", fake.AddTrack("alice-13", "13 alice").ID)

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("expected no match outside the current playlist, got %+v", got)
		}
	})

	t.Run("First Match Wins", func(t *testing.T) {
		fake := tu.NewFakeSoundCloud()
		first := fake.AddTrack("alice-12", "12 alice")
		second := fake.AddTrack("alice-12", "12 alice")
		fake.AddPlaylist("alice", first.ID, second.ID)

		e := newTestEngine(t, fake)
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != first.ID {
			t.Errorf("expected first track %d, got %d", first.ID, got.ID)
		}
	})

	t.Run("No Playlist", func(t *testing.T) {
		e := newTestEngine(t, tu.NewFakeSoundCloud())
		got, err := e.FindExisting(ctx, "alice", "12")
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %+v, %v", got, err)
		}
	})
}
