package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
	"golang.org/x/time/rate"
)

// DedupeOpts contains configuration for duplicate deletion.
type DedupeOpts struct {
	Workers   int     // Concurrent deleters (default: 1, max: 10)
	RateLimit float64 // Delete requests per second (default: unlimited)
	DryRun    bool    // Plan without deleting
}

// DedupeScope selects the tracks to deduplicate.
type DedupeScope struct {
	PlaylistID string // tracks of this playlist when set
	Author     string // otherwise the user's tracks, filtered by this tag when set
}

// DeleteFailure is a duplicate that could not be deleted.
type DeleteFailure struct {
	TrackID int64  `json:"track_id"`
	Error   string `json:"error"`
}

// DuplicateGroup is one title shared by more than one track.
type DuplicateGroup struct {
	Title   string          `json:"title"`
	Kept    int64           `json:"kept"`
	Deleted []int64         `json:"deleted"`
	Failed  []DeleteFailure `json:"failed,omitempty"`
	planned []int64
}

// DedupeReport summarizes a dedupe run.
type DedupeReport struct {
	Total  int              `json:"total"`
	Unique int              `json:"unique"`
	DryRun bool             `json:"dry_run"`
	Groups []DuplicateGroup `json:"groups"`
}

// DeletedCount is the number of tracks deleted (or planned for deletion in a dry run).
func (r DedupeReport) DeletedCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Deleted)
	}
	return n
}

// FailedCount is the number of deletions that failed.
func (r DedupeReport) FailedCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Failed)
	}
	return n
}

type deleteJob struct {
	group   int
	trackID int64
}

type deleteResult struct {
	deleteJob
	err error
}

// TracksForScope returns the tracks selected by scope.
func (e *Engine) TracksForScope(ctx context.Context, scope DedupeScope) ([]models.Track, error) {
	if scope.PlaylistID != "" {
		e.sendProgress(fetchTracksUpdate("playlist " + scope.PlaylistID))
		playlist, err := e.client.Playlist(ctx, scope.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch playlist %s: %w", shared.ErrTransport, scope.PlaylistID, err)
		}
		return playlist.Tracks, nil
	}

	e.sendProgress(fetchTracksUpdate("my tracks"))
	tracks, err := e.client.MyTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tracks: %w", shared.ErrTransport, err)
	}
	if scope.Author == "" {
		return tracks, nil
	}

	return slices.DeleteFunc(tracks, func(t models.Track) bool {
		return !t.HasTag(scope.Author)
	}), nil
}

// PlanDuplicates groups tracks by exact title in first-appearance order.
// Only titles with more than one track are returned; the first track of each
// group is kept and the rest are scheduled for deletion.
func PlanDuplicates(tracks []models.Track) (groups []DuplicateGroup, unique int) {
	order := []string{}
	byTitle := map[string][]int64{}
	for _, t := range tracks {
		ids, ok := byTitle[t.Title]
		if !ok {
			order = append(order, t.Title)
		}
		// a track listed twice is still one track
		if !slices.Contains(ids, t.ID) {
			byTitle[t.Title] = append(ids, t.ID)
		}
	}

	for _, title := range order {
		ids := byTitle[title]
		if len(ids) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			Title:   title,
			Kept:    ids[0],
			Deleted: []int64{},
			planned: ids[1:],
		})
	}
	return groups, len(order)
}

// Dedupe keeps the first track of each title and deletes the rest.
//
// Every keep decision is made before the first deletion. Deletions run on a
// worker pool behind a rate limiter; a failed deletion is recorded in its
// group and never stops the others.
func (e *Engine) Dedupe(ctx context.Context, tracks []models.Track, opts DedupeOpts) (*DedupeReport, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}

	groups, unique := PlanDuplicates(tracks)
	report := &DedupeReport{Total: len(tracks), Unique: unique, DryRun: opts.DryRun, Groups: groups}
	if report.Groups == nil {
		report.Groups = []DuplicateGroup{}
	}

	var queue []deleteJob
	for i, g := range report.Groups {
		for _, id := range g.planned {
			queue = append(queue, deleteJob{group: i, trackID: id})
		}
	}
	e.sendProgress(planDuplicatesUpdate(len(report.Groups), len(queue)))

	if opts.DryRun {
		for i := range report.Groups {
			report.Groups[i].Deleted = append(report.Groups[i].Deleted, report.Groups[i].planned...)
		}
		return report, nil
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	jobs := make(chan deleteJob, len(queue))
	results := make(chan deleteResult, len(queue))

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.deleteWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, job := range queue {
		jobs <- job
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		g := &report.Groups[res.group]
		if res.err != nil {
			g.Failed = append(g.Failed, DeleteFailure{TrackID: res.trackID, Error: res.err.Error()})
			e.sendProgress(deleteFailedUpdate(completed, len(queue), g.Title, res.trackID, res.err))
			continue
		}
		g.Deleted = append(g.Deleted, res.trackID)
		e.sendProgress(deleteCompletedUpdate(completed, len(queue), g.Title, res.trackID))
	}

	for i := range report.Groups {
		sortByPlan(&report.Groups[i])
	}
	return report, ctx.Err()
}

// deleteWorker deletes tracks from the jobs channel.
func (e *Engine) deleteWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan deleteJob,
	results chan<- deleteResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- deleteResult{deleteJob: job, err: err}
			continue
		}

		err := e.client.DeleteTrack(ctx, job.trackID)
		e.countDelete(err == nil)
		if err != nil {
			e.logger.Warn("failed to delete duplicate", "track_id", job.trackID, "error", err)
			e.record(ctx, models.Event{Kind: models.EventDeleteFailed, TrackID: job.trackID, Detail: err.Error()})
		} else {
			e.record(ctx, models.Event{Kind: models.EventDuplicateDelete, TrackID: job.trackID})
		}
		results <- deleteResult{deleteJob: job, err: err}
	}
}

// sortByPlan restores planned order after concurrent completion.
func sortByPlan(g *DuplicateGroup) {
	pos := make(map[int64]int, len(g.planned))
	for i, id := range g.planned {
		pos[id] = i
	}
	slices.SortFunc(g.Deleted, func(a, b int64) int { return pos[a] - pos[b] })
	slices.SortFunc(g.Failed, func(a, b DeleteFailure) int { return pos[a.TrackID] - pos[b.TrackID] })
}
