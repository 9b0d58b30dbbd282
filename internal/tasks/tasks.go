// package tasks implements the upload-and-attach protocol and duplicate cleanup.
//
// The core abstraction is Engine, which resolves identities, uploads assets, maintains author playlists and deletes duplicate tracks.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/services"
	"github.com/desertthunder/twhispr/internal/shared"
)

// PlaylistCapacity is the most track references a single playlist update may carry.
const PlaylistCapacity = 200

// Journal records remote side effects. Implementations must not be consulted
// for identity decisions.
type Journal interface {
	Record(ctx context.Context, event models.Event) error
}

// Recorder counts operation outcomes.
type Recorder interface {
	Upload(outcome string)
	Attach(outcome string)
	Delete(ok bool)
}

// EngineOpts configures an [Engine]. Zero values fall back to [DefaultEngineOpts].
type EngineOpts struct {
	Capacity   int    // playlist capacity, capped at [PlaylistCapacity]
	Sharing    string // sharing mode for created playlists
	MatchTitle bool   // also match existing tracks by exact title
	Logger     *log.Logger
	Journal    Journal
	Metrics    Recorder
	Progress   chan<- ProgressUpdate
}

// DefaultEngineOpts returns the options used when none are given.
func DefaultEngineOpts() EngineOpts {
	return EngineOpts{
		Capacity:   PlaylistCapacity,
		Sharing:    "public",
		MatchTitle: true,
	}
}

// Engine runs upload, attach and dedupe operations against a [services.Client].
type Engine struct {
	client     services.Client
	logger     *log.Logger
	capacity   int
	sharing    string
	matchTitle bool
	journal    Journal
	metrics    Recorder
	progress   chan<- ProgressUpdate
	locks      keyedMutex
}

// NewEngine creates an [Engine] bound to client.
func NewEngine(client services.Client, opts EngineOpts) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Capacity <= 0 || opts.Capacity > PlaylistCapacity {
		opts.Capacity = PlaylistCapacity
	}
	if opts.Sharing == "" {
		opts.Sharing = "public"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Engine{
		client:     client,
		logger:     opts.Logger,
		capacity:   opts.Capacity,
		sharing:    opts.Sharing,
		matchTitle: opts.MatchTitle,
		journal:    opts.Journal,
		metrics:    opts.Metrics,
		progress:   opts.Progress,
		locks:      keyedMutex{locks: map[string]*sync.Mutex{}},
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(update ProgressUpdate) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}

// record writes an event to the journal. Failures are logged and ignored so
// the journal never changes the outcome of a remote operation.
func (e *Engine) record(ctx context.Context, event models.Event) {
	if e.journal == nil {
		return
	}
	event.CreatedAt = time.Now().UTC()
	if err := e.journal.Record(ctx, event); err != nil {
		e.logger.Warn("failed to journal event", "kind", event.Kind, "error", err)
	}
}

func (e *Engine) countUpload(o Outcome) {
	if e.metrics != nil {
		e.metrics.Upload(string(o))
	}
}

func (e *Engine) countAttach(o AttachOutcome) {
	if e.metrics != nil {
		e.metrics.Attach(string(o))
	}
}

func (e *Engine) countDelete(ok bool) {
	if e.metrics != nil {
		e.metrics.Delete(ok)
	}
}

// keyedMutex serializes work per key within one process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
