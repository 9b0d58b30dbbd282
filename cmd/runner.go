package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twhispr/internal/metrics"
	"github.com/desertthunder/twhispr/internal/repositories"
	"github.com/desertthunder/twhispr/internal/services"
	"github.com/desertthunder/twhispr/internal/shared"
	"github.com/desertthunder/twhispr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The remote client and the journal are created on first use so that commands
// which never touch them (setup, history) work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	debugHTTP  bool
	plain      bool
	client     services.Client
	db         *sql.DB
	journal    *repositories.EventRepository
	metrics    *metrics.Recorder
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Client
	HTTPClient *http.Client
	Metrics    *metrics.Recorder
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRecorder()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		uploadCommand, dedupeCommand, playlistsCommand, historyCommand, authCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before applies the global flags. Every run gets its own id in the log prefix.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}
	r.debugHTTP = cmd.Bool("debug-http")
	r.plain = cmd.Bool("no-color")

	if cmd.Bool("verbose") || r.debugHTTP {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.logger = shared.WithLogger(r.logger, "run", shared.GenerateID()[:8])
	return ctx, nil
}

// after writes the metrics textfile and releases the journal.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.config != nil && r.config.Metrics.Textfile != "" {
		if err := r.metrics.WriteTextfile(r.config.Metrics.Textfile); err != nil {
			r.logger.Warn("failed to write metrics", "path", r.config.Metrics.Textfile, "error", err)
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close journal", "error", err)
		}
		r.db, r.journal = nil, nil
	}
	return nil
}

// loadConfig reads the configuration file once per run.
//
// When strict is false an unreadable or invalid file falls back to the
// embedded defaults; a missing file always does.
func (r *Runner) loadConfig(strict bool) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		if strict && !errors.Is(err, shared.ErrMissingConfig) {
			return nil, err
		}
		r.logger.Debug("using default configuration", "path", r.configPath, "reason", err)
		config = shared.DefaultConfig()
		config.ApplyEnv()
	}

	r.config = config
	return config, nil
}

// connect authenticates against the hosting service unless a client was injected.
func (r *Runner) connect(ctx context.Context) (services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	config, err := r.loadConfig(true)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewSoundCloudService(services.SoundCloudOpts{
		Credentials: config.Credentials.SoundCloud,
		HTTPClient:  r.httpClient,
		Observer:    r.observers(),
	})
	if err != nil {
		return nil, err
	}

	if err := svc.Authenticate(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("authenticated", "service", svc.Name())

	r.client = svc
	return svc, nil
}

// observers feeds every request to the metrics recorder, and to the log with --debug-http.
func (r *Runner) observers() services.Observers {
	observers := services.Observers{r.metrics}
	if r.debugHTTP {
		observers = append(observers, services.LogObserver(r.logger))
	}
	return observers
}

// openJournal opens the upload journal. It returns nil when database.path is empty.
func (r *Runner) openJournal() (*repositories.EventRepository, error) {
	if r.journal != nil {
		return r.journal, nil
	}

	config, err := r.loadConfig(false)
	if err != nil {
		return nil, err
	}
	if config.Database.Path == "" {
		return nil, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.journal = repositories.NewEventRepository(db)
	return r.journal, nil
}

// newEngine wires the remote client, journal and metrics into a [tasks.Engine].
func (r *Runner) newEngine(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Engine, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	config, err := r.loadConfig(true)
	if err != nil {
		return nil, err
	}

	journal, err := r.openJournal()
	if err != nil {
		return nil, err
	}

	opts := tasks.EngineOpts{
		Capacity:   config.Playlist.Capacity,
		Sharing:    config.Playlist.Sharing,
		MatchTitle: config.Playlist.MatchTitle,
		Logger:     r.logger,
		Metrics:    r.metrics,
		Progress:   progress,
	}
	if journal != nil {
		opts.Journal = journal
	}

	return tasks.NewEngine(client, opts)
}

// watchProgress logs engine progress until the returned stop function is called.
func (r *Runner) watchProgress() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			kv := []any{"phase", update.Phase}
			if update.Total > 0 {
				kv = append(kv, "step", fmt.Sprintf("%d/%d", update.Step, update.Total))
			}
			r.logger.Info(update.Message, kv...)
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// finish stamps the last run time for the command.
func (r *Runner) finish(cmd *cli.Command) {
	r.metrics.Finish(cmd.Name, time.Now())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
