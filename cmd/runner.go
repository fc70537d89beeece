package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gistlabs/gistctl/internal/repositories"
	"github.com/gistlabs/gistctl/internal/services"
	"github.com/gistlabs/gistctl/internal/shared"
	"github.com/gistlabs/gistctl/internal/tracker"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	backend    services.Backend
	gist       *services.GistService
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Backend    services.Backend
	Gist       *services.GistService
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		backend:    opts.Backend,
		gist:       opts.Gist,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, submitCommand, statusCommand, ideasCommand, timelineCommand, resetCommand, apiCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore opens the snapshot database and applies pending migrations.
// The caller owns the returned connection.
func (r *Runner) openStore() (*sql.DB, *repositories.SnapshotRepository, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, repositories.NewSnapshotRepository(db), nil
}

// newEngine builds a tracker engine wired to the backend, the snapshot
// store, and the websocket stream. A nil store disables persistence.
func (r *Runner) newEngine(store tracker.SnapshotStore) *tracker.Engine {
	opts := tracker.Opts{
		Backend:      r.backend,
		Store:        store,
		Logger:       r.logger,
		ProjectID:    r.config.Project.ID,
		PollInterval: r.config.PollInterval(),
		SnapshotTTL:  r.config.SnapshotTTL(),
	}

	if r.gist != nil {
		opts.OpenStream = func(ctx context.Context, jobID string, handler tracker.EventHandler) (io.Closer, error) {
			return tracker.OpenListener(ctx, r.gist.StreamURL(jobID), handler, r.logger)
		}
	}

	return tracker.NewEngine(opts)
}

// resolveJobID returns the explicit id when given, else the job recorded
// in the persisted snapshot for the configured project.
func (r *Runner) resolveJobID(flagID string) (string, error) {
	if flagID != "" {
		return flagID, nil
	}
	if r.config.Project.ID == "" {
		return "", fmt.Errorf("%w: pass --id or configure a project", shared.ErrNoActiveJob)
	}

	db, store, err := r.openStore()
	if err != nil {
		return "", err
	}
	defer db.Close()

	snap, err := store.Load(r.config.Project.ID)
	if err != nil {
		return "", err
	}
	if snap == nil {
		return "", fmt.Errorf("%w: no job recorded for project %s", shared.ErrNoActiveJob, r.config.Project.ID)
	}
	return snap.JobID, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
