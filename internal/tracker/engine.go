package tracker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
	"github.com/gistlabs/gistctl/internal/services"
	"github.com/gistlabs/gistctl/internal/shared"
)

// State is the engine's single authoritative view of the tracked job,
// exposed to CLI and TUI consumers. Mutated only by the engine.
type State struct {
	JobID      string
	ProjectID  string
	Stage      pipeline.Stage
	Percent    int
	StageLabel string
	Message    string
	Err        string
	Title      string
	Duration   float64

	// Derived results, populated by the completion fetch (the timeline
	// possibly earlier). Fields promote: state.Ideas, state.Timeline.
	models.Artifacts
}

// Processing reports whether a job is being tracked and has not terminated.
func (s State) Processing() bool {
	return s.Stage.Processing()
}

// Complete reports whether the job finished successfully.
func (s State) Complete() bool {
	return s.Stage == pipeline.StageComplete
}

// Failed reports whether the job terminated with an error.
func (s State) Failed() bool {
	return s.Stage == pipeline.StageFailed
}

// SnapshotStore is the persistence surface the engine writes through.
// Implemented by repositories.SnapshotRepository.
type SnapshotStore interface {
	Save(snap *models.JobSnapshot) error
	Load(projectID string) (*models.JobSnapshot, error)
	Clear(projectID string) error
}

// StreamOpener opens the push channel for a job id and routes decoded
// events to the handler. Swappable for tests.
type StreamOpener func(ctx context.Context, jobID string, handler EventHandler) (io.Closer, error)

// Opts configures a new [Engine].
type Opts struct {
	Backend      services.Backend
	Store        SnapshotStore // nil disables persistence
	OpenStream   StreamOpener  // nil disables the push channel
	Logger       *log.Logger
	ProjectID    string // owning scope; empty means unscoped
	PollInterval time.Duration
	SnapshotTTL  time.Duration
	Now          func() time.Time
}

// Engine reconciles both update channels into one monotonically
// advancing State, owns the channels' lifecycles, sequences the
// artifact fetch on completion, and manages the persisted snapshot.
type Engine struct {
	backend     services.Backend
	store       SnapshotStore
	openStream  StreamOpener
	logger      *log.Logger
	projectID   string
	pollEvery   time.Duration
	snapshotTTL time.Duration
	now         func() time.Time

	mu sync.Mutex
	// jobID is the live cell event handlers read at call time. The id
	// becomes known only after the handlers are wired up, so it must
	// never be captured at handler construction.
	jobID            string
	submittedAt      time.Time
	state            State
	lastRank         int
	stream           io.Closer
	poller           *Poller
	artifactsFetched bool
	timelineFetched  bool

	updates chan State
}

// NewEngine creates an engine for the given project scope.
func NewEngine(opts Opts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		backend:     opts.Backend,
		store:       opts.Store,
		openStream:  opts.OpenStream,
		logger:      opts.Logger,
		projectID:   opts.ProjectID,
		pollEvery:   opts.PollInterval,
		snapshotTTL: opts.SnapshotTTL,
		now:         opts.Now,
		state:       State{ProjectID: opts.ProjectID},
		updates:     make(chan State, 64),
	}
}

// Updates returns the notification channel carrying a State copy after
// every applied change. Sends never block; a slow consumer only misses
// intermediate states, never the terminal one it can re-read via State.
func (e *Engine) Updates() <-chan State {
	return e.updates
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Submit resets derived state, creates a job on the backend, and only
// then opens the event stream and starts the poller. A submission
// failure forces failed before any channel opens.
func (e *Engine) Submit(ctx context.Context, sourceURL, mode string) error {
	if sourceURL == "" {
		return fmt.Errorf("%w: empty video URL", shared.ErrInvalidInput)
	}

	// Retire any prior handle before the new submission.
	e.teardownChannels()
	e.clearSnapshot()

	e.mu.Lock()
	e.resetLocked()
	e.state.Stage = pipeline.StagePending
	e.state.StageLabel = pipeline.StagePending.Label()
	e.state.Message = "Submitting video..."
	e.mu.Unlock()
	e.notify()

	accepted, err := e.backend.SubmitVideo(ctx, sourceURL, e.projectID, mode)
	if err != nil {
		e.mu.Lock()
		e.state.Stage = pipeline.StageFailed
		e.state.StageLabel = pipeline.StageFailed.Label()
		e.state.Err = err.Error()
		e.state.Message = "Submission failed"
		e.mu.Unlock()
		e.notify()
		return fmt.Errorf("%w: %v", shared.ErrSubmitFailed, err)
	}

	e.mu.Lock()
	e.jobID = accepted.JobID
	e.submittedAt = e.now()
	e.state.JobID = accepted.JobID
	if accepted.Message != "" {
		e.state.Message = accepted.Message
	}
	e.mu.Unlock()
	e.notify()
	e.persist()

	e.startChannels(ctx)
	return nil
}

// Resume restores tracking after a restart. Priority: a valid persisted
// snapshot for this scope, else a backend query for an in-flight job in
// the same project. Exactly one path executes; with neither, the engine
// stays in the initial no-job state.
func (e *Engine) Resume(ctx context.Context) error {
	if e.projectID == "" {
		return nil
	}

	if e.store != nil {
		snap, err := e.store.Load(e.projectID)
		if err != nil {
			e.logger.Warn("failed to load persisted snapshot", "error", err)
		}
		if snap != nil {
			if err := e.validateSnapshot(snap); err != nil {
				e.logger.Debug("discarding persisted snapshot", "reason", err)
				e.clearSnapshot()
			} else {
				e.adopt(snap.JobID, snap.Stage, snap.Percent, "")
				e.startChannels(ctx)
				// The persisted record is only a hint; pull the
				// authoritative status right away.
				e.pollOnce(ctx)
				return nil
			}
		}
	}

	jobs, err := e.backend.ProjectJobs(ctx, e.projectID)
	if err != nil {
		e.logger.Warn("resume query failed", "error", err)
		return nil
	}

	// Newest non-terminal job wins; terminal-only history means nothing
	// to resume.
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Stage.Processing() {
			e.adopt(jobs[i].JobID, jobs[i].Stage, jobs[i].Percent, jobs[i].Message)
			e.persist()
			e.startChannels(ctx)
			return nil
		}
	}

	return nil
}

// Reset closes the stream, stops the poller, clears the persisted
// record, and restores all fields to initial empty values. Idempotent.
func (e *Engine) Reset() {
	e.teardownChannels()
	e.clearSnapshot()

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	e.notify()
}

// Close unconditionally tears down both channels. Unlike Reset it keeps
// the persisted record so a later mount can resume the job.
func (e *Engine) Close() {
	e.teardownChannels()
}

func (e *Engine) resetLocked() {
	e.jobID = ""
	e.submittedAt = time.Time{}
	e.state = State{ProjectID: e.projectID}
	e.lastRank = 0
	e.artifactsFetched = false
	e.timelineFetched = false
}

// adopt installs a known job id and its last observed position.
func (e *Engine) adopt(jobID string, stage pipeline.Stage, percent int, message string) {
	e.mu.Lock()
	e.resetLocked()
	e.jobID = jobID
	e.submittedAt = e.now()
	e.state.JobID = jobID
	e.state.Stage = stage
	e.state.StageLabel = stage.Label()
	e.state.Percent = percent
	e.state.Message = message
	if r, ok := stage.Rank(); ok {
		e.lastRank = r
	}
	e.mu.Unlock()
	e.notify()
}

func (e *Engine) validateSnapshot(snap *models.JobSnapshot) error {
	if snap.ProjectID != e.projectID {
		return shared.ErrScopeMismatch
	}
	if snap.Age(e.now()) > e.snapshotTTL {
		return shared.ErrStaleSnapshot
	}
	if snap.Stage.Terminal() {
		return shared.ErrTerminalSnapshot
	}
	return snap.Validate()
}

// startChannels opens the push stream and starts the poll loop for the
// current job. A stream-open failure degrades to poll-only; it is never
// a job failure.
func (e *Engine) startChannels(ctx context.Context) {
	e.mu.Lock()
	jobID := e.jobID
	e.mu.Unlock()
	if jobID == "" {
		return
	}

	if e.openStream != nil {
		// The handler re-reads the engine's job id on every delivery, so
		// events from a stream that outlived its job are discarded.
		handler := func(ev Event) {
			e.mu.Lock()
			current := e.jobID
			e.mu.Unlock()
			if current != jobID {
				return
			}
			e.handleEvent(ev)
		}
		stream, err := e.openStream(ctx, jobID, handler)
		if err != nil {
			e.logger.Warn("event stream unavailable, continuing with polling", "error", err)
		} else {
			e.mu.Lock()
			e.stream = stream
			e.mu.Unlock()
		}
	}

	p := NewPoller(e.pollEvery, e.pollOnce)
	e.mu.Lock()
	e.poller = p
	e.mu.Unlock()
	p.Start(ctx)
}

// teardownChannels closes the stream and stops the poller. Idempotent;
// called on termination, reset, and view teardown so neither channel
// can outlive the job.
func (e *Engine) teardownChannels() {
	e.mu.Lock()
	stream, poller := e.stream, e.poller
	e.stream, e.poller = nil, nil
	e.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	if poller != nil {
		poller.Stop()
	}
}

// handleEvent applies one push event. It reads the current job state
// under the lock rather than anything captured at wiring time.
func (e *Engine) handleEvent(ev Event) {
	switch ev.Type {
	case EventProgress:
		stage := pipeline.Stage(ev.Stage)
		switch stage {
		case pipeline.StageComplete:
			e.complete(ev.Message)
		case pipeline.StageFailed:
			e.fail(ev.Message, ev.Error)
		default:
			e.applyProgress(stage, ev.Progress, ev.Message)
		}
	case EventStageComplete:
		e.applyProgress(pipeline.Stage(ev.NextStage), -1, "")
	case EventVideoReady:
		e.mu.Lock()
		e.state.Title = ev.Title
		e.state.Duration = ev.Duration
		if ev.Message != "" {
			e.state.Message = ev.Message
		}
		jobID := e.jobID
		fetch := !e.timelineFetched && jobID != ""
		e.timelineFetched = e.timelineFetched || fetch
		e.mu.Unlock()
		e.notify()
		if fetch {
			go e.fetchTimeline(jobID)
		}
	case EventComplete:
		e.complete(ev.Message)
	case EventError:
		e.fail(ev.Message, ev.Error)
	default:
		e.logger.Debug("ignoring unknown event type", "type", ev.Type)
	}
}

// pollOnce is the pull-channel tick: fetch the full status snapshot and
// reconcile it. Returns true once the job is terminal so the poll loop
// stops. A single failed poll is logged and retried at the next tick.
func (e *Engine) pollOnce(ctx context.Context) bool {
	e.mu.Lock()
	jobID := e.jobID
	terminal := e.state.Stage.Terminal()
	e.mu.Unlock()

	if jobID == "" || terminal {
		return true
	}

	status, err := e.backend.VideoStatus(ctx, jobID)
	if err != nil {
		e.logger.Warn("status poll failed", "job", jobID, "error", err)
		return false
	}

	// Discard a response that can no longer be applied.
	e.mu.Lock()
	stale := e.jobID != jobID
	e.mu.Unlock()
	if stale {
		return true
	}

	// Early playback metadata: once the pipeline is past ingestion the
	// video itself is available even though processing continues.
	if r, ok := status.Stage.Rank(); ok {
		if tr, _ := pipeline.StageTranscribing.Rank(); r >= tr && !status.Stage.Terminal() {
			e.mu.Lock()
			fetch := !e.timelineFetched
			e.timelineFetched = e.timelineFetched || fetch
			e.mu.Unlock()
			if fetch {
				go e.fetchTimeline(jobID)
			}
		}
	}

	switch status.Stage {
	case pipeline.StageComplete:
		e.complete(status.Message)
		return true
	case pipeline.StageFailed:
		e.fail(status.Message, status.Message)
		return true
	default:
		e.applyProgress(status.Stage, status.Percent, status.Message)
		e.mu.Lock()
		terminal = e.state.Stage.Terminal()
		e.mu.Unlock()
		return terminal
	}
}

// applyProgress merges a stage/percent/message observation from either
// channel. Only legal forward moves in the canonical ordering are
// applied; percent never regresses; unrecognized stage tokens update
// the display but keep the canonical position untouched.
func (e *Engine) applyProgress(to pipeline.Stage, percent int, message string) {
	e.mu.Lock()

	if e.state.Stage.Terminal() {
		e.mu.Unlock()
		return
	}

	changed := false

	if to != "" && to != e.state.Stage {
		if r, ok := to.Rank(); ok {
			if r >= e.lastRank {
				e.state.Stage = to
				e.state.StageLabel = to.Label()
				e.lastRank = r
				changed = true
			}
		} else if to != pipeline.StageFailed {
			// Unknown token: display verbatim, canonical rank unchanged.
			e.state.Stage = to
			e.state.StageLabel = to.Label()
			changed = true
		}
	}

	if percent > e.state.Percent && percent <= 100 {
		e.state.Percent = percent
		changed = true
	}

	if message != "" && message != e.state.Message {
		e.state.Message = message
		changed = true
	}

	e.mu.Unlock()

	if changed {
		e.notify()
		e.persist()
	}
}

// complete forces the terminal success state and triggers the artifact
// fetch exactly once, no matter how many channels report completion.
func (e *Engine) complete(message string) {
	e.mu.Lock()
	if e.state.Stage.Terminal() {
		e.mu.Unlock()
		return
	}

	e.state.Stage = pipeline.StageComplete
	e.state.StageLabel = pipeline.StageComplete.Label()
	e.state.Percent = 100
	if r, ok := pipeline.StageComplete.Rank(); ok {
		e.lastRank = r
	}
	if message != "" {
		e.state.Message = message
	}
	jobID := e.jobID
	fetch := !e.artifactsFetched && jobID != ""
	e.artifactsFetched = true
	e.mu.Unlock()

	e.clearSnapshot()
	e.teardownChannels()
	e.notify()

	if fetch {
		e.fetchArtifacts(jobID)
	}
}

// fail forces the terminal failure state and tears down both channels.
func (e *Engine) fail(message, detail string) {
	e.mu.Lock()
	if e.state.Stage.Terminal() {
		e.mu.Unlock()
		return
	}

	e.state.Stage = pipeline.StageFailed
	e.state.StageLabel = pipeline.StageFailed.Label()
	if message != "" {
		e.state.Message = message
	}
	if detail == "" {
		detail = message
	}
	if detail == "" {
		detail = "processing failed"
	}
	e.state.Err = detail
	e.mu.Unlock()

	e.clearSnapshot()
	e.teardownChannels()
	e.notify()
}

// fetchArtifacts pulls the derived results after completion. Failures
// are logged, not surfaced: the job itself succeeded.
//
// Runs without the submission context: in-flight fetches carry no
// cancellation token and their results are discarded if inapplicable.
func (e *Engine) fetchArtifacts(jobID string) {
	ctx := context.Background()

	ideas, err := e.backend.VideoIdeas(ctx, jobID)
	if err != nil {
		e.logger.Warn("failed to fetch ideas", "job", jobID, "error", err)
	}

	e.mu.Lock()
	applicable := e.jobID == jobID
	if applicable && ideas != nil {
		e.state.Ideas = ideas
	}
	fetchTimeline := applicable && !e.timelineFetched
	e.timelineFetched = e.timelineFetched || fetchTimeline
	e.mu.Unlock()

	if !applicable {
		return
	}
	e.notify()

	if fetchTimeline {
		e.fetchTimeline(jobID)
	}
}

// fetchTimeline pulls playback metadata, used both for the mid-pipeline
// preview and as part of the completion artifacts.
func (e *Engine) fetchTimeline(jobID string) {
	timeline, err := e.backend.VideoTimeline(context.Background(), jobID)
	if err != nil {
		e.logger.Debug("timeline not available yet", "job", jobID, "error", err)
		e.mu.Lock()
		// Allow a later retry path (poll or completion) to try again.
		e.timelineFetched = false
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	if e.jobID != jobID {
		e.mu.Unlock()
		return
	}
	e.state.Timeline = timeline
	if timeline.Title != "" {
		e.state.Title = timeline.Title
	}
	if timeline.Duration > 0 {
		e.state.Duration = timeline.Duration
	}
	e.mu.Unlock()
	e.notify()
}

// persist writes the snapshot through to the store while the job is
// non-terminal and scoped to a project.
func (e *Engine) persist() {
	if e.store == nil || e.projectID == "" {
		return
	}

	e.mu.Lock()
	if e.jobID == "" || !e.state.Stage.Processing() {
		e.mu.Unlock()
		return
	}
	snap := &models.JobSnapshot{
		JobID:      e.jobID,
		ProjectID:  e.projectID,
		Stage:      e.state.Stage,
		Percent:    e.state.Percent,
		StageLabel: e.state.StageLabel,
		SavedAt:    e.now(),
	}
	e.mu.Unlock()

	if err := e.store.Save(snap); err != nil {
		e.logger.Warn("failed to persist snapshot", "error", err)
	}
}

func (e *Engine) clearSnapshot() {
	if e.store == nil || e.projectID == "" {
		return
	}
	if err := e.store.Clear(e.projectID); err != nil {
		e.logger.Warn("failed to clear snapshot", "error", err)
	}
}

// notify pushes a state copy to the updates channel without blocking.
func (e *Engine) notify() {
	e.mu.Lock()
	st := e.state
	e.mu.Unlock()

	select {
	case e.updates <- st:
	default:
	}
}
