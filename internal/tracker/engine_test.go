package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
	"github.com/gistlabs/gistctl/internal/shared"
)

type fakeBackend struct {
	mu sync.Mutex

	submitResp *models.JobAccepted
	submitErr  error

	statuses    []models.JobStatus
	statusErr   error
	statusCalls int

	ideas      []models.Idea
	ideasErr   error
	ideasCalls int

	timeline      *models.Timeline
	timelineErr   error
	timelineCalls int

	jobs    []models.JobStatus
	jobsErr error
}

func (b *fakeBackend) SubmitVideo(ctx context.Context, url, projectID, mode string) (*models.JobAccepted, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	if b.submitResp != nil {
		return b.submitResp, nil
	}
	return &models.JobAccepted{JobID: "job-1", Stage: pipeline.StagePending, Message: "queued"}, nil
}

// VideoStatus pops scripted statuses in order; the last one repeats.
func (b *fakeBackend) VideoStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCalls++
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	if len(b.statuses) == 0 {
		return nil, fmt.Errorf("no scripted status")
	}
	i := b.statusCalls - 1
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	status := b.statuses[i]
	return &status, nil
}

func (b *fakeBackend) VideoIdeas(ctx context.Context, jobID string) ([]models.Idea, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ideasCalls++
	if b.ideasErr != nil {
		return nil, b.ideasErr
	}
	return b.ideas, nil
}

func (b *fakeBackend) VideoTimeline(ctx context.Context, jobID string) (*models.Timeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timelineCalls++
	if b.timelineErr != nil {
		return nil, b.timelineErr
	}
	if b.timeline == nil {
		return nil, fmt.Errorf("timeline not ready")
	}
	return b.timeline, nil
}

func (b *fakeBackend) ProjectJobs(ctx context.Context, projectID string) ([]models.JobStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.jobsErr != nil {
		return nil, b.jobsErr
	}
	return b.jobs, nil
}

func (b *fakeBackend) counts() (status, ideasN, timelineN int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls, b.ideasCalls, b.timelineCalls
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]models.JobSnapshot
	saves   int
	clears  int
	loadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]models.JobSnapshot{}}
}

func (s *fakeStore) Save(snap *models.JobSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.records[snap.ProjectID] = *snap
	return nil
}

func (s *fakeStore) Load(projectID string) (*models.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	rec, ok := s.records[projectID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *fakeStore) Clear(projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	delete(s.records, projectID)
	return nil
}

func (s *fakeStore) get(projectID string) (models.JobSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[projectID]
	return rec, ok
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// streamHub is a controllable stand-in for the websocket listener.
type streamHub struct {
	mu      sync.Mutex
	handler EventHandler
	openErr error
	opened  int
	closed  int
}

func (h *streamHub) open(ctx context.Context, jobID string, handler EventHandler) (io.Closer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.openErr != nil {
		return nil, h.openErr
	}
	h.opened++
	h.handler = handler
	return closerFunc(func() error {
		h.mu.Lock()
		h.closed++
		h.mu.Unlock()
		return nil
	}), nil
}

// push delivers an event as the websocket read loop would.
func (h *streamHub) push(ev Event) {
	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

func (h *streamHub) stats() (opened, closed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened, h.closed
}

func newTestEngine(backend *fakeBackend, store SnapshotStore, hub *streamHub, projectID string) *Engine {
	opts := Opts{
		Backend:      backend,
		Store:        store,
		Logger:       shared.NewLogger(io.Discard),
		ProjectID:    projectID,
		PollInterval: 10 * time.Millisecond,
	}
	if hub != nil {
		opts.OpenStream = hub.open
	}
	return NewEngine(opts)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEngine_SubmitProgressComplete(t *testing.T) {
	backend := &fakeBackend{
		ideas:    []models.Idea{{ID: "idea-1", Rank: 1, Title: "Hook"}},
		timeline: &models.Timeline{VideoURL: "http://x/stream", Duration: 600, Title: "Video X"},
	}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10, Message: "Downloading..."})
	hub.push(Event{Type: EventProgress, Stage: "transcribing", Progress: 40, Message: "Transcribing..."})
	hub.push(Event{Type: EventComplete, Message: "done"})

	st := engine.State()
	if st.Stage != pipeline.StageComplete {
		t.Errorf("expected stage complete, got %s", st.Stage)
	}
	if st.Percent != 100 {
		t.Errorf("expected percent 100, got %d", st.Percent)
	}
	if !st.Complete() {
		t.Error("expected Complete() to hold")
	}
	if len(st.Ideas) != 1 || st.Ideas[0].ID != "idea-1" {
		t.Errorf("expected artifacts populated, got %+v", st.Artifacts)
	}

	if _, ok := store.get("proj-1"); ok {
		t.Error("persisted record must be cleared on terminal state")
	}
	if _, closed := hub.stats(); closed != 1 {
		t.Errorf("expected stream closed once, got %d", closed)
	}

	_, ideasN, _ := backend.counts()
	if ideasN != 1 {
		t.Errorf("expected exactly one artifact fetch, got %d", ideasN)
	}
}

func TestEngine_StageNeverRegresses(t *testing.T) {
	backend := &fakeBackend{}
	hub := &streamHub{}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")
	defer engine.Close()

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventProgress, Stage: "transcribing", Progress: 40})
	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})

	st := engine.State()
	if st.Stage != pipeline.StageTranscribing {
		t.Errorf("stage regressed to %s", st.Stage)
	}
	if st.Percent != 40 {
		t.Errorf("percent regressed to %d", st.Percent)
	}

	hub.push(Event{Type: EventStageComplete, Stage: "transcribing", NextStage: "understanding"})
	hub.push(Event{Type: EventProgress, Stage: "pending", Progress: 5})

	st = engine.State()
	if st.Stage != pipeline.StageUnderstanding {
		t.Errorf("expected understanding after stage_complete, got %s", st.Stage)
	}
	if st.Percent != 40 {
		t.Errorf("percent must not regress, got %d", st.Percent)
	}
}

func TestEngine_UnknownStageTokenDisplayedNotRanked(t *testing.T) {
	backend := &fakeBackend{}
	hub := &streamHub{}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")
	defer engine.Close()

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})
	hub.push(Event{Type: EventProgress, Stage: "remuxing", Progress: 15})

	st := engine.State()
	if st.Stage != pipeline.Stage("remuxing") {
		t.Errorf("unknown token should display verbatim, got %s", st.Stage)
	}
	if st.StageLabel != "Remuxing" {
		t.Errorf("unexpected label %q", st.StageLabel)
	}

	// The unknown token holds no canonical position, so a later known
	// stage at or past the last ranked stage still applies.
	hub.push(Event{Type: EventProgress, Stage: "transcribing", Progress: 30})
	if st := engine.State(); st.Stage != pipeline.StageTranscribing {
		t.Errorf("expected transcribing, got %s", st.Stage)
	}
}

func TestEngine_DuplicateCompleteFetchesArtifactsOnce(t *testing.T) {
	backend := &fakeBackend{
		ideas: []models.Idea{{ID: "idea-1", Rank: 1, Title: "Hook"}},
		statuses: []models.JobStatus{
			{JobID: "job-1", Stage: pipeline.StageComplete, Percent: 100},
		},
	}
	hub := &streamHub{}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventComplete, Message: "done"})
	// Redundant terminal delivery from the other channel.
	hub.push(Event{Type: EventComplete, Message: "done again"})
	engine.pollOnce(context.Background())

	_, ideasN, _ := backend.counts()
	if ideasN != 1 {
		t.Errorf("expected exactly one artifact fetch, got %d", ideasN)
	}
	if st := engine.State(); st.Message == "done again" {
		t.Error("redundant complete must not be applied")
	}
}

func TestEngine_PollOnlyDrivesTerminal(t *testing.T) {
	backend := &fakeBackend{
		ideas: []models.Idea{{ID: "idea-1"}},
		statuses: []models.JobStatus{
			{JobID: "job-1", Stage: pipeline.StageTranscribing, Percent: 60},
			{JobID: "job-1", Stage: pipeline.StageComplete, Percent: 100},
		},
	}
	store := newFakeStore()
	hub := &streamHub{openErr: errors.New("connection refused")}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	waitFor(t, "poll-driven completion", func() bool {
		return engine.State().Complete()
	})

	st := engine.State()
	if st.Percent != 100 {
		t.Errorf("expected percent 100, got %d", st.Percent)
	}
	if opened, _ := hub.stats(); opened != 0 {
		t.Error("stream must not have opened")
	}
	if _, ok := store.get("proj-1"); ok {
		t.Error("persisted record must be cleared")
	}

	// The poll loop must have stopped: call counts stay flat.
	calls, _, _ := backend.counts()
	time.Sleep(50 * time.Millisecond)
	after, _, _ := backend.counts()
	if after != calls {
		t.Errorf("poller kept running after terminal state: %d -> %d", calls, after)
	}
}

func TestEngine_SinglePollFailureContinues(t *testing.T) {
	backend := &fakeBackend{statusErr: errors.New("boom")}
	hub := &streamHub{openErr: errors.New("no stream")}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")
	defer engine.Close()

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	waitFor(t, "several failed polls", func() bool {
		calls, _, _ := backend.counts()
		return calls >= 3
	})

	if st := engine.State(); st.Stage != pipeline.StagePending {
		t.Errorf("transient poll failures must not change state, got %s", st.Stage)
	}
}

func TestEngine_SubmitFailure(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("backend down")}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	err := engine.Submit(context.Background(), "https://video/x", "auto")
	if !errors.Is(err, shared.ErrSubmitFailed) {
		t.Fatalf("expected ErrSubmitFailed, got %v", err)
	}

	st := engine.State()
	if !st.Failed() {
		t.Errorf("expected failed, got %s", st.Stage)
	}
	if st.Err == "" {
		t.Error("expected error detail to be set")
	}
	if opened, _ := hub.stats(); opened != 0 {
		t.Error("no channel may open on submission failure")
	}
	if store.saves != 0 {
		t.Error("nothing may be persisted on submission failure")
	}
}

func TestEngine_ErrorEventIsTerminal(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})
	hub.push(Event{Type: EventError, Message: "Could not download the video", Error: "ingestion failed"})

	st := engine.State()
	if !st.Failed() {
		t.Errorf("expected failed, got %s", st.Stage)
	}
	if st.Err != "ingestion failed" {
		t.Errorf("unexpected error detail %q", st.Err)
	}
	if st.Message != "Could not download the video" {
		t.Errorf("unexpected message %q", st.Message)
	}
	if _, ok := store.get("proj-1"); ok {
		t.Error("persisted record must be cleared on failure")
	}
	if _, closed := hub.stats(); closed != 1 {
		t.Errorf("expected stream closed once, got %d", closed)
	}

	// Late progress from the surviving channel is ignored.
	hub.push(Event{Type: EventProgress, Stage: "transcribing", Progress: 40})
	if st := engine.State(); !st.Failed() {
		t.Error("terminal state must not be left")
	}
}

func TestEngine_ResetIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})

	engine.Reset()

	st := engine.State()
	if st.JobID != "" || st.Stage != "" || st.Percent != 0 || st.Err != "" || st.Ideas != nil {
		t.Errorf("expected initial state after reset, got %+v", st)
	}
	if _, ok := store.get("proj-1"); ok {
		t.Error("persisted record must be cleared on reset")
	}
	if _, closed := hub.stats(); closed != 1 {
		t.Errorf("expected stream closed once, got %d", closed)
	}

	// Second reset is a no-op.
	engine.Reset()
	if _, closed := hub.stats(); closed != 1 {
		t.Errorf("second reset must not close again, got %d", closed)
	}
}

func TestEngine_ResumeValidSnapshotPullsStatus(t *testing.T) {
	backend := &fakeBackend{
		statuses: []models.JobStatus{
			{JobID: "job-9", Stage: pipeline.StageTranscribing, Percent: 60, Message: "Transcribing..."},
		},
	}
	store := newFakeStore()
	store.records["proj-1"] = models.JobSnapshot{
		JobID:      "job-9",
		ProjectID:  "proj-1",
		Stage:      pipeline.StageIngesting,
		Percent:    20,
		StageLabel: pipeline.StageIngesting.Label(),
		SavedAt:    time.Now().Add(-time.Hour),
	}
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	st := engine.State()
	if st.JobID != "job-9" {
		t.Fatalf("expected job-9 adopted, got %q", st.JobID)
	}
	// The pulled status wins over the persisted hint.
	if st.Stage != pipeline.StageTranscribing || st.Percent != 60 {
		t.Errorf("expected pulled status displayed, got %s/%d", st.Stage, st.Percent)
	}
	if opened, _ := hub.stats(); opened != 1 {
		t.Errorf("expected stream opened, got %d", opened)
	}

	engine.Close()
}

func TestEngine_ResumeStaleSnapshotDiscarded(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	store.records["proj-1"] = models.JobSnapshot{
		JobID:     "job-old",
		ProjectID: "proj-1",
		Stage:     pipeline.StageGrouping,
		Percent:   70,
		SavedAt:   time.Now().Add(-25 * time.Hour),
	}
	engine := newTestEngine(backend, store, nil, "proj-1")

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	if st := engine.State(); st.JobID != "" {
		t.Errorf("stale record must yield the no-job view, got %q", st.JobID)
	}
	if _, ok := store.get("proj-1"); ok {
		t.Error("stale record must be cleared")
	}
}

func TestEngine_ResumeForeignScopeDiscarded(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	store.records["proj-1"] = models.JobSnapshot{
		JobID:     "job-x",
		ProjectID: "proj-other",
		Stage:     pipeline.StageGrouping,
		Percent:   70,
		SavedAt:   time.Now().Add(-time.Minute),
	}
	engine := newTestEngine(backend, store, nil, "proj-1")

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	if st := engine.State(); st.JobID != "" {
		t.Errorf("foreign-scope record must be ignored, got %q", st.JobID)
	}
	if _, ok := store.get("proj-1"); ok {
		t.Error("foreign-scope record must be cleared")
	}
}

func TestEngine_ResumeFallsBackToBackendQuery(t *testing.T) {
	backend := &fakeBackend{
		jobs: []models.JobStatus{
			{JobID: "job-done", Stage: pipeline.StageComplete, Percent: 100},
			{JobID: "job-live", Stage: pipeline.StageRanking, Percent: 90, Message: "Ranking..."},
		},
		statuses: []models.JobStatus{
			{JobID: "job-live", Stage: pipeline.StageRanking, Percent: 90},
		},
	}
	hub := &streamHub{}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	st := engine.State()
	if st.JobID != "job-live" {
		t.Fatalf("expected the in-flight job adopted, got %q", st.JobID)
	}
	if st.Stage != pipeline.StageRanking || st.Percent != 90 {
		t.Errorf("unexpected adopted state %s/%d", st.Stage, st.Percent)
	}

	engine.Close()
}

func TestEngine_ResumeWithoutScopeDoesNothing(t *testing.T) {
	backend := &fakeBackend{}
	engine := newTestEngine(backend, newFakeStore(), nil, "")

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if st := engine.State(); st.JobID != "" {
		t.Errorf("unscoped resume must stay idle, got %q", st.JobID)
	}
}

func TestEngine_VideoReadyPrefetchesTimeline(t *testing.T) {
	backend := &fakeBackend{
		timeline: &models.Timeline{VideoURL: "http://x/stream", Duration: 600, Title: "Video X"},
	}
	hub := &streamHub{}
	engine := newTestEngine(backend, newFakeStore(), hub, "proj-1")
	defer engine.Close()

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})
	hub.push(Event{Type: EventVideoReady, Title: "Video X", Duration: 600, Message: "Video is ready for playback"})

	waitFor(t, "timeline prefetch", func() bool {
		return engine.State().Timeline != nil
	})

	st := engine.State()
	if st.Stage != pipeline.StageIngesting {
		t.Errorf("video_ready must not change stage, got %s", st.Stage)
	}
	if st.Title != "Video X" || st.Duration != 600 {
		t.Errorf("expected playback metadata, got %q/%v", st.Title, st.Duration)
	}
}

func TestEngine_WriteThroughPersistence(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	hub.push(Event{Type: EventProgress, Stage: "understanding", Progress: 45, Message: "Analyzing..."})

	rec, ok := store.get("proj-1")
	if !ok {
		t.Fatal("expected a persisted record while non-terminal")
	}
	if rec.Stage != pipeline.StageUnderstanding || rec.Percent != 45 {
		t.Errorf("record lags the snapshot: %s/%d", rec.Stage, rec.Percent)
	}
	if rec.JobID != "job-1" {
		t.Errorf("unexpected job id %q", rec.JobID)
	}

	hub.push(Event{Type: EventComplete})
	if _, ok := store.get("proj-1"); ok {
		t.Error("record must be deleted on terminal state")
	}
}

func TestEngine_CloseKeepsPersistedRecord(t *testing.T) {
	backend := &fakeBackend{}
	store := newFakeStore()
	hub := &streamHub{}
	engine := newTestEngine(backend, store, hub, "proj-1")

	if err := engine.Submit(context.Background(), "https://video/x", "auto"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	hub.push(Event{Type: EventProgress, Stage: "ingesting", Progress: 10})

	engine.Close()

	if _, closed := hub.stats(); closed != 1 {
		t.Errorf("expected stream closed on teardown, got %d", closed)
	}
	if _, ok := store.get("proj-1"); !ok {
		t.Error("teardown must keep the record for later resumption")
	}
}
