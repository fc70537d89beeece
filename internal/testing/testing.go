// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
)

// MockBackend is a test double for [services.Backend]
type MockBackend struct {
	SubmitErr   error
	StatusErr   error
	IdeasErr    error
	TimelineErr error
	JobsErr     error

	Status   models.JobStatus
	Ideas    []models.Idea
	Timeline *models.Timeline
	Jobs     []models.JobStatus
}

func (m *MockBackend) SubmitVideo(ctx context.Context, url, projectID, mode string) (*models.JobAccepted, error) {
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	return &models.JobAccepted{JobID: "mock-job", Stage: pipeline.StagePending, Message: "queued"}, nil
}

func (m *MockBackend) VideoStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	status := m.Status
	if status.JobID == "" {
		status.JobID = jobID
	}
	return &status, nil
}

func (m *MockBackend) VideoIdeas(ctx context.Context, jobID string) ([]models.Idea, error) {
	if m.IdeasErr != nil {
		return nil, m.IdeasErr
	}
	return m.Ideas, nil
}

func (m *MockBackend) VideoTimeline(ctx context.Context, jobID string) (*models.Timeline, error) {
	if m.TimelineErr != nil {
		return nil, m.TimelineErr
	}
	return m.Timeline, nil
}

func (m *MockBackend) ProjectJobs(ctx context.Context, projectID string) ([]models.JobStatus, error) {
	if m.JobsErr != nil {
		return nil, m.JobsErr
	}
	return m.Jobs, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
