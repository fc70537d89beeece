package models

import (
	"fmt"
	"time"

	"github.com/gistlabs/gistctl/internal/pipeline"
)

// JobStatus is a full status snapshot pulled from the backend.
type JobStatus struct {
	JobID   string
	Stage   pipeline.Stage
	Percent int
	Message string
}

// JobAccepted is the backend's response to a submission.
type JobAccepted struct {
	JobID   string
	Stage   pipeline.Stage
	Message string
}

// TimeRange is a half-open span within the source video, in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// Idea is one ranked idea extracted from a video.
type Idea struct {
	ID             string
	Rank           int
	Title          string
	Description    string
	Strength       string
	ViralPotential float64
	Highlights     []string
	TimeRanges     []TimeRange
}

// TimelineSegment is a labeled span of the playback timeline with the
// ideas it supports.
type TimelineSegment struct {
	Start   float64
	End     float64
	Label   string
	IdeaIDs []string
}

// Timeline is the playback metadata for a processed video.
type Timeline struct {
	VideoURL  string
	Duration  float64
	Title     string
	Thumbnail string
	Segments  []TimelineSegment
}

// Artifacts are the derived results of a completed job, embedded in the
// tracker's state. Immutable once fetched for a given job; the timeline
// may be prefetched mid-pipeline.
type Artifacts struct {
	Ideas    []Idea
	Timeline *Timeline
}

// JobSnapshot is the locally persisted mirror of an in-flight job,
// keyed by project scope. It exists only while the job is non-terminal.
type JobSnapshot struct {
	JobID      string         `json:"jobId"`
	ProjectID  string         `json:"scopeId"`
	Stage      pipeline.Stage `json:"stage"`
	Percent    int            `json:"percent"`
	StageLabel string         `json:"stageLabel"`
	SavedAt    time.Time      `json:"savedAt"`
}

// Validate checks structural integrity of the snapshot. Staleness and
// scope checks happen at load time in the tracker, not here.
func (s *JobSnapshot) Validate() error {
	if s.JobID == "" {
		return fmt.Errorf("snapshot missing job id")
	}
	if s.Stage == "" {
		return fmt.Errorf("snapshot missing stage")
	}
	if s.Percent < 0 || s.Percent > 100 {
		return fmt.Errorf("snapshot percent out of range: %d", s.Percent)
	}
	if s.SavedAt.IsZero() {
		return fmt.Errorf("snapshot missing saved_at")
	}
	return nil
}

// Age returns how long ago the snapshot was saved.
func (s *JobSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SavedAt)
}
