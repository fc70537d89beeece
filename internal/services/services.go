package services

import (
	"context"

	"github.com/gistlabs/gistctl/internal/models"
)

// Backend defines the pipeline backend operations consumed by the job tracker.
type Backend interface {
	// SubmitVideo creates a processing job for the given source URL.
	// projectID may be empty; mode selects the pipeline preset.
	SubmitVideo(ctx context.Context, url, projectID, mode string) (*models.JobAccepted, error)

	// VideoStatus pulls a full status snapshot for a job id.
	VideoStatus(ctx context.Context, jobID string) (*models.JobStatus, error)

	// VideoIdeas fetches the ranked ideas list. Valid once the job has
	// reached complete.
	VideoIdeas(ctx context.Context, jobID string) ([]models.Idea, error)

	// VideoTimeline fetches playback metadata. May be called before
	// completion once the video itself is available.
	VideoTimeline(ctx context.Context, jobID string) (*models.Timeline, error)

	// ProjectJobs lists the known jobs for a project, oldest first.
	// Used by mount-time resumption when no local snapshot exists.
	ProjectJobs(ctx context.Context, projectID string) ([]models.JobStatus, error)
}
