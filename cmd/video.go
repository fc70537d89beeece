package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gistlabs/gistctl/internal/formatter"
	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
	"github.com/gistlabs/gistctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Submit creates a processing job for a video URL. With --watch the
// interactive tracker takes over; otherwise the accepted job is printed
// and recorded for later resumption.
func (r *Runner) Submit(ctx context.Context, cmd *cli.Command) error {
	sourceURL := stringArg(cmd, "url")
	mode := cmd.String("mode")
	useJSON := cmd.Bool("json")
	watch := cmd.Bool("watch")

	if sourceURL == "" {
		return fmt.Errorf("%w: video URL", shared.ErrMissingArgument)
	}

	if watch {
		return r.runWatch(ctx, sourceURL, mode)
	}

	r.logger.Info("submitting video", "url", sourceURL, "project", r.config.Project.ID)

	accepted, err := r.backend.SubmitVideo(ctx, sourceURL, r.config.Project.ID, mode)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSubmitFailed, err)
	}

	r.recordSubmission(accepted)

	if useJSON {
		return r.writeJSON(map[string]any{
			"job_id":  accepted.JobID,
			"stage":   string(accepted.Stage),
			"message": accepted.Message,
		}, false)
	}

	r.writePlain("✓ Video submitted\n")
	r.writePlain("Job ID: %s\n", accepted.JobID)
	if accepted.Message != "" {
		r.writePlain("%s\n", accepted.Message)
	}
	r.writePlainln("Track it with: gistctl watch")
	return nil
}

// recordSubmission persists the accepted job so a later status or watch
// call can pick it up without an explicit id.
func (r *Runner) recordSubmission(accepted *models.JobAccepted) {
	if r.config.Project.ID == "" {
		return
	}

	db, store, err := r.openStore()
	if err != nil {
		r.logger.Warn("failed to open snapshot store", "error", err)
		return
	}
	defer db.Close()

	stage := accepted.Stage
	if stage == "" {
		stage = pipeline.StagePending
	}

	snap := &models.JobSnapshot{
		JobID:      accepted.JobID,
		ProjectID:  r.config.Project.ID,
		Stage:      stage,
		Percent:    0,
		StageLabel: stage.Label(),
		SavedAt:    time.Now(),
	}
	if err := store.Save(snap); err != nil {
		r.logger.Warn("failed to record submission", "error", err)
	}
}

// Status pulls and prints the current pipeline position of a job.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	jobID, err := r.resolveJobID(cmd.String("id"))
	if err != nil {
		return err
	}

	status, err := r.backend.VideoStatus(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"job_id":  status.JobID,
			"stage":   string(status.Stage),
			"percent": status.Percent,
			"message": status.Message,
		}, pretty)
	}

	r.writePlain("Job: %s\n", status.JobID)
	r.writePlain("Stage: %s (%d%%)\n", status.Stage.Label(), status.Percent)
	if status.Message != "" {
		r.writePlain("%s\n", status.Message)
	}
	return nil
}

// Ideas fetches the ranked ideas of a processed video and renders them
// in the requested format, to stdout or a file.
func (r *Runner) Ideas(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	outputPath := cmd.String("output")

	jobID, err := r.resolveJobID(cmd.String("id"))
	if err != nil {
		return err
	}

	ideas, err := r.backend.VideoIdeas(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if outputPath != "" {
		var written string
		switch format {
		case "csv":
			written, err = formatter.WriteCSVExport(ideas, strings.TrimSuffix(outputPath, ".csv"))
		case "markdown", "md":
			written, err = formatter.WriteMarkdownExport("", ideas, outputPath)
		case "text", "txt":
			written, err = formatter.WriteTextExport("", ideas, outputPath)
		default:
			return fmt.Errorf("%w: cannot write %q to a file, use csv, markdown, or text", shared.ErrInvalidFlag, format)
		}
		if err != nil {
			return err
		}
		r.logger.Infof("ideas exported to %v", written)
		r.writePlain("✓ Ideas saved to %s\n", written)
		return nil
	}

	var data []byte
	switch format {
	case "json":
		return r.writeJSON(ideas, true)
	case "csv":
		data, err = formatter.ExportToCSV(ideas)
	case "markdown", "md":
		data, err = formatter.ExportToMarkdown("", ideas)
	case "text", "txt":
		data, err = formatter.ExportToText("", ideas)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s", data)
}

// Timeline fetches and prints the playback timeline for a job.
func (r *Runner) Timeline(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	jobID, err := r.resolveJobID(cmd.String("id"))
	if err != nil {
		return err
	}

	timeline, err := r.backend.VideoTimeline(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(timeline, true)
	}

	data, err := formatter.TimelineToText(timeline)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// Reset discards the locally recorded job for the configured project.
// The server-side job keeps running; only local tracking is forgotten.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	if r.config.Project.ID == "" {
		return fmt.Errorf("%w: no project configured", shared.ErrNoActiveJob)
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Clear(r.config.Project.ID); err != nil {
		return fmt.Errorf("failed to clear recorded job: %w", err)
	}

	r.logger.Info("recorded job cleared", "project", r.config.Project.ID)
	r.writePlain("✓ Tracked job forgotten for project %s\n", r.config.Project.ID)
	return nil
}
