// Gist pipeline backend client
//
// Endpoint shapes follow the backend's REST API: video submission,
// per-video status, ideas, timeline, and project details.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gistlabs/gistctl/internal/models"
	"github.com/gistlabs/gistctl/internal/pipeline"
	"github.com/gistlabs/gistctl/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:8000"

// requestsPerSecond caps outbound API calls so a tight poll interval
// cannot hammer the backend.
const requestsPerSecond = 10

// GistService implements [Backend] against the gist pipeline REST API.
type GistService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGistService creates a backend client. When token is non-empty every
// request carries it as a bearer credential via an [oauth2.StaticTokenSource].
func NewGistService(baseURL, token string, client *http.Client) *GistService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if client == nil {
		client = http.DefaultClient
	}

	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, src)
	}

	return &GistService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// BaseURL returns the configured backend base URL.
func (g *GistService) BaseURL() string {
	return g.baseURL
}

// StreamURL returns the websocket endpoint delivering push events for a job.
func (g *GistService) StreamURL(jobID string) string {
	u := g.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/videos/" + url.PathEscape(jobID)
}

// Wire types

type videoResponse struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type videoStatusResponse struct {
	VideoID      string  `json:"video_id"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	CurrentStage *string `json:"current_stage"`
	Message      string  `json:"message"`
}

func (v videoStatusResponse) toModel() models.JobStatus {
	stage := v.Status
	if v.CurrentStage != nil && *v.CurrentStage != "" {
		stage = *v.CurrentStage
	}
	return models.JobStatus{
		JobID:   v.VideoID,
		Stage:   pipeline.Stage(stage),
		Percent: v.Progress,
		Message: v.Message,
	}
}

type timeRangeSchema struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type ideaResponse struct {
	ID             string            `json:"id"`
	Rank           int               `json:"rank"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Strength       string            `json:"strength"`
	ViralPotential float64           `json:"viral_potential"`
	Highlights     []string          `json:"highlights"`
	TimeRanges     []timeRangeSchema `json:"time_ranges"`
}

type ideasResponse struct {
	VideoID string         `json:"video_id"`
	Ideas   []ideaResponse `json:"ideas"`
}

type timelineSegmentSchema struct {
	Start float64  `json:"start"`
	End   float64  `json:"end"`
	Label string   `json:"label"`
	Ideas []string `json:"ideas"`
}

type timelineResponse struct {
	VideoID   string                  `json:"video_id"`
	VideoURL  string                  `json:"video_url"`
	Duration  float64                 `json:"duration"`
	Title     string                  `json:"title"`
	Thumbnail string                  `json:"thumbnail"`
	Segments  []timelineSegmentSchema `json:"segments"`
}

type projectDetailsResponse struct {
	Videos []videoStatusResponse `json:"videos"`
}

// SubmitVideo creates a processing job from a source URL.
func (g *GistService) SubmitVideo(ctx context.Context, sourceURL, projectID, mode string) (*models.JobAccepted, error) {
	if sourceURL == "" {
		return nil, fmt.Errorf("%w: empty video URL", shared.ErrInvalidInput)
	}
	if mode == "" {
		mode = "auto"
	}

	body := map[string]string{"url": sourceURL, "mode": mode}
	if projectID != "" {
		body["project_id"] = projectID
	}

	var resp videoResponse
	if err := g.postJSON(ctx, "/api/videos/youtube", body, &resp); err != nil {
		return nil, err
	}

	return &models.JobAccepted{
		JobID:   resp.VideoID,
		Stage:   pipeline.Stage(resp.Status),
		Message: resp.Message,
	}, nil
}

// VideoStatus pulls the full status snapshot for a job.
func (g *GistService) VideoStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	var resp videoStatusResponse
	if err := g.getJSON(ctx, "/api/videos/"+url.PathEscape(jobID), &resp); err != nil {
		return nil, err
	}
	status := resp.toModel()
	return &status, nil
}

// VideoIdeas fetches the ranked ideas for a completed job.
func (g *GistService) VideoIdeas(ctx context.Context, jobID string) ([]models.Idea, error) {
	var resp ideasResponse
	if err := g.getJSON(ctx, "/api/videos/"+url.PathEscape(jobID)+"/ideas", &resp); err != nil {
		return nil, err
	}

	ideas := make([]models.Idea, 0, len(resp.Ideas))
	for _, raw := range resp.Ideas {
		idea := models.Idea{
			ID:             raw.ID,
			Rank:           raw.Rank,
			Title:          raw.Title,
			Description:    raw.Description,
			Strength:       raw.Strength,
			ViralPotential: raw.ViralPotential,
			Highlights:     raw.Highlights,
		}
		for _, tr := range raw.TimeRanges {
			idea.TimeRanges = append(idea.TimeRanges, models.TimeRange{Start: tr.Start, End: tr.End})
		}
		ideas = append(ideas, idea)
	}

	return ideas, nil
}

// VideoTimeline fetches playback metadata for a job.
func (g *GistService) VideoTimeline(ctx context.Context, jobID string) (*models.Timeline, error) {
	var resp timelineResponse
	if err := g.getJSON(ctx, "/api/videos/"+url.PathEscape(jobID)+"/timeline", &resp); err != nil {
		return nil, err
	}

	timeline := &models.Timeline{
		VideoURL:  resp.VideoURL,
		Duration:  resp.Duration,
		Title:     resp.Title,
		Thumbnail: resp.Thumbnail,
	}
	for _, seg := range resp.Segments {
		timeline.Segments = append(timeline.Segments, models.TimelineSegment{
			Start:   seg.Start,
			End:     seg.End,
			Label:   seg.Label,
			IdeaIDs: seg.Ideas,
		})
	}

	return timeline, nil
}

// ProjectJobs lists the jobs recorded for a project, oldest first.
func (g *GistService) ProjectJobs(ctx context.Context, projectID string) ([]models.JobStatus, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: empty project id", shared.ErrInvalidInput)
	}

	var resp projectDetailsResponse
	if err := g.getJSON(ctx, "/api/projects/"+url.PathEscape(projectID)+"/details", &resp); err != nil {
		return nil, err
	}

	jobs := make([]models.JobStatus, 0, len(resp.Videos))
	for _, v := range resp.Videos {
		jobs = append(jobs, v.toModel())
	}

	return jobs, nil
}

func (g *GistService) getJSON(ctx context.Context, path string, out any) error {
	return g.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (g *GistService) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return g.doJSON(ctx, http.MethodPost, path, payload, out)
}

func (g *GistService) doJSON(ctx context.Context, method, path string, payload []byte, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Correlation id so a failed call can be matched against backend logs.
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, path, err)
	}

	return nil
}
