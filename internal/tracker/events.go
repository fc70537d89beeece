package tracker

import "encoding/json"

// Push event types delivered on the per-job websocket.
const (
	EventProgress      = "progress"
	EventStageComplete = "stage_complete"
	EventVideoReady    = "video_ready"
	EventComplete      = "complete"
	EventError         = "error"
)

// Event is one decoded push message. Fields are populated per type:
// progress carries stage/progress/message, stage_complete carries
// stage/next_stage, video_ready carries title/duration, complete
// carries ideas_count/message, error carries stage/error/message.
type Event struct {
	Type       string  `json:"type"`
	Stage      string  `json:"stage,omitempty"`
	NextStage  string  `json:"next_stage,omitempty"`
	Progress   int     `json:"progress,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
	VideoID    string  `json:"video_id,omitempty"`
	Title      string  `json:"title,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	IdeasCount int     `json:"ideas_count,omitempty"`
}

// decodeEvent parses a raw websocket payload into an Event.
func decodeEvent(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}
