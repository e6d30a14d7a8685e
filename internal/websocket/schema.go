package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing  Action = "ping"
	ActionClose Action = "close"
)

// RequestEnvelope is the only client payload on the progress stream; the
// server pushes, the client at most pings.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventProgress  Event = "progress"
	EventCompleted Event = "completed"
	EventFailed    Event = "failed"
	EventPong      Event = "pong"
)

// ProgressResponse is pushed on every observed phase transition.
type ProgressResponse struct {
	Event       Event  `json:"event"`
	Status      string `json:"status"`
	CurrentStep int    `json:"current_step"`
	TotalSteps  int    `json:"total_steps"`
}

// CompletedResponse is the final frame of a successful run.
type CompletedResponse struct {
	Event  Event  `json:"event"`
	ExamID string `json:"exam_id"`
}

// FailedResponse is the final frame of a failed run.
type FailedResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
