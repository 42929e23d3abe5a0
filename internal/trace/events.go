package trace

import "time"

const (
	// RequestEventType marks a sub-request leaving the orchestrator.
	RequestEventType = "dispatch.request"
	// ResponseEventType marks the matching answer (or failure) coming back.
	ResponseEventType = "dispatch.response"
)

// Event is one step of the orchestrator's dispatch flow, broadcast to live
// observers. Summary is a short human-readable line, never the full payload.
type Event struct {
	Type      string    `json:"type"`
	RequestID string    `json:"request_id"`
	Target    string    `json:"target"`
	Summary   string    `json:"summary,omitempty"`
	Err       string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
