package models

// LifecycleState tracks where a submission is in its lifecycle.
type LifecycleState int

const (
	StateIdle LifecycleState = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s LifecycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the controller state.
// At most one of Result and Error is set.
type Snapshot struct {
	State  LifecycleState
	Result *ScrapeResult
	Error  string

	// Request is the most recent submission, including one rejected by
	// validation. Zero before the first submission.
	Request ScrapeRequest
}

// Busy reports whether a submission is outstanding.
func (s Snapshot) Busy() bool {
	return s.State == StateSubmitting
}

// ToResponse converts the snapshot for the local JSON API.
func (s Snapshot) ToResponse() StateResponse {
	return StateResponse{
		State:  s.State.String(),
		Busy:   s.Busy(),
		Result: s.Result,
		Error:  s.Error,
	}
}
