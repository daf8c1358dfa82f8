package checkout

type State int32

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

// String representation (for logging)
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Busy reports whether a submission owns the orchestrator.
func (s State) Busy() bool {
	return s != StateIdle
}
