package proposal

// Status describes the proposal lifecycle label used by engine decisions.
type Status string

const (
	StatusUnspecified Status = ""
	StatusActive      Status = "active"
	StatusPassed      Status = "passed"
	StatusRejected    Status = "rejected"
	StatusExecuted    Status = "executed"
)

// Valid reports whether the status is one of the known lifecycle labels.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPassed, StatusRejected, StatusExecuted:
		return true
	default:
		return false
	}
}

// IsStatusTransitionAllowed enforces the one-way proposal lifecycle:
// active moves to passed or rejected exactly once, and only passed
// proposals move to executed. Nothing moves backwards.
func IsStatusTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusActive:
		return to == StatusPassed || to == StatusRejected
	case StatusPassed:
		return to == StatusExecuted
	default:
		return false
	}
}
