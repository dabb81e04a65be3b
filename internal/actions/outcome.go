package actions

// Status is the terminal state of an action.
type Status int

const (
	Success Status = iota
	Skipped
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	default:
		return "failure"
	}
}

// Outcome is what a run reports for one action. Reason is empty for Success.
type Outcome struct {
	Status Status
	Reason string
}

// Succeeded returns a Success outcome.
func Succeeded() Outcome { return Outcome{Status: Success} }

// Skip returns a Skipped outcome; nothing on the host was changed.
func Skip(reason string) Outcome { return Outcome{Status: Skipped, Reason: reason} }

// Fail returns a Failure outcome; the host may hold partial state.
func Fail(reason string) Outcome { return Outcome{Status: Failure, Reason: reason} }

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Status.String()
	}
	return o.Status.String() + ": " + o.Reason
}
