// internal/counting/state.go
package counting

import "fmt"

type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseValidating        Phase = "validating"
	PhaseCreatingSession   Phase = "creating_session"
	PhaseRegisteringCounts Phase = "registering_counts"
	PhaseDone              Phase = "done"
	PhaseFailed            Phase = "failed"
)

// State is the submission state. Registered and Total only carry meaning
// once a session exists; Err is set in PhaseFailed.
type State struct {
	Phase      Phase
	SessionID  string
	Registered int
	Total      int
	Err        error
}

func (s State) String() string {
	switch s.Phase {
	case PhaseRegisteringCounts:
		return fmt.Sprintf("registering %d/%d", s.Registered+1, s.Total)
	case PhaseDone:
		return fmt.Sprintf("done: %d/%d registered", s.Registered, s.Total)
	case PhaseFailed:
		if s.SessionID != "" {
			return fmt.Sprintf("failed after %d/%d: %v", s.Registered, s.Total, s.Err)
		}
		return fmt.Sprintf("failed: %v", s.Err)
	default:
		return string(s.Phase)
	}
}

// Terminal reports whether no further transition is possible without a reset.
func (s State) Terminal() bool {
	return s.Phase == PhaseDone || s.Phase == PhaseFailed
}

// Event is one of the transitions Reduce understands.
type Event interface {
	event()
}

type SubmitStarted struct{}

type ValidationFinished struct {
	OK        bool
	ValidRows int
}

type SessionCreated struct {
	SessionID string
}

type CountRegistered struct{}

type StepFailed struct {
	Err error
}

type FormReset struct{}

func (SubmitStarted) event()      {}
func (ValidationFinished) event() {}
func (SessionCreated) event()     {}
func (CountRegistered) event()    {}
func (StepFailed) event()         {}
func (FormReset) event()          {}

// Reduce returns the state that follows s on e. Events that do not apply to
// the current phase leave the state unchanged.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case SubmitStarted:
		if s.Phase != PhaseIdle {
			return s
		}
		return State{Phase: PhaseValidating}

	case ValidationFinished:
		if s.Phase != PhaseValidating {
			return s
		}
		if !ev.OK || ev.ValidRows == 0 {
			return State{Phase: PhaseIdle}
		}
		return State{Phase: PhaseCreatingSession, Total: ev.ValidRows}

	case SessionCreated:
		if s.Phase != PhaseCreatingSession {
			return s
		}
		return State{
			Phase:     PhaseRegisteringCounts,
			SessionID: ev.SessionID,
			Total:     s.Total,
		}

	case CountRegistered:
		if s.Phase != PhaseRegisteringCounts {
			return s
		}
		next := s
		next.Registered++
		if next.Registered >= next.Total {
			next.Phase = PhaseDone
		}
		return next

	case StepFailed:
		if s.Phase == PhaseIdle || s.Terminal() {
			return s
		}
		next := s
		next.Phase = PhaseFailed
		next.Err = ev.Err
		return next

	case FormReset:
		return State{Phase: PhaseIdle}
	}
	return s
}
