// internal/counting/state_test.go
package counting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduceHappyPath(t *testing.T) {
	s := State{Phase: PhaseIdle}

	s = Reduce(s, SubmitStarted{})
	assert.Equal(t, PhaseValidating, s.Phase)

	s = Reduce(s, ValidationFinished{OK: true, ValidRows: 2})
	assert.Equal(t, PhaseCreatingSession, s.Phase)
	assert.Equal(t, 2, s.Total)

	s = Reduce(s, SessionCreated{SessionID: "S1"})
	assert.Equal(t, PhaseRegisteringCounts, s.Phase)
	assert.Equal(t, "S1", s.SessionID)
	assert.Equal(t, "registering 1/2", s.String())

	s = Reduce(s, CountRegistered{})
	assert.Equal(t, PhaseRegisteringCounts, s.Phase)
	assert.Equal(t, 1, s.Registered)

	s = Reduce(s, CountRegistered{})
	assert.Equal(t, PhaseDone, s.Phase)
	assert.Equal(t, 2, s.Registered)
	assert.True(t, s.Terminal())

	s = Reduce(s, FormReset{})
	assert.Equal(t, State{Phase: PhaseIdle}, s)
}

func TestReduceValidationReturnsToIdle(t *testing.T) {
	s := Reduce(State{Phase: PhaseIdle}, SubmitStarted{})

	assert.Equal(t, PhaseIdle, Reduce(s, ValidationFinished{OK: false, ValidRows: 3}).Phase)
	assert.Equal(t, PhaseIdle, Reduce(s, ValidationFinished{OK: true, ValidRows: 0}).Phase)
}

func TestReduceFailureKeepsProgress(t *testing.T) {
	boom := errors.New("boom")
	s := State{Phase: PhaseRegisteringCounts, SessionID: "S1", Registered: 1, Total: 3}

	s = Reduce(s, StepFailed{Err: boom})
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, "S1", s.SessionID)
	assert.Equal(t, 1, s.Registered)
	assert.Equal(t, 3, s.Total)
	assert.ErrorIs(t, s.Err, boom)

	assert.Equal(t, s, Reduce(s, CountRegistered{}))
	assert.Equal(t, s, Reduce(s, StepFailed{Err: errors.New("other")}))
}

func TestReduceIgnoresOutOfPhaseEvents(t *testing.T) {
	idle := State{Phase: PhaseIdle}
	assert.Equal(t, idle, Reduce(idle, SessionCreated{SessionID: "S1"}))
	assert.Equal(t, idle, Reduce(idle, CountRegistered{}))
	assert.Equal(t, idle, Reduce(idle, StepFailed{Err: errors.New("x")}))

	creating := State{Phase: PhaseCreatingSession, Total: 1}
	assert.Equal(t, creating, Reduce(creating, SubmitStarted{}))
	assert.Equal(t, creating, Reduce(creating, CountRegistered{}))
}
