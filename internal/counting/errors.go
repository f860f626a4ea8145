// internal/counting/errors.go
package counting

import (
	"errors"
	"fmt"
)

var (
	ErrNoValidRows          = errors.New("add at least one product")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
)

// ValidationError carries the per-row messages that blocked a submission.
// Nothing was sent to the server.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "1 row failed validation"
	}
	return fmt.Sprintf("%d rows failed validation", len(e.Errors))
}

// SubmissionError reports a server-side failure. When SessionID is set the
// session exists and the first Registered of Total counts were stored.
type SubmissionError struct {
	SessionID   string
	Registered  int
	Total       int
	FailedRowID string
	Err         error
}

func (e *SubmissionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("create session: %v", e.Err)
	}
	return fmt.Sprintf("session %s: registered %d of %d counts: %v", e.SessionID, e.Registered, e.Total, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Partial reports whether the session was created before the failure.
func (e *SubmissionError) Partial() bool {
	return e.SessionID != ""
}
