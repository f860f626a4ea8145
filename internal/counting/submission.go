// internal/counting/submission.go
package counting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/stockcount/internal/apiclient"
)

// SubmissionAPI is the part of the backend a submission talks to.
type SubmissionAPI interface {
	CreateSession(ctx context.Context, creds apiclient.Credentials, req apiclient.CreateSessionRequest) (*apiclient.Session, error)
	RegisterCount(ctx context.Context, creds apiclient.Credentials, sessionID string, req apiclient.RegisterCountRequest) (*apiclient.Count, error)
}

// CountsLister reads back the counts of a session.
type CountsLister interface {
	ListCounts(ctx context.Context, creds apiclient.Credentials, sessionID string) ([]apiclient.Count, error)
}

type API interface {
	SubmissionAPI
	CountsLister
}

type SessionRequest struct {
	WarehouseID string
	Month       time.Time
}

type Result struct {
	Session *apiclient.Session
	Counts  []apiclient.Count
	Total   int
}

// MonthParam renders the first day of t's month the way the backend expects it.
func MonthParam(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-01T00:00:00.000Z", t.Year(), int(t.Month()))
}

// ParseMonth accepts YYYY-MM.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return t, nil
}

type Submitter struct {
	api      SubmissionAPI
	log      logrus.FieldLogger
	observer func(State)

	mu      sync.Mutex
	state   State
	running bool
}

type SubmitterOption func(*Submitter)

func WithLogger(l logrus.FieldLogger) SubmitterOption {
	return func(s *Submitter) {
		s.log = l
	}
}

// WithObserver registers fn to receive every state transition.
func WithObserver(fn func(State)) SubmitterOption {
	return func(s *Submitter) {
		s.observer = fn
	}
}

func NewSubmitter(api SubmissionAPI, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		api:   api,
		log:   logrus.StandardLogger(),
		state: State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset returns a finished submitter to Idle.
func (s *Submitter) Reset() {
	s.dispatch(FormReset{})
}

func (s *Submitter) dispatch(e Event) {
	s.mu.Lock()
	s.state = Reduce(s.state, e)
	current := s.state
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(current)
	}
}

func (s *Submitter) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	if s.state.Terminal() {
		s.state = Reduce(s.state, FormReset{})
	}
	return true
}

func (s *Submitter) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Submit validates rows, creates a session and registers one count per valid
// row, in order, one request at a time. The first failed registration stops
// the run; counts already stored are kept and reported in the SubmissionError.
func (s *Submitter) Submit(ctx context.Context, creds apiclient.Credentials, req SessionRequest, rows *RowSet) (*Result, error) {
	if !s.begin() {
		return nil, ErrSubmissionInProgress
	}
	defer s.end()

	s.dispatch(SubmitStarted{})
	ok := rows.Validate()
	valid := rows.ValidRows()
	s.dispatch(ValidationFinished{OK: ok, ValidRows: len(valid)})

	if len(valid) == 0 {
		s.log.WithField("rows", rows.Len()).Warn("No valid rows to submit")
		return nil, ErrNoValidRows
	}
	if !ok {
		return nil, &ValidationError{Errors: rows.Errors()}
	}

	log := s.log.WithFields(logrus.Fields{
		"warehouse_id": req.WarehouseID,
		"month":        MonthParam(req.Month),
		"rows":         len(valid),
	})

	session, err := s.api.CreateSession(ctx, creds, apiclient.CreateSessionRequest{
		WarehouseID: req.WarehouseID,
		Month:       MonthParam(req.Month),
		CreatedBy:   creds.UserID,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create inventory session")
		s.dispatch(StepFailed{Err: err})
		return nil, &SubmissionError{Total: len(valid), Err: err}
	}
	s.dispatch(SessionCreated{SessionID: session.ID})
	log = log.WithField("session_id", session.ID)

	result := &Result{
		Session: session,
		Counts:  make([]apiclient.Count, 0, len(valid)),
		Total:   len(valid),
	}
	for i, row := range valid {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(log, session.ID, i, len(valid), row.RowID, err)
		}
		count, err := s.api.RegisterCount(ctx, creds, session.ID, apiclient.RegisterCountRequest{
			ProductID:         row.ProductID,
			PackagingQuantity: ToPackagingQuantity(row),
			MeasureUnitID:     row.MeasureUnitID,
		})
		if err != nil {
			return nil, s.fail(log, session.ID, i, len(valid), row.RowID, err)
		}
		result.Counts = append(result.Counts, *count)
		s.dispatch(CountRegistered{})
	}

	log.Info("Inventory counts submitted")
	return result, nil
}

func (s *Submitter) fail(log logrus.FieldLogger, sessionID string, registered, total int, rowID string, err error) error {
	log.WithFields(logrus.Fields{
		"registered": registered,
		"row_id":     rowID,
	}).WithError(err).Error("Count registration stopped")
	s.dispatch(StepFailed{Err: err})
	return &SubmissionError{
		SessionID:   sessionID,
		Registered:  registered,
		Total:       total,
		FailedRowID: rowID,
		Err:         err,
	}
}
