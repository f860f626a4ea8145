// internal/counting/submission_test.go
package counting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/stockcount/internal/apiclient"
)

// fakeBackend records calls and stores counts like the server would.
type fakeBackend struct {
	mu         sync.Mutex
	sessionErr error
	failOn     int
	failErr    error
	listErr    error

	sessionReqs []apiclient.CreateSessionRequest
	countReqs   []apiclient.RegisterCountRequest
	credsSeen   []apiclient.Credentials
	stored      map[string][]apiclient.Count
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{stored: make(map[string][]apiclient.Count)}
}

func (f *fakeBackend) CreateSession(_ context.Context, creds apiclient.Credentials, req apiclient.CreateSessionRequest) (*apiclient.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credsSeen = append(f.credsSeen, creds)
	f.sessionReqs = append(f.sessionReqs, req)
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	id := fmt.Sprintf("S%d", len(f.sessionReqs))
	return &apiclient.Session{ID: id, WarehouseID: req.WarehouseID, CountNumber: 1, Status: "OPEN"}, nil
}

func (f *fakeBackend) RegisterCount(_ context.Context, creds apiclient.Credentials, sessionID string, req apiclient.RegisterCountRequest) (*apiclient.Count, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credsSeen = append(f.credsSeen, creds)
	f.countReqs = append(f.countReqs, req)
	if f.failOn > 0 && len(f.countReqs) == f.failOn {
		return nil, f.failErr
	}
	count := apiclient.Count{
		Product:           apiclient.ProductSummary{ID: req.ProductID},
		PackagingQuantity: req.PackagingQuantity,
		TotalUnits:        req.PackagingQuantity * 12,
		CreatedAt:         time.Now(),
	}
	f.stored[sessionID] = append(f.stored[sessionID], count)
	return &count, nil
}

func (f *fakeBackend) ListCounts(_ context.Context, _ apiclient.Credentials, sessionID string) ([]apiclient.Count, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]apiclient.Count(nil), f.stored[sessionID]...), nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessionReqs) + len(f.countReqs)
}

type SubmissionTestSuite struct {
	suite.Suite
	backend *fakeBackend
	creds   apiclient.Credentials
	request SessionRequest
	states  []State
	logHook *test.Hook
	sub     *Submitter
}

func (suite *SubmissionTestSuite) SetupTest() {
	suite.backend = newFakeBackend()
	suite.creds = apiclient.Credentials{Token: "token-1", UserID: "user-1"}
	suite.request = SessionRequest{
		WarehouseID: "W1",
		Month:       time.Date(2025, time.March, 17, 9, 30, 0, 0, time.UTC),
	}
	suite.states = nil

	logger, hook := test.NewNullLogger()
	suite.logHook = hook
	suite.sub = NewSubmitter(suite.backend,
		WithLogger(logger),
		WithObserver(func(s State) { suite.states = append(suite.states, s) }),
	)
}

func (suite *SubmissionTestSuite) phases() []Phase {
	out := make([]Phase, 0, len(suite.states))
	for _, s := range suite.states {
		out = append(out, s.Phase)
	}
	return out
}

// A quantity in the packaging unit is registered unchanged.
func (suite *SubmissionTestSuite) TestPackagingUnitQuantityIsSentAsIs() {
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 5)

	result, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().NoError(err)

	suite.Require().Len(suite.backend.countReqs, 1)
	suite.Equal(apiclient.RegisterCountRequest{ProductID: "P1", PackagingQuantity: 5, MeasureUnitID: "U-pack"}, suite.backend.countReqs[0])
	suite.Equal("S1", result.Session.ID)
	suite.Len(result.Counts, 1)
	suite.Equal(int64(60), result.Counts[0].TotalUnits)
}

// A quantity in the inventory unit is divided by the factor.
func (suite *SubmissionTestSuite) TestInventoryUnitQuantityIsConverted() {
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-inv", 30)

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().NoError(err)

	suite.Require().Len(suite.backend.countReqs, 1)
	suite.Equal(int64(3), suite.backend.countReqs[0].PackagingQuantity)
}

// Rows with nothing to count never reach the server.
func (suite *SubmissionTestSuite) TestZeroQuantityRowsMakeNoNetworkCall() {
	rows := NewRowSet()
	id := addFilledRow(rows, "P1", "U-pack", 0)

	result, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)

	suite.Nil(result)
	suite.ErrorIs(err, ErrNoValidRows)
	suite.Equal("add at least one product", err.Error())
	suite.Zero(suite.backend.calls())
	suite.Equal(MsgQuantityInvalid, rows.Errors()[id])
	suite.Equal(PhaseIdle, suite.sub.State().Phase)
	suite.Equal(logrus.WarnLevel, suite.logHook.LastEntry().Level)
}

func (suite *SubmissionTestSuite) TestRowWithoutSnapshotIsNotSent() {
	rows := NewRowSet()
	id := rows.AddRow()
	rows.UpdateRow(id, RowPatch{
		ProductID:     strPtr("P1"),
		MeasureUnitID: strPtr("U-inv"),
		Quantity:      floatPtr(30),
	})

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)

	suite.ErrorIs(err, ErrNoValidRows)
	suite.Zero(suite.backend.calls())
	suite.Empty(suite.backend.countReqs)
}

func (suite *SubmissionTestSuite) TestEmptyRowSetMakesNoNetworkCall() {
	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, NewRowSet())

	suite.ErrorIs(err, ErrNoValidRows)
	suite.Zero(suite.backend.calls())
}

func (suite *SubmissionTestSuite) TestValidationErrorsBlockSubmission() {
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)
	dup := addFilledRow(rows, "P1", "U-pack", 2)

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)

	var verr *ValidationError
	suite.Require().ErrorAs(err, &verr)
	suite.Equal(map[string]string{dup: MsgDuplicateProduct}, verr.Errors)
	suite.Zero(suite.backend.calls())
	suite.Equal([]Phase{PhaseValidating, PhaseIdle}, suite.phases())
}

// A failed registration keeps the session and the counts stored before it.
func (suite *SubmissionTestSuite) TestSecondRegistrationFailureStopsLoop() {
	suite.backend.failOn = 2
	suite.backend.failErr = &apiclient.APIError{StatusCode: http.StatusNotFound, Message: "Product not found"}

	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)
	failing := addFilledRow(rows, "P2", "U-pack", 2)
	addFilledRow(rows, "P3", "U-pack", 3)

	result, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Nil(result)

	var serr *SubmissionError
	suite.Require().ErrorAs(err, &serr)
	suite.True(serr.Partial())
	suite.Equal("S1", serr.SessionID)
	suite.Equal(1, serr.Registered)
	suite.Equal(3, serr.Total)
	suite.Equal(failing, serr.FailedRowID)
	suite.Equal("Product not found", errors.Unwrap(serr).Error())
	suite.True(apiclient.IsStatus(err, http.StatusNotFound))

	suite.Len(suite.backend.countReqs, 2, "third row must not be attempted")
	suite.Len(suite.backend.stored["S1"], 1)

	state := suite.sub.State()
	suite.Equal(PhaseFailed, state.Phase)
	suite.Equal("S1", state.SessionID)
	suite.Equal(1, state.Registered)

	suite.Equal([]Phase{
		PhaseValidating,
		PhaseCreatingSession,
		PhaseRegisteringCounts,
		PhaseRegisteringCounts,
		PhaseFailed,
	}, suite.phases())
}

func (suite *SubmissionTestSuite) TestSessionCreationFailure() {
	suite.backend.sessionErr = &apiclient.APIError{StatusCode: http.StatusBadRequest, Message: "Maximum 3 sessions per month per warehouse"}

	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)

	var serr *SubmissionError
	suite.Require().ErrorAs(err, &serr)
	suite.False(serr.Partial())
	suite.Zero(serr.Registered)
	suite.Empty(suite.backend.countReqs)
	suite.Equal(PhaseFailed, suite.sub.State().Phase)
}

func (suite *SubmissionTestSuite) TestSuccessWalksAllPhasesInOrder() {
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)
	addFilledRow(rows, "P2", "U-inv", 24)

	result, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().NoError(err)

	suite.Equal(2, result.Total)
	suite.Equal([]Phase{
		PhaseValidating,
		PhaseCreatingSession,
		PhaseRegisteringCounts,
		PhaseRegisteringCounts,
		PhaseDone,
	}, suite.phases())

	suite.Require().Len(suite.backend.countReqs, 2)
	suite.Equal("P1", suite.backend.countReqs[0].ProductID)
	suite.Equal("P2", suite.backend.countReqs[1].ProductID)
	suite.Equal(int64(2), suite.backend.countReqs[1].PackagingQuantity)
}

func (suite *SubmissionTestSuite) TestSessionRequestCarriesExplicitCredentials() {
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().NoError(err)

	suite.Equal(apiclient.CreateSessionRequest{
		WarehouseID: "W1",
		Month:       "2025-03-01T00:00:00.000Z",
		CreatedBy:   "user-1",
	}, suite.backend.sessionReqs[0])
	for _, c := range suite.backend.credsSeen {
		suite.Equal(suite.creds, c)
	}
}

func (suite *SubmissionTestSuite) TestSubmitAfterFailureStartsFresh() {
	suite.backend.sessionErr = errors.New("connection refused")
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)

	_, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().Error(err)

	suite.backend.sessionErr = nil
	result, err := suite.sub.Submit(context.Background(), suite.creds, suite.request, rows)
	suite.Require().NoError(err)
	suite.Equal("S2", result.Session.ID)
	suite.Equal(PhaseDone, suite.sub.State().Phase)
}

func (suite *SubmissionTestSuite) TestCancelledContextStopsBeforeNextRow() {
	ctx, cancel := context.WithCancel(context.Background())
	rows := NewRowSet()
	addFilledRow(rows, "P1", "U-pack", 1)
	addFilledRow(rows, "P2", "U-pack", 1)

	sub := NewSubmitter(suite.backend, WithObserver(func(s State) {
		if s.Phase == PhaseRegisteringCounts && s.Registered == 1 {
			cancel()
		}
	}))

	_, err := sub.Submit(ctx, suite.creds, suite.request, rows)

	var serr *SubmissionError
	suite.Require().ErrorAs(err, &serr)
	suite.ErrorIs(err, context.Canceled)
	suite.Equal(1, serr.Registered)
	suite.Len(suite.backend.countReqs, 1)
}

func TestSubmissionSuite(t *testing.T) {
	suite.Run(t, new(SubmissionTestSuite))
}

func TestMonthParam(t *testing.T) {
	assert.Equal(t, "2024-12-01T00:00:00.000Z", MonthParam(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)))

	m, err := ParseMonth("2025-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01T00:00:00.000Z", MonthParam(m))

	_, err = ParseMonth("02/2025")
	assert.Error(t, err)
}
