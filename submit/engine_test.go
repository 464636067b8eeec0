package submit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(chain []SubmitFunc) (*Engine, *[]time.Duration) {
	e := NewEngine(chain, 3, time.Second)
	delays := &[]time.Duration{}
	e.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	e.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	return e, delays
}

func TestSubmitFirstEndpointSucceeds(t *testing.T) {
	var gotID int
	var gotPayload Payload
	chain := []SubmitFunc{
		func(sessionID int, p Payload) (*Result, error) {
			gotID = sessionID
			gotPayload = p
			return &Result{SessionID: sessionID, Score: p.Score, Status: "completed"}, nil
		},
		func(int, Payload) (*Result, error) {
			t.Fatal("second endpoint must not be tried after success")
			return nil, nil
		},
	}
	e, delays := newTestEngine(chain)

	questions := []Question{{ID: 1, CorrectAnswer: intp(0)}, {ID: 2, CorrectAnswer: intp(1)}}
	end := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	result := e.SubmitWithRetry("42", map[int]int{0: 0, 1: 0}, end, Fallback{Questions: questions})

	require.NotNil(t, result)
	assert.Equal(t, 42, gotID)
	assert.Equal(t, StatusSubmitted, result.SubmissionStatus)
	assert.Equal(t, 1, gotPayload.Score)
	assert.Equal(t, 2, gotPayload.TotalQuestions)
	assert.Equal(t, 50.0, gotPayload.Percentage)
	assert.Empty(t, *delays)
}

func TestSubmitFallsThroughEndpointChain(t *testing.T) {
	var tried []string
	chain := []SubmitFunc{
		func(int, Payload) (*Result, error) {
			tried = append(tried, "primary")
			return nil, errors.New("500")
		},
		func(sessionID int, _ Payload) (*Result, error) {
			tried = append(tried, "scoped")
			return &Result{SessionID: sessionID}, nil
		},
		func(int, Payload) (*Result, error) {
			tried = append(tried, "terminate")
			return nil, errors.New("unreachable")
		},
	}
	e, delays := newTestEngine(chain)

	result := e.SubmitWithRetry("42", nil, time.Now(), Fallback{})

	assert.Equal(t, []string{"primary", "scoped"}, tried)
	assert.Equal(t, StatusSubmitted, result.SubmissionStatus)
	assert.Equal(t, []time.Duration{2 * time.Second}, *delays)
}

func TestSubmitExhaustionYieldsLocalFallback(t *testing.T) {
	calls := 0
	failing := func(int, Payload) (*Result, error) {
		calls++
		return nil, errors.New("connection refused")
	}
	e, delays := newTestEngine([]SubmitFunc{failing, failing, failing})

	questions := []Question{
		{ID: 1, CorrectAnswer: intp(1)},
		{ID: 2, CorrectAnswer: intp(0)},
		{ID: 3, CorrectAnswer: intp(0), CorrectOptionID: intp(999)},
		{ID: 4, CorrectAnswer: intp(2)},
		{ID: 5, CorrectAnswer: intp(1)},
	}
	fb := Fallback{
		TestID:          7,
		CandidateName:   "Ada Candidate",
		CandidateEmail:  "ada@example.com",
		DurationMinutes: 30,
		Questions:       questions,
	}
	end := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	answers := map[int]int{0: 1, 2: 0}

	result := e.SubmitWithRetry("42", answers, end, fb)

	require.NotNil(t, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)

	assert.Equal(t, StatusLocalFallback, result.SubmissionStatus)
	assert.Equal(t, "completed", result.Status)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 42, result.SessionID)
	assert.Equal(t, 7, result.TestID)
	assert.Equal(t, "Ada Candidate", result.CandidateName)
	assert.Equal(t, CalculateScore(answers, questions), result.Score)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.Equal(t, 40.0, result.Percentage)
	assert.Equal(t, end, result.EndTime)
	assert.Equal(t, end.Add(-30*time.Minute), result.StartTime)
	assert.Contains(t, result.ErrorDetails, "connection refused")
}

func TestNormalizeSessionID(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	assert.Equal(t, 42, NormalizeSessionID("42", now))
	assert.Equal(t, int(fixed.UnixMilli()), NormalizeSessionID("not-a-number", now))
	assert.Equal(t, int(fixed.UnixMilli()), NormalizeSessionID("", now))
}

func TestSubmitEmptyExam(t *testing.T) {
	e, _ := newTestEngine([]SubmitFunc{func(int, Payload) (*Result, error) {
		return nil, errors.New("down")
	}})

	result := e.SubmitWithRetry("42", nil, time.Now(), Fallback{})
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.TotalQuestions)
	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, StatusLocalFallback, result.SubmissionStatus)
}
