package submit

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"vigil/log"
)

// Payload is the submission body sent to any of the session endpoints.
type Payload struct {
	SessionID      int            `json:"session_id"`
	Answers        []AnswerRecord `json:"answers"`
	EndTime        time.Time      `json:"end_time"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     float64        `json:"percentage"`
}

// Result is the terminal outcome of a submission sequence. Server-confirmed
// and locally synthesized results share this shape; only SubmissionStatus
// ("submitted" vs "local_fallback") reveals provenance.
type Result struct {
	ID               string    `json:"id"`
	SessionID        int       `json:"session_id"`
	TestID           int       `json:"test_id"`
	CandidateName    string    `json:"candidate_name,omitempty"`
	CandidateEmail   string    `json:"candidate_email,omitempty"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	Percentage       float64   `json:"percentage"`
	Status           string    `json:"status"`
	SubmissionStatus string    `json:"submission_status"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ErrorDetails     string    `json:"error_details,omitempty"`
}

const (
	StatusSubmitted     = "submitted"
	StatusLocalFallback = "local_fallback"
)

// SubmitFunc is one substitutable submission endpoint.
type SubmitFunc func(sessionID int, p Payload) (*Result, error)

// Fallback is everything needed to synthesize a displayable result when every
// submission attempt fails.
type Fallback struct {
	TestID          int
	CandidateName   string
	CandidateEmail  string
	DurationMinutes int
	Questions       []Question
}

// Engine submits a finished test with bounded retries, exponential backoff
// and multi-endpoint fallback. It never returns an error: exhausting every
// attempt yields a locally synthesized result tagged local_fallback.
type Engine struct {
	chain    []SubmitFunc // tried in order, one per attempt, wrapping around
	attempts int
	backoff  BackoffFunc
	sleep    func(time.Duration)
	now      func() time.Time
}

func NewEngine(chain []SubmitFunc, attempts int, backoffBase time.Duration) *Engine {
	return &Engine{
		chain:    chain,
		attempts: attempts,
		backoff:  ExpBackoff(backoffBase),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// NormalizeSessionID parses a session identifier into its numeric form. A
// malformed identifier is substituted with a timestamp-derived one rather
// than failing the submission outright.
func NormalizeSessionID(sessionID string, now func() time.Time) int {
	if id, err := strconv.Atoi(sessionID); err == nil {
		return id
	}
	return int(now().UnixMilli())
}

// SubmitWithRetry drives the whole bounded sequence and always returns a
// terminal result. Attempt i uses endpoint chain[(i-1) mod len(chain)], so
// a flaky primary endpoint falls through to the session-scoped variant and
// then to the terminate endpoint.
func (e *Engine) SubmitWithRetry(sessionID string, answers map[int]int, endTime time.Time, fb Fallback) *Result {
	started := e.now()
	id := NormalizeSessionID(sessionID, e.now)

	score := CalculateScore(answers, fb.Questions)
	total := len(fb.Questions)
	payload := Payload{
		SessionID:      id,
		Answers:        FormatAnswers(answers, fb.Questions),
		EndTime:        endTime,
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage(score, total),
	}

	attempts := 0
	result, err := Retry(e.attempts, e.backoff, e.sleep, func(attempt int) (*Result, error) {
		attempts = attempt
		endpoint := e.chain[(attempt-1)%len(e.chain)]
		return endpoint(id, payload)
	})
	if err == nil {
		if result.SubmissionStatus == "" {
			result.SubmissionStatus = StatusSubmitted
		}
		log.SubmissionResult(id, result.SubmissionStatus, attempts, e.now().Sub(started))
		return result
	}

	local := e.localFallback(id, payload, fb, endTime, err)
	log.SubmissionResult(id, local.SubmissionStatus, attempts, e.now().Sub(started))
	return local
}

// localFallback synthesizes a terminal result from locally known data. The
// result is displayable but not durably stored server-side; the status tag
// surfaces that degradation to the caller.
func (e *Engine) localFallback(id int, payload Payload, fb Fallback, endTime time.Time, lastErr error) *Result {
	return &Result{
		ID:               uuid.NewString(),
		SessionID:        id,
		TestID:           fb.TestID,
		CandidateName:    fb.CandidateName,
		CandidateEmail:   fb.CandidateEmail,
		Score:            payload.Score,
		TotalQuestions:   payload.TotalQuestions,
		Percentage:       payload.Percentage,
		Status:           "completed",
		SubmissionStatus: StatusLocalFallback,
		StartTime:        endTime.Add(-time.Duration(fb.DurationMinutes) * time.Minute),
		EndTime:          endTime,
		ErrorDetails:     lastErr.Error(),
	}
}

func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
