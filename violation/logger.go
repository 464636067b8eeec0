package violation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"vigil/log"
)

// Backend is the single call the aggregator makes per accepted violation.
// A returned error or success=false must leave local state untouched.
type Backend interface {
	LogViolation(sessionID string, vtype Type, details map[string]any) (bool, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(sessionID string, vtype Type, details map[string]any) (bool, error)

func (f BackendFunc) LogViolation(sessionID string, vtype Type, details map[string]any) (bool, error) {
	return f(sessionID, vtype, details)
}

var ErrNoSession = errors.New("violation: no session bound")

// Summary is the server-style violation rollup: total count, per-type counts,
// and the most recent records.
type Summary struct {
	Total  int          `json:"total"`
	ByType map[Type]int `json:"by_type"`
	Recent []Record     `json:"recent"`
}

// Logger owns all violation state for one test session: the cooldown map, the
// append-only record list and the total counter. One Logger instance is one
// session arena; it is created when proctoring starts and discarded when it
// stops.
//
// A single goroutine drives reports in production, but sensor callbacks
// arrive on the capture thread, so a mutex guards the maps. The lock is held
// across the backend call so the cooldown check and the local commit cannot
// interleave with a duplicate report of the same type.
type Logger struct {
	mu        sync.Mutex
	backend   Backend
	cooldowns CooldownTable

	sessionID string
	logging   bool
	expiry    map[Type]time.Time
	records   []Record
	total     int

	now func() time.Time
}

func NewLogger(backend Backend, cooldowns CooldownTable) *Logger {
	return &Logger{
		backend:   backend,
		cooldowns: cooldowns,
		expiry:    make(map[Type]time.Time),
		now:       time.Now,
	}
}

// Bind associates the logger with a backend session identifier. Reports fail
// silently until a session is bound and logging is started.
func (l *Logger) Bind(sessionID string) {
	l.mu.Lock()
	l.sessionID = sessionID
	l.mu.Unlock()
}

// StartLogging opens a logging session. It requires a bound session
// identifier.
func (l *Logger) StartLogging() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sessionID == "" {
		return ErrNoSession
	}
	l.logging = true
	return nil
}

// StopLogging closes the logging session and clears all cooldowns. The
// historical record list survives; a new session starts with a clean
// rate-limit slate even when it reuses the same session identifier.
func (l *Logger) StopLogging() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logging = false
	l.expiry = make(map[Type]time.Time)
}

// Reset discards the whole session arena: cooldowns, records and counters.
func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logging = false
	l.sessionID = ""
	l.expiry = make(map[Type]time.Time)
	l.records = nil
	l.total = 0
}

// Report converts one raw signal into at most one durable violation per
// cooldown window. It returns false with no side effect when logging has not
// started, when no session is bound, when the type is cooling down, or when
// the backend refuses the write. The local record is committed only after
// backend acknowledgment, so the local tally never overstates what the server
// stored.
func (l *Logger) Report(vtype Type, details map[string]any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.logging || l.sessionID == "" {
		return false
	}

	now := l.now()
	if exp, ok := l.expiry[vtype]; ok {
		if now.Before(exp) {
			log.ViolationSuppressed(string(vtype))
			return false
		}
		delete(l.expiry, vtype) // lazy eviction on read
	}

	ok, err := l.backend.LogViolation(l.sessionID, vtype, details)
	if err != nil {
		log.Warnf("violation write failed: %s: %v", vtype, err)
		return false
	}
	if !ok {
		log.Warnf("violation rejected by backend: %s", vtype)
		return false
	}

	rec := Record{
		ID:        uuid.NewString(),
		Type:      vtype,
		Timestamp: now.UTC().Format(time.RFC3339),
		Details:   details,
	}
	if fp, ok := details["filepath"].(string); ok {
		rec.Filepath = fp
	}
	l.records = append(l.records, rec)
	l.total++
	l.expiry[vtype] = now.Add(l.cooldowns.For(vtype))

	log.ViolationLogged(l.sessionID, string(vtype), details)
	return true
}

// Count returns the running total of accepted violations.
func (l *Logger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Records returns a copy of the append-only violation list.
func (l *Logger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// CountsByType folds the record list into per-type counts. It is computed on
// demand rather than maintained incrementally, so it is always consistent
// with the list.
func (l *Logger) CountsByType() map[Type]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[Type]int)
	for _, r := range l.records {
		counts[r.Type]++
	}
	return counts
}

// Summarize produces the server-style rollup with the most recent records
// last-first, capped at recentMax entries.
func (l *Logger) Summarize(recentMax int) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := make(map[Type]int)
	for _, r := range l.records {
		counts[r.Type]++
	}

	n := min(recentMax, len(l.records))
	recent := make([]Record, 0, n)
	for i := len(l.records) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, l.records[i])
	}

	return Summary{Total: l.total, ByType: counts, Recent: recent}
}
