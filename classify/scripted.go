package classify

import (
	"errors"
	"sync"
)

// Scripted replays a fixed sequence of results, repeating the last one once
// the script runs out. Used by monitor tests in place of a live model.
type Scripted struct {
	mu      sync.Mutex
	script  []Result
	pos     int
	failing bool
	calls   int
}

var errScriptedFailure = errors.New("classify: scripted failure")

func NewScripted(script ...Result) *Scripted {
	return &Scripted{script: script}
}

// SetFailing makes every subsequent Classify call return an error.
func (s *Scripted) SetFailing(failing bool) {
	s.mu.Lock()
	s.failing = failing
	s.mu.Unlock()
}

func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Scripted) Classify(_ []byte) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing {
		return Result{}, errScriptedFailure
	}
	if len(s.script) == 0 {
		return Result{Label: LabelSilence, Confidence: 1}, nil
	}
	r := s.script[s.pos]
	if s.pos < len(s.script)-1 {
		s.pos++
	}
	return r, nil
}
