package sensor

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StdinSource parses newline-delimited commands into sensor events, for
// headless operation and scripted runs:
//
//	tab | blur | fullscreen | hide | show
//	key <combo>
//	faces <n>
//	mouse <x> <y>
//	perm <camera|microphone>
//	light <level>
//	answer <question> <option>
//	finish
type StdinSource struct {
	events    chan Event
	closeOnce sync.Once
	done      chan struct{}
}

func NewStdinSource(r io.Reader) *StdinSource {
	s := &StdinSource{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go s.read(r)
	return s
}

func (s *StdinSource) Events() <-chan Event { return s.events }

func (s *StdinSource) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *StdinSource) read(r io.Reader) {
	defer close(s.events)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-s.done:
			return
		default:
		}
		ev, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func parseLine(line string) (Event, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Event{}, false
	}

	ev := Event{At: time.Now(), Details: map[string]any{}}
	switch fields[0] {
	case "tab":
		ev.Kind = KindTabSwitch
	case "blur":
		ev.Kind = KindWindowBlur
	case "fullscreen":
		ev.Kind = KindFullscreenExit
	case "hide":
		ev.Kind = KindVisibilityHidden
	case "show":
		ev.Kind = KindVisibilityShown
	case "key":
		if len(fields) < 2 {
			return Event{}, false
		}
		ev.Kind = KindKeyboardShortcut
		ev.Details["key_combination"] = strings.Join(fields[1:], " ")
	case "faces":
		if len(fields) < 2 {
			return Event{}, false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Event{}, false
		}
		ev.Kind = KindFaceCount
		ev.Details["face_count"] = n
	case "mouse":
		if len(fields) < 3 {
			return Event{}, false
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return Event{}, false
		}
		ev.Kind = KindMouseMove
		ev.Details["x"] = x
		ev.Details["y"] = y
	case "perm":
		if len(fields) < 2 {
			return Event{}, false
		}
		ev.Kind = KindPermissionDenied
		ev.Details["device"] = fields[1]
	case "answer":
		if len(fields) < 3 {
			return Event{}, false
		}
		q, errQ := strconv.Atoi(fields[1])
		opt, errO := strconv.Atoi(fields[2])
		if errQ != nil || errO != nil {
			return Event{}, false
		}
		ev.Kind = KindAnswer
		ev.Details["question"] = q
		ev.Details["option"] = opt
	case "finish":
		ev.Kind = KindFinish
	case "light":
		if len(fields) < 2 {
			return Event{}, false
		}
		level, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Event{}, false
		}
		ev.Kind = KindLighting
		ev.Details["level"] = level
	default:
		return Event{}, false
	}
	return ev, true
}
