// Package gaze approximates "is the candidate looking at the screen" from
// mouse movement and tab visibility. True eye-tracking is unavailable in the
// client; sustained pointer drift away from screen center is the proxy.
package gaze

import (
	"math"

	"vigil/violation"
)

type Direction string

const (
	Center Direction = "center"
	Left   Direction = "left"
	Right  Direction = "right"
	Up     Direction = "up"
	Down   Direction = "down"
	Away   Direction = "away" // forced by tab visibility loss
)

// Reporter receives the away event. Satisfied by *violation.Logger.
type Reporter interface {
	Report(vtype violation.Type, details map[string]any) bool
}

type Config struct {
	TickMs          int     // estimator tick period, drives away-time accounting
	AwayThresholdMs int     // sustained away duration before the event fires
	MoveThresholdPx float64 // pointer offset from center before a direction registers
	ScreenWidth     float64
	ScreenHeight    float64
}

// Estimator is a tick-driven state machine. Observe feeds pointer positions,
// SetHidden feeds tab visibility, and Tick advances the away-time accumulator
// once per tick period. The away event is edge-triggered: it fires once when
// the accumulated away time crosses the threshold and cannot fire again until
// the direction returns to center.
type Estimator struct {
	cfg      Config
	reporter Reporter

	dir       Direction
	hidden    bool
	awayTicks int
	fired     bool
}

func NewEstimator(cfg Config, reporter Reporter) *Estimator {
	return &Estimator{cfg: cfg, reporter: reporter, dir: Center}
}

// Observe classifies a pointer position against the screen-center quadrants.
// While the tab is hidden, positions are ignored; visibility owns the state.
func (e *Estimator) Observe(x, y float64) {
	if e.hidden {
		return
	}
	e.dir = e.classify(x, y)
	if e.dir == Center {
		e.awayTicks = 0
		e.fired = false
	}
}

func (e *Estimator) classify(x, y float64) Direction {
	dx := x - e.cfg.ScreenWidth/2
	dy := y - e.cfg.ScreenHeight/2
	if math.Abs(dx) <= e.cfg.MoveThresholdPx && math.Abs(dy) <= e.cfg.MoveThresholdPx {
		return Center
	}
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			return Left
		}
		return Right
	}
	if dy < 0 {
		return Up
	}
	return Down
}

// SetHidden forces the direction on tab visibility changes. Visibility loss is
// an unambiguous signal: the event fires immediately, without waiting for the
// duration threshold.
func (e *Estimator) SetHidden(hidden bool) {
	e.hidden = hidden
	if hidden {
		e.dir = Away
		if !e.fired {
			e.fired = true
			e.report(0)
		}
		return
	}
	// Tab visible again: treat as back at center until the next Observe.
	e.dir = Center
	e.awayTicks = 0
	e.fired = false
}

// Tick advances the away-time accumulator by one tick period and reports
// whether the away event fired on this tick.
func (e *Estimator) Tick() bool {
	if e.dir == Center {
		e.awayTicks = 0
		e.fired = false
		return false
	}

	e.awayTicks++
	awayMs := e.awayTicks * e.cfg.TickMs
	if awayMs >= e.cfg.AwayThresholdMs && !e.fired {
		e.fired = true
		e.report(awayMs)
		return true
	}
	return false
}

// Direction returns the current estimated gaze direction.
func (e *Estimator) Direction() Direction {
	return e.dir
}

func (e *Estimator) report(awayMs int) {
	if e.reporter == nil {
		return
	}
	e.reporter.Report(violation.GazeAway, map[string]any{
		"direction":   string(e.dir),
		"duration_ms": awayMs,
	})
}
