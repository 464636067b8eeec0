package gaze

import (
	"testing"

	"vigil/violation"
)

type recordingReporter struct {
	calls []map[string]any
}

func (r *recordingReporter) Report(vtype violation.Type, details map[string]any) bool {
	if vtype != violation.GazeAway {
		panic("estimator must only report gaze_away")
	}
	r.calls = append(r.calls, details)
	return true
}

func testEstimator(rep Reporter) *Estimator {
	return NewEstimator(Config{
		TickMs:          500,
		AwayThresholdMs: 3000,
		MoveThresholdPx: 50,
		ScreenWidth:     1920,
		ScreenHeight:    1080,
	}, rep)
}

func TestClassifyQuadrants(t *testing.T) {
	e := testEstimator(nil)
	for _, tt := range []struct {
		x, y float64
		want Direction
	}{
		{960, 540, Center},  // exact center
		{1009, 589, Center}, // inside the threshold box
		{100, 540, Left},
		{1900, 540, Right},
		{960, 100, Up},
		{960, 1000, Down},
		{100, 1000, Left}, // dominant axis wins
		{960, 591, Down},  // 51px past center on y only
	} {
		e.Observe(tt.x, tt.y)
		if e.Direction() != tt.want {
			t.Errorf("(%v,%v): direction = %s, want %s", tt.x, tt.y, e.Direction(), tt.want)
		}
	}
}

func TestSustainedAwayFiresOnce(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.Observe(100, 540) // left of center
	fired := 0
	for i := 0; i < 20; i++ { // 10 seconds of ticks
		if e.Tick() {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("fired %d times, want exactly 1", fired)
	}
	if len(rep.calls) != 1 {
		t.Fatalf("reports = %d, want 1", len(rep.calls))
	}
	if rep.calls[0]["direction"] != "left" {
		t.Fatalf("direction = %v", rep.calls[0]["direction"])
	}
	if ms, _ := rep.calls[0]["duration_ms"].(int); ms < 3000 {
		t.Fatalf("duration_ms = %v, want >= 3000", rep.calls[0]["duration_ms"])
	}
}

func TestFiresExactlyAtThreshold(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.Observe(1900, 540)
	for i := 0; i < 5; i++ { // 2500ms accumulated, under the 3000ms threshold
		if e.Tick() {
			t.Fatalf("fired at tick %d, before threshold", i+1)
		}
	}
	if !e.Tick() { // 3000ms
		t.Fatal("should fire on the tick that reaches the threshold")
	}
}

func TestReturnToCenterResetsAccumulator(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.Observe(100, 540)
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	e.Observe(960, 540) // back to center just before the threshold
	e.Observe(100, 540) // away again: the clock starts over

	for i := 0; i < 5; i++ {
		if e.Tick() {
			t.Fatal("accumulator was not reset by the visit to center")
		}
	}
	if !e.Tick() {
		t.Fatal("should fire after a full fresh away period")
	}
}

func TestRearmsAfterCenter(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.Observe(100, 540)
	for i := 0; i < 6; i++ {
		e.Tick()
	}
	// Still away: no second event no matter how long.
	for i := 0; i < 20; i++ {
		if e.Tick() {
			t.Fatal("second event without returning to center")
		}
	}

	e.Observe(960, 540)
	e.Tick() // center tick clears the latch
	e.Observe(100, 540)
	for i := 0; i < 6; i++ {
		e.Tick()
	}
	if len(rep.calls) != 2 {
		t.Fatalf("reports = %d, want 2 after re-arming", len(rep.calls))
	}
}

func TestHiddenFiresImmediately(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.SetHidden(true)
	if len(rep.calls) != 1 {
		t.Fatalf("reports = %d, want 1 immediately on hide", len(rep.calls))
	}
	if rep.calls[0]["direction"] != "away" {
		t.Fatalf("direction = %v, want away", rep.calls[0]["direction"])
	}

	// Repeated hides and away ticks do not duplicate the event.
	e.SetHidden(true)
	for i := 0; i < 10; i++ {
		e.Tick()
	}
	if len(rep.calls) != 1 {
		t.Fatalf("reports = %d, want still 1", len(rep.calls))
	}
}

func TestShownResetsToCenter(t *testing.T) {
	rep := &recordingReporter{}
	e := testEstimator(rep)

	e.SetHidden(true)
	e.SetHidden(false)
	if e.Direction() != Center {
		t.Fatalf("direction = %s, want center after show", e.Direction())
	}

	// The latch is released: a later sustained away period fires again.
	e.Observe(100, 540)
	for i := 0; i < 6; i++ {
		e.Tick()
	}
	if len(rep.calls) != 2 {
		t.Fatalf("reports = %d, want 2", len(rep.calls))
	}
}

func TestObserveIgnoredWhileHidden(t *testing.T) {
	e := testEstimator(&recordingReporter{})

	e.SetHidden(true)
	e.Observe(960, 540)
	if e.Direction() != Away {
		t.Fatal("pointer positions must not override hidden state")
	}
}
