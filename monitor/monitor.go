// Package monitor turns a raw microphone stream into a continuous, de-noised
// suspicion signal. It learns an ambient loudness baseline over a warm-up
// window, flags abnormal relative volume, runs every frame through the
// pluggable classifier, and raises edge-triggered alerts through the
// violation reporter.
package monitor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"vigil/audio"
	"vigil/classify"
	"vigil/log"
	"vigil/violation"
)

type State int

const (
	StateIdle State = iota
	StateCalibrating
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCalibrating:
		return "calibrating"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type VolumeFlag int

const (
	FlagNone VolumeFlag = iota
	FlagTooLow
	FlagTooHigh
)

func (f VolumeFlag) String() string {
	switch f {
	case FlagTooLow:
		return "too_low"
	case FlagTooHigh:
		return "too_high"
	default:
		return "none"
	}
}

// ClassificationResult is the per-frame outcome delivered to the OnFrame
// observer. A frame is suspicious when the volume deviates from baseline or
// the classifier returns a suspicious label.
type ClassificationResult struct {
	Label       string
	Confidence  float64
	VolumeLevel float64 // rms / baseline; 0 while calibrating
	Flag        VolumeFlag
	Suspicious  bool
}

// Reporter receives audio_suspicious events. Satisfied by *violation.Logger.
type Reporter interface {
	Report(vtype violation.Type, details map[string]any) bool
}

type Config struct {
	Warmup        time.Duration // baseline calibration window
	BaselineFloor float64       // baseline substitute when calibration saw no samples
	LowRatio      float64       // volumeLevel below this flags TooLow
	HighRatio     float64       // volumeLevel above this flags TooHigh
	AlertCooldown time.Duration // minimum spacing between raised alerts
}

var (
	ErrAlreadyRunning = errors.New("monitor: already running")
	ErrStopped        = errors.New("monitor: stopped monitors cannot restart")
)

// Monitor is the per-session audio watchdog. One monitor exclusively owns one
// capture device from Start until Stop; the capture context refuses a second
// concurrent capture, so two live monitors cannot share a microphone.
//
// State machine: Idle → Calibrating → Active → Stopped. The Calibrating →
// Active transition is irreversible for the session, and the baseline it
// computes is immutable afterwards.
type Monitor struct {
	mu         sync.Mutex
	cfg        Config
	classifier classify.Classifier
	reporter   Reporter
	onFrame    func(ClassificationResult)

	state       State
	capture     audio.CaptureDevice
	calTimer    *time.Timer
	calStart    time.Time
	samples     []float64
	baseline    float64
	alertActive bool
	lastAlertAt time.Time

	// gen invalidates callbacks and in-flight classification from a previous
	// run; a frame captured before Stop is discarded when it resolves after.
	gen uint64

	now func() time.Time
}

func New(cfg Config, classifier classify.Classifier, reporter Reporter) *Monitor {
	return &Monitor{
		cfg:        cfg,
		classifier: classifier,
		reporter:   reporter,
		now:        time.Now,
	}
}

// OnFrame registers an observer for per-frame results. Set before Start.
func (m *Monitor) OnFrame(fn func(ClassificationResult)) {
	m.onFrame = fn
}

// Start opens the capture device and begins calibrating. Frame processing is
// driven by the device's own delivery cadence; each frame's classification
// completes before the next frame is processed, so a slow classifier slows
// the effective sampling rate instead of queueing frames.
func (m *Monitor) Start(ctx audio.Context, device *audio.DeviceInfo, cc audio.CaptureConfig) error {
	m.mu.Lock()
	switch m.state {
	case StateCalibrating, StateActive:
		m.mu.Unlock()
		return ErrAlreadyRunning
	case StateStopped:
		m.mu.Unlock()
		return ErrStopped
	}

	capture, err := ctx.NewCapture(device, cc)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("opening capture: %w", err)
	}

	m.capture = capture
	m.state = StateCalibrating
	m.calStart = m.now()
	gen := m.gen
	capture.SetCallback(func(data []byte, _ uint32) {
		m.processFrame(gen, data)
	})
	// The timer ends calibration even when a dead device delivers no frames.
	m.calTimer = time.AfterFunc(m.cfg.Warmup, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen == m.gen && m.state == StateCalibrating {
			m.finishCalibrationLocked()
		}
	})
	m.mu.Unlock()

	if err := capture.Start(); err != nil {
		m.teardown(capture)
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

func (m *Monitor) processFrame(gen uint64, pcm []byte) {
	rms := audio.RMS(pcm)

	m.mu.Lock()
	if gen != m.gen || (m.state != StateCalibrating && m.state != StateActive) {
		m.mu.Unlock()
		return
	}
	if m.state == StateCalibrating {
		if m.now().Sub(m.calStart) >= m.cfg.Warmup {
			m.finishCalibrationLocked()
		} else {
			m.samples = append(m.samples, rms)
		}
	}
	active := m.state == StateActive
	var volumeLevel float64
	flag := FlagNone
	if active {
		volumeLevel = rms / m.baseline
		if volumeLevel < m.cfg.LowRatio {
			flag = FlagTooLow
		} else if volumeLevel > m.cfg.HighRatio {
			flag = FlagTooHigh
		}
	}
	m.mu.Unlock()

	// Classifier runs outside the lock. Failures are muted so the volume
	// path keeps functioning when the model is unavailable; label flags may
	// fire during calibration, volume flags may not.
	label, confidence := classify.LabelUnknown, 0.0
	if m.classifier != nil {
		if res, err := m.classifier.Classify(pcm); err == nil {
			label, confidence = res.Label, res.Confidence
		}
	}

	suspicious := flag != FlagNone || classify.SuspiciousLabel(label)
	result := ClassificationResult{
		Label:       label,
		Confidence:  confidence,
		VolumeLevel: volumeLevel,
		Flag:        flag,
		Suspicious:  suspicious,
	}

	m.mu.Lock()
	if gen != m.gen {
		// Stopped while the classification was in flight.
		m.mu.Unlock()
		return
	}
	if suspicious {
		now := m.now()
		if !m.alertActive && (m.lastAlertAt.IsZero() || now.Sub(m.lastAlertAt) >= m.cfg.AlertCooldown) {
			m.alertActive = true
			m.lastAlertAt = now
			m.mu.Unlock()
			log.AudioAlert(label, volumeLevel)
			if m.reporter != nil {
				m.reporter.Report(violation.AudioSuspicious, map[string]any{
					"label":        label,
					"confidence":   confidence,
					"volume_level": volumeLevel,
					"volume_flag":  flag.String(),
				})
			}
			m.mu.Lock()
		}
	} else {
		// The cooldown rate-limits raising alerts, never their retraction: a
		// clean frame clears the alert immediately.
		m.alertActive = false
	}
	m.mu.Unlock()

	if m.onFrame != nil {
		m.onFrame(result)
	}
}

// finishCalibrationLocked freezes the baseline and transitions to Active.
// Callers hold m.mu.
func (m *Monitor) finishCalibrationLocked() {
	n := len(m.samples)
	if n == 0 {
		// Silent or disconnected microphone: substitute the floor so the
		// session stays live instead of dividing by nothing.
		m.baseline = m.cfg.BaselineFloor
	} else {
		sum := 0.0
		for _, s := range m.samples {
			sum += s
		}
		m.baseline = sum / float64(n)
		if m.baseline <= 0 {
			// A dead-silent mic averages to zero; same guard applies.
			m.baseline = m.cfg.BaselineFloor
		}
	}
	m.samples = nil
	m.state = StateActive
	log.BaselineReady(m.baseline, n)
}

// Stop releases the capture device, cancels the calibration timer and
// invalidates any classification in flight. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		return
	}
	m.state = StateStopped
	m.gen++
	if m.calTimer != nil {
		m.calTimer.Stop()
		m.calTimer = nil
	}
	capture := m.capture
	m.capture = nil
	m.samples = nil
	m.baseline = 0
	m.alertActive = false
	m.mu.Unlock()

	m.teardown(capture)
}

// teardown runs outside the lock: the capture's own stop may join the
// callback thread, which takes the lock in processFrame.
func (m *Monitor) teardown(capture audio.CaptureDevice) {
	if capture == nil {
		return
	}
	capture.Stop()
	capture.ClearCallback()
	capture.Close()
}

// State returns the monitor's current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Baseline returns the frozen ambient baseline and whether calibration has
// completed.
func (m *Monitor) Baseline() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline, m.state == StateActive
}

// AlertActive reports whether a suspicious-audio alert is currently raised.
func (m *Monitor) AlertActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alertActive
}
