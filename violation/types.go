// Package violation converts raw sensor signals into rate-limited,
// deduplicated violation records for one proctored test session.
package violation

import "time"

// Type is the closed set of violation categories the backend accepts.
type Type string

const (
	CameraPermission     Type = "camera_permission"
	MicrophonePermission Type = "microphone_permission"
	BrowserCompatibility Type = "browser_compatibility"
	TabSwitch            Type = "tab_switch"
	WindowBlur           Type = "window_blur"
	FullscreenExit       Type = "fullscreen_exit"
	KeyboardShortcut     Type = "keyboard_shortcut"
	LightingIssue        Type = "lighting_issue"
	GazeAway             Type = "gaze_away"
	MultipleFaces        Type = "multiple_faces"
	AudioSuspicious      Type = "audio_suspicious"
)

// Types lists every known violation type.
var Types = []Type{
	CameraPermission, MicrophonePermission, BrowserCompatibility,
	TabSwitch, WindowBlur, FullscreenExit, KeyboardShortcut,
	LightingIssue, GazeAway, MultipleFaces, AudioSuspicious,
}

// Record is one accepted violation. Records are append-only for the session;
// only a full reset discards them.
type Record struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Timestamp string         `json:"timestamp"` // ISO-8601
	Details   map[string]any `json:"details,omitempty"`
	Filepath  string         `json:"filepath,omitempty"` // snapshot path, when a capture accompanied the event
}

// CooldownTable maps violation types to the window during which repeated
// reports of the same type are suppressed.
type CooldownTable struct {
	byType   map[Type]time.Duration
	fallback time.Duration
}

// NewCooldownTable builds a table from per-type millisecond durations, as
// carried by the configuration. Unknown types fall back to defaultMs.
func NewCooldownTable(ms map[string]int, defaultMs int) CooldownTable {
	byType := make(map[Type]time.Duration, len(ms))
	for name, v := range ms {
		byType[Type(name)] = time.Duration(v) * time.Millisecond
	}
	return CooldownTable{
		byType:   byType,
		fallback: time.Duration(defaultMs) * time.Millisecond,
	}
}

// For returns the cooldown for a type, or the table default for types it does
// not know.
func (t CooldownTable) For(v Type) time.Duration {
	if d, ok := t.byType[v]; ok {
		return d
	}
	return t.fallback
}
