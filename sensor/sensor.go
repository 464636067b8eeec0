// Package sensor carries the non-audio raw signals into the pipeline:
// tab/window focus, fullscreen state, keyboard shortcuts, face counts,
// permission denials, lighting and pointer movement. Sources produce typed
// events; the dispatcher routes them to the violation aggregator and the
// gaze estimator.
package sensor

import "time"

type Kind string

const (
	KindTabSwitch        Kind = "tab_switch"
	KindWindowBlur       Kind = "window_blur"
	KindFullscreenExit   Kind = "fullscreen_exit"
	KindVisibilityHidden Kind = "visibility_hidden"
	KindVisibilityShown  Kind = "visibility_shown"
	KindKeyboardShortcut Kind = "keyboard_shortcut"
	KindFaceCount        Kind = "face_count"
	KindPermissionDenied Kind = "permission_denied"
	KindLighting         Kind = "lighting"
	KindMouseMove        Kind = "mouse_move"

	// Exam-flow events, handled by the runner rather than the dispatcher.
	KindAnswer Kind = "answer"
	KindFinish Kind = "finish"
)

type Event struct {
	Kind    Kind
	At      time.Time
	Details map[string]any
}

// Source produces a stream of raw sensor events until closed. The channel
// closes when the source is exhausted or Close is called.
type Source interface {
	Events() <-chan Event
	Close()
}
