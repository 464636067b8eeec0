package sensor

import (
	"vigil/violation"
)

// Reporter is the aggregator-facing half of the dispatcher. Satisfied by
// *violation.Logger.
type Reporter interface {
	Report(vtype violation.Type, details map[string]any) bool
}

// Gaze is the estimator-facing half. Satisfied by *gaze.Estimator.
type Gaze interface {
	Observe(x, y float64)
	SetHidden(hidden bool)
}

// Dispatch maps one raw sensor event to the aggregator and gaze estimator.
// Permission denials funnel into the same violation counters as behavioral
// events; they are never silently dropped. Face counts only violate above
// one face.
func Dispatch(ev Event, reporter Reporter, gz Gaze) {
	switch ev.Kind {
	case KindTabSwitch:
		reporter.Report(violation.TabSwitch, ev.Details)
	case KindWindowBlur:
		reporter.Report(violation.WindowBlur, ev.Details)
	case KindFullscreenExit:
		reporter.Report(violation.FullscreenExit, ev.Details)
	case KindKeyboardShortcut:
		reporter.Report(violation.KeyboardShortcut, ev.Details)
	case KindLighting:
		reporter.Report(violation.LightingIssue, ev.Details)
	case KindFaceCount:
		if n, ok := ev.Details["face_count"].(int); ok && n > 1 {
			reporter.Report(violation.MultipleFaces, ev.Details)
		}
	case KindPermissionDenied:
		switch ev.Details["device"] {
		case "camera":
			reporter.Report(violation.CameraPermission, ev.Details)
		case "microphone", "mic":
			reporter.Report(violation.MicrophonePermission, ev.Details)
		}
	case KindVisibilityHidden:
		if gz != nil {
			gz.SetHidden(true)
		}
	case KindVisibilityShown:
		if gz != nil {
			gz.SetHidden(false)
		}
	case KindMouseMove:
		x, okX := ev.Details["x"].(float64)
		y, okY := ev.Details["y"].(float64)
		if okX && okY && gz != nil {
			gz.Observe(x, y)
		}
	}
}
