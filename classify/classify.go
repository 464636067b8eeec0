// Package classify defines the frame-classifier contract used by the audio
// monitor. A classifier looks at one PCM frame and names what it hears; the
// monitor decides what to do with the label.
package classify

// Labels a classifier may return. Speech, music and typing are treated as
// suspicious during an exam regardless of loudness.
const (
	LabelSpeech  = "speech"
	LabelMusic   = "music"
	LabelTyping  = "typing"
	LabelSilence = "silence"
	LabelUnknown = "unknown"
)

type Result struct {
	Label      string
	Confidence float64 // [0, 1]
}

type Classifier interface {
	// Classify analyzes one PCM16 mono frame. Errors mean "no label this
	// frame"; callers mute them to keep the volume path live.
	Classify(pcm []byte) (Result, error)
}

var suspiciousLabels = map[string]bool{
	LabelSpeech: true,
	LabelMusic:  true,
	LabelTyping: true,
}

func SuspiciousLabel(label string) bool {
	return suspiciousLabels[label]
}
