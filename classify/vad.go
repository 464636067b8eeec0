package classify

import (
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"vigil/audio"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = audio.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3                                        // consecutive speech frames to confirm voice
)

// VAD is the default classifier: a WebRTC voice-activity detector. It only
// distinguishes speech from silence; richer labels (music, typing) come from
// model-backed classifiers that satisfy the same interface.
type VAD struct {
	vad *webrtcvad.VAD

	mu        sync.Mutex
	buf       []byte
	speechRun int
	active    bool
}

func NewVAD() (*VAD, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &VAD{vad: v}, nil
}

func (v *VAD) Classify(pcm []byte) (Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.buf = append(v.buf, pcm...)

	total, speech := 0, 0
	for len(v.buf) >= vadFrameBytes {
		frame := v.buf[:vadFrameBytes]
		v.buf = v.buf[vadFrameBytes:]

		active, err := v.vad.Process(audio.SampleRate, frame)
		if err != nil {
			continue
		}
		total++
		if active {
			speech++
			v.speechRun++
			if v.speechRun >= vadDebounce {
				v.active = true
			}
		} else {
			v.speechRun = 0
			v.active = false
		}
	}

	if total == 0 {
		// Not enough buffered audio for a full frame yet.
		return Result{Label: LabelUnknown}, nil
	}

	confidence := float64(speech) / float64(total)
	if v.active {
		return Result{Label: LabelSpeech, Confidence: confidence}, nil
	}
	return Result{Label: LabelSilence, Confidence: 1 - confidence}, nil
}

// Reset drops buffered audio and debounce state between monitoring sessions.
func (v *VAD) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buf = v.buf[:0]
	v.speechRun = 0
	v.active = false
}
