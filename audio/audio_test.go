package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestRMSSilence(t *testing.T) {
	if got := RMS(Silence(100)); got != 0 {
		t.Fatalf("RMS(silence) = %v, want 0", got)
	}
}

func TestRMSConstant(t *testing.T) {
	// Every sample at the same value gives RMS exactly value/32768.
	buf := make([]byte, 320)
	for i := 0; i < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(16384)))
	}
	if got, want := RMS(buf), 0.5; got != want {
		t.Fatalf("RMS = %v, want %v", got, want)
	}
}

func TestRMSSine(t *testing.T) {
	// A full-scale sine has RMS amplitude/sqrt(2).
	got := RMS(Tone(440, 0.8, 1000))
	want := 0.8 / math.Sqrt2
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("RMS(sine) = %v, want ~%v", got, want)
	}
}

func TestRMSShortBuffers(t *testing.T) {
	if RMS(nil) != 0 {
		t.Fatal("nil buffer should be 0")
	}
	if RMS([]byte{0x01}) != 0 {
		t.Fatal("sub-sample buffer should be 0")
	}
}

func TestRMSOddLengthIgnoresTrailingByte(t *testing.T) {
	buf := make([]byte, 5)
	binary.LittleEndian.PutUint16(buf[0:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(buf[2:], uint16(int16(16384)))
	buf[4] = 0xFF
	if got, want := RMS(buf), 0.5; got != want {
		t.Fatalf("RMS = %v, want %v", got, want)
	}
}

func TestIsBluetooth(t *testing.T) {
	for name, want := range map[string]bool{
		"AirPods Pro":                true,
		"WH-1000XM4":                 true,
		"Jabra Elite 75t":            true,
		"Soundcore Life (Bluetooth)": true,
		"MacBook Pro Microphone":     false,
		"USB Audio Device":           false,
		"Built-in Microphone":        false,
	} {
		if got := IsBluetooth(name); got != want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFakeContextExclusivity(t *testing.T) {
	ctx := NewFakeContext(Silence(10), false)
	cc := CaptureConfig{SampleRate: SampleRate, Channels: Channels}

	first, err := ctx.NewCapture(nil, cc)
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	if _, err := ctx.NewCapture(nil, cc); !errors.Is(err, ErrCaptureBusy) {
		t.Fatalf("second capture: got %v, want ErrCaptureBusy", err)
	}

	first.Close()
	second, err := ctx.NewCapture(nil, cc)
	if err != nil {
		t.Fatalf("capture after release: %v", err)
	}
	second.Close()
}

func TestFakeCaptureReplaysPCM(t *testing.T) {
	pcm := Tone(440, 0.5, 200)
	ctx := NewFakeContext(pcm, false)
	capture, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	var received []byte
	capture.SetCallback(func(data []byte, _ uint32) {
		received = append(received, data...)
	})
	if err := capture.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake := capture.(*FakeCapture)
	<-fake.AudioDone()
	capture.Stop()

	if len(received) < len(pcm) {
		t.Fatalf("received %d bytes, want at least %d", len(received), len(pcm))
	}
	for i := range pcm {
		if received[i] != pcm[i] {
			t.Fatalf("byte %d differs: %x != %x", i, received[i], pcm[i])
		}
	}
}

func TestFakeCaptureStopBeforeStart(t *testing.T) {
	ctx := NewFakeContext(nil, false)
	capture, err := ctx.NewCapture(nil, CaptureConfig{})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	capture.Stop() // must not panic
	capture.Close()
}
