package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog       zerolog.Logger
	diagFile      *os.File
	violationFile *os.File
	logMu         sync.Mutex
	logReady      bool
	pid           int
	dir           string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: VIGIL_LOG_PATH environment variable
	envPath := os.Getenv("VIGIL_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	violationPath := filepath.Join(dir, "violations_log.txt")
	violationFile, err = os.OpenFile(violationPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if violationFile != nil {
		violationFile.Close()
		violationFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the proctoring session opening with its bound backend
// session identifier and the active capture device.
func SessionStart(sessionID, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session_id", sessionID).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(violations int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("violations", violations).
		Msg("session_end")
}

// ViolationLogged records one accepted violation in the diagnostics stream and
// appends a human-readable line to the violations journal.
func ViolationLogged(sessionID, vtype string, details map[string]any) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("session_id", sessionID).
		Str("type", vtype).
		Msg("violation")

	logMu.Lock()
	defer logMu.Unlock()
	if violationFile != nil {
		line := fmt.Sprintf("%s\t[%d]\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, sessionID, vtype)
		violationFile.WriteString(line)
	}
}

func ViolationSuppressed(vtype string) {
	if logReady {
		diagLog.Debug().Str("type", vtype).Msg("violation_suppressed")
	}
}

// BaselineReady records the end of the audio calibration window.
func BaselineReady(baseline float64, samples int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("baseline", baseline).
		Int("samples", samples).
		Msg("baseline_ready")
}

func AudioAlert(label string, volumeLevel float64) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("label", label).
		Float64("volume_level", volumeLevel).
		Msg("audio_alert")
}

// SubmissionResult records the terminal outcome of a submission sequence.
func SubmissionResult(sessionID int, status string, attempts int, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("session_id", sessionID).
		Str("status", status).
		Int("attempts", attempts).
		Float64("elapsed_ms", float64(elapsed.Milliseconds())).
		Msg("submission")
}
