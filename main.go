package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vigil/audio"
	"vigil/backend"
	"vigil/classify"
	"vigil/config"
	"vigil/gaze"
	"vigil/log"
	"vigil/monitor"
	"vigil/sensor"
	"vigil/submit"
	"vigil/violation"
)

var version = "dev"

// testDefinition is the locally cached exam: the client keeps questions with
// their correct answers so it can score a session offline when every
// submission attempt fails.
type testDefinition struct {
	TestID          int               `json:"test_id"`
	CandidateName   string            `json:"candidate_name"`
	CandidateEmail  string            `json:"candidate_email"`
	DurationMinutes int               `json:"duration_minutes"`
	Questions       []submit.Question `json:"questions"`
}

var shutdownOnce sync.Once

func gracefulShutdown(mon *monitor.Monitor, logger *violation.Logger, code int) {
	shutdownOnce.Do(func() {
		if mon != nil {
			mon.Stop()
		}
		if logger != nil {
			log.SessionEnd(logger.Count())
			logger.StopLogging()
		}
		log.Close()
		os.Exit(code)
	})
}

func run() {
	// .env carries the backend URL and API key in development setups.
	_ = godotenv.Load()

	sessionFlag := flag.String("session", "", "Backend session identifier to bind")
	backendFlag := flag.String("backend", "", "Backend base URL (default: VIGIL_BACKEND_URL or config)")
	configFlag := flag.String("config", "", "Config file path (default: VIGIL_CONFIG or ./vigil.yaml)")
	testFlag := flag.String("test", "", "Locally cached test definition (JSON) for offline scoring")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("vigil %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	baseURL := *backendFlag
	if baseURL == "" {
		baseURL = os.Getenv("VIGIL_BACKEND_URL")
	}
	if baseURL == "" {
		baseURL = cfg.Backend.BaseURL
	}
	client := backend.NewClient(baseURL, os.Getenv("VIGIL_API_KEY"), cfg.Backend.Timeout())

	cooldowns := violation.NewCooldownTable(cfg.Violations.CooldownsMs, cfg.Violations.DefaultCooldownMs)
	logger := violation.NewLogger(client, cooldowns)

	if *sessionFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: -session is required")
		os.Exit(1)
	}
	logger.Bind(*sessionFlag)
	if err := logger.StartLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var def testDefinition
	if *testFlag != "" {
		data, err := os.ReadFile(*testFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading test definition: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &def); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing test definition: %v\n", err)
			os.Exit(1)
		}
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	classifier, err := classify.NewVAD()
	if err != nil {
		log.Errorf("classifier init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing classifier: %v\n", err)
		os.Exit(1)
	}

	mon := monitor.New(monitor.Config{
		Warmup:        cfg.Audio.Warmup(),
		BaselineFloor: cfg.Audio.BaselineFloor,
		LowRatio:      cfg.Audio.LowRatio,
		HighRatio:     cfg.Audio.HighRatio,
		AlertCooldown: cfg.Audio.AlertCooldown(),
	}, classifier, logger)

	captureConfig := audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	if err := mon.Start(audioCtx, selectedDevice, captureConfig); err != nil {
		// A denied microphone is itself a violation, not a silent failure.
		log.Errorf("monitor start error: %v", err)
		logger.Report(violation.MicrophonePermission, map[string]any{
			"error_type":  "microphone_unavailable",
			"description": err.Error(),
		})
	}

	deviceName := "system default"
	if selectedDevice != nil {
		deviceName = selectedDevice.Name
	}
	log.SessionStart(*sessionFlag, deviceName)

	estimator := gaze.NewEstimator(gaze.Config{
		TickMs:          cfg.Gaze.TickMs,
		AwayThresholdMs: cfg.Gaze.AwayThresholdMs,
		MoveThresholdPx: cfg.Gaze.MoveThresholdPx,
		ScreenWidth:     cfg.Gaze.ScreenWidth,
		ScreenHeight:    cfg.Gaze.ScreenHeight,
	}, logger)

	// The gaze accumulator and sensor dispatch share one goroutine, so the
	// estimator needs no locking.
	source := sensor.NewStdinSource(os.Stdin)
	defer source.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	engine := submit.NewEngine(client.SubmitChain(), cfg.Submission.Attempts, cfg.Submission.BackoffBase())
	answers := make(map[int]int)

	finish := func() {
		mon.Stop()
		result := engine.SubmitWithRetry(*sessionFlag, answers, time.Now(), submit.Fallback{
			TestID:          def.TestID,
			CandidateName:   def.CandidateName,
			CandidateEmail:  def.CandidateEmail,
			DurationMinutes: def.DurationMinutes,
			Questions:       def.Questions,
		})

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))

		summary := logger.Summarize(10)
		fmt.Printf("violations: %d total\n", summary.Total)
		for vtype, count := range summary.ByType {
			fmt.Printf("  %s: %d\n", vtype, count)
		}

		// Reconcile against the server's tally when it answered.
		if remote, err := client.ViolationSummary(result.SessionID); err == nil {
			if remote.Total != summary.Total {
				log.Warnf("violation tally mismatch: local=%d server=%d", summary.Total, remote.Total)
			}
		}

		gracefulShutdown(mon, logger, 0)
	}

	gazeTicker := time.NewTicker(cfg.Gaze.Tick())
	defer gazeTicker.Stop()

	for {
		select {
		case <-sigChan:
			gracefulShutdown(mon, logger, 0)

		case <-gazeTicker.C:
			estimator.Tick()

		case ev, ok := <-source.Events():
			if !ok {
				finish()
				return
			}
			switch ev.Kind {
			case sensor.KindAnswer:
				q, okQ := ev.Details["question"].(int)
				opt, okO := ev.Details["option"].(int)
				if okQ && okO {
					answers[q] = opt
				}
			case sensor.KindFinish:
				finish()
				return
			default:
				sensor.Dispatch(ev, logger, estimator)
			}
		}
	}
}

func main() {
	run()
}
