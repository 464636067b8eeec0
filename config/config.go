// Package config carries every empirically tuned constant of the detection
// pipeline. The defaults were tuned against live exam sessions; override them
// through a YAML file, never by editing call sites.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Audio struct {
	SampleRate      int     `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	WarmupMs        int     `yaml:"warmup_ms"`
	BaselineFloor   float64 `yaml:"baseline_floor"`
	LowRatio        float64 `yaml:"low_ratio"`
	HighRatio       float64 `yaml:"high_ratio"`
	AlertCooldownMs int     `yaml:"alert_cooldown_ms"`
}

type Gaze struct {
	TickMs          int     `yaml:"tick_ms"`
	AwayThresholdMs int     `yaml:"away_threshold_ms"`
	MoveThresholdPx float64 `yaml:"move_threshold_px"`
	ScreenWidth     float64 `yaml:"screen_width"`
	ScreenHeight    float64 `yaml:"screen_height"`
}

type Violations struct {
	CooldownsMs       map[string]int `yaml:"cooldowns_ms"`
	DefaultCooldownMs int            `yaml:"default_cooldown_ms"`
}

type Submission struct {
	Attempts      int `yaml:"attempts"`
	BackoffBaseMs int `yaml:"backoff_base_ms"`
}

type Backend struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type Config struct {
	Audio      Audio      `yaml:"audio"`
	Gaze       Gaze       `yaml:"gaze"`
	Violations Violations `yaml:"violations"`
	Submission Submission `yaml:"submission"`
	Backend    Backend    `yaml:"backend"`
}

// Default returns the tuned production configuration.
func Default() *Config {
	return &Config{
		Audio: Audio{
			SampleRate:      16000,
			Channels:        1,
			WarmupMs:        3000,
			BaselineFloor:   0.01,
			LowRatio:        0.5,
			HighRatio:       2.0,
			AlertCooldownMs: 3000,
		},
		Gaze: Gaze{
			TickMs:          500,
			AwayThresholdMs: 3000,
			MoveThresholdPx: 50,
			ScreenWidth:     1920,
			ScreenHeight:    1080,
		},
		Violations: Violations{
			CooldownsMs: map[string]int{
				"camera_permission":     10000,
				"microphone_permission": 10000,
				"browser_compatibility": 60000,
				"tab_switch":            5000,
				"window_blur":           5000,
				"fullscreen_exit":       3000,
				"keyboard_shortcut":     2000,
				"lighting_issue":        15000,
				"gaze_away":             3000,
				"multiple_faces":        5000,
				"audio_suspicious":      10000,
			},
			DefaultCooldownMs: 5000,
		},
		Submission: Submission{
			Attempts:      3,
			BackoffBaseMs: 1000,
		},
		Backend: Backend{
			BaseURL:   "http://localhost:8000",
			TimeoutMs: 10000,
		},
	}
}

// Load reads path (or, when path is empty, the VIGIL_CONFIG env variable, or
// ./vigil.yaml if present) over the defaults. A missing file is not an error;
// the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VIGIL_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("vigil.yaml"); err == nil {
			path = "vigil.yaml"
		}
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (a Audio) Warmup() time.Duration        { return time.Duration(a.WarmupMs) * time.Millisecond }
func (a Audio) AlertCooldown() time.Duration { return time.Duration(a.AlertCooldownMs) * time.Millisecond }
func (g Gaze) Tick() time.Duration           { return time.Duration(g.TickMs) * time.Millisecond }
func (g Gaze) AwayThreshold() time.Duration  { return time.Duration(g.AwayThresholdMs) * time.Millisecond }
func (s Submission) BackoffBase() time.Duration {
	return time.Duration(s.BackoffBaseMs) * time.Millisecond
}
func (b Backend) Timeout() time.Duration { return time.Duration(b.TimeoutMs) * time.Millisecond }
