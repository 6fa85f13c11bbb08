package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TuningConfig holds the operational knobs for the highlight
// subsystem. Every field has a default; a YAML file overrides only
// what it names.
type TuningConfig struct {
	MaxHighlights         int `yaml:"max_highlights"`
	MinPatternLength      int `yaml:"min_pattern_length"`
	RecencySeconds        int `yaml:"recency_seconds"`
	DispatchSeconds       int `yaml:"dispatch_seconds"`
	SendPauseMillis       int `yaml:"send_pause_millis"`
	CoalesceMillis        int `yaml:"coalesce_millis"`
	QueueLength           int `yaml:"queue_length"`
	QueuePerUser          int `yaml:"queue_per_user"`
	HistoryLimit          int `yaml:"history_limit"`
	HistoryTimeoutSeconds int `yaml:"history_timeout_seconds"`
	TitlePatternMax       int `yaml:"title_pattern_max"`
	EditWindowMinutes     int `yaml:"edit_window_minutes"`
}

// DefaultTuningConfig returns the built-in tuning values
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MaxHighlights:         10,
		MinPatternLength:      2,
		RecencySeconds:        60,
		DispatchSeconds:       10,
		SendPauseMillis:       250,
		CoalesceMillis:        1000,
		QueueLength:           40,
		QueuePerUser:          5,
		HistoryLimit:          5,
		HistoryTimeoutSeconds: 5,
		TitlePatternMax:       50,
		EditWindowMinutes:     10,
	}
}

// LoadTuningConfig loads tuning values from a YAML file, falling back
// to defaults when the path is empty or unreadable.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cfg := DefaultTuningConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read tuning config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return DefaultTuningConfig(), fmt.Errorf("parse tuning config: %w", err)
	}
	return cfg, nil
}
