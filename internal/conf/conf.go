package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lumenbot/lumen/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Discord configuration
	Discord DiscordConfig

	// Store configuration
	Store StoreConfig

	// Tuning configuration (loaded from YAML, defaults otherwise)
	Tuning *TuningConfig

	// Debug mode
	Debug bool
}

// DiscordConfig contains Discord configuration
type DiscordConfig struct {
	Token string
}

// StoreConfig contains durable store configuration
type StoreConfig struct {
	DBPath string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Highlight DB path
	dbPath := os.Getenv("HIGHLIGHT_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".lumen", "highlights.db")
	}

	// Load tuning from YAML
	tuning, err := LoadTuningConfig(os.Getenv("TUNING_CONFIG_PATH"))
	if err != nil {
		fmt.Printf("[Config] Tuning file ignored, using defaults: %v\n", err)
	}

	return &Config{
		Discord: DiscordConfig{
			Token: os.Getenv("DISCORD_TOKEN"),
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		Tuning: tuning,
		Debug:  os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return &ConfigError{Field: "DISCORD_TOKEN", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ToHighlightConfig converts to highlight management configuration
func (c *Config) ToHighlightConfig() usecase.HighlightConfig {
	return usecase.HighlightConfig{
		MaxPerUser:    c.Tuning.MaxHighlights,
		MinPatternLen: c.Tuning.MinPatternLength,
	}
}

// ToCacheConfig converts to cache configuration
func (c *Config) ToCacheConfig() usecase.CacheConfig {
	return usecase.CacheConfig{
		CoalesceWindow: time.Duration(c.Tuning.CoalesceMillis) * time.Millisecond,
	}
}

// ToQueueConfig converts to dispatch queue configuration
func (c *Config) ToQueueConfig() usecase.QueueConfig {
	return usecase.QueueConfig{
		MaxLength:  c.Tuning.QueueLength,
		MaxPerUser: c.Tuning.QueuePerUser,
	}
}

// ToMatchConfig converts to match engine configuration
func (c *Config) ToMatchConfig() usecase.MatchConfig {
	return usecase.MatchConfig{
		HistoryLimit:    c.Tuning.HistoryLimit,
		HistoryTimeout:  time.Duration(c.Tuning.HistoryTimeoutSeconds) * time.Second,
		TitlePatternMax: c.Tuning.TitlePatternMax,
	}
}

// RecencyWindow returns the recency decay interval
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.Tuning.RecencySeconds) * time.Second
}

// DispatchInterval returns the dispatcher tick period
func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.Tuning.DispatchSeconds) * time.Second
}

// SendPause returns the inter-send pause
func (c *Config) SendPause() time.Duration {
	return time.Duration(c.Tuning.SendPauseMillis) * time.Millisecond
}

// EditWindow returns how long after creation an edit is re-matched
func (c *Config) EditWindow() time.Duration {
	return time.Duration(c.Tuning.EditWindowMinutes) * time.Minute
}
