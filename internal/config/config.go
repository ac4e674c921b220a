// Package config provides configuration management for Nightingale
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend"`
	User       UserConfig       `mapstructure:"user"`
	Generation GenerationConfig `mapstructure:"generation"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// BackendConfig configures the backend endpoints
type BackendConfig struct {
	APIBaseURL   string        `mapstructure:"api_base_url"`
	AudioBaseURL string        `mapstructure:"audio_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// UserConfig identifies the user
type UserConfig struct {
	ID     string `mapstructure:"id"`
	AIName string `mapstructure:"ai_name"`
}

// GenerationConfig configures generation requests
type GenerationConfig struct {
	Mode          string `mapstructure:"mode"` // default, focus, creative, mindful, sleep, asmr
	AudioDuration int    `mapstructure:"audio_duration"`
	MusicDuration int    `mapstructure:"music_duration"`
}

// QueueConfig configures queue task tracking
type QueueConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Priority     string        `mapstructure:"priority"`
}

// LoggingConfig configures logging output
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Modes returns the supported session modes.
func Modes() []string {
	return []string{"default", "focus", "creative", "mindful", "sleep", "asmr"}
}

// ValidMode reports whether mode is one of the supported session modes.
func ValidMode(mode string) bool {
	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}
	return false
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			APIBaseURL:   "http://localhost:8000",
			AudioBaseURL: "http://localhost:8001",
			Timeout:      120 * time.Second,
		},
		User: UserConfig{
			ID:     "default-user",
			AIName: "Nightingale",
		},
		Generation: GenerationConfig{
			Mode:          "default",
			AudioDuration: 10,
			MusicDuration: 30,
		},
		Queue: QueueConfig{
			PollInterval: 2 * time.Second,
			Priority:     "normal",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Set config paths
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return cfg, err
	}

	configDir := filepath.Join(homeDir, ".nightingale")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("NIGHTINGALE")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(homeDir, ".nightingale")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("backend", cfg.Backend)
	viper.Set("user", cfg.User)
	viper.Set("generation", cfg.Generation)
	viper.Set("queue", cfg.Queue)
	viper.Set("logging", cfg.Logging)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".nightingale"), nil
}
