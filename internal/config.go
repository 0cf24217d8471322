package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds client configuration for the backend collaborators
type Config struct {
	// ServerURL is the base URL of the REST API (Django app)
	ServerURL string `yaml:"server_url"`
	// STTURL is the base URL of the speech-to-text service (FastAPI app)
	STTURL string `yaml:"stt_url"`
	// STTAPIKey is sent as X-API-Key on transcription uploads, if set
	STTAPIKey string `yaml:"stt_api_key,omitempty"`
	// EventName defaults new profiles and threads to this expo event
	EventName string `yaml:"event_name,omitempty"`
	// StateDBPath overrides the local state database location
	StateDBPath string `yaml:"state_db_path,omitempty"`
}

// DefaultConfig returns the configuration used when no config file exists
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8000",
		STTURL:    "http://localhost:8001",
		EventName: "India AI Summit",
	}
}

// ConfigDir returns the per-user configuration directory
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".expo-session"), nil
}

// LoadConfig reads configuration from path, or from the default location
// when path is empty. A missing file yields DefaultConfig. Environment
// variables EXPO_SESSION_SERVER, EXPO_SESSION_STT and EXPO_SESSION_STT_KEY
// override file values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return cfg, err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ParseError{Source: "config", Key: path, Err: err}
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("EXPO_SESSION_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("EXPO_SESSION_STT"); v != "" {
		cfg.STTURL = v
	}
	if v := os.Getenv("EXPO_SESSION_STT_KEY"); v != "" {
		cfg.STTAPIKey = v
	}

	if cfg.ServerURL == "" {
		return cfg, fmt.Errorf("server_url must not be empty")
	}
	return cfg, nil
}

// SaveConfig writes configuration to path, creating parent directories
func SaveConfig(cfg Config, path string) error {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// ResolveStateDBPath resolves the local state database path for this config
func (c Config) ResolveStateDBPath() (string, error) {
	if c.StateDBPath != "" {
		return c.StateDBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}
