// Package config loads portal settings from a YAML file with environment
// overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Addr is the HTTP listen address for the portal.
	Addr string `yaml:"addr"`
	// DataDir holds the JSON record files and the activity database.
	DataDir string `yaml:"data_dir"`
	// StaticDir serves the portal's HTML/JS if set.
	StaticDir string `yaml:"static_dir,omitempty"`

	// CameraID selects the capture device for head tracking.
	CameraID int `yaml:"camera_id"`
	// TrackingFPS is the head-tracking loop frame rate.
	TrackingFPS int `yaml:"tracking_fps"`

	// BlinkThreshold is the eyelid-distance threshold (normalized units)
	// below which a blink is registered. Empirical; camera and lighting
	// dependent, so it is tunable per deployment.
	BlinkThreshold float64 `yaml:"blink_threshold"`
	// BlinkCooldownMs suppresses further clicks after a blink.
	BlinkCooldownMs int `yaml:"blink_cooldown_ms"`

	// VADThreshold is the RMS energy above which microphone input counts
	// as speech (typical: 300-1000 for int16 PCM).
	VADThreshold float64 `yaml:"vad_threshold"`

	// SpeechURL is the transcription service endpoint (accepts WAV uploads).
	SpeechURL string `yaml:"speech_url"`
	// TranslateURL is the translation service endpoint.
	TranslateURL string `yaml:"translate_url"`
	// DefaultLanguage is the spoken-language code assumed for new accounts.
	DefaultLanguage string `yaml:"default_language"`

	// JWTSecret signs portal session tokens. Overridable via JWT_SECRET.
	JWTSecret string `yaml:"jwt_secret"`

	// EnableTray shows the desktop tray toggle on supported platforms.
	EnableTray bool `yaml:"enable_tray"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:            ":5000",
		DataDir:         "data",
		CameraID:        0,
		TrackingFPS:     15,
		BlinkThreshold:  0.004,
		BlinkCooldownMs: 1200,
		VADThreshold:    500,
		SpeechURL:       "http://localhost:9000/transcribe",
		TranslateURL:    "http://localhost:5500/translate",
		DefaultLanguage: "en",
		JWTSecret:       "dev-secret-change-me",
	}
}

// Load reads configuration from the given YAML file, falling back to defaults
// for missing fields. A missing file is not an error; defaults are used.
// ADDR and JWT_SECRET environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if v, ok := os.LookupEnv("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		cfg.JWTSecret = v
	}

	if cfg.TrackingFPS <= 0 {
		return nil, fmt.Errorf("tracking_fps must be positive, got %d", cfg.TrackingFPS)
	}
	if cfg.BlinkThreshold <= 0 {
		return nil, fmt.Errorf("blink_threshold must be positive, got %g", cfg.BlinkThreshold)
	}
	if cfg.BlinkCooldownMs <= 0 {
		return nil, fmt.Errorf("blink_cooldown_ms must be positive, got %d", cfg.BlinkCooldownMs)
	}

	return cfg, nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
