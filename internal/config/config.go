// Package config holds carctl's configuration. Every default equals the
// firmware's compiled-in constant, so running without a config file behaves
// exactly like the stock remote.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Protocol variants. The vehicle speaks exactly one of them; there is no
// runtime negotiation.
const (
	VariantPlain = "plain" // 8-byte plaintext frames
	VariantCrypt = "crypt" // 16-byte AES-ECB frames
)

// DefaultKeyHex is the pre-shared AES-128 key used by encrypted-protocol
// vehicles.
const DefaultKeyHex = "34522a5b7a6e492c08090a9d8d2a23f8"

// Config holds all application configuration.
type Config struct {
	Variant         string `yaml:"variant"`
	NamePrefix      string `yaml:"name_prefix"`
	AddressContains string `yaml:"address_contains"`
	KeyHex          string `yaml:"key"`  // crypt variant only
	Mode            int    `yaml:"mode"` // drive-mode byte, 1 or 2
	ScanWindowMS    int    `yaml:"scan_window_ms"`
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
	LogLevel        string `yaml:"log_level"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "carctl")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config matching the stock firmware constants.
func Default() *Config {
	return &Config{
		Variant:         VariantPlain,
		NamePrefix:      "SL-",
		AddressContains: "",
		KeyHex:          DefaultKeyHex,
		Mode:            1,
		ScanWindowMS:    3000,
		FrameIntervalMS: 100,
		LogLevel:        "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantPlain, VariantCrypt:
	default:
		return fmt.Errorf("variant must be %q or %q, got %q", VariantPlain, VariantCrypt, c.Variant)
	}

	if c.NamePrefix == "" && c.AddressContains == "" {
		return fmt.Errorf("at least one of name_prefix and address_contains must be set")
	}

	if c.Variant == VariantCrypt {
		key, err := hex.DecodeString(c.KeyHex)
		if err != nil {
			return fmt.Errorf("key must be hex: %w", err)
		}
		if len(key) != 16 {
			return fmt.Errorf("key must be 16 bytes, got %d", len(key))
		}
	}

	if c.Mode != 1 && c.Mode != 2 {
		return fmt.Errorf("mode must be 1 or 2, got %d", c.Mode)
	}

	if c.ScanWindowMS <= 0 {
		return fmt.Errorf("scan_window_ms must be > 0")
	}
	if c.FrameIntervalMS <= 0 {
		return fmt.Errorf("frame_interval_ms must be > 0")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Key decodes the pre-shared key. Valid only after Validate.
func (c *Config) Key() []byte {
	key, _ := hex.DecodeString(c.KeyHex)
	return key
}
