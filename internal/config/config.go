// Package config reads and writes the global ~/.wweb/config.toml.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global config file.
type Config struct {
	DefaultSession string `toml:"default_session"`

	// PhoneNumber, when set, requests a phone-linking code during pairing
	// instead of relying on QR scanning alone.
	PhoneNumber string `toml:"phone_number"`

	Browser  Browser  `toml:"browser"`
	Takeover Takeover `toml:"takeover"`
	Media    Media    `toml:"media"`
	Archive  Archive  `toml:"archive"`
}

// Browser configures the controlled browser instance.
type Browser struct {
	// BinPath overrides browser discovery with an explicit executable.
	BinPath string `toml:"bin_path"`
	// Headless defaults to true; set false to watch the session.
	Headless *bool `toml:"headless"`
	// ProxyURL routes browser traffic through a proxy.
	ProxyURL string `toml:"proxy_url"`
}

// HeadlessEnabled reports the effective headless setting.
func (b Browser) HeadlessEnabled() bool {
	return b.Headless == nil || *b.Headless
}

// Takeover configures conflict handling when another client claims the
// session.
type Takeover struct {
	OnConflict bool  `toml:"on_conflict"`
	DelayMs    int64 `toml:"delay_ms"`
}

// Media configures media handling.
type Media struct {
	// FFmpegPath locates the converter used for sticker formatting.
	FFmpegPath string `toml:"ffmpeg_path"`
}

// Archive configures the local message archive.
type Archive struct {
	// Disabled turns off archive ingestion entirely.
	Disabled bool `toml:"disabled"`
}

// Load reads config from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
