package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Download DownloadConfig `toml:"download"`
	Archive  ArchiveConfig  `toml:"archive"`
}

// DownloadConfig contains download defaults applied before CLI overrides.
type DownloadConfig struct {
	Directory        string `toml:"directory"`
	OAuthToken       string `toml:"oauth_token"`
	PreferOpus       bool   `toml:"prefer_opus"`
	LowQuality       bool   `toml:"low_quality"`
	DownloadOriginal bool   `toml:"download_original"`
	ProcessOriginal  bool   `toml:"process_original"`
	CompressionLevel int    `toml:"compression_level"`
	Concurrency      int    `toml:"concurrency"`
}

// ArchiveConfig contains download archive settings.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
