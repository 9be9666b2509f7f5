package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Download.Directory != "." {
			t.Errorf("expected directory ., got %s", config.Download.Directory)
		}

		if config.Download.CompressionLevel != 12 {
			t.Errorf("expected compression level 12, got %d", config.Download.CompressionLevel)
		}

		if config.Download.Concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", config.Download.Concurrency)
		}

		if !config.Download.DownloadOriginal {
			t.Error("expected download_original to default to true")
		}

		if config.Download.LowQuality {
			t.Error("expected low_quality to default to false")
		}

		if config.Archive.Enabled {
			t.Error("expected archive to default to disabled")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Download.Directory != defaultConfig.Download.Directory {
			t.Errorf("created config directory doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[download]
directory = "/music"
oauth_token = "2-123456-1234567890-abcdefghijklm"
prefer_opus = true
low_quality = false
compression_level = 8
concurrency = 4

[archive]
enabled = true
path = "/music/scx.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Download.Directory != "/music" {
			t.Errorf("expected directory /music, got %s", config.Download.Directory)
		}

		if !config.Download.PreferOpus {
			t.Error("expected prefer_opus true")
		}

		if config.Download.CompressionLevel != 8 {
			t.Errorf("expected compression level 8, got %d", config.Download.CompressionLevel)
		}

		if !config.Archive.Enabled || config.Archive.Path != "/music/scx.db" {
			t.Errorf("unexpected archive settings: %+v", config.Archive)
		}
	})

	t.Run("LoadConfigMissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
