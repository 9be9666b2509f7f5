package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/scx/internal/archive"
	"github.com/desertthunder/scx/internal/downloader"
	"github.com/desertthunder/scx/internal/shared"
	"github.com/urfave/cli/v3"
)

func newTestApp(output *bytes.Buffer) *cli.Command {
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(output),
		Output: output,
	})
	return &cli.Command{
		Name:     "scx",
		Commands: runner.register(),
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
		})
	})
}

func TestGetFlagValidation(t *testing.T) {
	conflicts := [][]string{
		{"--prefer-opus", "--prefer-mp3"},
		{"-O", "-m"},
		{"--high-quality", "--low-quality"},
		{"--download-original", "--no-download-original"},
		{"--process-original", "--no-process-original"},
		{"-p", "-P"},
	}

	for _, pair := range conflicts {
		t.Run(strings.Join(pair, " "), func(t *testing.T) {
			output := &bytes.Buffer{}
			app := newTestApp(output)

			args := append([]string{"scx", "get"}, pair...)
			args = append(args, "https://soundcloud.com/someone/a-song")
			err := app.Run(context.Background(), args)
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("expected ErrInvalidFlag, got %v", err)
			}
		})
	}

	t.Run("CompressionLevelRange", func(t *testing.T) {
		for _, level := range []string{"-1", "13"} {
			output := &bytes.Buffer{}
			app := newTestApp(output)

			err := app.Run(context.Background(), []string{
				"scx", "get", "--compression-level", level, "https://soundcloud.com/someone/a-song",
			})
			if !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("level %s: expected ErrInvalidFlag, got %v", level, err)
			}
		}
	})

	t.Run("NoReferences", func(t *testing.T) {
		output := &bytes.Buffer{}
		app := newTestApp(output)

		err := app.Run(context.Background(), []string{"scx", "get"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("ExplicitMissingConfig", func(t *testing.T) {
		output := &bytes.Buffer{}
		app := newTestApp(output)

		err := app.Run(context.Background(), []string{
			"scx", "get", "--config", filepath.Join(t.TempDir(), "nope.toml"),
			"https://soundcloud.com/someone/a-song",
		})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestPrintOutcome(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(output)})

	runner.printOutcome(downloader.Outcome{
		Title:  "a song",
		Artist: "someone",
		Format: "mp3",
		Path:   "/music/a song.mp3",
	})
	runner.printOutcome(downloader.Outcome{
		Title:   "old song",
		Artist:  "someone",
		Skipped: true,
		Format:  "archived",
	})
	runner.printOutcome(downloader.Outcome{
		Title:  "broken song",
		Artist: "someone",
		Err:    errors.New("no usable streams"),
	})

	lines := strings.Split(strings.TrimRight(output.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 outcome lines, got %d: %q", len(lines), output.String())
	}
	if !strings.Contains(lines[0], "someone - a song") || !strings.Contains(lines[0], "[mp3]") {
		t.Errorf("unexpected success line %q", lines[0])
	}
	if !strings.Contains(lines[1], "(archived)") {
		t.Errorf("unexpected skip line %q", lines[1])
	}
	if !strings.Contains(lines[2], "no usable streams") {
		t.Errorf("unexpected failure line %q", lines[2])
	}
}

func TestConfigInit(t *testing.T) {
	output := &bytes.Buffer{}
	app := newTestApp(output)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := app.Run(context.Background(), []string{"scx", "config", "init", "--config", path}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[download]") {
		t.Error("written config missing the download section")
	}

	t.Run("RefusesToOverwrite", func(t *testing.T) {
		if err := app.Run(context.Background(), []string{"scx", "config", "init", "--config", path}); err == nil {
			t.Error("expected an error for an existing config file")
		}
	})
}

func TestArchiveCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scx.db")
	configPath := filepath.Join(dir, "config.toml")

	contents := fmt.Sprintf("[archive]\nenabled = true\npath = %q\n", dbPath)
	if err := os.WriteFile(configPath, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	arch, err := archive.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	entry := archive.Entry{
		TrackID: 42,
		Title:   "a song",
		Artist:  "someone",
		Path:    filepath.Join(dir, "gone.mp3"),
		Format:  "mp3",
	}
	if err := arch.Record(entry); err != nil {
		t.Fatal(err)
	}
	arch.Close()

	t.Run("List", func(t *testing.T) {
		output := &bytes.Buffer{}
		app := newTestApp(output)

		if err := app.Run(context.Background(), []string{"scx", "archive", "list", "--config", configPath}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "someone - a song") {
			t.Errorf("expected the archived track in output, got %q", output.String())
		}
	})

	t.Run("PruneDropsMissingFiles", func(t *testing.T) {
		output := &bytes.Buffer{}
		app := newTestApp(output)

		if err := app.Run(context.Background(), []string{"scx", "archive", "prune", "--config", configPath}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "pruned 1 record(s)") {
			t.Errorf("unexpected prune output %q", output.String())
		}

		output.Reset()
		app = newTestApp(output)
		if err := app.Run(context.Background(), []string{"scx", "archive", "list", "--config", configPath}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "archive is empty") {
			t.Errorf("expected an empty archive, got %q", output.String())
		}
	})
}
