package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/scx/internal/downloader"
	"github.com/desertthunder/scx/internal/shared"
	"github.com/urfave/cli/v3"
)

var (
	okMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("✓")
	skipMark = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("•")
	failMark = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	outMu sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		getCommand, archiveCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective configuration for one command invocation.
// An explicit --config that cannot be read is an error; the implicit default
// path falls back to the Runner's base configuration.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	path := cmd.String("config")
	if cfg, err := shared.LoadConfig(path); err == nil {
		return cfg, nil
	} else if cmd.IsSet("config") {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}

	cfg := *r.config
	return &cfg, nil
}

// printOutcome writes one line per finished item. Called from worker
// goroutines.
func (r *Runner) printOutcome(out downloader.Outcome) {
	r.outMu.Lock()
	defer r.outMu.Unlock()

	label := out.Title
	if out.Artist != "" {
		label = out.Artist + " - " + out.Title
	}

	switch {
	case out.Err != nil:
		fmt.Fprintf(r.output, "%s %s: %v\n", failMark, label, out.Err)
	case out.Skipped:
		fmt.Fprintf(r.output, "%s %s %s\n", skipMark, label, dimStyle.Render("(archived)"))
	default:
		fmt.Fprintf(r.output, "%s %s %s\n", okMark, label, dimStyle.Render("["+out.Format+"]"))
	}
}

// printReferenceError reports a reference that could not be classified or
// resolved.
func (r *Runner) printReferenceError(reference string, err error) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.output, "%s %s: %v\n", failMark, reference, err)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
