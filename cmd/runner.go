package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify services.Service
	db      *sql.DB
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.LibraryEngine
	store   *rules.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify services.Service
	DB      *sql.DB
	Lookup  catalog.GenreLookup
	Logger  *log.Logger
	Output  io.Writer
	Engine  tasks.EngineOpts
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

	engine := tasks.NewLibraryEngine(opts.Spotify, opts.Lookup, opts.Engine)

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		db:      opts.DB,
		logger:  opts.Logger,
		output:  opts.Output,
		engine:  engine,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, playlistsCommand, rulesCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ruleStore lazily builds the rule store from the organizer config section,
// reading the external rules file when one is configured.
func (r *Runner) ruleStore() (*rules.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	opts := rules.StoreOpts{
		NameTemplate:        r.config.Organizer.NameTemplate,
		DescriptionTemplate: r.config.Organizer.DescriptionTemplate,
		Public:              r.config.Organizer.Public,
	}

	if path := r.config.Organizer.RulesPath; path != "" {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
		parsed, err := rules.ParseRuleSet(string(text))
		if err != nil {
			return nil, fmt.Errorf("rules file %s: %w", path, err)
		}
		opts.Rules = parsed
	}

	store, err := rules.NewStore(opts)
	if err != nil {
		return nil, err
	}

	r.store = store
	return store, nil
}

// logProgress drains a progress channel into the logger. The returned stop
// function closes the channel and waits for the drain to finish.
func (r *Runner) logProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
		close(done)
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
