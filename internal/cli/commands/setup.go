package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/pype/internal/cli/config"
	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/internal/library"
	"github.com/leapstack-labs/pype/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Resolver *library.Resolver
	Engine   *engine.Engine
	// Store is nil unless the command asked for state
	Store    *state.SQLiteStore
	Renderer *output.Renderer
}

// EngineOptions select what NewCommandContext attaches to the engine.
type EngineOptions struct {
	// State opens (and migrates) the state database
	State       bool
	Incremental bool
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts EngineOptions) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg

	engCfg := engine.Config{
		Importer:    cmdCtx.Resolver,
		MaxParallel: cfg.MaxParallel,
		Ext:         cfg.SourceExt,
		Logger:      cmdCtx.Logger,
	}
	cleanup := func() {}

	if opts.State {
		store, err := openStore(cfg.StatePath, cmdCtx.Logger)
		if err != nil {
			return nil, nil, err
		}
		cmdCtx.Store = store
		engCfg.Store = store
		engCfg.Incremental = opts.Incremental
		cleanup = func() { _ = store.Close() }
	}

	cmdCtx.Engine = engine.New(engCfg)
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't check whole projects.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Resolver: library.NewResolver(cfg.LibraryPaths, library.WithLogger(logger)),
		Renderer: r,
	}
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when a command runs on its own.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// openStore opens the state database at path, creating its directory and
// applying migrations.
func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// readSource reads a source file.
func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(content), nil
}

// displayPath shortens path relative to the working directory.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil || !filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && filepath.IsLocal(rel) {
		return rel
	}
	return path
}

// diagnostic converts an error to its output form.
func diagnostic(severity string, err error) output.Diagnostic {
	pos := engine.ErrorPosition(err)
	return output.Diagnostic{
		Severity: severity,
		Line:     pos.Line,
		Column:   pos.Column,
		Message:  err.Error(),
	}
}

func diagnostics(errs []error) []output.Diagnostic {
	if len(errs) == 0 {
		return nil
	}
	out := make([]output.Diagnostic, len(errs))
	for i, err := range errs {
		out[i] = diagnostic(string(state.SeverityError), err)
	}
	return out
}

func warningDiagnostics(warnings []engine.Warning) []output.Diagnostic {
	var out []output.Diagnostic
	for _, w := range warnings {
		out = append(out, output.Diagnostic{
			Severity: string(state.SeverityWarning),
			Line:     w.Pos.Line,
			Column:   w.Pos.Column,
			Message:  w.Message,
		})
	}
	return out
}
