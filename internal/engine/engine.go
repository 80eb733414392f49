// Package engine runs the pype front end over source files.
// It tokenizes, parses and analyzes each file, derives dataflow warnings,
// and optionally records every run in the state store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/pype/internal/state"
	"github.com/leapstack-labs/pype/pkg/symtab"
)

// Defaults used when Config leaves a field zero.
const (
	DefaultExt         = ".ppl"
	DefaultMaxParallel = 4
)

// Config holds engine configuration.
type Config struct {
	// Importer resolves import statements. A nil importer rejects every import.
	Importer symtab.Importer
	// Store records runs and file outcomes (optional)
	Store state.Store
	// MaxParallel bounds the number of files checked at once
	MaxParallel int
	// Incremental skips files whose content is unchanged since they last
	// passed. It has no effect without a Store.
	Incremental bool
	// Ext is the source file extension used by Discover and Watch
	Ext string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine checks pype source files.
type Engine struct {
	importer    symtab.Importer
	store       state.Store
	maxParallel int
	incremental bool
	ext         string
	logger      *slog.Logger
	debounce    time.Duration
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	ext := cfg.Ext
	if ext == "" {
		ext = DefaultExt
	}
	return &Engine{
		importer:    cfg.Importer,
		store:       cfg.Store,
		maxParallel: maxParallel,
		incremental: cfg.Incremental && cfg.Store != nil,
		ext:         ext,
		logger:      logger,
		debounce:    100 * time.Millisecond,
	}
}

// Ext returns the source file extension the engine looks for.
func (e *Engine) Ext() string { return e.ext }

// Summary is the outcome of checking a set of files.
type Summary struct {
	// Run is the recorded run, nil when the engine has no store
	Run     *state.Run
	Reports []*Report
	Skipped int
	Failed  int
}

// OK reports whether every checked file passed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// CheckFile reads and checks one file.
func (e *Engine) CheckFile(path string) (*Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.CheckSource(path, string(src)), nil
}

// CheckAll checks paths concurrently and returns their reports in the order
// given. With a store, the run and every checked file are recorded.
func (e *Engine) CheckAll(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if e.store != nil {
		run, err := e.store.CreateRun()
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		summary.Run = run
	}

	reports := make([]*Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.checkPath(path)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.finishRun(summary, err)
		return nil, err
	}
	summary.Reports = reports

	for _, r := range reports {
		switch {
		case r.Skipped:
			summary.Skipped++
		case !r.OK():
			summary.Failed++
		}
	}

	if summary.Run != nil {
		for _, r := range reports {
			if r.Skipped {
				continue
			}
			if err := e.store.SaveFile(summary.Run.ID, r.Record()); err != nil {
				e.finishRun(summary, err)
				return nil, fmt.Errorf("failed to save %s: %w", r.Path, err)
			}
		}
	}
	e.finishRun(summary, nil)

	e.logger.Debug("check complete",
		slog.Int("files", len(paths)),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (e *Engine) checkPath(path string) (*Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	hash := hashSource(string(src))

	if e.incremental {
		stored, passed, err := e.store.FileHash(path)
		if err != nil {
			return nil, err
		}
		if passed && stored == hash {
			e.logger.Debug("unchanged, skipping", slog.String("path", path))
			return &Report{Path: path, Hash: hash, Skipped: true}, nil
		}
	}
	return e.check(path, string(src), hash), nil
}

func (e *Engine) finishRun(summary *Summary, runErr error) {
	if summary.Run == nil {
		return
	}
	status := state.RunStatusCompleted
	errMsg := ""
	switch {
	case runErr != nil:
		status = state.RunStatusFailed
		errMsg = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			errMsg = "canceled"
		}
	case summary.Failed > 0:
		status = state.RunStatusFailed
	}
	checked := len(summary.Reports) - summary.Skipped
	if err := e.store.CompleteRun(summary.Run.ID, status, checked, summary.Failed, errMsg); err != nil {
		e.logger.Warn("failed to complete run", slog.String("run", summary.Run.ID), slog.Any("error", err))
		return
	}
	now := time.Now().UTC()
	summary.Run.Status = status
	summary.Run.CompletedAt = &now
	summary.Run.Files = checked
	summary.Run.Failed = summary.Failed
	summary.Run.Error = errMsg
}
