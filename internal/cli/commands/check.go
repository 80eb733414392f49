package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Watch       bool
	Save        bool
	Incremental bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check source files",
		Long: `Tokenize, parse and analyze pype source files.

Paths may be files or directories; directories are searched for files
with the configured extension. Without paths the current directory is
checked. A file fails on syntax errors, unresolvable imports and
repeated bindings. Dataflow problems (cycles, undefined names and
bindings that reach no output) are reported as warnings.

With --save the run, the symbols of every file and all diagnostics are
recorded in the state database. --incremental implies --save and skips
files that passed before and have not changed since.`,
		Example: `  # Check the project
  pype check

  # Check one file
  pype check standardize.ppl

  # Record the run and skip unchanged files
  pype check --incremental

  # Re-check on every change
  pype check --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-check whenever a source file changes")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Record the run in the state database")
	cmd.Flags().BoolVar(&opts.Incremental, "incremental", false, "Skip files unchanged since they last passed (implies --save)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{
		State:       opts.Save || opts.Incremental,
		Incremental: opts.Incremental,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Watch {
		return runCheckWatch(cmd, cmdCtx, args)
	}

	paths, err := expandPaths(args, cmdCtx.Engine.Ext())
	if err != nil {
		return err
	}
	for i, p := range paths {
		paths[i] = absPath(p)
	}

	summary, err := cmdCtx.Engine.CheckAll(cmd.Context(), paths)
	if err != nil {
		return err
	}
	if err := renderSummary(cmdCtx.Renderer, summary); err != nil {
		return err
	}
	if !summary.OK() {
		return fmt.Errorf("%d of %d file(s) failed", summary.Failed, len(summary.Reports))
	}
	return nil
}

func runCheckWatch(cmd *cobra.Command, cmdCtx *CommandContext, args []string) error {
	dir := "."
	switch len(args) {
	case 0:
	case 1:
		dir = args[0]
	default:
		return fmt.Errorf("--watch takes a single directory, got %d paths", len(args))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := cmdCtx.Renderer
	r.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", dir))
	return cmdCtx.Engine.Watch(ctx, absPath(dir), func(summary *engine.Summary, err error) {
		if err != nil {
			if ctx.Err() == nil {
				r.Error(err.Error())
			}
			return
		}
		_ = renderSummary(r, summary)
	})
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func renderSummary(r *output.Renderer, summary *engine.Summary) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(checkJSON(summary))
	case output.ModeMarkdown:
		r.Header(1, "Check")
	}

	for _, rep := range summary.Reports {
		path := displayPath(rep.Path)
		switch {
		case rep.Skipped:
			r.StatusLine(path, "skipped", "unchanged")
			continue
		case !rep.OK():
			r.StatusLine(path, "error", pluralize(len(rep.Errors()), "error"))
		case len(rep.Warnings) > 0:
			r.StatusLine(path, "warning", pluralize(len(rep.Warnings), "warning"))
		default:
			r.StatusLine(path, "success", "")
		}
		for _, err := range rep.Errors() {
			r.Printf("    %s\n", err)
		}
		for _, w := range rep.Warnings {
			r.Printf("    %s\n", w)
		}
	}

	r.Println("")
	line := fmt.Sprintf("%d file(s): %d failed, %d skipped",
		len(summary.Reports), summary.Failed, summary.Skipped)
	if summary.Run != nil {
		line += ", run " + summary.Run.ID
	}
	r.Muted(line)
	return nil
}

func checkJSON(summary *engine.Summary) output.CheckOutput {
	out := output.CheckOutput{
		Files:   make([]output.FileResult, 0, len(summary.Reports)),
		Failed:  summary.Failed,
		Skipped: summary.Skipped,
	}
	if summary.Run != nil {
		out.RunID = summary.Run.ID
	}
	for _, rep := range summary.Reports {
		res := output.FileResult{
			Path:    displayPath(rep.Path),
			OK:      rep.Skipped || rep.OK(),
			Skipped: rep.Skipped,
		}
		res.Diagnostics = append(diagnostics(rep.Errors()), warningDiagnostics(rep.Warnings)...)
		out.Files = append(out.Files, res)
	}
	return out
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
