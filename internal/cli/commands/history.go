package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded check runs",
		Long: `List the check runs recorded with 'pype check --save', newest first.

Given a run ID, show that run and every diagnostic it recorded.`,
		Example: `  # Recent runs
  pype history

  # Diagnostics of one run
  pype history 3f2a9c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to show")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	store, err := openStore(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		return showRun(r, store, args[0])
	}

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		infos := make([]output.RunInfo, len(runs))
		for i, run := range runs {
			infos[i] = runInfo(run)
		}
		return r.JSON(infos)
	}

	r.Header(1, "Check runs")
	if len(runs) == 0 {
		r.Muted("No runs recorded (use 'pype check --save')")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			output.Title(string(run.Status)),
			run.StartedAt.Local().Format(time.DateTime),
			formatDuration(run),
			strconv.Itoa(run.Files),
			strconv.Itoa(run.Failed),
		}
	}
	r.Table([]string{"Run", "Status", "Started", "Duration", "Files", "Failed"}, rows)
	return nil
}

func showRun(r *output.Renderer, store *state.SQLiteStore, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	diags, err := store.DiagnosticsForRun(run.ID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := struct {
			output.RunInfo
			Diagnostics []output.FileDiagnostic `json:"diagnostics"`
		}{RunInfo: runInfo(run), Diagnostics: make([]output.FileDiagnostic, len(diags))}
		for i, d := range diags {
			out.Diagnostics[i] = output.FileDiagnostic{
				Path: d.Path,
				Diagnostic: output.Diagnostic{
					Severity: string(d.Severity),
					Line:     d.Line,
					Column:   d.Column,
					Message:  d.Message,
				},
			}
		}
		return r.JSON(out)
	}

	r.Header(1, "Run "+run.ID)
	r.Println(output.FormatKeyValue("Status", output.Title(string(run.Status))))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.DateTime)))
	r.Println(output.FormatKeyValue("Duration", formatDuration(run)))
	r.Println(output.FormatKeyValue("Files", strconv.Itoa(run.Files)))
	r.Println(output.FormatKeyValue("Failed", strconv.Itoa(run.Failed)))
	if run.Error != "" {
		r.Println(output.FormatKeyValue("Error", run.Error))
	}
	r.Println("")

	if len(diags) == 0 {
		r.Muted("No diagnostics")
		return nil
	}
	rows := make([][]string, len(diags))
	for i, d := range diags {
		rows[i] = []string{
			displayPath(d.Path),
			fmt.Sprintf("%d:%d", d.Line, d.Column),
			string(d.Severity),
			d.Message,
		}
	}
	r.Table([]string{"File", "Position", "Severity", "Message"}, rows)
	return nil
}

func runInfo(run *state.Run) output.RunInfo {
	return output.RunInfo{
		ID:          run.ID,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Files:       run.Files,
		Failed:      run.Failed,
		Error:       run.Error,
	}
}

func formatDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
