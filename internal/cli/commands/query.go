package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// openStateDBReadOnly opens the state database in read-only mode. The
// sqlite driver is registered by the state package.
func openStateDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", "file:"+path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the state database",
		Long: `Query the pype state database directly.

Execute SQL against the runs, files, symbols and diagnostics recorded by
'pype check --save'. The database is opened read-only.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  pype query "SELECT * FROM runs ORDER BY started_at DESC LIMIT 5"

  # List available tables
  pype query tables

  # Show schema for a table
  pype query schema symbols

  # Find a symbol across files
  pype query search mean

  # Output as CSV
  pype query "SELECT path, ok FROM files" --format csv

  # Interactive mode
  pype query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default follows --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))
	cmd.AddCommand(newQuerySearchCommand(opts))

	return cmd
}

// queryFormat resolves the --format flag, defaulting to the renderer's mode.
func queryFormat(r *output.Renderer, format string) string {
	if format != "" {
		return format
	}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return "json"
	case output.ModeMarkdown:
		return "md"
	default:
		return "table"
	}
}

// queryStatePath returns the state database path, failing when no run was
// ever saved.
func queryStatePath(cmdCtx *CommandContext) (string, error) {
	path := cmdCtx.Cfg.StatePath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("state database not found at %s (run 'pype check --save' first)", path)
	}
	return path, nil
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	statePath, err := queryStatePath(cmdCtx)
	if err != nil {
		return err
	}
	format := queryFormat(cmdCtx.Renderer, opts.Format)

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminalFile(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, statePath, format)
	}

	if strings.TrimSpace(sqlQuery) == "" {
		return fmt.Errorf("empty query")
	}

	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), db, sqlQuery, format)
}

func executeAndRender(ctx context.Context, w io.Writer, db *sql.DB, sqlQuery, format string, args ...any) error {
	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// withStateDB runs fn against the read-only state database.
func withStateDB(cmd *cobra.Command, opts *QueryOptions, fn func(db *sql.DB, format string) error) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	statePath, err := queryStatePath(cmdCtx)
	if err != nil {
		return err
	}
	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	return fn(db, queryFormat(cmdCtx.Renderer, opts.Format))
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the state database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStateDB(cmd, opts, func(db *sql.DB, format string) error {
				return listTablesFromDB(cmd.Context(), cmd.OutOrStdout(), db, format)
			})
		},
	}
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStateDB(cmd, opts, func(db *sql.DB, format string) error {
				return showSchemaFromDB(cmd.Context(), cmd.OutOrStdout(), db, args[0], format)
			})
		},
	}
}

func newQuerySearchCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Find recorded symbols by name",
		Long: `Search the symbols recorded by the last saved check of every file.
The name may contain SQL LIKE wildcards (% and _).`,
		Example: `  pype query search mean
  pype query search 'std%' --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStateDB(cmd, opts, func(db *sql.DB, format string) error {
				return executeAndRender(cmd.Context(), cmd.OutOrStdout(), db, `
					SELECT path, scope, name, kind, line, col
					FROM symbols
					WHERE name LIKE ?
					ORDER BY path, seq
					LIMIT 100`, format, args[0])
			})
		},
	}
}

// isTerminalFile reports whether r is an interactive terminal.
func isTerminalFile(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
