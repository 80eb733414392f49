package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	queryPrompt     = "state> "
	queryMorePrompt = "  ...> "
)

func runQueryREPL(cmd *cobra.Command, statePath, format string) error {
	ctx := cmd.Context()

	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          queryPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(statePath), "query_history"),
		AutoComplete:    newTableCompleter(ctx, db),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "pype state query (%s)\n", statePath)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(queryPrompt)
			continue
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleQueryDotCommand(ctx, cmd, db, line, format); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt(queryMorePrompt)
			continue
		}
		rl.SetPrompt(queryPrompt)

		query := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()
		if err := executeAndRender(ctx, out, db, query, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

// handleQueryDotCommand runs a REPL dot-command and reports whether the
// REPL should exit.
func handleQueryDotCommand(ctx context.Context, cmd *cobra.Command, db *sql.DB, line, format string) bool {
	parts := strings.Fields(line)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	var err error
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printQueryREPLHelp(out)
	case ".tables":
		err = listTablesFromDB(ctx, out, db, format)
	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .schema <table>")
			return false
		}
		err = showSchemaFromDB(ctx, out, db, parts[1], format)
	case ".runs":
		err = executeAndRender(ctx, out, db, `
			SELECT id, status, started_at, files, failed
			FROM runs ORDER BY started_at DESC LIMIT 10`, format)
	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return false
}

func printQueryREPLHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `
Commands:
  .help           Show this help message
  .tables         List all tables
  .schema <name>  Show schema for a table
  .runs           Show the ten most recent runs
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names

`)
}

// newTableCompleter creates a readline completer for table names and
// dot-commands.
func newTableCompleter(ctx context.Context, db *sql.DB) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".runs"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name
	`)
	if err != nil {
		return readline.NewPrefixCompleter(items...)
	}
	defer func() { _ = rows.Close() }()

	var tables []readline.PrefixCompleterInterface
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			tables = append(tables, readline.PcItem(name))
		}
	}
	// completion is best effort
	_ = rows.Err()

	items = append(items, readline.PcItem(".schema", tables...))
	items = append(items, tables...)
	return readline.NewPrefixCompleter(items...)
}
