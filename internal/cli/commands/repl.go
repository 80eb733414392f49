package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/pkg/format"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/leapstack-labs/pype/pkg/token"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "pype> "
	replMorePrompt = " ...> "
	replSourceName = "<repl>"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive pype session",
		Long: `Start an interactive session. Imports and components entered at the
prompt are checked against everything accepted before them; input that
fails to check is reported and discarded. Input continues over several
lines until its parentheses and braces balance.

Line numbers in messages count from the start of the session.`,
		Example: `  pype repl
  pype> (import timeseries)
  pype> { f (input t) (:= m (mean t)) (output m) }
  pype> .symbols`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".pype_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := newREPLSession(cmdCtx.Engine, cmdCtx.Renderer)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "pype interactive session")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if err != nil {
			break
		}

		if buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				if s.command(trimmed) {
					break
				}
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if !balanced(buf.String()) {
			rl.SetPrompt(replMorePrompt)
			continue
		}
		rl.SetPrompt(replPrompt)
		s.eval(buf.String())
		buf.Reset()
	}
	return nil
}

// balanced reports whether every opening parenthesis and brace of src is
// closed. Text with more closers than openers counts as balanced so the
// parser can report it.
func balanced(src string) bool {
	depth := 0
	for tok := range parser.Tokens(src) {
		switch tok.Type {
		case token.LPAREN, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACE:
			depth--
		}
	}
	return depth <= 0
}

// replSession is the state of an interactive session: the source accepted
// so far.
type replSession struct {
	eng    *engine.Engine
	r      *output.Renderer
	source string
}

func newREPLSession(eng *engine.Engine, r *output.Renderer) *replSession {
	return &replSession{eng: eng, r: r}
}

// eval checks the session extended by input and keeps input if the
// result is accepted.
func (s *replSession) eval(input string) bool {
	candidate := s.source + input
	rep := s.eng.CheckSource(replSourceName, candidate)
	if !rep.OK() {
		for _, err := range rep.Errors() {
			s.r.Error(err.Error())
		}
		return false
	}
	s.source = candidate
	for _, w := range rep.Warnings {
		s.r.Warning(w.String())
	}
	s.r.Success(fmt.Sprintf("ok (%d statements)", len(rep.Program.Statements())))
	return true
}

// report re-checks the accepted source.
func (s *replSession) report() *engine.Report {
	return s.eng.CheckSource(replSourceName, s.source)
}

// command runs a dot-command and reports whether the session should end.
func (s *replSession) command(line string) bool {
	parts := strings.Fields(line)
	switch parts[0] {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.r.Writer())
	case ".source":
		rep := s.report()
		if rep.Program != nil {
			s.r.Printf("%s", format.Source(rep.Program))
		}
	case ".ast":
		rep := s.report()
		if rep.Program != nil {
			s.r.Printf("%s", format.Sprint(rep.Program, format.WithDetails()))
		}
	case ".symbols":
		rep := s.report()
		if rep.Table != nil {
			for _, scope := range scopesFromTable(rep.Table) {
				names := make([]string, len(scope.Symbols))
				for i, sym := range scope.Symbols {
					names[i] = sym.Name + " " + sym.Kind
				}
				s.r.Printf("%s: %s\n", scope.Name, strings.Join(names, ", "))
			}
		}
	case ".load":
		if len(parts) < 2 {
			s.r.Error("usage: .load <file>")
			return false
		}
		src, err := readSource(parts[1])
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		if !strings.HasSuffix(src, "\n") {
			src += "\n"
		}
		s.eval(src)
	case ".reset":
		s.source = ""
		s.r.Muted("session cleared")
	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	_, _ = fmt.Fprint(w, `
Commands:
  .help          Show this help message
  .source        Print the session as formatted source
  .ast           Print the syntax tree of the session
  .symbols       Print the symbol table of the session
  .load <file>   Check a file and add it to the session
  .reset         Forget everything entered so far
  .quit / .exit  Exit the REPL

`)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".source"),
		readline.PcItem(".ast"),
		readline.PcItem(".symbols"),
		readline.PcItem(".load"),
		readline.PcItem(".reset"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("(import "),
		readline.PcItem("(input "),
		readline.PcItem("(output "),
		readline.PcItem("(:= "),
	)
}
