package commands

import (
	"fmt"

	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/state"
	"github.com/leapstack-labs/pype/pkg/symtab"
	"github.com/spf13/cobra"
)

// SymbolsOptions holds options for the symbols command.
type SymbolsOptions struct {
	FromState bool
}

// NewSymbolsCommand creates the symbols command.
func NewSymbolsCommand() *cobra.Command {
	opts := &SymbolsOptions{}

	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "Show the symbol table of a source file",
		Long: `Analyze a pype source file and print its symbol table: the global
scope (imported library symbols and components) followed by one scope
per component (inputs and assigned variables).

With --from-state the table recorded by the last saved check is shown
instead; the file is not read.`,
		Example: `  # Show symbols
  pype symbols standardize.ppl

  # Show what the last 'check --save' recorded
  pype symbols standardize.ppl --from-state`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbols(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.FromState, "from-state", false, "Read symbols recorded in the state database")

	return cmd
}

func runSymbols(cmd *cobra.Command, path string, opts *SymbolsOptions) error {
	if opts.FromState {
		return runSymbolsFromState(cmd, path)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, EngineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	rep, err := cmdCtx.Engine.CheckFile(path)
	if err != nil {
		return err
	}

	var scopes []output.ScopeInfo
	if rep.Table != nil {
		scopes = scopesFromTable(rep.Table)
	}
	if err := renderScopes(r, path, scopes); err != nil {
		return err
	}
	if !rep.OK() {
		for _, e := range rep.Errors() {
			r.Error(e.Error())
		}
		return fmt.Errorf("%s has errors", path)
	}
	return nil
}

func runSymbolsFromState(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	store, err := openStore(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.SymbolsForFile(absPath(path))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no symbols recorded for %s (run 'pype check --save' first)", path)
	}
	return renderScopes(cmdCtx.Renderer, path, scopesFromRecords(records))
}

func scopesFromTable(t *symtab.Table) []output.ScopeInfo {
	scopes := make([]output.ScopeInfo, 0, len(t.Scopes()))
	for _, name := range t.Scopes() {
		syms, _ := t.Symbols(name)
		scope := output.ScopeInfo{Name: name, Symbols: make([]output.SymbolInfo, len(syms))}
		for i, s := range syms {
			scope.Symbols[i] = output.SymbolInfo{
				Name:   s.Name,
				Kind:   s.Kind.String(),
				Line:   s.Pos.Line,
				Column: s.Pos.Column,
			}
		}
		scopes = append(scopes, scope)
	}
	return scopes
}

// scopesFromRecords groups records, which arrive in scope order.
func scopesFromRecords(records []state.SymbolRecord) []output.ScopeInfo {
	var scopes []output.ScopeInfo
	for _, rec := range records {
		if len(scopes) == 0 || scopes[len(scopes)-1].Name != rec.Scope {
			scopes = append(scopes, output.ScopeInfo{Name: rec.Scope})
		}
		last := &scopes[len(scopes)-1]
		last.Symbols = append(last.Symbols, output.SymbolInfo{
			Name:   rec.Name,
			Kind:   rec.Kind,
			Line:   rec.Line,
			Column: rec.Column,
		})
	}
	return scopes
}

func renderScopes(r *output.Renderer, path string, scopes []output.ScopeInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		if scopes == nil {
			scopes = []output.ScopeInfo{}
		}
		return r.JSON(output.SymbolsOutput{Path: path, Scopes: scopes})
	}

	r.Header(1, "Symbols: "+path)
	for _, scope := range scopes {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatHeader(2, scope.Name))
			r.Println("")
		} else {
			r.Println(r.Styles().Header2.Render(scope.Name))
		}
		rows := make([][]string, len(scope.Symbols))
		for i, s := range scope.Symbols {
			pos := "-"
			if s.Line > 0 {
				pos = fmt.Sprintf("%d:%d", s.Line, s.Column)
			}
			rows[i] = []string{s.Name, s.Kind, pos}
		}
		r.Table([]string{"Name", "Kind", "Position"}, rows)
		r.Println("")
	}
	return nil
}
