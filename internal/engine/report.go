package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/pype/internal/state"
	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/flow"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/leapstack-labs/pype/pkg/semantic"
	"github.com/leapstack-labs/pype/pkg/symtab"
	"github.com/leapstack-labs/pype/pkg/token"
)

// Warning is a problem that does not reject the program.
type Warning struct {
	Component string
	Pos       token.Position
	Message   string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d, column %d: %s", w.Pos.Line, w.Pos.Column, w.Message)
}

// Report is the outcome of checking one source file.
type Report struct {
	Path string
	// Hash is the hex sha256 of the source
	Hash string
	// Program is nil when parsing gave up
	Program *ast.Program
	// Table is nil only when Program is; a program recovered from lex or
	// syntax errors is still analyzed
	Table       *symtab.Table
	Diagnostics parser.Diagnostics
	// SemanticErr is the *symtab.ImportError or *semantic.SemanticError
	// that rejected the program, reported alongside any Diagnostics
	SemanticErr error
	// Warnings are computed only for programs without errors
	Warnings []Warning
	// Skipped is set for unchanged files in incremental mode
	Skipped bool
}

// OK reports whether the file was accepted.
func (r *Report) OK() bool {
	return r.Program != nil && !r.Diagnostics.HasErrors() && r.SemanticErr == nil
}

// Errors returns every error of the report in discovery order.
func (r *Report) Errors() []error {
	errs := make([]error, 0, len(r.Diagnostics)+1)
	errs = append(errs, r.Diagnostics...)
	if r.SemanticErr != nil {
		errs = append(errs, r.SemanticErr)
	}
	return errs
}

// Record converts the report to its stored form.
func (r *Report) Record() state.FileRecord {
	rec := state.FileRecord{Path: r.Path, Hash: r.Hash, OK: r.OK()}
	if r.Table != nil {
		for _, scope := range r.Table.Scopes() {
			syms, _ := r.Table.Symbols(scope)
			for _, sym := range syms {
				rec.Symbols = append(rec.Symbols, state.SymbolRecord{
					Scope:  scope,
					Name:   sym.Name,
					Kind:   sym.Kind.String(),
					Line:   sym.Pos.Line,
					Column: sym.Pos.Column,
				})
			}
		}
	}
	for _, err := range r.Errors() {
		pos := ErrorPosition(err)
		rec.Diagnostics = append(rec.Diagnostics, state.DiagnosticRecord{
			Path:     r.Path,
			Severity: state.SeverityError,
			Line:     pos.Line,
			Column:   pos.Column,
			Message:  err.Error(),
		})
	}
	for _, w := range r.Warnings {
		rec.Diagnostics = append(rec.Diagnostics, state.DiagnosticRecord{
			Path:     r.Path,
			Severity: state.SeverityWarning,
			Line:     w.Pos.Line,
			Column:   w.Pos.Column,
			Message:  w.Message,
		})
	}
	return rec
}

// ErrorPosition returns the source position of a lex, parse or semantic
// error; the zero Position for errors that carry none.
func ErrorPosition(err error) token.Position {
	if pos, ok := parser.Position(err); ok {
		return pos
	}
	var semErr *semantic.SemanticError
	if errors.As(err, &semErr) {
		return semErr.Pos
	}
	return token.Position{}
}

// CheckSource checks src as the contents of path.
func (e *Engine) CheckSource(path, src string) *Report {
	return e.check(path, src, hashSource(src))
}

func (e *Engine) check(path, src, hash string) *Report {
	r := &Report{Path: path, Hash: hash}

	prog, diags := parser.Parse(src)
	r.Program = prog
	r.Diagnostics = diags
	if diags.HasErrors() {
		e.logger.Debug("syntax errors", "path", path, "count", len(diags), "recovered", prog != nil)
	}
	if prog == nil {
		return r
	}

	res := semantic.Analyze(prog, e.importer)
	r.Table = res.Table
	r.SemanticErr = res.Err
	if !res.OK() || diags.HasErrors() {
		return r
	}

	for _, g := range flow.BuildAll(prog) {
		r.Warnings = append(r.Warnings, flowWarnings(g, res.Table)...)
	}
	return r
}

func flowWarnings(g *flow.Graph, table *symtab.Table) []Warning {
	var out []Warning
	if cyclic, path := g.HasCycle(); cyclic {
		var pos token.Position
		if n, ok := g.GetNode(path[0]); ok {
			pos = n.Pos
		}
		out = append(out, Warning{
			Component: g.Component(),
			Pos:       pos,
			Message:   fmt.Sprintf("'%s' depends on itself: %s", path[0], strings.Join(path, " -> ")),
		})
	}
	for _, ref := range g.Unresolved(table) {
		out = append(out, Warning{
			Component: g.Component(),
			Pos:       ref.Pos,
			Message:   fmt.Sprintf("undefined name '%s' in component '%s'", ref.Name, g.Component()),
		})
	}
	for _, id := range g.Unused() {
		n, _ := g.GetNode(id)
		out = append(out, Warning{
			Component: g.Component(),
			Pos:       n.Pos,
			Message:   fmt.Sprintf("'%s' does not contribute to any output of '%s'", id, g.Component()),
		})
	}
	return out
}

func hashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}
