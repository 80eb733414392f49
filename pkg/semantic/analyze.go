package semantic

import (
	"errors"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/symtab"
)

// Result is the outcome of analyzing a program.
type Result struct {
	// Table is the symbol table, as far as it could be built. It is set even
	// when the program is rejected.
	Table *symtab.Table
	// Err is an *symtab.ImportError or a *SemanticError, or nil.
	Err error
}

// OK reports whether the program was accepted.
func (r Result) OK() bool { return r.Err == nil }

// SemanticError returns the single-assignment violation, if that is why
// the program was rejected.
func (r Result) SemanticError() (*SemanticError, bool) {
	var semErr *SemanticError
	ok := errors.As(r.Err, &semErr)
	return semErr, ok
}

// Analyze builds the symbol table of prog and then checks single
// assignment. The checker runs only if the table could be built.
func Analyze(prog *ast.Program, importer symtab.Importer) Result {
	table, err := symtab.Build(prog, importer)
	if err != nil {
		return Result{Table: table, Err: err}
	}
	return Result{Table: table, Err: CheckSingleAssignment(prog)}
}
