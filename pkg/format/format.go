package format

import (
	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/token"
)

// Source renders prog as canonical pype source: one import per line, a
// blank line before each component, and one body expression per line
// indented by two spaces.
func Source(prog *ast.Program) string {
	return WithComments(prog, nil)
}

// WithComments renders prog like Source and keeps comments. Each comment is
// written on its own line in front of the first statement or body
// expression that follows it in the original source; the rest go last.
func WithComments(prog *ast.Program, comments []*token.Comment) string {
	p := newSourcePrinter(comments)
	p.formatProgram(prog)
	return p.String()
}
