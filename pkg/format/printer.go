package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/token"
)

// sourcePrinter renders a Program back to canonical pype source.
type sourcePrinter struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool

	comments []*token.Comment
	next     int // index of the first comment not yet written
}

func newSourcePrinter(comments []*token.Comment) *sourcePrinter {
	return &sourcePrinter{
		output:      &bytes.Buffer{},
		atLineStart: true,
		comments:    comments,
	}
}

// String returns the formatted output.
func (p *sourcePrinter) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *sourcePrinter) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *sourcePrinter) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *sourcePrinter) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *sourcePrinter) indent() {
	p.depth++
}

func (p *sourcePrinter) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *sourcePrinter) space() {
	p.output.WriteByte(' ')
}

// flushComments writes, one per line, every pending comment that starts
// before offset. A negative offset flushes them all.
func (p *sourcePrinter) flushComments(offset int) {
	for p.next < len(p.comments) {
		c := p.comments[p.next]
		if offset >= 0 && c.Span.Start.Offset >= offset {
			return
		}
		p.write(c.Text)
		p.writeln()
		p.next++
	}
}

// anchor flushes the comments that precede n in the source. Nodes built
// without positions do not move comments.
func (p *sourcePrinter) anchor(n ast.Node) {
	if n.Pos().IsValid() {
		p.flushComments(n.Pos().Offset)
	}
}

func (p *sourcePrinter) formatProgram(prog *ast.Program) {
	for i, stmt := range prog.Statements() {
		if i > 0 {
			if _, isComp := stmt.(*ast.Component); isComp || !isImport(prog.Statements()[i-1]) {
				p.writeln()
			}
		}
		p.anchor(stmt)
		switch stmt := stmt.(type) {
		case *ast.Import:
			p.write("(import " + stmt.Module + ")")
			p.writeln()
		case *ast.Component:
			p.formatComponent(stmt)
		}
	}
	p.flushComments(-1)
}

func isImport(s ast.Stmt) bool {
	_, ok := s.(*ast.Import)
	return ok
}

func (p *sourcePrinter) formatComponent(c *ast.Component) {
	p.write("{ " + c.Name())
	p.writeln()
	p.indent()
	for _, expr := range c.Expressions() {
		p.anchor(expr)
		p.formatExpr(expr)
		p.writeln()
	}
	p.dedent()
	p.write("}")
	p.writeln()
}

func (p *sourcePrinter) formatExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Identifier:
		p.write(e.Name)
	case *ast.Literal:
		p.write(FormatValue(e.Value))
	case *ast.InputDecl:
		p.formatDecls("input", e.Declarations())
	case *ast.OutputDecl:
		p.formatDecls("output", e.Declarations())
	case *ast.Assignment:
		p.write("(:= " + e.Binding().Name)
		p.space()
		p.formatExpr(e.Value())
		p.write(")")
	case *ast.Call:
		p.write("(" + calleeText(e.Op().Name))
		for _, arg := range e.Args() {
			p.space()
			p.formatExpr(arg)
		}
		p.write(")")
	}
}

func (p *sourcePrinter) formatDecls(keyword string, decls []*ast.Identifier) {
	p.write("(" + keyword)
	for _, d := range decls {
		p.space()
		if d.HasType() {
			p.write("(" + d.Type + " " + d.Name + ")")
		} else {
			p.write(d.Name)
		}
	}
	p.write(")")
}

var operatorSymbols = map[string]string{
	ast.OpAdd: "+",
	ast.OpSub: "-",
	ast.OpMul: "*",
	ast.OpDiv: "/",
}

func calleeText(name string) string {
	if sym, ok := operatorSymbols[name]; ok {
		return sym
	}
	return name
}
