// Package format renders pype syntax trees: as an indented outline of node
// variants for debugging and golden tests, and as canonical source text.
package format

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/leapstack-labs/pype/pkg/ast"
)

const indentSize = 2

// Option configures a Printer.
type Option func(*Printer)

// WithDetails makes the printer append node attributes, such as identifier
// names and types, after each variant name.
func WithDetails() Option {
	return func(p *Printer) { p.details = true }
}

// Printer is a read-only visitor that writes one line per node: the node's
// variant name indented by two spaces per ancestor.
type Printer struct {
	w       *bufio.Writer
	details bool
}

// NewPrinter returns a printer writing to w. Call Flush when the walk is done.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Visit writes the line for n.
func (p *Printer) Visit(n ast.Node) error {
	if _, err := p.w.WriteString(strings.Repeat(" ", ast.Depth(n)*indentSize)); err != nil {
		return err
	}
	if _, err := p.w.WriteString(n.Kind().String()); err != nil {
		return err
	}
	if p.details {
		if d := details(n); d != "" {
			if _, err := p.w.WriteString(" " + d); err != nil {
				return err
			}
		}
	}
	return p.w.WriteByte('\n')
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}

// Fprint writes the outline of the tree rooted at root to w.
func Fprint(w io.Writer, root ast.Node, opts ...Option) error {
	p := NewPrinter(w, opts...)
	if err := ast.Walk(root, p); err != nil {
		return err
	}
	return p.Flush()
}

// Sprint returns the outline of the tree rooted at root.
func Sprint(root ast.Node, opts ...Option) string {
	var sb strings.Builder
	_ = Fprint(&sb, root, opts...)
	return sb.String()
}

func details(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Import:
		return n.Module
	case *ast.Identifier:
		if n.HasType() {
			return n.Name + " : " + n.Type
		}
		return n.Name
	case *ast.Literal:
		return FormatValue(n.Value)
	default:
		return ""
	}
}

// FormatValue renders a literal value as it would appear in source.
func FormatValue(v any) string {
	switch v := v.(type) {
	case string:
		return `"` + v + `"`
	case int64:
		return fmt.Sprint(v)
	case *big.Int:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
