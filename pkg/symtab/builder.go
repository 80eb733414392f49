package symtab

import (
	"github.com/leapstack-labs/pype/pkg/ast"
)

// Builder is a read-only visitor that fills a Table.
//
// Imports add the module's exports to the global scope; the importer is
// called once per Import node, in visitation order. A Component adds its
// own name to the global scope and opens a scope of the same name that
// stays active for everything visited after it. Assignments add a Variable
// and input declarations an Input to the active scope. Outputs declare
// nothing.
type Builder struct {
	importer Importer
	table    *Table
	active   string
}

// NewBuilder returns a builder resolving imports through importer, which
// may be nil for programs without imports.
func NewBuilder(importer Importer) *Builder {
	return &Builder{
		importer: importer,
		table:    New(),
		active:   GlobalScope,
	}
}

// Visit implements ast.Visitor.
func (b *Builder) Visit(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Import:
		return b.visitImport(n)
	case *ast.Component:
		b.table.Add(GlobalScope, Symbol{Name: n.Name(), Kind: Component, Pos: n.Pos()})
		b.table.AddScope(n.Name())
		b.active = n.Name()
	case *ast.Assignment:
		id := n.Binding()
		b.table.Add(b.active, Symbol{Name: id.Name, Kind: Variable, Pos: id.Pos()})
	case *ast.InputDecl:
		for _, id := range n.Declarations() {
			b.table.Add(b.active, Symbol{Name: id.Name, Kind: Input, Pos: id.Pos()})
		}
	}
	return nil
}

func (b *Builder) visitImport(n *ast.Import) error {
	if b.importer == nil {
		return &ImportError{Module: n.Module, Err: ErrNoImporter}
	}
	exports, err := b.importer.Import(n.Module)
	if err != nil {
		return &ImportError{Module: n.Module, Err: err}
	}
	for _, e := range exports {
		b.table.Add(GlobalScope, Symbol{Name: e.Name, Kind: e.Kind})
	}
	return nil
}

// Result returns the table built so far.
func (b *Builder) Result() *Table {
	return b.table
}

// Build walks root and returns its symbol table. On error the table built
// up to the failing node is returned with it.
func Build(root ast.Node, importer Importer) (*Table, error) {
	b := NewBuilder(importer)
	if err := ast.Walk(root, b); err != nil {
		return b.Result(), err
	}
	return b.Result(), nil
}
