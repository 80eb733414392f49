// Package ast defines the abstract syntax tree of the pype pipeline language
// and the two traversal protocols used by every pass over it.
//
// The node family is closed: only the variants declared in this package
// implement Node. Children are fixed when a node is constructed and every
// constructor points each child's parent reference at the new node, so the
// owning edges run parent to children and the parent link is only a back
// reference.
//
// The Golden Rule: pkg/ast imports ONLY pkg/token and stdlib.
package ast

import (
	"slices"

	"github.com/leapstack-labs/pype/pkg/token"
)

// Kind identifies a node variant.
type Kind int

// Node variants.
const (
	KindProgram Kind = iota
	KindImport
	KindComponent
	KindInputDecl
	KindOutputDecl
	KindAssignment
	KindCall
	KindIdentifier
	KindLiteral
)

var kindNames = [...]string{
	KindProgram:    "Program",
	KindImport:     "Import",
	KindComponent:  "Component",
	KindInputDecl:  "InputDecl",
	KindOutputDecl: "OutputDecl",
	KindAssignment: "Assignment",
	KindCall:       "Call",
	KindIdentifier: "Identifier",
	KindLiteral:    "Literal",
}

// String returns the variant name. The pretty printer emits exactly this text.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the token that starts the node.
	Pos() token.Position
	// SetPos records the source position of the node.
	SetPos(pos token.Position)
	// Kind returns the node variant.
	Kind() Kind
	// Parent returns the node this node was most recently inserted into,
	// or nil for a root.
	Parent() Node
	// Children returns a copy of the ordered child list.
	Children() []Node

	base() *node
}

// Stmt is a marker interface for top-level statements (imports and components).
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a marker interface for nodes that may appear in a component body
// or as a call argument.
type Expr interface {
	Node
	exprNode()
}

// node holds the state shared by every variant.
type node struct {
	pos      token.Position
	parent   Node
	children []Node
}

func (n *node) Pos() token.Position       { return n.pos }
func (n *node) SetPos(pos token.Position) { n.pos = pos }
func (n *node) Parent() Node              { return n.parent }
func (n *node) Children() []Node          { return slices.Clone(n.children) }
func (n *node) base() *node               { return n }

// NumChildren returns the number of children without copying the list.
func NumChildren(n Node) int {
	return len(n.base().children)
}

// Child returns the i-th child of n.
func Child(n Node, i int) Node {
	return n.base().children[i]
}

// adopt installs children as the child list of parent and points every
// child's parent reference at it.
func adopt(parent Node, children []Node) {
	b := parent.base()
	b.children = children
	for _, c := range children {
		c.base().parent = parent
	}
}

// Depth returns the number of ancestors of n.
func Depth(n Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// EnclosingComponent returns the nearest Component ancestor of n, or nil.
func EnclosingComponent(n Node) *Component {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if c, ok := p.(*Component); ok {
			return c
		}
	}
	return nil
}
