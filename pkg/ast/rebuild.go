package ast

import "fmt"

// Rebuilder is a rebuilding visitor. Visit is called on a node before its
// children and returns a provisional value for it. After every child has
// been rebuilt, Combine receives the node, that provisional value and the
// children's results in order; its return value is the node's contribution
// to its parent.
type Rebuilder[T any] interface {
	Visit(n Node) (T, error)
	Combine(n Node, own T, children []T) (T, error)
}

// Rebuild runs r over the tree rooted at root and returns the root's result.
func Rebuild[T any](root Node, r Rebuilder[T]) (T, error) {
	own, err := r.Visit(root)
	if err != nil {
		var zero T
		return zero, err
	}
	kids := root.base().children
	results := make([]T, 0, len(kids))
	for _, c := range kids {
		res, err := Rebuild(c, r)
		if err != nil {
			var zero T
			return zero, err
		}
		results = append(results, res)
	}
	return r.Combine(root, own, results)
}

// IdentityRebuilder reconstructs an equivalent, freshly allocated tree.
// Embed it and override Visit or Combine to transform selected nodes.
type IdentityRebuilder struct{}

// Visit returns n itself as the provisional value.
func (IdentityRebuilder) Visit(n Node) (Node, error) { return n, nil }

// Combine rebuilds n around the rebuilt children. If Visit substituted a
// different node, that node replaces the whole subtree: a detached node is
// used as is, one still owned by a parent is cloned first.
func (IdentityRebuilder) Combine(n Node, own Node, children []Node) (Node, error) {
	if own != n {
		if own.Parent() != nil {
			return Clone(own)
		}
		return own, nil
	}
	return Replace(n, children)
}

// Clone returns a deep copy of the tree rooted at n.
func Clone(n Node) (Node, error) {
	return Rebuild[Node](n, IdentityRebuilder{})
}

// ShapeError reports children that do not fit a node variant.
type ShapeError struct {
	Kind    Kind
	Message string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Message)
}

// Replace returns a new node of n's variant, with n's position and scalar
// attributes, owning children. The children are adopted: their parent
// references move to the new node. n itself is left untouched.
func Replace(n Node, children []Node) (Node, error) {
	for i, c := range children {
		if c == nil {
			return nil, &ShapeError{Kind: n.Kind(), Message: fmt.Sprintf("child %d is nil", i)}
		}
	}

	var out Node
	switch n := n.(type) {
	case *Program:
		stmts := make([]Stmt, len(children))
		for i, c := range children {
			s, ok := c.(Stmt)
			if !ok {
				return nil, shapeErr(n, "child %d is a %s, not a statement", i, c.Kind())
			}
			stmts[i] = s
		}
		out = NewProgram(stmts...)

	case *Import:
		if len(children) != 0 {
			return nil, shapeErr(n, "leaf node given %d children", len(children))
		}
		out = NewImport(n.Module)

	case *Component:
		name, body, err := splitHead(n, children)
		if err != nil {
			return nil, err
		}
		out = NewComponent(name, body...)

	case *InputDecl:
		decls, err := allIdents(n, children)
		if err != nil {
			return nil, err
		}
		out = NewInputDecl(decls...)

	case *OutputDecl:
		decls, err := allIdents(n, children)
		if err != nil {
			return nil, err
		}
		out = NewOutputDecl(decls...)

	case *Assignment:
		if len(children) != 2 {
			return nil, shapeErr(n, "want 2 children, got %d", len(children))
		}
		name, value, err := splitHead(n, children)
		if err != nil {
			return nil, err
		}
		out = NewAssignment(name, value[0])

	case *Call:
		op, args, err := splitHead(n, children)
		if err != nil {
			return nil, err
		}
		out = NewCall(op, args...)

	case *Identifier:
		if len(children) != 0 {
			return nil, shapeErr(n, "leaf node given %d children", len(children))
		}
		out = NewIdentifier(n.Name, n.Type)

	case *Literal:
		if len(children) != 0 {
			return nil, shapeErr(n, "leaf node given %d children", len(children))
		}
		out = NewLiteral(n.Value)

	default:
		return nil, fmt.Errorf("replace: unexpected node %T", n)
	}

	out.SetPos(n.Pos())
	return out, nil
}

// splitHead checks that children starts with an identifier followed by
// expressions.
func splitHead(n Node, children []Node) (*Identifier, []Expr, error) {
	if len(children) == 0 {
		return nil, nil, shapeErr(n, "missing identifier in child position 0")
	}
	head, ok := children[0].(*Identifier)
	if !ok {
		return nil, nil, shapeErr(n, "child 0 is a %s, not an Identifier", children[0].Kind())
	}
	rest := make([]Expr, len(children)-1)
	for i, c := range children[1:] {
		e, ok := c.(Expr)
		if !ok {
			return nil, nil, shapeErr(n, "child %d is a %s, not an expression", i+1, c.Kind())
		}
		rest[i] = e
	}
	return head, rest, nil
}

func allIdents(n Node, children []Node) ([]*Identifier, error) {
	out := make([]*Identifier, len(children))
	for i, c := range children {
		id, ok := c.(*Identifier)
		if !ok {
			return nil, shapeErr(n, "child %d is a %s, not an Identifier", i, c.Kind())
		}
		out[i] = id
	}
	return out, nil
}

func shapeErr(n Node, format string, args ...any) *ShapeError {
	return &ShapeError{Kind: n.Kind(), Message: fmt.Sprintf(format, args...)}
}
