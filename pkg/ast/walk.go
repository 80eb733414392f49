package ast

// Visitor is a read-only visitor. Visit is called once per node, before the
// node's children, in depth-first pre-order with children in list order.
// Visit may change scalar attributes (for example Identifier.Type) but has
// no way to change the shape of the tree. A non-nil error stops the walk.
type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(n Node) error

// Visit calls f(n).
func (f VisitorFunc) Visit(n Node) error { return f(n) }

// ResultVisitor is a Visitor that produces an aggregate value once the walk
// is complete.
type ResultVisitor[T any] interface {
	Visitor
	Result() T
}

// Walk traverses the tree rooted at root, calling v.Visit on every node.
// It returns the first error returned by v.
func Walk(root Node, v Visitor) error {
	if root == nil {
		return nil
	}
	if err := v.Visit(root); err != nil {
		return err
	}
	for _, c := range root.base().children {
		if err := Walk(c, v); err != nil {
			return err
		}
	}
	return nil
}

// WalkResult walks the tree and then calls v.Result exactly once. On error
// the result is not computed and the zero value is returned.
func WalkResult[T any](root Node, v ResultVisitor[T]) (T, error) {
	if err := Walk(root, v); err != nil {
		var zero T
		return zero, err
	}
	return v.Result(), nil
}

// Inspect calls fn for every node in pre-order. If fn returns false the
// children of that node are skipped.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, c := range root.base().children {
		Inspect(c, fn)
	}
}
