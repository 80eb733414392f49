// Package semantic validates pype programs after parsing.
package semantic

import (
	"fmt"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/symtab"
	"github.com/leapstack-labs/pype/pkg/token"
)

// ErrorKind classifies a SemanticError.
type ErrorKind int

const (
	// DuplicateComponent means two components share a name.
	DuplicateComponent ErrorKind = iota
	// DuplicateBinding means a name is bound twice inside one component.
	DuplicateBinding
	// ReservedComponent means a component is named after the global scope.
	ReservedComponent
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateComponent:
		return "duplicate component"
	case DuplicateBinding:
		return "duplicate binding"
	case ReservedComponent:
		return "reserved component name"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// SemanticError rejects a program that binds a name more than once, or
// names a component after the global scope.
type SemanticError struct {
	Kind      ErrorKind
	Name      string         // the offending name
	Component string         // the component involved
	Pos       token.Position // position of the second binding or the component
}

func (e *SemanticError) Error() string {
	switch e.Kind {
	case DuplicateComponent:
		return fmt.Sprintf("multiple assignment of component '%s' is not supported", e.Name)
	case ReservedComponent:
		return fmt.Sprintf("component name '%s' is reserved", e.Name)
	}
	return fmt.Sprintf("multiple assignment of '%s' in component '%s' is not supported", e.Name, e.Component)
}

type binding struct {
	name      string
	component string
}

// Checker is a read-only visitor enforcing single assignment: a component
// name is used once per program, and inside a component every name is
// bound once, either by an input declaration or by an assignment. The
// component's own name counts as bound inside it. A component may not be
// named after the global scope, which would leave it without a scope.
type Checker struct {
	component  string
	bound      map[binding]struct{}
	components map[string]struct{}
}

// NewChecker returns a checker ready for one walk.
func NewChecker() *Checker {
	return &Checker{
		bound:      make(map[binding]struct{}),
		components: make(map[string]struct{}),
	}
}

// Visit implements ast.Visitor.
func (c *Checker) Visit(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Component:
		name := n.Name()
		if name == symtab.GlobalScope {
			return &SemanticError{Kind: ReservedComponent, Name: name, Component: name, Pos: n.Pos()}
		}
		if _, dup := c.components[name]; dup {
			return &SemanticError{Kind: DuplicateComponent, Name: name, Component: name, Pos: n.Pos()}
		}
		c.components[name] = struct{}{}
		c.component = name
		c.bound = map[binding]struct{}{{name: name, component: name}: {}}
	case *ast.Assignment:
		return c.bind(n.Binding())
	case *ast.InputDecl:
		for _, id := range n.Declarations() {
			if err := c.bind(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Checker) bind(id *ast.Identifier) error {
	key := binding{name: id.Name, component: c.component}
	if _, dup := c.bound[key]; dup {
		return &SemanticError{Kind: DuplicateBinding, Name: id.Name, Component: c.component, Pos: id.Pos()}
	}
	c.bound[key] = struct{}{}
	return nil
}

// CheckSingleAssignment walks root and returns the first *SemanticError.
func CheckSingleAssignment(root ast.Node) error {
	return ast.Walk(root, NewChecker())
}
