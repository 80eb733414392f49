// Package symtab builds the scoped symbol table of a pype program.
//
// A table maps scope names to ordered sets of symbols. The "global" scope
// always exists and holds imported library symbols and component names;
// every component gets a scope named after it holding its inputs and local
// bindings.
package symtab

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/pype/pkg/token"
)

// GlobalScope is the name of the scope that always exists.
const GlobalScope = "global"

// Kind classifies a symbol.
type Kind string

// Symbol kinds.
const (
	Component       Kind = "component"
	LibraryFunction Kind = "libraryfunction"
	LibraryMethod   Kind = "librarymethod"
	Input           Kind = "input"
	Variable        Kind = "variable"
)

// Kinds lists every symbol kind.
var Kinds = []Kind{Component, LibraryFunction, LibraryMethod, Input, Variable}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

func (k Kind) String() string { return string(k) }

// Symbol is a named entry in a scope. Value is reserved for later stages
// and is nil when built from source.
type Symbol struct {
	Name  string
	Kind  Kind
	Value any
	Pos   token.Position // declaration site; zero for imported symbols
}

type scope struct {
	symbols []Symbol
	index   map[string]int
}

// Table maps scope names to their symbols. Lookups never modify it.
type Table struct {
	scopes map[string]*scope
	order  []string
}

// New returns a table holding only the empty global scope.
func New() *Table {
	t := &Table{scopes: make(map[string]*scope)}
	t.AddScope(GlobalScope)
	return t
}

// AddScope creates an empty scope. Adding an existing scope is a no-op.
func (t *Table) AddScope(name string) {
	if _, ok := t.scopes[name]; ok {
		return
	}
	t.scopes[name] = &scope{index: make(map[string]int)}
	t.order = append(t.order, name)
}

// Add records sym in the named scope, creating the scope if needed. A scope
// holds each name once: adding a name again replaces the earlier symbol
// and keeps its original place in the order.
func (t *Table) Add(scopeName string, sym Symbol) {
	t.AddScope(scopeName)
	s := t.scopes[scopeName]
	if i, ok := s.index[sym.Name]; ok {
		s.symbols[i] = sym
		return
	}
	s.index[sym.Name] = len(s.symbols)
	s.symbols = append(s.symbols, sym)
}

// Scopes returns the scope names in creation order; global is first.
func (t *Table) Scopes() []string {
	return slices.Clone(t.order)
}

// HasScope reports whether the named scope exists.
func (t *Table) HasScope(name string) bool {
	_, ok := t.scopes[name]
	return ok
}

// Symbols returns a copy of the symbols of a scope in insertion order.
func (t *Table) Symbols(scopeName string) ([]Symbol, bool) {
	s, ok := t.scopes[scopeName]
	if !ok {
		return nil, false
	}
	return slices.Clone(s.symbols), true
}

// Len returns the number of symbols in a scope, 0 if it does not exist.
func (t *Table) Len(scopeName string) int {
	if s, ok := t.scopes[scopeName]; ok {
		return len(s.symbols)
	}
	return 0
}

// Lookup finds name in exactly the given scope.
func (t *Table) Lookup(scopeName, name string) (Symbol, bool) {
	s, ok := t.scopes[scopeName]
	if !ok {
		return Symbol{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Symbol{}, false
	}
	return s.symbols[i], true
}

// Resolve finds name in the given scope and then in the global scope.
func (t *Table) Resolve(scopeName, name string) (Symbol, bool) {
	if sym, ok := t.Lookup(scopeName, name); ok {
		return sym, true
	}
	if scopeName == GlobalScope {
		return Symbol{}, false
	}
	return t.Lookup(GlobalScope, name)
}
