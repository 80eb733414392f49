package library

import (
	"path/filepath"
	"strings"

	"go.starlark.net/syntax"

	"github.com/leapstack-labs/pype/pkg/symtab"
)

// methodsVar is the top-level list naming the functions of a Starlark
// module that are methods of the runtime value rather than free functions.
const methodsVar = "methods"

// ParseStarlarkModule statically parses a .star file and returns its
// exports. This does NOT execute the file. Every public top-level def is a
// library function, unless its name is listed in a top-level
// `methods = ["..."]` assignment, which makes it a library method.
func ParseStarlarkModule(filename string, content []byte) ([]symtab.Export, error) {
	f, err := syntax.Parse(filename, content, 0)
	if err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}

	methods := make(map[string]bool)
	var defs []string
	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.DefStmt:
			// Skip private functions (start with _)
			if strings.HasPrefix(s.Name.Name, "_") {
				continue
			}
			defs = append(defs, s.Name.Name)
		case *syntax.AssignStmt:
			names, ok := methodList(s)
			if !ok {
				continue
			}
			for _, name := range names {
				methods[name] = true
			}
		}
	}

	exports := make([]symtab.Export, 0, len(defs))
	for _, name := range defs {
		kind := symtab.LibraryFunction
		if methods[name] {
			kind = symtab.LibraryMethod
		}
		exports = append(exports, symtab.Export{Name: name, Kind: kind})
	}
	return exports, nil
}

// methodList extracts the string elements of `methods = [...]`.
func methodList(s *syntax.AssignStmt) ([]string, bool) {
	if s.Op != syntax.EQ {
		return nil, false
	}
	ident, ok := s.LHS.(*syntax.Ident)
	if !ok || ident.Name != methodsVar {
		return nil, false
	}

	var elems []syntax.Expr
	switch rhs := s.RHS.(type) {
	case *syntax.ListExpr:
		elems = rhs.List
	case *syntax.TupleExpr:
		elems = rhs.List
	case *syntax.ParenExpr:
		if tuple, ok := rhs.X.(*syntax.TupleExpr); ok {
			elems = tuple.List
		}
	default:
		return nil, false
	}

	var names []string
	for _, e := range elems {
		lit, ok := e.(*syntax.Literal)
		if !ok || lit.Token != syntax.STRING {
			continue
		}
		if name, ok := lit.Value.(string); ok {
			names = append(names, name)
		}
	}
	return names, true
}

// ParseError represents a library file that could not be parsed.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	return "parse " + filepath.Base(e.File) + ": " + e.Message
}
