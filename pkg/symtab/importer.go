package symtab

import (
	"errors"
	"fmt"
)

// Export is a name a library module makes available to programs.
type Export struct {
	Name string
	Kind Kind
}

// Importer resolves a module named in an import statement to its exports.
type Importer interface {
	Import(module string) ([]Export, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(module string) ([]Export, error)

// Import calls f(module).
func (f ImporterFunc) Import(module string) ([]Export, error) { return f(module) }

// ErrNoImporter is returned when a program imports a module but the
// builder was given no Importer.
var ErrNoImporter = errors.New("no importer configured")

// ImportError reports a module that could not be imported.
type ImportError struct {
	Module string
	Err    error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %q: %v", e.Module, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
