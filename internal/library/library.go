// Package library resolves the modules named in pype import statements.
//
// A module is looked up, in order, among the built-in modules, then in each
// search directory as <module>.star (a Starlark file read statically) and as
// <module>.yaml or <module>.yml (a manifest). The first match wins and is
// cached for the life of the Resolver.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/pype/pkg/symtab"
)

// Resolver implements symtab.Importer over built-in modules and search
// directories. It is safe for concurrent use.
type Resolver struct {
	paths    []string
	builtins map[string][]symtab.Export
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string][]symtab.Export
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used to report module resolution.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBuiltin registers an in-memory module, replacing any built-in module
// of the same name.
func WithBuiltin(module string, exports ...symtab.Export) Option {
	return func(r *Resolver) {
		r.builtins[module] = exports
	}
}

// NewResolver creates a resolver searching paths in order. The timeseries
// module is always available as a built-in.
func NewResolver(paths []string, opts ...Option) *Resolver {
	r := &Resolver{
		paths:    slices.Clone(paths),
		builtins: Builtins(),
		logger:   slog.New(slog.DiscardHandler),
		cache:    make(map[string][]symtab.Export),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ symtab.Importer = (*Resolver)(nil)

// Import returns the exports of module.
func (r *Resolver) Import(module string) ([]symtab.Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exports, ok := r.cache[module]; ok {
		return slices.Clone(exports), nil
	}

	exports, source, err := r.resolve(module)
	if err != nil {
		r.logger.Debug("module not resolved", slog.String("module", module), slog.Any("error", err))
		return nil, err
	}

	r.logger.Debug("module resolved",
		slog.String("module", module),
		slog.String("source", source),
		slog.Int("exports", len(exports)))
	r.cache[module] = exports
	return slices.Clone(exports), nil
}

func (r *Resolver) resolve(module string) ([]symtab.Export, string, error) {
	if exports, ok := r.builtins[module]; ok {
		return slices.Clone(exports), "builtin", nil
	}

	var searched []string
	for _, dir := range r.paths {
		for _, ext := range moduleExts {
			path := filepath.Join(dir, module+ext)
			searched = append(searched, path)

			content, err := os.ReadFile(path) //nolint:gosec // G304: path is built from a configured library directory
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return nil, path, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
			}

			var exports []symtab.Export
			if ext == ".star" {
				exports, err = ParseStarlarkModule(path, content)
			} else {
				exports, err = ParseManifest(path, module, content)
			}
			if err != nil {
				return nil, path, err
			}
			return exports, path, nil
		}
	}
	return nil, "", &NotFoundError{Module: module, Searched: searched}
}

var moduleExts = []string{".star", ".yaml", ".yml"}

// Module describes a module the resolver can import.
type Module struct {
	Name   string
	Source string // "builtin" or the file path
}

// Modules lists the importable modules, built-ins first, then files found
// on the search paths. A name shadowed by an earlier source is listed once.
func (r *Resolver) Modules() ([]Module, error) {
	seen := make(map[string]bool)
	var out []Module

	builtinNames := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		builtinNames = append(builtinNames, name)
	}
	slices.Sort(builtinNames)
	for _, name := range builtinNames {
		seen[name] = true
		out = append(out, Module{Name: name, Source: "builtin"})
	}

	for _, dir := range r.paths {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan library directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if !slices.Contains(moduleExts, ext) {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			if seen[name] || validateModuleName(name) != nil {
				continue
			}
			seen[name] = true
			out = append(out, Module{Name: name, Source: filepath.Join(dir, entry.Name())})
		}
	}
	return out, nil
}

// validateModuleName checks that name can appear in an import statement.
func validateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("module name must start with letter or underscore: %s", name)
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return fmt.Errorf("module name contains invalid character: %s", name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// NotFoundError reports a module found neither among the built-ins nor on
// the search paths.
type NotFoundError struct {
	Module   string
	Searched []string
}

func (e *NotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("module %q not found (no library paths configured)", e.Module)
	}
	return fmt.Sprintf("module %q not found in %d locations", e.Module, len(e.Searched))
}

// LoadError represents an error reading a library file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("library/%s: %s", filepath.Base(e.File), e.Message)
}
