package library

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pype/pkg/symtab"
)

// Manifest is the YAML description of a module implemented outside pype:
//
//	module: stats
//	symbols:
//	  - name: zscore
//	    kind: libraryfunction
//	  - name: median
//	    kind: librarymethod
type Manifest struct {
	Module  string           `yaml:"module"`
	Symbols []ManifestSymbol `yaml:"symbols"`
}

// ManifestSymbol is one exported name. Kind defaults to libraryfunction.
type ManifestSymbol struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// ParseManifest decodes a manifest for module. The manifest's module field
// may be omitted but must match when present.
func ParseManifest(filename, module string, content []byte) ([]symtab.Export, error) {
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, &ParseError{File: filename, Message: err.Error()}
	}
	if m.Module != "" && m.Module != module {
		return nil, &ParseError{
			File:    filename,
			Message: fmt.Sprintf("manifest declares module %q, expected %q", m.Module, module),
		}
	}

	exports := make([]symtab.Export, 0, len(m.Symbols))
	for i, s := range m.Symbols {
		if s.Name == "" {
			return nil, &ParseError{File: filename, Message: fmt.Sprintf("symbol %d has no name", i)}
		}
		kind := symtab.LibraryFunction
		if s.Kind != "" {
			k, err := symtab.ParseKind(s.Kind)
			if err != nil {
				return nil, &ParseError{File: filename, Message: err.Error()}
			}
			kind = k
		}
		exports = append(exports, symtab.Export{Name: s.Name, Kind: kind})
	}
	return exports, nil
}
