package library

import "github.com/leapstack-labs/pype/pkg/symtab"

// Builtins returns the modules every Resolver knows without a search path.
//
// timeseries mirrors the numeric runtime's time series type: its summary
// statistics are methods of the series and may be called as components.
func Builtins() map[string][]symtab.Export {
	return map[string][]symtab.Export{
		"timeseries": {
			{Name: "mean", Kind: symtab.LibraryMethod},
			{Name: "std", Kind: symtab.LibraryMethod},
		},
	}
}
