//go:build governance

package ast_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/leapstack-labs/pype"

// layers lists, for each front-end package, the module packages it may import.
var layers = map[string][]string{
	"pkg/token":    {},
	"pkg/ast":      {"pkg/token"},
	"pkg/parser":   {"pkg/token", "pkg/ast"},
	"pkg/format":   {"pkg/token", "pkg/ast"},
	"pkg/symtab":   {"pkg/token", "pkg/ast"},
	"pkg/semantic": {"pkg/token", "pkg/ast", "pkg/symtab"},
	"pkg/flow":     {"pkg/token", "pkg/ast", "pkg/symtab"},
}

// TestGovernance_Layering verifies that nothing under pkg/ reaches upward
// into a later pass or into internal/.
func TestGovernance_Layering(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, modulePath+"/pkg/...")
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}

	base := modulePath + "/"
	for _, p := range pkgs {
		rel := strings.TrimPrefix(p.PkgPath, base)
		allowed, known := layers[rel]
		if !known {
			t.Errorf("LAYERING: package %s has no entry in the layer table", rel)
			continue
		}
		allowedSet := make(map[string]bool, len(allowed))
		for _, a := range allowed {
			allowedSet[a] = true
		}

		for imp := range p.Imports {
			if !strings.HasPrefix(imp, base) {
				continue
			}
			dep := strings.TrimPrefix(imp, base)
			if !allowedSet[dep] {
				t.Errorf("LAYERING VIOLATION: '%s' imports '%s'.\n"+
					"   Allowed: %v", rel, dep, allowed)
			}
		}
	}
}
