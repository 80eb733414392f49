package golden

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/pkg/format"
	"github.com/leapstack-labs/pype/pkg/symtab"
)

// Render checks the input of tc with e and returns what an assertion of
// type typ would see. The result never ends in a newline.
func Render(e *engine.Engine, tc TestCase, typ AssertionType) (string, error) {
	r := e.CheckSource(tc.Name, tc.Input)

	switch typ {
	case AssertAST:
		if r.Program == nil {
			return "", fmt.Errorf("test '%s': no program to print", tc.Name)
		}
		return strings.TrimRight(format.Sprint(r.Program, format.WithDetails()), "\n"), nil
	case AssertSource:
		if r.Program == nil {
			return "", fmt.Errorf("test '%s': no program to print", tc.Name)
		}
		return strings.TrimRight(format.Source(r.Program), "\n"), nil
	case AssertError:
		lines := make([]string, 0, len(r.Errors()))
		for _, err := range r.Errors() {
			lines = append(lines, err.Error())
		}
		return strings.Join(lines, "\n"), nil
	case AssertScopes:
		if r.Table == nil {
			return "", fmt.Errorf("test '%s': no symbol table", tc.Name)
		}
		return renderScopes(r.Table), nil
	case AssertWarnings:
		lines := make([]string, 0, len(r.Warnings))
		for _, w := range r.Warnings {
			lines = append(lines, w.String())
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unknown assertion type %q", typ)
	}
}

// renderScopes prints one line per scope: "name: sym kind, sym kind".
func renderScopes(t *symtab.Table) string {
	var sb strings.Builder
	for i, scope := range t.Scopes() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(scope)
		sb.WriteByte(':')
		syms, _ := t.Symbols(scope)
		for j, sym := range syms {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, " %s %s", sym.Name, sym.Kind)
		}
	}
	return sb.String()
}
