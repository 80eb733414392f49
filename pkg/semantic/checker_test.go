package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/parser"
	"github.com/leapstack-labs/pype/pkg/symtab"
)

const standardize = `{ standardize
  (:= new_t (/ (- t mu) sig))
  (:= mu (mean t))
  (:= sig (std t))
  (input (TimeSeries t))
  (output new_t)
}
`

var timeseries = symtab.ImporterFunc(func(string) ([]symtab.Export, error) {
	return []symtab.Export{
		{Name: "mean", Kind: symtab.LibraryMethod},
		{Name: "std", Kind: symtab.LibraryMethod},
	}, nil
})

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.Empty(t, diags)
	require.NotNil(t, prog)
	return prog
}

func TestCheckSingleAssignment(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantKind  ErrorKind
		wantName  string
		wantComp  string
		wantError string
	}{
		{
			name: "valid",
			src:  "(import timeseries)\n" + standardize,
		},
		{
			name: "same local name in two components",
			src:  standardize + `{ standardize2 (input t) (:= mu (mean t)) }`,
		},
		{
			name:      "rebinding a variable",
			src:       `{ standardize (input t) (:= mu (mean t)) (:= mu (std t)) }`,
			wantKind:  DuplicateBinding,
			wantName:  "mu",
			wantComp:  "standardize",
			wantError: "multiple assignment of 'mu' in component 'standardize' is not supported",
		},
		{
			name:     "assigning an input",
			src:      `{ c (input t) (:= t 1) }`,
			wantKind: DuplicateBinding,
			wantName: "t",
			wantComp: "c",
		},
		{
			name:     "input after assignment",
			src:      `{ c (:= t 1) (input (TimeSeries t)) }`,
			wantKind: DuplicateBinding,
			wantName: "t",
			wantComp: "c",
		},
		{
			name:     "input declared twice",
			src:      `{ c (input t t) }`,
			wantKind: DuplicateBinding,
			wantName: "t",
			wantComp: "c",
		},
		{
			name:     "binding the component name",
			src:      `{ c (:= c 1) }`,
			wantKind: DuplicateBinding,
			wantName: "c",
			wantComp: "c",
		},
		{
			name:      "duplicate component",
			src:       standardize + standardize,
			wantKind:  DuplicateComponent,
			wantName:  "standardize",
			wantComp:  "standardize",
			wantError: "multiple assignment of component 'standardize' is not supported",
		},
		{
			name:      "component named global",
			src:       `{ global (input x) (:= y (f x)) }`,
			wantKind:  ReservedComponent,
			wantName:  "global",
			wantComp:  "global",
			wantError: "component name 'global' is reserved",
		},
		{
			name: "outputs do not bind",
			src:  `{ c (input t) (output t) (output t) }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSingleAssignment(parse(t, tt.src))
			if tt.wantName == "" {
				assert.NoError(t, err)
				return
			}

			var semErr *SemanticError
			require.ErrorAs(t, err, &semErr)
			assert.Equal(t, tt.wantKind, semErr.Kind)
			assert.Equal(t, tt.wantName, semErr.Name)
			assert.Equal(t, tt.wantComp, semErr.Component)
			assert.True(t, semErr.Pos.IsValid())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, semErr.Error())
			}
		})
	}
}

func TestChecker_DoesNotMutateTree(t *testing.T) {
	prog := parse(t, standardize)
	before, err := ast.Clone(prog)
	require.NoError(t, err)

	require.NoError(t, CheckSingleAssignment(prog))

	var a, b []string
	ast.Inspect(prog, func(n ast.Node) bool { a = append(a, n.Kind().String()); return true })
	ast.Inspect(before, func(n ast.Node) bool { b = append(b, n.Kind().String()); return true })
	assert.Equal(t, b, a)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "duplicate component", DuplicateComponent.String())
	assert.Equal(t, "duplicate binding", DuplicateBinding.String())
	assert.Equal(t, "reserved component name", ReservedComponent.String())
	assert.Equal(t, "ErrorKind(7)", ErrorKind(7).String())
}

func TestAnalyze(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		res := Analyze(parse(t, "(import timeseries)\n"+standardize), timeseries)
		require.True(t, res.OK())
		assert.Equal(t, []string{symtab.GlobalScope, "standardize"}, res.Table.Scopes())
		assert.Equal(t, 3, res.Table.Len(symtab.GlobalScope))
		assert.Equal(t, 4, res.Table.Len("standardize"))
	})

	t.Run("component named global", func(t *testing.T) {
		res := Analyze(parse(t, `{ global (input x) (:= y (f x)) }`), nil)
		require.False(t, res.OK())
		semErr, ok := res.SemanticError()
		require.True(t, ok)
		assert.Equal(t, ReservedComponent, semErr.Kind)
		require.NotNil(t, res.Table)
	})

	t.Run("rejected keeps table", func(t *testing.T) {
		res := Analyze(parse(t, `{ c (input t) (:= t 1) }`), nil)
		assert.False(t, res.OK())
		semErr, ok := res.SemanticError()
		require.True(t, ok)
		assert.Equal(t, "t", semErr.Name)
		require.NotNil(t, res.Table)
		assert.Equal(t, 1, res.Table.Len("c"))
	})

	t.Run("import failure", func(t *testing.T) {
		res := Analyze(parse(t, "(import timeseries)\n"+standardize), nil)
		assert.False(t, res.OK())
		_, ok := res.SemanticError()
		assert.False(t, ok)
		assert.ErrorIs(t, res.Err, symtab.ErrNoImporter)
	})
}
