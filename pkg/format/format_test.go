package format

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pype/pkg/ast"
	"github.com/leapstack-labs/pype/pkg/parser"
)

const standardizeSrc = `(import timeseries)

{ standardize
  (:= new_t (/ (- t mu) sig))
  (:= mu (mean t))
  (:= sig (std t))
  (input (TimeSeries t))
  (output new_t)
}
`

const standardizeTree = `Program
  Import
  Component
    Identifier
    Assignment
      Identifier
      Call
        Identifier
        Call
          Identifier
          Identifier
          Identifier
        Identifier
    Assignment
      Identifier
      Call
        Identifier
        Identifier
    Assignment
      Identifier
      Call
        Identifier
        Identifier
    InputDecl
      Identifier
    OutputDecl
      Identifier
`

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(src)
	require.Empty(t, diags)
	require.NotNil(t, prog)
	return prog
}

func TestSprint_Outline(t *testing.T) {
	assert.Equal(t, standardizeTree, Sprint(parse(t, standardizeSrc)))
}

func TestSprint_Deterministic(t *testing.T) {
	first := Sprint(parse(t, standardizeSrc))
	for range 5 {
		assert.Equal(t, first, Sprint(parse(t, standardizeSrc)))
	}
}

func TestSprint_EmptyChildList(t *testing.T) {
	assert.Equal(t, "InputDecl\n", Sprint(ast.NewInputDecl()))
	assert.Equal(t, "Call\n  Identifier\n", Sprint(ast.NewCall(ast.NewIdentifier("now", ""))))
}

func TestSprint_IdentityRebuildRoundTrip(t *testing.T) {
	prog := parse(t, standardizeSrc)
	clone, err := ast.Clone(prog)
	require.NoError(t, err)
	assert.Equal(t, Sprint(prog), Sprint(clone))
	assert.Equal(t, Sprint(prog, WithDetails()), Sprint(clone, WithDetails()))
}

func TestSprint_Details(t *testing.T) {
	prog := parse(t, `(import timeseries) { c (input (TimeSeries t)) (:= x (+ t 3 "s")) }`)
	want := `Program
  Import timeseries
  Component
    Identifier c
    InputDecl
      Identifier t : TimeSeries
    Assignment
      Identifier x
      Call
        Identifier __add__
        Identifier t
        Literal 3
        Literal "s"
`
	assert.Equal(t, want, Sprint(prog, WithDetails()))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFprint_PropagatesWriteErrors(t *testing.T) {
	err := Fprint(failingWriter{}, parse(t, standardizeSrc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFprint_Writer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, parse(t, standardizeSrc)))
	assert.Equal(t, standardizeTree, buf.String())
}

func TestSource_Canonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    standardizeSrc,
			expected: standardizeSrc,
		},
		{
			name:  "compact input",
			input: `(import a)(import b){c (input x (T y))(:= z (* x y 2))(output z)}(import d)`,
			expected: `(import a)
(import b)

{ c
  (input x (T y))
  (:= z (* x y 2))
  (output z)
}

(import d)
`,
		},
		{
			name:  "literals and empty calls",
			input: `{ c (:= s "hi there") (:= n (now)) (output) }`,
			expected: `{ c
  (:= s "hi there")
  (:= n (now))
  (output)
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Source(parse(t, tt.input)))
		})
	}
}

func TestSource_Reparses(t *testing.T) {
	prog := parse(t, standardizeSrc)
	again := parse(t, Source(prog))
	assert.Equal(t, Sprint(prog, WithDetails()), Sprint(again, WithDetails()))
}

func TestWithComments(t *testing.T) {
	src := `# pipeline header
(import timeseries)
{ standardize
  # centre the series
  (:= mu (mean t))
  (input t)
}
# trailing note
`
	p := parser.NewParser(src)
	prog := p.ParseProgram()
	require.NotNil(t, prog)
	require.Empty(t, p.Errors())

	want := `# pipeline header
(import timeseries)

{ standardize
  # centre the series
  (:= mu (mean t))
  (input t)
}
# trailing note
`
	assert.Equal(t, want, WithComments(prog, p.Comments()))
}
