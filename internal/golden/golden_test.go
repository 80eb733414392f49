package golden

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/internal/library"
)

func TestGoldenFiles(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	e := engine.New(engine.Config{Importer: library.NewResolver(nil)})

	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".md"), func(t *testing.T) {
			content, err := os.ReadFile(file)
			require.NoError(t, err)

			cases, err := Extract(content)
			require.NoError(t, err)
			require.NotEmpty(t, cases)

			for _, tc := range cases {
				t.Run(tc.Name, func(t *testing.T) {
					for _, a := range tc.Assertions {
						got, err := Render(e, tc, a.Type)
						require.NoError(t, err, "%s fence at line %d", a.Type, a.Line)
						assert.Equal(t, a.Content, got, "%s fence at line %d", a.Type, a.Line)
					}
				})
			}
		})
	}
}

func TestExtract(t *testing.T) {
	doc := "# Title\n\nProse.\n\n```\nplain block\n```\n\n" +
		"## Test: first\n\n```pype\n{ f (:= a 1) }\n```\n\n```ast\nProgram\n```\n\n```error\n```\n\n" +
		"## Other heading\n\n" +
		"## Test: second\n\n```pype\n(import m)\n```\n\n```scopes\nglobal:\n```\n"

	cases, err := Extract([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "first", cases[0].Name)
	assert.Equal(t, "{ f (:= a 1) }", cases[0].Input)
	require.Len(t, cases[0].Assertions, 2)
	assert.Equal(t, AssertAST, cases[0].Assertions[0].Type)
	assert.Equal(t, "Program", cases[0].Assertions[0].Content)
	assert.Equal(t, AssertError, cases[0].Assertions[1].Type)
	assert.Empty(t, cases[0].Assertions[1].Content)

	assert.Equal(t, "second", cases[1].Name)
	assert.Equal(t, AssertScopes, cases[1].Assertions[0].Type)
	assert.Equal(t, "global:", cases[1].Assertions[0].Content)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "fence outside test",
			doc:  "# Intro\n\n```pype\n{ f (:= a 1) }\n```\n",
			want: "pype fence found outside of test case",
		},
		{
			name: "unknown language",
			doc:  "## Test: x\n\n```pype\n{ f (:= a 1) }\n```\n\n```go\nfunc main() {}\n```\n",
			want: "unknown fence language 'go'",
		},
		{
			name: "two inputs",
			doc:  "## Test: x\n\n```pype\n{ f (:= a 1) }\n```\n\n```pype\n{ g (:= a 1) }\n```\n",
			want: "multiple input fences in test 'x'",
		},
		{
			name: "no input",
			doc:  "## Test: x\n\n```ast\nProgram\n```\n",
			want: "test 'x' has no input fence",
		},
		{
			name: "no assertions",
			doc:  "## Test: x\n\n```pype\n{ f (:= a 1) }\n```\n\n## Test: y\n",
			want: "test 'x' has no assertion fences",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExtract_FenceLines(t *testing.T) {
	doc := "## Test: x\n\n```pype\n{ f (:= a 1) }\n```\n\n```source\n{ f\n  (:= a 1)\n}\n```\n"
	cases, err := Extract([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, 8, cases[0].Assertions[0].Line)
}

func TestRender_NoProgram(t *testing.T) {
	e := engine.New(engine.Config{})
	tc := TestCase{Name: "broken", Input: "{ f"}

	_, err := Render(e, tc, AssertAST)
	assert.Error(t, err)
	_, err = Render(e, tc, AssertSource)
	assert.Error(t, err)
	_, err = Render(e, tc, AssertScopes)
	assert.Error(t, err)
	_, err = Render(e, tc, AssertionType("bogus"))
	assert.Error(t, err)

	got, err := Render(e, tc, AssertError)
	require.NoError(t, err)
	assert.Equal(t, "syntax error at line 1, column 4: unexpected end of input, expected '}'", got)
}
