package commands

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/pype/internal/cli/config"
	"github.com/leapstack-labs/pype/internal/cli/output"
	"github.com/leapstack-labs/pype/internal/cli/testutil"
	"github.com/leapstack-labs/pype/internal/engine"
	"github.com/leapstack-labs/pype/internal/library"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject creates a test project, makes it the working directory and
// loads its configuration with JSON output.
func setupProject(t *testing.T, broken bool) string {
	t.Helper()

	dir := testutil.SetupTestProject(t, broken)
	t.Chdir(dir)
	t.Setenv("PYPE_OUTPUT", "json")

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return dir
}

func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	// Mount under a parent configured like the real root command.
	root := &cobra.Command{Use: "pype", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cmd)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{cmd.Name()}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCommandConstructors(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewTokensCommand(), "tokens <file>", nil},
		{NewParseCommand(), "parse <file>", []string{"details"}},
		{NewFmtCommand(), "fmt [paths...]", []string{"write", "check"}},
		{NewCheckCommand(), "check [paths...]", []string{"watch", "save", "incremental"}},
		{NewSymbolsCommand(), "symbols <file>", []string{"from-state"}},
		{NewGraphCommand(), "graph <file>", []string{"dot", "component"}},
		{NewModulesCommand(), "modules", nil},
		{NewHistoryCommand(), "history [run-id]", []string{"limit"}},
		{NewQueryCommand(), "query [SQL]", []string{"format", "input"}},
		{NewREPLCommand(), "repl", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestQueryCommand_Subcommands(t *testing.T) {
	cmd := NewQueryCommand()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"tables", "schema", "search"}, names)
}

func TestTokens(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewTokensCommand(), "src/scale.ppl")
	require.NoError(t, err)

	got := decode[output.TokensOutput](t, out)
	require.NotEmpty(t, got.Tokens)
	assert.Equal(t, "(", got.Tokens[0].Type)
	assert.Equal(t, 1, got.Tokens[0].Line)
	assert.Equal(t, 1, got.Tokens[0].Column)
	assert.Equal(t, "import", got.Tokens[1].Type)
	assert.Equal(t, "EOF", got.Tokens[len(got.Tokens)-1].Type)
	assert.Empty(t, got.Errors)
}

func TestTokens_LexicalError(t *testing.T) {
	dir := setupProject(t, false)
	writeFile(t, filepath.Join(dir, "bad.ppl"), "(input $x)\n")

	out, _, err := execute(NewTokensCommand(), "bad.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 lexical error(s)")

	got := decode[output.TokensOutput](t, out)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0].Message, "illegal character '$'")
	assert.Equal(t, 8, got.Errors[0].Column)
}

func TestParse(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewParseCommand(), "src/standardize.ppl", "--details")
	require.NoError(t, err)

	got := decode[output.ParseOutput](t, out)
	assert.NotEmpty(t, got.Tree)
	assert.Empty(t, got.Errors)
}

func TestParse_SyntaxError(t *testing.T) {
	dir := setupProject(t, false)
	writeFile(t, filepath.Join(dir, "bad.ppl"), "{ f (input x)\n")

	out, _, err := execute(NewParseCommand(), "bad.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error(s) in bad.ppl")

	got := decode[output.ParseOutput](t, out)
	assert.NotEmpty(t, got.Errors)
}

func TestParse_MissingFile(t *testing.T) {
	setupProject(t, false)

	_, _, err := execute(NewParseCommand(), "nope.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read nope.ppl")
}

func TestFmt_WriteThenCheck(t *testing.T) {
	dir := setupProject(t, false)
	path := filepath.Join(dir, "ugly.ppl")
	writeFile(t, path, "{ f (input x)   (:= y (+ x 1))(output y) }")

	_, _, err := execute(NewFmtCommand(), "--check", "ugly.ppl")
	require.ErrorIs(t, err, ErrNotFormatted)

	printed, _, err := execute(NewFmtCommand(), "ugly.ppl")
	require.NoError(t, err)

	_, _, err = execute(NewFmtCommand(), "--write", "ugly.ppl")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, printed, string(content))

	_, _, err = execute(NewFmtCommand(), "--check", "ugly.ppl")
	assert.NoError(t, err)
}

func TestFmt_ManyFilesNeedFlag(t *testing.T) {
	setupProject(t, false)

	_, _, err := execute(NewFmtCommand(), "src")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs --write or --check")
}

func TestFmt_SyntaxErrorLeavesFile(t *testing.T) {
	dir := setupProject(t, false)
	path := filepath.Join(dir, "bad.ppl")
	writeFile(t, path, "{ f (input x)")

	_, _, err := execute(NewFmtCommand(), "--write", "bad.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file(s) have syntax errors")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{ f (input x)", string(content))
}

func TestCheck(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewCheckCommand(), "src")
	require.NoError(t, err)

	got := decode[output.CheckOutput](t, out)
	assert.Empty(t, got.RunID)
	assert.Equal(t, 0, got.Failed)
	require.Len(t, got.Files, 2)

	var paths []string
	for _, f := range got.Files {
		paths = append(paths, f.Path)
		assert.True(t, f.OK, "%s should pass", f.Path)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join("src", "scale.ppl"),
		filepath.Join("src", "standardize.ppl"),
	}, paths)
}

func TestCheck_Broken(t *testing.T) {
	setupProject(t, true)

	out, _, err := execute(NewCheckCommand(), "src")
	require.Error(t, err)
	assert.Equal(t, "1 of 3 file(s) failed", err.Error())

	got := decode[output.CheckOutput](t, out)
	assert.Equal(t, 1, got.Failed)

	var broken *output.FileResult
	for i := range got.Files {
		if got.Files[i].Path == filepath.Join("src", "broken.ppl") {
			broken = &got.Files[i]
		}
	}
	require.NotNil(t, broken)
	assert.False(t, broken.OK)
	require.NotEmpty(t, broken.Diagnostics)
	assert.Equal(t, "error", broken.Diagnostics[0].Severity)
	assert.Contains(t, broken.Diagnostics[0].Message, "multiple assignment of 'a' in component 'f'")
}

func TestCheck_SaveAndInspectState(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewCheckCommand(), "--save", "src")
	require.NoError(t, err)
	checked := decode[output.CheckOutput](t, out)
	require.NotEmpty(t, checked.RunID)

	t.Run("history", func(t *testing.T) {
		out, _, err := execute(NewHistoryCommand())
		require.NoError(t, err)

		runs := decode[[]output.RunInfo](t, out)
		require.Len(t, runs, 1)
		assert.Equal(t, checked.RunID, runs[0].ID)
		assert.Equal(t, "completed", runs[0].Status)
		assert.Equal(t, 2, runs[0].Files)
		assert.NotNil(t, runs[0].CompletedAt)
	})

	t.Run("history run", func(t *testing.T) {
		out, _, err := execute(NewHistoryCommand(), checked.RunID)
		require.NoError(t, err)
		assert.Contains(t, out, checked.RunID)

		_, _, err = execute(NewHistoryCommand(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run not found")
	})

	t.Run("symbols from state", func(t *testing.T) {
		out, _, err := execute(NewSymbolsCommand(), "--from-state", "src/scale.ppl")
		require.NoError(t, err)

		got := decode[output.SymbolsOutput](t, out)
		require.Len(t, got.Scopes, 2)
		assert.Equal(t, "global", got.Scopes[0].Name)
		assert.Equal(t, "rescale", got.Scopes[1].Name)

		var names []string
		for _, s := range got.Scopes[1].Symbols {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{"x", "y"}, names)
	})

	t.Run("query", func(t *testing.T) {
		out, _, err := execute(NewQueryCommand(), "-f", "csv", "SELECT COUNT(*) AS n FROM runs")
		require.NoError(t, err)
		assert.Equal(t, "n\n1\n", out)
	})

	t.Run("query tables", func(t *testing.T) {
		out, _, err := execute(NewQueryCommand(), "tables", "-f", "csv")
		require.NoError(t, err)
		assert.Contains(t, out, "runs,table")
		assert.Contains(t, out, "symbols,table")
		assert.NotContains(t, out, "goose")
	})
}

func TestCheck_Incremental(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewCheckCommand(), "--incremental", "src")
	require.NoError(t, err)
	assert.Equal(t, 0, decode[output.CheckOutput](t, out).Skipped)

	out, _, err = execute(NewCheckCommand(), "--incremental", "src")
	require.NoError(t, err)
	got := decode[output.CheckOutput](t, out)
	assert.Equal(t, 2, got.Skipped)
	for _, f := range got.Files {
		assert.True(t, f.Skipped)
		assert.True(t, f.OK)
	}
}

func TestSymbols(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewSymbolsCommand(), "src/standardize.ppl")
	require.NoError(t, err)

	got := decode[output.SymbolsOutput](t, out)
	require.Len(t, got.Scopes, 2)

	global := map[string]string{}
	for _, s := range got.Scopes[0].Symbols {
		global[s.Name] = s.Kind
	}
	assert.Equal(t, "librarymethod", global["mean"])
	assert.Equal(t, "component", global["standardize"])
}

func TestSymbols_NothingSaved(t *testing.T) {
	setupProject(t, false)

	_, _, err := execute(NewSymbolsCommand(), "--from-state", "src/scale.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbols recorded")
}

func TestQuery_NoState(t *testing.T) {
	setupProject(t, false)

	_, _, err := execute(NewQueryCommand(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state database not found")
}

func TestGraph(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewGraphCommand(), "src/standardize.ppl")
	require.NoError(t, err)

	got := decode[output.GraphOutput](t, out)
	require.Len(t, got.Components, 1)
	cg := got.Components[0]
	assert.Equal(t, "standardize", cg.Component)
	assert.Empty(t, cg.Cycle)
	assert.NotEmpty(t, cg.Levels)
	assert.Contains(t, cg.Edges, output.GraphEdge{From: "mu", To: "new_t"})
}

func TestGraph_DOT(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewGraphCommand(), "--dot", "-c", "rescale", "src/scale.ppl")
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "rescale" {`)

	_, _, err = execute(NewGraphCommand(), "-c", "nope", "src/scale.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component 'nope' not found")
}

func TestModules(t *testing.T) {
	setupProject(t, false)

	out, _, err := execute(NewModulesCommand())
	require.NoError(t, err)

	mods := decode[[]output.ModuleInfo](t, out)
	byName := map[string]output.ModuleInfo{}
	for _, m := range mods {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "timeseries")
	require.Contains(t, byName, "scaling")
	assert.Equal(t, []output.SymbolInfo{{Name: "scale", Kind: "libraryfunction"}}, byName["scaling"].Symbols)
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"", true},
		{"(import timeseries)", true},
		{"{ f (input x)", false},
		{"{ f (input x)\n(output x) }", true},
		{"(:= s \"(\"", false},
		{"(:= s \"(\")", true},
		{"))", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, balanced(tt.src), "balanced(%q)", tt.src)
	}
}

func newTestSession() (*replSession, *testutil.TestRenderer) {
	tr := testutil.NewTestRenderer(output.ModeText, false)
	eng := engine.New(engine.Config{Importer: library.NewResolver(nil)})
	return newREPLSession(eng, tr.Renderer), tr
}

func TestREPLSession_Eval(t *testing.T) {
	s, tr := newTestSession()

	assert.True(t, s.eval("(import timeseries)\n"))
	assert.True(t, s.eval("{ f (input t) (:= m (mean t)) (output m) }\n"))
	assert.Contains(t, tr.Output(), "ok (2 statements)")

	tr.Reset()
	assert.False(t, s.eval("{ g (input x) (:= a 1) (:= a 2) (output a) }\n"))
	assert.Contains(t, tr.ErrorOutput(), "multiple assignment of 'a' in component 'g'")

	// rejected input is not kept
	tr.Reset()
	assert.True(t, s.eval("{ g (input x) (output x) }\n"))
	assert.Contains(t, tr.Output(), "ok (3 statements)")
}

func TestREPLSession_Commands(t *testing.T) {
	s, tr := newTestSession()
	require.True(t, s.eval("(import timeseries)\n{ f (input t) (:= m (mean t)) (output m) }\n"))

	tr.Reset()
	assert.False(t, s.command(".symbols"))
	assert.Contains(t, tr.Output(), "global: ")
	assert.Contains(t, tr.Output(), "f: t input, m variable")

	tr.Reset()
	assert.False(t, s.command(".source"))
	assert.Contains(t, tr.Output(), "(import timeseries)")

	tr.Reset()
	assert.False(t, s.command(".bogus"))
	assert.Contains(t, tr.ErrorOutput(), "unknown command: .bogus")

	tr.Reset()
	assert.False(t, s.command(".load"))
	assert.Contains(t, tr.ErrorOutput(), "usage: .load <file>")

	assert.False(t, s.command(".reset"))
	assert.Empty(t, s.source)

	assert.True(t, s.command(".quit"))
	assert.True(t, s.command(".exit"))
}

func TestREPLSession_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.ppl")
	writeFile(t, path, "(import timeseries)")

	s, tr := newTestSession()
	assert.False(t, s.command(".load "+path))
	assert.Contains(t, tr.Output(), "ok (1 statements)")
	assert.Equal(t, "(import timeseries)\n", s.source)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT NOT NULL, n INTEGER);
		CREATE INDEX idx_items_name ON items(name);
		INSERT INTO items VALUES ('a', 1), ('b', NULL);`)
	require.NoError(t, err)
	return db
}

func TestExecuteAndRender(t *testing.T) {
	db := openTestDB(t)
	ctx := t.Context()
	const q = "SELECT name, n FROM items ORDER BY name"

	var buf bytes.Buffer
	require.NoError(t, executeAndRender(ctx, &buf, db, q, "csv"))
	assert.Equal(t, "name,n\na,1\nb,NULL\n", buf.String())

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, q, "json"))
	var objects []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &objects))
	require.Len(t, objects, 2)
	assert.Equal(t, "a", objects[0]["name"])
	assert.Nil(t, objects[1]["n"])

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, q, "md"))
	assert.Contains(t, buf.String(), "| name | n |")
	assert.Contains(t, buf.String(), "| b | NULL |")

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, q, "table"))
	assert.Contains(t, buf.String(), "(2 rows)")

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, &buf, db, "SELECT * FROM items WHERE n > ?", "table", 10))
	assert.Equal(t, "(0 rows)\n", buf.String())

	err := executeAndRender(ctx, &buf, db, q, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	err = executeAndRender(ctx, &buf, db, "SELECT nope FROM items", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed")
}

func TestShowSchemaFromDB(t *testing.T) {
	db := openTestDB(t)

	var buf bytes.Buffer
	require.NoError(t, showSchemaFromDB(t.Context(), &buf, db, "items", "json"))

	var got schemaOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "items", got.Name)
	assert.Equal(t, "table", got.Type)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "name", got.Columns[0].Name)
	assert.False(t, got.Columns[0].Nullable)
	assert.True(t, got.Columns[1].Nullable)
	assert.Equal(t, []string{"idx_items_name"}, got.Indexes)

	err := showSchemaFromDB(t.Context(), &buf, db, "missing", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table or view 'missing' not found")
}

func TestListTablesFromDB(t *testing.T) {
	db := openTestDB(t)

	var buf bytes.Buffer
	require.NoError(t, listTablesFromDB(t.Context(), &buf, db, "csv"))
	assert.Equal(t, "name,type\nitems,table\n", buf.String())
}
