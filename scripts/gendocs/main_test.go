package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_All(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, generate("all", "", root))

	index, err := os.ReadFile(filepath.Join(root, "docs", "cli", "index.md"))
	require.NoError(t, err)
	for _, name := range []string{"check", "fmt", "graph", "symbols", "history", "query"} {
		assert.Contains(t, string(index), "[`"+name+"`](/cli/"+name+")")
		assert.FileExists(t, filepath.Join(root, "docs", "cli", name+".md"))
	}
	assert.Contains(t, string(index), "`PYPE_STATE_PATH`")
	assert.Contains(t, string(index), "DO NOT EDIT")
	assert.Contains(t, string(index), "[`query tables`](/cli/query-tables)")

	sub, err := os.ReadFile(filepath.Join(root, "docs", "cli", "query-tables.md"))
	require.NoError(t, err)
	assert.Contains(t, string(sub), "# pype query tables")
	assert.Contains(t, string(sub), "[`query`](/cli/query)")

	cfg, err := os.ReadFile(filepath.Join(root, "docs", "reference", "configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "`library_paths`")
	assert.Contains(t, string(cfg), "`.pype/state.db`")
}

func TestGenerate_OutDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")

	require.NoError(t, generate("config", out, root))
	assert.FileExists(t, filepath.Join(out, "configuration.md"))
	assert.NoDirExists(t, filepath.Join(root, "docs"))
}

func TestGenerate_Unknown(t *testing.T) {
	err := generate("lsp", "", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown -gen value")
}

func TestConfigKeys_Documented(t *testing.T) {
	keys := configKeys()
	require.NotEmpty(t, keys)
	for _, key := range keys {
		assert.NotEmpty(t, key.Description, "key %s has no description", key.Name)
		assert.NotEqual(t, "project_root", key.Name)
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "Check source files.", cleanDescription("Check  source\nfiles"))
	assert.Equal(t, "Done.", cleanDescription("Done."))
	assert.Equal(t, "", cleanDescription("  "))
}

func TestDedent(t *testing.T) {
	in := "\n  # Show tokens\n  pype tokens a.ppl\n\n    --output json\n"
	assert.Equal(t, "# Show tokens\npype tokens a.ppl\n\n  --output json", dedent(in))
	assert.Equal(t, "pype check", dedent("pype check"))
}

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Header(2, "Flags")
	w.Table([]string{"Flag", "Usage"}, [][]string{{InlineCode("--dot"), "Graphviz output"}})
	w.BulletList([]string{"one", "two"})

	got := string(w.Bytes())
	assert.Contains(t, got, "## Flags\n\n")
	assert.Contains(t, got, "| Flag | Usage |")
	assert.Contains(t, got, "| `--dot` | Graphviz output |")
	assert.Contains(t, got, "- one\n- two\n")
}
