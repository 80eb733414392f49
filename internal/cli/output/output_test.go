package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTest(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"text":     ModeText,
		"TEXT":     ModeText,
		"markdown": ModeMarkdown,
		"md":       ModeMarkdown,
		"json":     ModeJSON,
		"auto":     ModeAuto,
		"":         ModeAuto,
		"xml":      ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), in)
	}
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newTest(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())
	assert.True(t, r.IsTTY())

	r, _, _ = newTest(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTest(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestRenderer_MarkdownHasNoANSI(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)
	r.Header(1, "Check")
	r.Success("a.ppl")
	r.StatusLine("b.ppl", "error", "2 errors")
	r.Warning("careful")
	r.Muted("quiet")
	r.Error("boom")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "# Check\n")
	assert.Contains(t, out.String(), "- ✓ a.ppl\n")
	assert.Contains(t, out.String(), "- ✗ b.ppl (2 errors)\n")
	assert.Contains(t, out.String(), "- ! careful\n")
	assert.Equal(t, "Error: boom\n", errOut.String())
}

func TestRenderer_TextStatusLines(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.Success("done")
	r.StatusLine("skipped.ppl", "skipped", "unchanged")
	r.Error("bad")

	assert.Equal(t, "✓ done\n- skipped.ppl (unchanged)\n", out.String())
	assert.Equal(t, "✗ bad\n", errOut.String())
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(CheckOutput{Files: []FileResult{{Path: "a.ppl", OK: true}}}))
	assert.Equal(t, `{
  "files": [
    {
      "path": "a.ppl",
      "ok": true
    }
  ],
  "failed": 0,
  "skipped": 0
}
`, out.String())
}

func TestRenderer_Table(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.Table([]string{"Name", "Kind"}, [][]string{{"mean", "librarymethod"}, {"t", "input"}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| Name | Kind |", lines[0])
	assert.Equal(t, "| mean | librarymethod |", lines[2])

	r, out, _ = newTest(ModeText, false)
	r.Table([]string{"Name"}, [][]string{{"mean"}})
	assert.Contains(t, out.String(), "┌")
	assert.Contains(t, out.String(), "mean")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Summary", FormatHeader(2, "Summary"))
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "- **Files**: 3", FormatKeyValue("Files", "3"))
	assert.Equal(t, "```pype\n(import m)\n```", FormatCodeBlock("pype", "(import m)\n"))
	assert.Equal(t, "Completed", Title("completed"))
}
