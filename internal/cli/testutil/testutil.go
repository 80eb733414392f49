// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/pype/internal/cli/output"
)

// StandardizeSource is a valid program using the builtin timeseries module.
const StandardizeSource = `(import timeseries)

{ standardize
  (:= new_t (/ (- t mu) sig))
  (:= mu (mean t))
  (:= sig (std t))
  (input (TimeSeries t))
  (output new_t)
}
`

// ScaleSource imports a module from the project library.
const ScaleSource = `(import scaling)

{ rescale
  (input x)
  (:= y (scale x 10))
  (output y)
}
`

// BrokenSource assigns the same binding twice.
const BrokenSource = `{ f
  (input x)
  (:= a (+ x 1))
  (:= a (+ x 2))
  (output a)
}
`

const scalingManifest = `module: scaling
symbols:
  - name: scale
    kind: libraryfunction
`

const projectConfig = `library_paths:
  - lib
state_path: .pype/state.db
`

// SetupTestProject creates a temporary pype project:
//
//	pype.yaml
//	lib/scaling.yaml
//	src/standardize.ppl
//	src/scale.ppl
//
// When broken is set, src/broken.ppl is added as well.
func SetupTestProject(t *testing.T, broken bool) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		"pype.yaml":           projectConfig,
		"lib/scaling.yaml":    scalingManifest,
		"src/standardize.ppl": StandardizeSource,
		"src/scale.ppl":       ScaleSource,
	}
	if broken {
		files["src/broken.ppl"] = BrokenSource
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
