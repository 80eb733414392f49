// Package golden reads golden test cases for the pype front end from
// Markdown documents.
//
// A test case starts at a heading "Test: <name>" and is followed by exactly
// one ```pype input fence and at least one assertion fence:
//
//	ast       the detailed tree outline of the parsed program
//	source    the canonical source rendering
//	error     every error, one per line
//	scopes    the symbol table, one scope per line
//	warnings  dataflow warnings, one per line
//
// Fences without a language are prose and ignored.
package golden

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputLanguage is the fence language of a test case input.
const InputLanguage = "pype"

// AssertionType is the fence language of an assertion.
type AssertionType string

// Assertion types.
const (
	AssertAST      AssertionType = "ast"
	AssertSource   AssertionType = "source"
	AssertError    AssertionType = "error"
	AssertScopes   AssertionType = "scopes"
	AssertWarnings AssertionType = "warnings"
)

var assertionTypes = map[AssertionType]bool{
	AssertAST:      true,
	AssertSource:   true,
	AssertError:    true,
	AssertScopes:   true,
	AssertWarnings: true,
}

// Assertion is one expected rendering of a test case.
type Assertion struct {
	Type    AssertionType
	Content string
	Line    int // line of the fence content in the document
}

// TestCase is a test case extracted from Markdown.
type TestCase struct {
	Name       string
	Input      string
	Line       int
	Assertions []Assertion
}

// Extract parses a Markdown document and returns its test cases in order.
func Extract(markdown []byte) ([]TestCase, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []TestCase
	var current *TestCase
	finish := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := headingText(n, markdown)
			name, ok := strings.CutPrefix(heading, "Test: ")
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{Name: strings.TrimSpace(name), Line: lineOf(n, markdown)}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			lang := string(n.Language(markdown))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			line := lineOf(n, markdown)
			if lang != InputLanguage && !assertionTypes[AssertionType(lang)] {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s'", line, lang)
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, lang)
			}
			content := strings.TrimRight(blockContent(n, markdown), "\n")
			if lang == InputLanguage {
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences in test '%s'", line, current.Name)
				}
				current.Input = content
				return ast.WalkContinue, nil
			}
			current.Assertions = append(current.Assertions, Assertion{
				Type:    AssertionType(lang),
				Content: content,
				Line:    line,
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract test cases: %w", err)
	}
	if err := finish(); err != nil {
		return nil, fmt.Errorf("failed to extract test cases: %w", err)
	}
	return cases, nil
}

func validate(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

// lineOf returns the 1-based line of the first content line of n.
func lineOf(n ast.Node, source []byte) int {
	if n.Lines().Len() == 0 {
		return 0
	}
	return bytes.Count(source[:n.Lines().At(0).Start], []byte("\n")) + 1
}
