package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Title returns s in title case ("failed" becomes "Failed").
func Title(s string) string {
	return titleCaser.String(s)
}

// FormatHeader returns a Markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a Markdown list item "**key**: value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock returns content in a fenced code block.
func FormatCodeBlock(lang, content string) string {
	return "```" + lang + "\n" + strings.TrimRight(content, "\n") + "\n```"
}

// Table renders rows under header: a box table in text mode, a Markdown
// table otherwise. JSON callers encode their own structures.
func (r *Renderer) Table(header []string, rows [][]string) {
	WriteTable(r.out, header, rows, r.EffectiveMode() != ModeText)
}

// WriteTable renders rows under header to w as a box table, or as a
// Markdown table when markdown is set.
func WriteTable(w io.Writer, header []string, rows [][]string, markdown bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}

	if markdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
