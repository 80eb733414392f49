package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolWarning = "!"
	SymbolError   = "✗"
	SymbolSkipped = "-"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Symbol   lipgloss.Style // names: bindings, components, modules
	Kind     lipgloss.Style
	Position lipgloss.Style
}

// NewStyles creates styles rendered by lr.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Underline(true),
		Header2:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Info:     lr.NewStyle().Foreground(lipgloss.Color("12")),
		Symbol:   lr.NewStyle().Foreground(lipgloss.Color("13")),
		Kind:     lr.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
		Position: lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
