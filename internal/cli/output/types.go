package output

import "time"

// TokenInfo is one token in `tokens` JSON output.
type TokenInfo struct {
	Type    string `json:"type"`
	Literal string `json:"literal"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

// TokensOutput is the JSON output of `tokens`.
type TokensOutput struct {
	Path   string       `json:"path"`
	Tokens []TokenInfo  `json:"tokens"`
	Errors []Diagnostic `json:"errors,omitempty"`
}

// Diagnostic is an error or warning with its position.
type Diagnostic struct {
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
}

// FileDiagnostic is a diagnostic together with the file it belongs to.
type FileDiagnostic struct {
	Path string `json:"path"`
	Diagnostic
}

// ParseOutput is the JSON output of `parse`.
type ParseOutput struct {
	Path   string       `json:"path"`
	Tree   []string     `json:"tree,omitempty"`
	Errors []Diagnostic `json:"errors,omitempty"`
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path        string       `json:"path"`
	OK          bool         `json:"ok"`
	Skipped     bool         `json:"skipped,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// CheckOutput is the JSON output of `check`.
type CheckOutput struct {
	RunID   string       `json:"run_id,omitempty"`
	Files   []FileResult `json:"files"`
	Failed  int          `json:"failed"`
	Skipped int          `json:"skipped"`
}

// SymbolInfo is one symbol-table entry.
type SymbolInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// ScopeInfo is one scope of a symbol table.
type ScopeInfo struct {
	Name    string       `json:"name"`
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolsOutput is the JSON output of `symbols`.
type SymbolsOutput struct {
	Path   string      `json:"path"`
	Scopes []ScopeInfo `json:"scopes"`
}

// GraphEdge is a dataflow edge: To is computed from From.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ComponentGraph is the dataflow graph of one component.
type ComponentGraph struct {
	Component string       `json:"component"`
	Levels    [][]string   `json:"levels,omitempty"`
	Edges     []GraphEdge  `json:"edges"`
	Outputs   []string     `json:"outputs,omitempty"`
	Cycle     []string     `json:"cycle,omitempty"`
	Warnings  []Diagnostic `json:"warnings,omitempty"`
}

// GraphOutput is the JSON output of `graph`.
type GraphOutput struct {
	Path       string           `json:"path"`
	Components []ComponentGraph `json:"components"`
}

// RunInfo is a recorded check run.
type RunInfo struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Files       int        `json:"files"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
}

// ModuleInfo is a library module and the symbols it exports.
type ModuleInfo struct {
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Symbols []SymbolInfo `json:"symbols"`
}

// VersionInfo is the JSON output of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}
