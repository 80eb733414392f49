// Package state records pype check runs in SQLite: which files were
// checked, their content hashes, the symbols they declare and the
// diagnostics they produced. The hashes let repeated checks skip files
// that have not changed.
package state

import (
	"errors"
	"time"
)

// ErrNotOpen is returned by store operations before Open succeeds.
var ErrNotOpen = errors.New("database not opened")

// RunStatus represents the status of a check run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of the checker over a set of files.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Files       int // files checked
	Failed      int // files with at least one error
	Error       string
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// FileRecord is the outcome of checking one file.
type FileRecord struct {
	Path        string
	Hash        string
	OK          bool
	Symbols     []SymbolRecord
	Diagnostics []DiagnosticRecord
}

// SymbolRecord is a symbol-table entry of a checked file.
type SymbolRecord struct {
	Scope  string
	Name   string
	Kind   string
	Line   int
	Column int
}

// Severity classifies a diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DiagnosticRecord is one reported problem.
type DiagnosticRecord struct {
	Path     string
	Severity Severity
	Line     int
	Column   int
	Message  string
}

// Store is the persistence interface the engine depends on.
type Store interface {
	CreateRun() (*Run, error)
	CompleteRun(id string, status RunStatus, files, failed int, errMsg string) error
	SaveFile(runID string, rec FileRecord) error
	FileHash(path string) (string, bool, error)
}

var _ Store = (*SQLiteStore)(nil)
