package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", slog.String("path", path))
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string { return s.path }

// DB exposes the connection for read-only inspection.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// CreateRun records the start of a check run.
func (s *SQLiteStore) CreateRun() (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	run := &Run{
		ID:        generateID(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("creating run", slog.String("id", run.ID))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, files, failed int, errMsg string) error {
	if s.db == nil {
		return ErrNotOpen
	}

	var errValue sql.NullString
	if errMsg != "" {
		errValue = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, files = ?, failed = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), files, failed, errValue, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, files, failed, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT id, status, started_at, completed_at, files, failed, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	run := &Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&run.ID, &status, &run.StartedAt, &completedAt, &run.Files, &run.Failed, &errMsg); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// --- File operations ---

// SaveFile stores the outcome of checking one file within a run, replacing
// what was stored for the same path before.
func (s *SQLiteStore) SaveFile(runID string, rec FileRecord) (err error) {
	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		`INSERT INTO files (path, hash, run_id, checked_at, ok) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, run_id = excluded.run_id,
		   checked_at = excluded.checked_at, ok = excluded.ok`,
		rec.Path, rec.Hash, runID, time.Now().UTC(), rec.OK,
	)
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM symbols WHERE path = ?`, rec.Path); err != nil {
		return fmt.Errorf("failed to clear symbols: %w", err)
	}
	for i, sym := range rec.Symbols {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO symbols (path, scope, seq, name, kind, line, col) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Path, sym.Scope, i, sym.Name, sym.Kind, sym.Line, sym.Column,
		)
		if err != nil {
			return fmt.Errorf("failed to save symbol %s: %w", sym.Name, err)
		}
	}

	for _, d := range rec.Diagnostics {
		_, err = tx.Exec(
			`INSERT INTO diagnostics (run_id, path, severity, line, col, message) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, rec.Path, string(d.Severity), d.Line, d.Column, d.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to save diagnostic: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debug("file saved",
		slog.String("run", runID),
		slog.String("path", rec.Path),
		slog.Int("symbols", len(rec.Symbols)),
		slog.Int("diagnostics", len(rec.Diagnostics)))
	return nil
}

// FileHash returns the content hash stored for a file, and whether that
// file was last checked without errors. The boolean result reports whether
// the hash should be trusted: it is false for unknown or failing files.
func (s *SQLiteStore) FileHash(path string) (string, bool, error) {
	if s.db == nil {
		return "", false, ErrNotOpen
	}

	var hash string
	var ok bool
	err := s.db.QueryRow(`SELECT hash, ok FROM files WHERE path = ?`, path).Scan(&hash, &ok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get file hash: %w", err)
	}
	return hash, ok, nil
}

// SymbolsForFile returns the symbols stored for a file, grouped by scope in
// insertion order.
func (s *SQLiteStore) SymbolsForFile(path string) ([]SymbolRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT scope, name, kind, line, col FROM symbols WHERE path = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolRecord
	for rows.Next() {
		var sym SymbolRecord
		if err := rows.Scan(&sym.Scope, &sym.Name, &sym.Kind, &sym.Line, &sym.Column); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// DiagnosticsForRun returns the diagnostics recorded during a run.
func (s *SQLiteStore) DiagnosticsForRun(runID string) ([]DiagnosticRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.Query(
		`SELECT path, severity, line, col, message FROM diagnostics WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []DiagnosticRecord
	for rows.Next() {
		var d DiagnosticRecord
		var severity string
		if err := rows.Scan(&d.Path, &severity, &d.Line, &d.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Severity = Severity(severity)
		out = append(out, d)
	}
	return out, rows.Err()
}
