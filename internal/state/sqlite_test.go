package state

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pype/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"runs", "files", "symbols", "diagnostics"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		require.NoError(t, rows.Close())
	}

	// Running again is a no-op.
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.CompleteRun("x", RunStatusCompleted, 0, 0, ""), ErrNotOpen)
	assert.ErrorIs(t, store.SaveFile("x", FileRecord{}), ErrNotOpen)
	_, _, err = store.FileHash("a.ppl")
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.ListRuns(10)
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.SymbolsForFile("a.ppl")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.Migrate(), ErrNotOpen)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun()
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Zero(t, run.Duration())

	require.NoError(t, store.CompleteRun(run.ID, RunStatusFailed, 3, 1, "1 file failed"))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, 3, got.Files)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, "1 file failed", got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))

	_, err = store.GetRun("missing")
	assert.ErrorContains(t, err, "run not found")
	assert.ErrorContains(t, store.CompleteRun("missing", RunStatusCompleted, 0, 0, ""), "run not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for range 3 {
		run, err := store.CreateRun()
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestSQLiteStore_SaveFile(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun()
	require.NoError(t, err)

	rec := FileRecord{
		Path: "pipelines/standardize.ppl",
		Hash: "abc",
		OK:   true,
		Symbols: []SymbolRecord{
			{Scope: "global", Name: "mean", Kind: "librarymethod"},
			{Scope: "global", Name: "standardize", Kind: "component", Line: 3, Column: 1},
			{Scope: "standardize", Name: "t", Kind: "input", Line: 7, Column: 22},
		},
		Diagnostics: []DiagnosticRecord{
			{Path: "pipelines/standardize.ppl", Severity: SeverityWarning, Line: 4, Column: 3, Message: "binding 'x' is never used"},
		},
	}
	require.NoError(t, store.SaveFile(run.ID, rec))

	hash, ok, err := store.FileHash(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "abc", hash)
	assert.True(t, ok)

	syms, err := store.SymbolsForFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, rec.Symbols, syms)

	diags, err := store.DiagnosticsForRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Diagnostics, diags)

	// Saving again replaces the symbols.
	rec.Hash = "def"
	rec.OK = false
	rec.Symbols = rec.Symbols[:1]
	rec.Diagnostics = nil
	require.NoError(t, store.SaveFile(run.ID, rec))

	hash, ok, err = store.FileHash(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "def", hash)
	assert.False(t, ok)

	syms, err = store.SymbolsForFile(rec.Path)
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}

func TestSQLiteStore_FileHashUnknown(t *testing.T) {
	store := setupTestStore(t)
	hash, ok, err := store.FileHash("nope.ppl")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.False(t, ok)
}

func TestSQLiteStore_SaveFileUnknownRun(t *testing.T) {
	store := setupTestStore(t)
	err := store.SaveFile("no-such-run", FileRecord{Path: "a.ppl", Hash: "h"})
	assert.Error(t, err)
}

func mockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &SQLiteStore{db: db, logger: testutil.NewTestLogger(t)}, mock
}

func TestSQLiteStore_SaveFileRollsBack(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO files").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM symbols").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT OR REPLACE INTO symbols").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := store.SaveFile("run-1", FileRecord{
		Path:    "a.ppl",
		Hash:    "h",
		Symbols: []SymbolRecord{{Scope: "global", Name: "c", Kind: "component"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save symbol c")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CreateRunError(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("database is locked"))

	_, err := store.CreateRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_FileHashQueryError(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectQuery("SELECT hash, ok FROM files").WithArgs("a.ppl").WillReturnError(errors.New("boom"))

	_, _, err := store.FileHash("a.ppl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get file hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListRunsScansRows(t *testing.T) {
	store, mock := mockStore(t)
	rows := sqlmock.NewRows([]string{"id", "status", "started_at", "completed_at", "files", "failed", "error"}).
		AddRow("r1", "completed", testTime, testTime, 2, 0, nil)
	mock.ExpectQuery("SELECT id, status, started_at").WithArgs(5).WillReturnRows(rows)

	runs, err := store.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 2, runs[0].Files)
	assert.Empty(t, runs[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
