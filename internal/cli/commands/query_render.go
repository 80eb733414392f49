package commands

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/pype/internal/cli/output"
)

// queryResult holds the rows of a query, every value already rendered.
type queryResult struct {
	cols []string
	rows [][]any
}

func collectRows(rows *sql.Rows) (*queryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &queryResult{cols: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// []byte is only readable as text
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.rows = append(res.rows, values)
	}
	return res, rows.Err()
}

func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	res, err := collectRows(rows)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, res)
	case "csv":
		return renderCSV(w, res)
	case "md", "markdown":
		return renderTable(w, res, true)
	case "table", "text":
		return renderTable(w, res, false)
	default:
		return fmt.Errorf("unknown format %q (expected table, json, csv or md)", format)
	}
}

func renderTable(w io.Writer, res *queryResult, markdown bool) error {
	if len(res.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	output.WriteTable(w, res.cols, res.strings(), markdown)
	if !markdown {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.rows))
	}
	return nil
}

func renderJSON(w io.Writer, res *queryResult) error {
	objects := make([]map[string]any, len(res.rows))
	for i, row := range res.rows {
		obj := make(map[string]any, len(res.cols))
		for j, col := range res.cols {
			obj[col] = row[j]
		}
		objects[i] = obj
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

func renderCSV(w io.Writer, res *queryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.cols); err != nil {
		return err
	}
	if err := cw.WriteAll(res.strings()); err != nil {
		return err
	}
	return cw.Error()
}

func (res *queryResult) strings() [][]string {
	out := make([][]string, len(res.rows))
	for i, row := range res.rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = formatValue(v)
		}
	}
	return out
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func listTablesFromDB(ctx context.Context, w io.Writer, db *sql.DB, format string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY type DESC, name
	`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// columnInfo represents schema column information.
type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
	PK       bool   `json:"pk"`
}

type schemaOutput struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Columns []columnInfo `json:"columns"`
	Indexes []string     `json:"indexes,omitempty"`
}

func showSchemaFromDB(ctx context.Context, w io.Writer, db *sql.DB, tableName, format string) error {
	schema := schemaOutput{Name: tableName}
	err := db.QueryRowContext(ctx, `
		SELECT type FROM sqlite_master
		WHERE name = ? AND type IN ('table', 'view')
	`, tableName).Scan(&schema.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("table or view '%s' not found", tableName)
	}
	if err != nil {
		return err
	}

	// The name was just found in sqlite_master, so quoting it is enough.
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+strconv.Quote(tableName)+")")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		schema.Columns = append(schema.Columns, columnInfo{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
			Default:  dflt.String,
			PK:       pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	indexRows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ?
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`, tableName)
	if err != nil {
		return err
	}
	defer func() { _ = indexRows.Close() }()
	for indexRows.Next() {
		var name string
		if err := indexRows.Scan(&name); err != nil {
			return err
		}
		schema.Indexes = append(schema.Indexes, name)
	}
	if err := indexRows.Err(); err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	}

	markdown := format == "md" || format == "markdown"
	title := output.Title(schema.Type) + ": " + tableName
	if markdown {
		_, _ = fmt.Fprintln(w, output.FormatHeader(2, title))
		_, _ = fmt.Fprintln(w)
	} else {
		_, _ = fmt.Fprintln(w, title)
		_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))
	}

	tableRows := make([][]string, len(schema.Columns))
	for i, col := range schema.Columns {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		def := col.Default
		if col.PK {
			def = strings.TrimSpace(def + " (primary key)")
		}
		tableRows[i] = []string{col.Name, col.Type, nullable, def}
	}
	output.WriteTable(w, []string{"Column", "Type", "Nullable", "Default"}, tableRows, markdown)

	if len(schema.Indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Indexes:")
		for _, idx := range schema.Indexes {
			_, _ = fmt.Fprintf(w, "  %s\n", idx)
		}
	}
	return nil
}
