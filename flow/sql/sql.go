// Package sql provides a blob source and a chunk-table sink on top of
// database/sql.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lguimbarda/readall/flow/event"
)

// Blobs creates a source that runs query once started and writes the
// single []byte column of each row as one chunk. Scan and query errors
// fail the source.
func Blobs(ctx context.Context, db *sql.DB, query string, args ...any) *event.Stream {
	return event.Producer(func(s *event.Stream) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			s.Fail(err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var chunk []byte
			if err := rows.Scan(&chunk); err != nil {
				s.Fail(err)
				return
			}
			s.Write(chunk)
		}
		if err := rows.Err(); err != nil {
			s.Fail(err)
			return
		}
		s.End()
	})
}

// TableSink stores forwarded chunks as rows of a (seq, chunk) table, in
// write order.
type TableSink struct {
	insert *sql.Stmt
}

// Table creates the chunk table if it doesn't exist and returns a sink
// inserting into it. The table can be read back in order with
//
//	SELECT chunk FROM <table> ORDER BY seq
func Table(ctx context.Context, db *sql.DB, table string) (*TableSink, error) {
	name := quoteIdent(table)

	create := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (seq INTEGER PRIMARY KEY AUTOINCREMENT, chunk BLOB NOT NULL)`,
		name)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("create chunk table %s: %w", name, err)
	}

	insert, err := db.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (chunk) VALUES (?)`, name))
	if err != nil {
		return nil, fmt.Errorf("prepare chunk insert: %w", err)
	}
	return &TableSink{insert: insert}, nil
}

// Write inserts p as one row.
func (t *TableSink) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	if _, err := t.insert.Exec(chunk); err != nil {
		return 0, fmt.Errorf("insert chunk: %w", err)
	}
	return len(p), nil
}

// Close releases the prepared statement.
func (t *TableSink) Close() error {
	return t.insert.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
