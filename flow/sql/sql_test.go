package sql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lguimbarda/readall/flow"
	"github.com/lguimbarda/readall/flow/event"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// Every connection to :memory: is a distinct database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedParts(t *testing.T, db *sql.DB, parts ...string) {
	t.Helper()
	_, err := db.Exec(`
		CREATE TABLE parts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc TEXT NOT NULL,
			body BLOB NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	for _, p := range parts {
		if _, err := db.Exec(`INSERT INTO parts (doc, body) VALUES (?, ?)`, "readme", []byte(p)); err != nil {
			t.Fatalf("failed to insert data: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO parts (doc, body) VALUES ('other', X'00')`); err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBlobs(t *testing.T) {
	db := setupTestDB(t)
	seedParts(t, db, "Hello, ", "SQL ", "world")

	ctx := waitCtx(t)
	src := Blobs(ctx, db, `SELECT body FROM parts WHERE doc = ? ORDER BY id`, "readme")
	data, err := flow.Read(ctx, src).Wait(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "Hello, SQL world" {
		t.Errorf("data = %q, want %q", data, "Hello, SQL world")
	}
}

func TestBlobs_NoRows(t *testing.T) {
	db := setupTestDB(t)
	seedParts(t, db)

	ctx := waitCtx(t)
	data, err := flow.Read(ctx, Blobs(ctx, db, `SELECT body FROM parts WHERE doc = 'missing'`)).Wait(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data != nil {
		t.Errorf("data = %q, want nil", data)
	}
}

func TestBlobs_QueryError(t *testing.T) {
	db := setupTestDB(t)

	ctx := waitCtx(t)
	_, err := flow.Read(ctx, Blobs(ctx, db, `SELECT body FROM no_such_table`)).Wait(ctx)
	if err == nil || !strings.Contains(err.Error(), "no_such_table") {
		t.Errorf("err = %v, want missing table error", err)
	}
}

func TestBlobs_ScanError(t *testing.T) {
	db := setupTestDB(t)
	seedParts(t, db, "a")

	ctx := waitCtx(t)
	_, err := flow.Read(ctx, Blobs(ctx, db, `SELECT id, body FROM parts`)).Wait(ctx)
	if err == nil {
		t.Error("expected a scan error for two columns")
	}
}

func TestTable_Pipe(t *testing.T) {
	db := setupTestDB(t)
	ctx := waitCtx(t)

	sink, err := Table(ctx, db, "upload")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	defer sink.Close()

	src := event.New()
	var gotData []byte
	var gotErr error
	calls := 0
	flow.Pipe(ctx, src, sink, func(data []byte, err error) {
		calls++
		gotData, gotErr = data, err
	})

	for _, c := range []string{"x", "y", "", "zz"} {
		src.Write([]byte(c))
	}
	src.End()

	if calls != 1 || gotErr != nil || gotData != nil {
		t.Fatalf("got %d completions with (%q, %v), want one (nil, nil)", calls, gotData, gotErr)
	}

	rows, err := db.Query(`SELECT chunk FROM "upload" ORDER BY seq`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var stored []string
	for rows.Next() {
		var chunk []byte
		if err := rows.Scan(&chunk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		stored = append(stored, string(chunk))
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y", "", "zz"}, stored); diff != "" {
		t.Errorf("stored chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestTable_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := waitCtx(t)

	sink, err := Table(ctx, db, `odd "name"`)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	src := event.New()
	future := flow.Forward(ctx, src, sink)
	src.Write([]byte("round"))
	src.Write([]byte("trip"))
	src.End()
	if _, err := future.Wait(ctx); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := flow.Read(ctx, Blobs(ctx, db, `SELECT chunk FROM "odd ""name""" ORDER BY seq`)).Wait(ctx)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "roundtrip" {
		t.Errorf("data = %q, want %q", data, "roundtrip")
	}
}

func TestTable_InsertErrorFailsPipe(t *testing.T) {
	db := setupTestDB(t)
	ctx := waitCtx(t)

	sink, err := Table(ctx, db, "chunks")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	defer sink.Close()
	if _, err := db.Exec(`DROP TABLE chunks`); err != nil {
		t.Fatalf("drop: %v", err)
	}

	src := event.New()
	future := flow.Forward(ctx, src, sink)
	src.Write([]byte("lost"))
	src.End()

	_, err = future.Wait(ctx)
	if err == nil || !strings.HasPrefix(err.Error(), "insert chunk") {
		t.Errorf("err = %v, want insert chunk error", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("insert error should wrap the driver error")
	}
}
