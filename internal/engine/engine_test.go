package engine

import (
	"context"
	"errors"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(context.Background(), DefaultPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestPrepareAndRun(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stmt, err := e.Prepare(ctx, "SELECT 1 AS x")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	res, err := stmt.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Columns) != 1 {
		t.Fatalf("columns = %d, want 1", len(res.Columns))
	}
	if res.Columns[0].Name != "x" {
		t.Errorf("column name = %q, want %q", res.Columns[0].Name, "x")
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	if got, ok := res.Rows[0][0].(int64); !ok || got != 1 {
		t.Errorf("value = %v (%T), want int64 1", res.Rows[0][0], res.Rows[0][0])
	}
}

func TestPrepareInvalidSQL(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Prepare(context.Background(), "SELEKT 1")
	if err == nil {
		t.Fatal("Prepare accepted invalid SQL")
	}
	if err.Error() == "" {
		t.Error("diagnostic text is empty")
	}
}

func TestStatementIsReusable(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stmt, err := e.Prepare(ctx, "SELECT ?")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	for _, want := range []int64{1, 2, 3} {
		res, err := stmt.Run(ctx, []any{want})
		if err != nil {
			t.Fatalf("Run(%d): %v", want, err)
		}
		if got := res.Rows[0][0].(int64); got != want {
			t.Errorf("value = %d, want %d", got, want)
		}
	}
}

func TestRowlessStatementYieldsEmptyResult(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Simple(ctx, "CREATE TABLE t (a INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	stmt, err := e.Prepare(ctx, "INSERT INTO t (a) VALUES (?)")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	res, err := stmt.Run(ctx, []any{int64(7)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Columns) != 0 {
		t.Errorf("columns = %d, want 0", len(res.Columns))
	}
	if len(res.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(res.Rows))
	}
}

func TestRunExecutionError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Simple(ctx, "CREATE TABLE u (a INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	stmt, err := e.Prepare(ctx, "INSERT INTO u (a) VALUES (?)")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	if _, err := stmt.Run(ctx, []any{int64(1)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err = stmt.Run(ctx, []any{int64(1)})
	if err == nil {
		t.Fatal("duplicate primary key insert succeeded")
	}
	var re *RowError
	if errors.As(err, &re) {
		t.Errorf("constraint violation classified as row processing: %v", err)
	}
}

func TestSimpleForwardsTransactionControl(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if err := e.Simple(ctx, "CREATE TABLE tx (a INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	if err := e.Simple(ctx, "BEGIN"); err != nil {
		t.Fatalf("BEGIN: %v", err)
	}
	if err := e.Simple(ctx, "INSERT INTO tx (a) VALUES (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := e.Simple(ctx, "ROLLBACK"); err != nil {
		t.Fatalf("ROLLBACK: %v", err)
	}

	stmt, err := e.Prepare(ctx, "SELECT COUNT(*) FROM tx")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	res, err := stmt.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Rows[0][0].(int64); got != 0 {
		t.Errorf("rows after rollback = %d, want 0", got)
	}
}

func TestParameterCountMismatchIsEngineError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stmt, err := e.Prepare(ctx, "SELECT ?, ?")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer stmt.Close()

	if _, err := stmt.Run(ctx, []any{int64(1)}); err == nil {
		t.Fatal("mismatched parameter count succeeded")
	}
}
