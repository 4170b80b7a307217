// Package engine wraps the embedded SQL engine behind the small surface the
// bridge needs: prepare, execute, and one-shot statements, all against a
// single pinned connection.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultPath is the in-memory database opened when no path is configured.
const DefaultPath = ":memory:"

// Engine is the bridge's sole connection to the embedded database. It is
// exclusively owned by the dispatch loop and not safe for concurrent use.
type Engine struct {
	db   *sql.DB
	conn *sql.Conn
}

// Open opens the database at path (DefaultPath when empty) and pins a single
// connection for the engine's lifetime. Prepared statements and transaction
// control commands must all observe the same underlying session, so the pool
// is capped at one connection.
func Open(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pin connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Engine{db: db, conn: conn}, nil
}

// Close releases the pinned connection and the database.
func (e *Engine) Close() error {
	connErr := e.conn.Close()
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if connErr != nil {
		return fmt.Errorf("release connection: %w", connErr)
	}
	return nil
}

// Prepare compiles query into a reusable statement bound to the engine
// session. The error, if any, carries the engine's own diagnostic text.
func (e *Engine) Prepare(ctx context.Context, query string) (*Statement, error) {
	stmt, err := e.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Statement{stmt: stmt, query: query}, nil
}

// Simple runs a one-shot statement outside the prepared cache. Transaction
// control commands are forwarded through here verbatim.
func (e *Engine) Simple(ctx context.Context, query string) error {
	_, err := e.conn.ExecContext(ctx, query)
	return err
}
