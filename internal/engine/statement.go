package engine

import (
	"context"
	"database/sql"
)

// Column is one (name, declared type) pair of a statement's result schema.
// The type name is whatever the driver reports and may be empty for
// computed expressions.
type Column struct {
	Name string
	Type string
}

// Result holds a fully materialized result set: the column schema and every
// row's raw driver values. A statement that produces no result set (an
// INSERT, say) yields zero rows and zero columns.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// RowError wraps a failure that occurred while materializing rows after the
// statement itself executed. Callers use it to tell row-processing failures
// apart from execution failures.
type RowError struct {
	Err error
}

func (e *RowError) Error() string { return e.Err.Error() }

func (e *RowError) Unwrap() error { return e.Err }

// Statement is a prepared statement held alive across requests. Each Run is
// independent; no cursor state is retained between runs.
type Statement struct {
	stmt  *sql.Stmt
	query string
}

// SQL returns the statement's source text.
func (s *Statement) SQL() string { return s.query }

// Close releases the underlying engine resource.
func (s *Statement) Close() error {
	return s.stmt.Close()
}

// Run executes the statement with args bound positionally and collects the
// whole result set. Execution failures are returned as-is; failures after
// execution started (scanning, iteration) come back wrapped in RowError.
func (s *Statement) Run(ctx context.Context, args []any) (*Result, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, &RowError{Err: err}
	}

	cols := make([]Column, len(types))
	for i, ct := range types {
		cols[i] = Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	res := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &RowError{Err: err}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &RowError{Err: err}
	}

	return res, nil
}
