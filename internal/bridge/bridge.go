// Package bridge implements the command dispatch loop: the single-threaded
// read-decode-execute-encode-write cycle that is the entire runtime behavior
// of the process. One command per input line, handled strictly in arrival
// order; the only state carried between requests is the statement registry
// and whatever transaction state the engine tracks itself.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"sqlport/internal/engine"
	"sqlport/internal/registry"
	"sqlport/internal/wire"
)

// refType is the type name reported for the statement handle column in
// prepare responses.
const refType = "UInteger"

// Bridge owns the engine connection and the statement registry. Both are
// accessed only from the dispatch loop, so no locking is needed; the Stats
// snapshot read by the admin server goes through atomics.
type Bridge struct {
	eng     *engine.Engine
	stmts   *registry.Registry[*engine.Statement]
	logger  *slog.Logger
	session string
	started time.Time

	commands atomic.Int64
	failures atomic.Int64
	open     atomic.Int64
}

// Stats is a point-in-time snapshot of the bridge's counters for the admin
// surface.
type Stats struct {
	Session        string `json:"session"`
	UptimeS        int64  `json:"uptime_s"`
	Commands       int64  `json:"commands"`
	Failures       int64  `json:"failures"`
	OpenStatements int64  `json:"open_statements"`
}

// New creates a bridge over eng with a statement registry of the given
// capacity (the registry default when zero or less).
func New(eng *engine.Engine, capacity int, logger *slog.Logger) *Bridge {
	b := &Bridge{
		eng:     eng,
		logger:  logger,
		session: ulid.Make().String(),
		started: time.Now(),
	}
	b.stmts = registry.New(capacity, func(s *engine.Statement) {
		if err := s.Close(); err != nil {
			b.logger.Warn("close statement", "error", err)
		}
		b.open.Add(-1)
		openStatements.Dec()
	})
	return b
}

// Session returns the bridge's session ID.
func (b *Bridge) Session() string { return b.session }

// Stats returns a snapshot of the bridge's counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Session:        b.session,
		UptimeS:        int64(time.Since(b.started).Seconds()),
		Commands:       b.commands.Load(),
		Failures:       b.failures.Load(),
		OpenStatements: b.open.Load(),
	}
}

// Close releases every statement still held in the registry.
func (b *Bridge) Close() {
	b.stmts.Clear()
}

// Run reads commands from r one line at a time and writes one response line
// to w for each, until the input stream ends. A closed output pipe ends the
// loop cleanly; it is how the consumer says it is done. A line that does not
// decode as a command yields an error response and the loop stays alive.
func (b *Bridge) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), wire.MaxLineSize)
	out := bufio.NewWriter(w)

	b.logger.Info("bridge started",
		"session", b.session,
		"statement_capacity", b.stmts.Cap(),
	)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		resp := b.dispatch(ctx, line)

		err := wire.WriteResponse(out, resp)
		if err == nil {
			err = out.Flush()
		}
		if err != nil {
			if isClosedPipe(err) {
				b.logger.Info("output pipe closed", "session", b.session)
				return nil
			}
			return fmt.Errorf("flush response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read command: %w", err)
	}

	b.logger.Info("input stream closed", "session", b.session)
	return nil
}

// dispatch decodes one line, routes it, and updates counters and metrics.
func (b *Bridge) dispatch(ctx context.Context, line []byte) wire.Response {
	start := time.Now()

	name := unknownCommand
	var resp wire.Response

	cmd, err := wire.DecodeCommand(line)
	if err != nil {
		resp = b.fail(&Error{Kind: KindProtocol, Err: err})
	} else {
		if knownCommands[cmd.Name] {
			name = cmd.Name
		}
		resp = b.handle(ctx, cmd)
	}

	b.commands.Add(1)
	if resp.Status == wire.StatusError {
		b.failures.Add(1)
	}
	commandsTotal.WithLabelValues(name, resp.Status).Inc()
	commandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	b.logger.Debug("command handled",
		"session", b.session,
		"command", name,
		"status", resp.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp
}

var knownCommands = map[string]bool{
	wire.CmdBegin:      true,
	wire.CmdClose:      true,
	wire.CmdCommit:     true,
	wire.CmdDeallocate: true,
	wire.CmdDeclare:    true,
	wire.CmdExecute:    true,
	wire.CmdFetch:      true,
	wire.CmdPrepare:    true,
	wire.CmdRollback:   true,
	wire.CmdStatus:     true,
}

// handle routes one decoded command to its outcome path.
func (b *Bridge) handle(ctx context.Context, cmd wire.Command) wire.Response {
	switch cmd.Name {
	case wire.CmdPrepare:
		return b.prepare(ctx, cmd.Query)

	case wire.CmdClose:
		if cmd.Stmt == nil {
			return b.fail(&Error{Kind: KindProtocol, Err: errors.New(`close requires "stmt"`)})
		}
		// Closing a non-existent handle is not an error.
		b.stmts.Remove(*cmd.Stmt)
		return wire.Empty()

	case wire.CmdExecute:
		if cmd.Stmt == nil {
			return b.fail(&Error{Kind: KindProtocol, Err: errors.New(`execute requires "stmt"`)})
		}
		return b.execute(ctx, *cmd.Stmt, cmd.Params)

	case wire.CmdBegin:
		return b.simple(ctx, "BEGIN")
	case wire.CmdCommit:
		return b.simple(ctx, "COMMIT")
	case wire.CmdRollback:
		return b.simple(ctx, "ROLLBACK")

	case wire.CmdStatus:
		return wire.Empty()

	case wire.CmdDeclare, wire.CmdFetch, wire.CmdDeallocate:
		// Reserved cursor commands; defined on the wire, not yet implemented.
		return b.fail(&Error{Kind: KindUnsupported})
	}

	return b.fail(&Error{Kind: KindProtocol, Err: fmt.Errorf("unknown command %q", cmd.Name)})
}

// prepare compiles the query and stores the statement in the registry. On
// success the response is a single-column, single-row result set carrying
// the new handle.
func (b *Bridge) prepare(ctx context.Context, query string) wire.Response {
	stmt, err := b.eng.Prepare(ctx, query)
	if err != nil {
		return b.fail(&Error{Kind: KindPreparation, Err: err})
	}

	handle, err := b.stmts.Store(stmt)
	if err != nil {
		// The registry did not take ownership.
		if cerr := stmt.Close(); cerr != nil {
			b.logger.Warn("close uncached statement", "error", cerr)
		}
		return b.fail(&Error{Kind: KindExecution, Err: fmt.Errorf("cache prepared statement: %w", err)})
	}
	b.open.Add(1)
	openStatements.Inc()

	return wire.OK(
		[]wire.Column{{Name: "ref", Type: refType}},
		[][]any{{handle}},
	)
}

// execute looks up the statement, binds params positionally, collects the
// whole result set, and converts it to wire form.
func (b *Bridge) execute(ctx context.Context, handle int, params []wire.Value) wire.Response {
	stmt, ok := b.stmts.Get(handle)
	if !ok {
		return b.fail(&Error{Kind: KindInvalidHandle})
	}

	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p.Bind()
	}

	res, err := stmt.Run(ctx, args)
	if err != nil {
		var re *engine.RowError
		if errors.As(err, &re) {
			return b.fail(&Error{Kind: KindRowProcessing, Err: re.Err})
		}
		return b.fail(&Error{Kind: KindExecution, Err: err})
	}

	cols := make([]wire.Column, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = wire.Column{Name: c.Name, Type: c.Type}
	}
	rows := make([][]any, len(res.Rows))
	for i, raw := range res.Rows {
		row := make([]any, len(raw))
		for j, v := range raw {
			row[j] = wire.ResultValue(v)
		}
		rows[i] = row
	}
	return wire.OK(cols, rows)
}

// simple forwards a transaction control statement verbatim through the
// throwaway execution path.
func (b *Bridge) simple(ctx context.Context, query string) wire.Response {
	if err := b.eng.Simple(ctx, query); err != nil {
		return b.fail(&Error{Kind: KindExecution, Err: err})
	}
	return wire.Empty()
}

// fail converts a classified error into its error response, counting and
// logging it on the way.
func (b *Bridge) fail(err *Error) wire.Response {
	commandErrors.WithLabelValues(err.Kind.String()).Inc()
	b.logger.Warn("command failed",
		"session", b.session,
		"kind", err.Kind.String(),
		"error", err.Error(),
	)
	return wire.Error(err.Error())
}

// isClosedPipe reports whether err means the consumer went away.
func isClosedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}
