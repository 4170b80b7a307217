package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxLineSize is the maximum accepted length of a single protocol line
// (16 MiB).
const MaxLineSize = 16 << 20

// Command tag values, discriminated by the "command" field.
const (
	CmdBegin      = "begin"
	CmdClose      = "close"
	CmdCommit     = "commit"
	CmdDeallocate = "deallocate"
	CmdDeclare    = "declare"
	CmdExecute    = "execute"
	CmdFetch      = "fetch"
	CmdPrepare    = "prepare"
	CmdRollback   = "rollback"
	CmdStatus     = "status"
)

// Command is one decoded client request. Stmt and Cursor are pointers so a
// handler can tell an absent handle apart from handle 0.
type Command struct {
	Name   string  `json:"command"`
	Query  string  `json:"query,omitempty"`
	Stmt   *int    `json:"stmt,omitempty"`
	Cursor *int    `json:"cursor,omitempty"`
	Params []Value `json:"params,omitempty"`
}

// DecodeCommand parses a single protocol line.
func DecodeCommand(line []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(line, &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if c.Name == "" {
		return Command{}, errors.New(`decode command: missing "command" field`)
	}
	return c, nil
}
