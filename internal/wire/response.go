package wire

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response status tags, discriminated by the "status" field.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Column is one (name, type-name) pair of a result set. It marshals as a
// two-element JSON array, not an object.
type Column struct {
	Name string
	Type string
}

// MarshalJSON encodes the column as ["name", "type"].
func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{c.Name, c.Type})
}

// UnmarshalJSON decodes the ["name", "type"] pair form.
func (c *Column) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode column pair: %w", err)
	}
	c.Name, c.Type = pair[0], pair[1]
	return nil
}

// Response is one reply to one command: either a result set or an error
// message. Statements that produce no result set reply with empty columns
// and rows.
type Response struct {
	Status  string
	Columns []Column
	Rows    [][]any
	NumRows int
	Message string
}

// OK builds a success response carrying a result set.
func OK(columns []Column, rows [][]any) Response {
	return Response{
		Status:  StatusOK,
		Columns: columns,
		Rows:    rows,
		NumRows: len(rows),
	}
}

// Empty builds the success response for statements without a result set.
func Empty() Response {
	return OK(nil, nil)
}

// Error builds an error response with the given client-visible message.
func Error(message string) Response {
	return Response{Status: StatusError, Message: message}
}

type okResponse struct {
	Status  string   `json:"status"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
	NumRows int      `json:"num_rows"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MarshalJSON encodes the response in its tagged wire form. Empty result
// sets encode as [] rather than null.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(errorResponse{Status: StatusError, Message: r.Message})
	}

	cols := r.Columns
	if cols == nil {
		cols = []Column{}
	}
	rows := r.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return json.Marshal(okResponse{
		Status:  StatusOK,
		Columns: cols,
		Rows:    rows,
		NumRows: r.NumRows,
	})
}

// UnmarshalJSON decodes either tagged response form.
func (r *Response) UnmarshalJSON(data []byte) error {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	switch probe.Status {
	case StatusOK:
		var ok okResponse
		if err := json.Unmarshal(data, &ok); err != nil {
			return fmt.Errorf("decode ok response: %w", err)
		}
		*r = Response{Status: StatusOK, Columns: ok.Columns, Rows: ok.Rows, NumRows: ok.NumRows}
		return nil
	case StatusError:
		var fail errorResponse
		if err := json.Unmarshal(data, &fail); err != nil {
			return fmt.Errorf("decode error response: %w", err)
		}
		*r = Response{Status: StatusError, Message: fail.Message}
		return nil
	}
	return fmt.Errorf("decode response: unknown status %q", probe.Status)
}

// WriteResponse writes r to w as a single newline-terminated line. If r
// cannot be marshaled the client still gets a line: a generic error response
// takes its place, so one unencodable value never breaks the one-line-in,
// one-line-out rhythm.
func WriteResponse(w io.Writer, r Response) error {
	data, err := json.Marshal(r)
	if err != nil {
		data, _ = json.Marshal(Error("response encoding failed"))
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
