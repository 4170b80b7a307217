package wire

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyResponseShape(t *testing.T) {
	data, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","columns":[],"rows":[],"num_rows":0}`, string(data))
}

func TestOKResponseShape(t *testing.T) {
	resp := OK(
		[]Column{{Name: "ref", Type: "UInteger"}},
		[][]any{{0}},
	)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","columns":[["ref","UInteger"]],"rows":[[0]],"num_rows":1}`, string(data))
}

func TestErrorResponseShape(t *testing.T) {
	data, err := json.Marshal(Error("SQL preparation error: near \"SELEKT\": syntax error"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"SQL preparation error: near \"SELEKT\": syntax error"}`, string(data))
}

func TestResponseRoundTrip(t *testing.T) {
	resp := OK(
		[]Column{{Name: "x", Type: "INTEGER"}, {Name: "y", Type: "TEXT"}},
		[][]any{{float64(1), "a"}, {float64(2), "b"}},
	)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got Response
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, resp.Columns, got.Columns)
	assert.Equal(t, 2, got.NumRows)
	assert.Len(t, got.Rows, 2)
}

func TestWriteResponseAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, Empty()))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Equal(t, byte('\n'), out[len(out)-1])
	assert.NotContains(t, out[:len(out)-1], "\n", "no embedded newlines inside a message")
}

func TestWriteResponseUnencodableValueStillEmitsALine(t *testing.T) {
	var buf bytes.Buffer
	bad := OK([]Column{{Name: "x", Type: ""}}, [][]any{{func() {}}})
	require.NoError(t, WriteResponse(&buf, bad))

	var got Response
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, StatusError, got.Status)
	assert.NotEmpty(t, got.Message)
}
