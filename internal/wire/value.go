// Package wire defines the line protocol spoken over stdin/stdout: the
// command and response envelopes and the value codec that converts between
// the open JSON representation and the engine's parameter and result types.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBoolean
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindBlob:
		return "blob"
	}
	return "invalid"
}

// Value is the closed set of data kinds a client may send as a query
// parameter: 64-bit signed integer, 64-bit float, text, boolean, null, or a
// base64-encoded blob.
//
// The wire encoding is untagged. Decoding attempts variants in a fixed,
// documented order: boolean, null, number-as-integer, number-as-float,
// string. The ordering matters because JSON numbers without a fractional
// part are ambiguous between the integer and float variants. A JSON string
// always decodes as text; blob values are constructed programmatically and
// distinguished from text by position and convention at the application
// layer, not by the wire format.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Integer returns a 64-bit signed integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float returns a 64-bit float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a string value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Blob returns a blob value carrying base64-encoded bytes.
func Blob(encoded string) Value { return Value{kind: KindBlob, s: encoded} }

// BlobBytes returns a blob value for raw bytes.
func BlobBytes(raw []byte) Value {
	return Blob(base64.StdEncoding.EncodeToString(raw))
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// UnmarshalJSON decodes an untagged wire value using the fixed attempt
// order: boolean, null, integer, float, string.
func (v *Value) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = Boolean(true)
		return nil
	case "false":
		*v = Boolean(false)
		return nil
	case "null":
		*v = Null()
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text value: %w", err)
		}
		*v = Text(s)
		return nil
	}

	if i, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*v = Integer(i)
		return nil
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil {
		*v = Float(f)
		return nil
	}

	return fmt.Errorf("cannot decode %s as a parameter value", data)
}

// MarshalJSON encodes v in its natural untagged JSON form. Blob values
// marshal as their base64 string, indistinguishable from text on the wire.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInteger:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindText, KindBlob:
		return json.Marshal(v.s)
	}
	return nil, fmt.Errorf("cannot encode value of kind %d", v.kind)
}

// Bind converts v to the engine's native parameter representation. The n-th
// value in a command's parameter sequence binds to the n-th placeholder;
// mismatched counts are the engine's error to report, not the codec's.
//
// A blob whose base64 payload does not decode binds an empty byte slice
// rather than failing the whole request.
func (v Value) Bind() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBoolean:
		return v.b
	case KindBlob:
		raw, err := base64.StdEncoding.DecodeString(v.s)
		if err != nil {
			return []byte{}
		}
		return raw
	}
	return nil
}
