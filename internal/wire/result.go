package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// ResultValue converts one engine column value to a JSON-compatible value by
// a type-directed mapping. The wire protocol carries far fewer types than
// the engine, so fidelity is deliberately lost on the way out: every integer
// width collapses to a JSON number, non-finite floats become null (JSON has
// no NaN or infinity literals), timestamps normalize to microseconds, blobs
// become base64 strings, and anything unrecognized falls back to a
// human-readable string. The conversion never fails.
func ResultValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case string:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case float32:
		return finite(float64(x))
	case float64:
		return finite(x)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case time.Time:
		return x.UnixMicro()
	}
	return reflectedValue(reflect.ValueOf(v))
}

// finite keeps a float as a JSON number only when it has one.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// reflectedValue handles the composite shapes an engine may report: nested
// lists, maps, structs, and wrapped variants.
func reflectedValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		// Unwrap to the active alternative and convert that.
		if rv.IsNil() {
			return nil
		}
		return ResultValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return base64.StdEncoding.EncodeToString(raw)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = ResultValue(rv.Index(i).Interface())
		}
		return out

	case reflect.Map:
		members := make(object, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			members = append(members, member{
				key:   keyString(iter.Key().Interface()),
				value: ResultValue(iter.Value().Interface()),
			})
		}
		// Go maps have no order; sort for a stable encoding.
		sort.Slice(members, func(i, j int) bool { return members[i].key < members[j].key })
		return members

	case reflect.Struct:
		t := rv.Type()
		members := make(object, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			members = append(members, member{
				key:   f.Name,
				value: ResultValue(rv.Field(i).Interface()),
			})
		}
		return members
	}

	return fmt.Sprintf("%v", rv.Interface())
}

// keyString stringifies a map key: strings pass through, bytes render as
// base64, everything else takes the debug form.
func keyString(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	}
	return fmt.Sprintf("%v", k)
}

// object is a JSON object that preserves member order when marshaled, which
// a Go map cannot do. Struct fields keep declaration order; map entries are
// sorted by key.
type object []member

type member struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
