package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MaxExtraFields bounds the number of additional key/value pairs a plan may carry.
const MaxExtraFields = 32

// ExtraField is one provider-specific key/value pair.
// Value is always a scalar: string, bool, int64 or float64.
type ExtraField struct {
	Key   string
	Value any
}

// Extra is an ordered, bounded list of provider-specific fields
// (contract terms, autopay discounts and the like).
// Insertion order is preserved through JSON round trips.
type Extra []ExtraField

// NewExtra builds an Extra from alternating key/value pairs.
// Non-scalar values and pairs past MaxExtraFields are dropped.
func NewExtra(pairs ...any) Extra {
	var e Extra
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		e, _ = e.With(key, pairs[i+1])
	}
	return e
}

// With returns e with key set to value. An existing key is replaced in place.
// The second return is false when the value is not a scalar or the list is full.
func (e Extra) With(key string, value any) (Extra, bool) {
	v, ok := ToScalar(value)
	if !ok || key == "" {
		return e, false
	}
	for i := range e {
		if e[i].Key == key {
			e[i].Value = v
			return e, true
		}
	}
	if len(e) >= MaxExtraFields {
		return e, false
	}
	return append(e, ExtraField{Key: key, Value: v}), true
}

// Get returns the value for key.
func (e Extra) Get(key string) (any, bool) {
	for _, f := range e {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Clone returns an independent copy.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	copy(out, e)
	return out
}

// ToScalar normalises v to one of the supported scalar types.
func ToScalar(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool, int64, float64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint:
		return int64(t), true
	case uint32:
		return int64(t), true
	case float32:
		return float64(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil {
			return f, true
		}
		return t.String(), true
	default:
		return nil, false
	}
}

// MarshalJSON encodes Extra as a JSON object in insertion order.
func (e Extra) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal extra %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into Extra, keeping key order.
// Nested objects and arrays are skipped.
func (e *Extra) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*e = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: additional info must be a JSON object", ErrInvalidInput)
	}

	var out Extra
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out, _ = out.With(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}
