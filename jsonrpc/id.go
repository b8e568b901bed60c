package jsonrpc

import (
	"encoding/json"
	"fmt"
	"math"
)

// ID represents a JSON-RPC ID which must be either a string or number.
// The zero value is the null id used when a request could not be parsed.
type ID struct {
	value interface{}
}

// NewID creates a JSON-RPC ID from a string or number
func NewID(id interface{}) (ID, error) {
	switch v := id.(type) {
	case ID:
		return v, nil
	case string:
		return ID{value: v}, nil
	case float64:
		return ID{value: normalizeNumber(v)}, nil
	case int, int32, int64, float32:
		return ID{value: v}, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return ID{value: int(i)}, nil
		}
		return ID{value: v.String()}, nil
	case nil:
		return ID{}, fmt.Errorf("id cannot be null")
	default:
		return ID{}, fmt.Errorf("id must be string or number, got %T", id)
	}
}

// JSON numbers decode as float64; integral ones are kept as int so they round-trip unchanged.
func normalizeNumber(v float64) interface{} {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return int(v)
	}
	return v
}

func (id ID) Value() interface{} {
	return id.value
}

func (id ID) IsNil() bool {
	return id.value == nil
}

// Equal compares two IDs for equality
func (id ID) Equal(other interface{}) bool {
	switch v := other.(type) {
	case string, int, int32, int64, float32, float64:
		return id.value == v
	case ID:
		return id.value == v.value
	default:
		return false
	}
}

var _ json.Marshaler = ID{}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

var _ json.Unmarshaler = &ID{}

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		id.value = v
	case float64:
		id.value = normalizeNumber(v)
	case nil:
		id.value = nil
	default:
		return fmt.Errorf("id must be string or number, got %T", raw)
	}
	return nil
}
