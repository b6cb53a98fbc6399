package codec

import (
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
)

// Value is the decoded form of a register. Null is distinct from a
// genuine zero: a key whose block failed to read carries KindNull.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// Null is the absent value.
var Null = Value{Kind: KindNull}

func IntValue(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func TextValue(s string) Value   { return Value{Kind: KindText, Text: s} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Number returns the numeric content of an int or float value.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindText:
		return v.Text
	}
	return "null"
}

// ValueOf coerces a dynamically typed scalar (YAML scenario values,
// CLI input) into a Value.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null, nil
	case Value:
		return t, nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint16:
		return IntValue(int64(t)), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return TextValue(t), nil
	}
	return Null, fmt.Errorf("codec: unsupported value type %T", raw)
}
