// Package codec converts raw 16-bit register words to and from typed
// values. All functions are pure; Decode and Encode are inverses for
// every representable value.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// ErrValueRange flags an encode of a value outside the register's bit
// width or declared bounds. This is a caller bug, never retried.
var ErrValueRange = errors.New("codec: value out of range")

// Decode turns the raw words read for def into a typed value.
// The slice must hold exactly def.Words() entries.
func Decode(def registry.Definition, words []uint16) (Value, error) {
	if len(words) != int(def.Words()) {
		return Null, fmt.Errorf("codec: %s: got %d words, want %d", def.Key, len(words), def.Words())
	}

	switch def.Enc {
	case registry.Uint16:
		return scaled(def, uint64(words[0])), nil

	case registry.Uint32:
		raw := uint64(words[0])<<16 | uint64(words[1])
		return scaled(def, raw), nil

	case registry.Text:
		buf := make([]byte, 0, len(words)*2)
		for _, w := range words {
			buf = append(buf, byte(w>>8), byte(w))
		}
		text := strings.TrimRight(string(buf), "\x00")
		text = strings.ToValidUTF8(text, "")
		return TextValue(strings.TrimSpace(text)), nil
	}

	return Null, fmt.Errorf("codec: %s: unsupported encoding %q", def.Key, def.Enc)
}

// Encode turns a typed value into the raw words for def. Numeric
// values are divided by the scale before widening; out-of-range
// results fail with ErrValueRange.
func Encode(def registry.Definition, v Value) ([]uint16, error) {
	if v.IsNull() {
		return make([]uint16, def.Words()), nil
	}

	switch def.Enc {
	case registry.Uint16:
		raw, err := rawValue(def, v)
		if err != nil {
			return nil, err
		}
		if raw > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s=%s exceeds 16 bits", ErrValueRange, def.Key, v)
		}
		return []uint16{uint16(raw)}, nil

	case registry.Uint32:
		raw, err := rawValue(def, v)
		if err != nil {
			return nil, err
		}
		if raw > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %s=%s exceeds 32 bits", ErrValueRange, def.Key, v)
		}
		return []uint16{uint16(raw >> 16), uint16(raw)}, nil

	case registry.Text:
		if v.Kind != KindText {
			return nil, fmt.Errorf("%w: %s expects text", ErrValueRange, def.Key)
		}
		capacity := int(def.Count) * 2
		data := []byte(v.Text)
		if len(data) > capacity {
			return nil, fmt.Errorf("%w: %q exceeds %d registers for %s", ErrValueRange, v.Text, def.Count, def.Key)
		}
		words := make([]uint16, def.Count)
		for i, b := range data {
			if i%2 == 0 {
				words[i/2] = uint16(b) << 8
			} else {
				words[i/2] |= uint16(b)
			}
		}
		return words, nil
	}

	return nil, fmt.Errorf("codec: %s: unsupported encoding %q", def.Key, def.Enc)
}

// EncodeNumber is Encode for plain numeric input, used by write paths.
func EncodeNumber(def registry.Definition, value float64) ([]uint16, error) {
	return Encode(def, FloatValue(value))
}

func scaled(def registry.Definition, raw uint64) Value {
	if def.Scale == 1 || def.Scale == 0 {
		return IntValue(int64(raw))
	}
	return FloatValue(float64(raw) * def.Scale)
}

func rawValue(def registry.Definition, v Value) (uint64, error) {
	num, ok := v.Number()
	if !ok {
		return 0, fmt.Errorf("%w: %s expects a number", ErrValueRange, def.Key)
	}
	if num < 0 {
		return 0, fmt.Errorf("%w: %s=%s is negative", ErrValueRange, def.Key, v)
	}
	if def.Scale != 1 && def.Scale != 0 {
		return uint64(math.Round(num / def.Scale)), nil
	}
	return uint64(math.Round(num)), nil
}
