// Package registry holds the static Webasto Next register map.
package registry

// Space is one of the two Modbus register address spaces.
type Space string

const (
	// Input registers carry read-only telemetry (FC 4).
	Input Space = "input"
	// Holding registers carry configuration and control (FC 3 / FC 6).
	Holding Space = "holding"
)

// Encoding selects how raw 16-bit words map to a value.
type Encoding string

const (
	Uint16 Encoding = "uint16" // one word
	Uint32 Encoding = "uint32" // two words, most significant first
	Text   Encoding = "text"   // count words, two big-endian bytes each, NUL padded
)

// Definition describes one register exposed by the wallbox.
// Definitions are immutable; the full set is the constant Catalog.
type Definition struct {
	Key     string
	Address uint16
	Count   uint16
	Space   Space
	Enc     Encoding

	// Scale is applied after decoding numeric values. 1 means the
	// decoded value stays an integer.
	Scale float64

	Writable  bool
	WriteOnly bool

	// Optional marks registers that some firmware variants do not
	// implement. A failing bulk-read block is only demoted when every
	// register in it is optional.
	Optional bool

	// Bounds for writable numeric registers.
	Min  float64
	Max  float64
	Step float64
}

// Words returns the number of 16-bit words implied by the encoding.
// For Text the declared Count is authoritative.
func (d Definition) Words() uint16 {
	switch d.Enc {
	case Uint16:
		return 1
	case Uint32:
		return 2
	default:
		return d.Count
	}
}
