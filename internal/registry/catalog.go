package registry

import "fmt"

// Protocol constants shared by the bridge and the simulator.
const (
	DefaultPort   = 502
	DefaultUnitID = 255

	// MaxWordsPerRequest is the largest register block the EVSE accepts
	// in a single read transaction.
	MaxWordsPerRequest = 110

	// KeepaliveAssertValue is written to the life-bit register; the
	// wallbox clears the register back to zero as acknowledgment.
	KeepaliveAssertValue = 1

	SessionCommandStart = 1
	SessionCommandStop  = 2
)

// Well-known register keys referenced by name elsewhere.
const (
	KeyChargingState   = "charging_state"
	KeyFailsafeTimeout = "failsafe_timeout_s"
	KeySessionCommand  = "session_command"
	KeySendKeepalive   = "send_keepalive"
	KeySetCurrent      = "set_current_a"
)

// Catalog is the full Webasto Next register map. Addresses and word
// counts follow the vendor's Modbus TCP documentation.
var Catalog = []Definition{
	// Identity block. Not all firmware variants expose these; a bulk
	// read of an identity block may be rejected outright.
	{Key: "serial_number", Address: 100, Count: 25, Space: Input, Enc: Text, Optional: true},
	{Key: "charge_point_id", Address: 130, Count: 50, Space: Input, Enc: Text, Optional: true},
	{Key: "charge_point_brand", Address: 190, Count: 10, Space: Input, Enc: Text, Optional: true},
	{Key: "charge_point_model", Address: 210, Count: 5, Space: Input, Enc: Text, Optional: true},
	{Key: "firmware_version", Address: 230, Count: 50, Space: Input, Enc: Text, Optional: true},

	{Key: "rated_power_w", Address: 400, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "phase_configuration", Address: 404, Count: 1, Space: Input, Enc: Uint16, Scale: 1},

	// Live telemetry.
	{Key: "charge_point_state", Address: 1000, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: KeyChargingState, Address: 1001, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "equipment_state", Address: 1002, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "cable_state", Address: 1004, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "fault_code", Address: 1006, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "current_l1_a", Address: 1008, Count: 1, Space: Input, Enc: Uint16, Scale: 0.001},
	{Key: "current_l2_a", Address: 1010, Count: 1, Space: Input, Enc: Uint16, Scale: 0.001},
	{Key: "current_l3_a", Address: 1012, Count: 1, Space: Input, Enc: Uint16, Scale: 0.001},
	{Key: "voltage_l1_v", Address: 1014, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "voltage_l2_v", Address: 1016, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "voltage_l3_v", Address: 1018, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "active_power_total_w", Address: 1020, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "active_power_l1_w", Address: 1024, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "active_power_l2_w", Address: 1028, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "active_power_l3_w", Address: 1032, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "energy_total_kwh", Address: 1036, Count: 2, Space: Input, Enc: Uint32, Scale: 0.001},

	// Session limits.
	{Key: "session_max_current_a", Address: 1100, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "evse_min_current_a", Address: 1102, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "evse_max_current_a", Address: 1104, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "cable_max_current_a", Address: 1106, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "ev_max_current_a", Address: 1108, Count: 1, Space: Input, Enc: Uint16, Scale: 1},

	// Session bookkeeping.
	{Key: "charged_energy_wh", Address: 1502, Count: 1, Space: Input, Enc: Uint16, Scale: 1},
	{Key: "session_start_time", Address: 1504, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "session_duration_s", Address: 1508, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "session_end_time", Address: 1512, Count: 2, Space: Input, Enc: Uint32, Scale: 1},
	{Key: "charge_power_w", Address: 1516, Count: 2, Space: Input, Enc: Uint32, Scale: 1},

	// Failsafe configuration.
	{Key: "failsafe_current_a", Address: 2000, Count: 1, Space: Holding, Enc: Uint16, Scale: 1,
		Writable: true, Min: 6, Max: 32, Step: 1},
	{Key: KeyFailsafeTimeout, Address: 2002, Count: 1, Space: Holding, Enc: Uint16, Scale: 1,
		Writable: true, Min: 6, Max: 120, Step: 1},

	// Control registers. Write-only: excluded from the bulk read plan,
	// still addressable by single-register reads.
	{Key: KeySetCurrent, Address: 5004, Count: 1, Space: Holding, Enc: Uint16, Scale: 1,
		Writable: true, WriteOnly: true, Min: 0, Max: 32, Step: 1},
	{Key: KeySessionCommand, Address: 5006, Count: 1, Space: Holding, Enc: Uint16, Scale: 1,
		Writable: true, WriteOnly: true, Min: 0, Max: 65535, Step: 1},

	// Life bit. The wallbox falls back to the failsafe current limit
	// when the bit is not asserted within the failsafe timeout window.
	{Key: KeySendKeepalive, Address: 6000, Count: 1, Space: Holding, Enc: Uint16, Scale: 1,
		Writable: true, WriteOnly: true, Min: 0, Max: 1, Step: 1},
}

var byKey = func() map[string]Definition {
	m := make(map[string]Definition, len(Catalog))
	for _, d := range Catalog {
		if _, dup := m[d.Key]; dup {
			panic(fmt.Sprintf("registry: duplicate key %q", d.Key))
		}
		m[d.Key] = d
	}
	return m
}()

// Get returns the definition for key.
func Get(key string) (Definition, bool) {
	d, ok := byKey[key]
	return d, ok
}

// MustGet returns the definition for key and panics if it is unknown.
// Intended for the well-known Key* constants.
func MustGet(key string) Definition {
	d, ok := byKey[key]
	if !ok {
		panic(fmt.Sprintf("registry: unknown key %q", key))
	}
	return d
}

// Readable returns the catalog without write-only registers, in catalog
// order. This is the input to the read-plan builder.
func Readable() []Definition {
	out := make([]Definition, 0, len(Catalog))
	for _, d := range Catalog {
		if d.WriteOnly {
			continue
		}
		out = append(out, d)
	}
	return out
}
