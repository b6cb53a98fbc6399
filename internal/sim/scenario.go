package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/codec"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// Scenario is the declarative description of a simulated wallbox: the
// unit it answers for, its initial register values, and the write
// actions that model device behavior.
type Scenario struct {
	UnitID       uint8                                `yaml:"unit_id"`
	Values       map[string]any                       `yaml:"values"`
	WriteActions map[string]map[uint16]map[string]any `yaml:"write_actions"`
}

// LoadScenario reads a scenario YAML file.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	return ParseScenario(raw)
}

// ParseScenario decodes scenario YAML.
func ParseScenario(raw []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario: %w", err)
	}
	if sc.UnitID == 0 {
		sc.UnitID = registry.DefaultUnitID
	}
	return sc, nil
}

// Materialize validates the scenario and builds the mutable store.
// Every key must exist in the catalog and every value must encode
// cleanly, so runtime writes can apply actions without error paths.
func (sc Scenario) Materialize() (*Store, error) {
	actions := make(WriteActions, len(sc.WriteActions))
	for key, byValue := range sc.WriteActions {
		if _, ok := registry.Get(key); !ok {
			return nil, fmt.Errorf("scenario: write action for unknown register %q", key)
		}
		actions[key] = make(map[uint16]map[string]codec.Value, len(byValue))
		for written, updates := range byValue {
			coerced, err := coerceValues(updates)
			if err != nil {
				return nil, fmt.Errorf("scenario: action %s=%d: %w", key, written, err)
			}
			actions[key][written] = coerced
		}
	}

	store := NewStore(sc.UnitID, actions)

	initial, err := coerceValues(sc.Values)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := store.ApplyValues(initial); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}

	// Dry-run every action against the codec so WriteRegister never
	// has to surface encode failures.
	for key, byValue := range actions {
		for _, updates := range byValue {
			for k, v := range updates {
				def, _ := registry.Get(k)
				if _, err := codec.Encode(def, v); err != nil {
					return nil, fmt.Errorf("scenario: action on %s: %w", key, err)
				}
			}
		}
	}

	return store, nil
}

func coerceValues(raw map[string]any) (map[string]codec.Value, error) {
	out := make(map[string]codec.Value, len(raw))
	for key, v := range raw {
		if _, ok := registry.Get(key); !ok {
			return nil, fmt.Errorf("unknown register key %q", key)
		}
		value, err := codec.ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// DefaultScenario mimics an idle wallbox with a vehicle connected: all
// telemetry present, session stopped, and the session command wired to
// flip charging state and mirrored power registers. Writing the
// keepalive assert value clears the life bit immediately, emulating the
// device acknowledgment.
func DefaultScenario() Scenario {
	return Scenario{
		UnitID: registry.DefaultUnitID,
		Values: map[string]any{
			"serial_number":         "SIM-WB-0001",
			"charge_point_id":       "SIMULATOR",
			"charge_point_brand":    "Webasto",
			"charge_point_model":    "Next",
			"firmware_version":      "1.0.0",
			"rated_power_w":         22000,
			"phase_configuration":   1,
			"charge_point_state":    0,
			"charging_state":        0,
			"equipment_state":       1,
			"cable_state":           2,
			"fault_code":            0,
			"voltage_l1_v":          230,
			"voltage_l2_v":          230,
			"voltage_l3_v":          230,
			"energy_total_kwh":      1234.567,
			"session_max_current_a": 32,
			"evse_min_current_a":    6,
			"evse_max_current_a":    32,
			"cable_max_current_a":   32,
			"ev_max_current_a":      32,
			"failsafe_current_a":    16,
			"failsafe_timeout_s":    60,
		},
		WriteActions: map[string]map[uint16]map[string]any{
			registry.KeySessionCommand: {
				registry.SessionCommandStart: {
					"charging_state":       1,
					"charge_point_state":   2,
					"active_power_total_w": 7400,
					"active_power_l1_w":    2466,
					"active_power_l2_w":    2466,
					"active_power_l3_w":    2466,
					"charge_power_w":       7400,
				},
				registry.SessionCommandStop: {
					"charging_state":       0,
					"charge_point_state":   0,
					"active_power_total_w": 0,
					"active_power_l1_w":    0,
					"active_power_l2_w":    0,
					"active_power_l3_w":    0,
					"charge_power_w":       0,
				},
			},
			registry.KeySendKeepalive: {
				registry.KeepaliveAssertValue: {
					"send_keepalive": 0,
				},
			},
		},
	}
}
