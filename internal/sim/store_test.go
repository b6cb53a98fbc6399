package sim

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/codec"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

func defaultStore(t *testing.T) *Store {
	t.Helper()
	store, err := DefaultScenario().Materialize()
	assert.NilError(t, err)
	return store
}

func TestReadBlock_AlwaysFullLength(t *testing.T) {
	store := NewStore(registry.DefaultUnitID, nil)

	for _, count := range []uint16{1, 10, 125} {
		block := store.ReadBlock(registry.Input, 9000, count)
		assert.Equal(t, len(block), int(count))
		for _, word := range block {
			assert.Equal(t, word, uint16(0))
		}
	}
}

func TestApplyValues_EncodesThroughCodec(t *testing.T) {
	store := NewStore(registry.DefaultUnitID, nil)

	err := store.ApplyValues(map[string]codec.Value{
		"active_power_total_w": codec.IntValue(100000),
		"current_l1_a":         codec.FloatValue(16.0),
	})
	assert.NilError(t, err)

	// u32, most significant word first.
	assert.DeepEqual(t, store.ReadBlock(registry.Input, 1020, 2), []uint16{0x0001, 0x86A0})
	// scaled by 0.001: 16 A stored as 16000 mA.
	assert.DeepEqual(t, store.ReadBlock(registry.Input, 1008, 1), []uint16{16000})
}

func TestApplyValues_UnknownKey(t *testing.T) {
	store := NewStore(registry.DefaultUnitID, nil)
	err := store.ApplyValues(map[string]codec.Value{"bogus": codec.IntValue(1)})
	assert.ErrorContains(t, err, "unknown register key")
}

func TestTextRegister_RoundTripsThroughStore(t *testing.T) {
	store := NewStore(registry.DefaultUnitID, nil)
	err := store.ApplyValues(map[string]codec.Value{"serial_number": codec.TextValue("BOX1")})
	assert.NilError(t, err)

	def := registry.MustGet("serial_number")
	words := store.ReadBlock(registry.Input, def.Address, def.Words())
	v, err := codec.Decode(def, words)
	assert.NilError(t, err)
	assert.Equal(t, v.Text, "BOX1")
}

func TestWriteRegister_SessionCommandFiresActionTable(t *testing.T) {
	store := defaultStore(t)
	cmd := registry.MustGet(registry.KeySessionCommand)

	store.WriteRegister(cmd.Address, registry.SessionCommandStart)

	assert.Equal(t, store.ReadBlock(registry.Input, 1001, 1)[0], uint16(1), "charging_state")
	assert.Equal(t, store.ReadBlock(registry.Input, 1000, 1)[0], uint16(2), "charge_point_state")
	power, err := codec.Decode(registry.MustGet("active_power_total_w"), store.ReadBlock(registry.Input, 1020, 2))
	assert.NilError(t, err)
	assert.Equal(t, power.Int, int64(7400))

	store.WriteRegister(cmd.Address, registry.SessionCommandStop)

	assert.Equal(t, store.ReadBlock(registry.Input, 1001, 1)[0], uint16(0))
	assert.Equal(t, store.ReadBlock(registry.Input, 1000, 1)[0], uint16(0))
	power, err = codec.Decode(registry.MustGet("active_power_total_w"), store.ReadBlock(registry.Input, 1020, 2))
	assert.NilError(t, err)
	assert.Equal(t, power.Int, int64(0))
}

func TestWriteRegister_UnknownValueStoresWithoutAction(t *testing.T) {
	store := defaultStore(t)
	cmd := registry.MustGet(registry.KeySessionCommand)

	store.WriteRegister(cmd.Address, 99)

	assert.Equal(t, store.ReadBlock(registry.Holding, cmd.Address, 1)[0], uint16(99))
	assert.Equal(t, store.ReadBlock(registry.Input, 1001, 1)[0], uint16(0), "no action fired")
}

func TestWriteRegister_KeepaliveAutoClears(t *testing.T) {
	store := defaultStore(t)
	alive := registry.MustGet(registry.KeySendKeepalive)

	store.WriteRegister(alive.Address, registry.KeepaliveAssertValue)

	// The device acknowledges the life bit by clearing it.
	assert.Equal(t, store.ReadBlock(registry.Holding, alive.Address, 1)[0], uint16(0))
}

func TestReset_ZeroesScenarioValues(t *testing.T) {
	store := defaultStore(t)
	assert.Equal(t, store.ReadBlock(registry.Input, 1014, 1)[0], uint16(230))

	store.Reset()
	assert.Equal(t, store.ReadBlock(registry.Input, 1014, 1)[0], uint16(0))
}
