// Package sim implements a virtual Webasto Next wallbox: an in-memory
// register store with write-triggered state transitions, a fake wire
// client for unit tests, and a Modbus TCP server adapter.
package sim

import (
	"fmt"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/codec"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// WriteActions maps a register key to the side effects of writing a
// given raw value: a set of key/value updates applied atomically. This
// is how writing the session command flips charging state, power and
// session registers in one step.
type WriteActions map[string]map[uint16]map[string]codec.Value

type addrKey struct {
	space registry.Space
	addr  uint16
}

// Store is the mutable register state of one simulated wallbox. It has
// no internal locking; callers serialize access (the bridge does so via
// its wire lock, the server adapter via its own mutex).
type Store struct {
	unitID  uint8
	input   map[uint16]uint16
	holding map[uint16]uint16
	byAddr  map[addrKey]registry.Definition
	actions WriteActions
}

// NewStore builds a zeroed store covering the full catalog.
func NewStore(unitID uint8, actions WriteActions) *Store {
	s := &Store{
		unitID:  unitID,
		input:   make(map[uint16]uint16),
		holding: make(map[uint16]uint16),
		byAddr:  make(map[addrKey]registry.Definition, len(registry.Catalog)),
		actions: actions,
	}
	for _, def := range registry.Catalog {
		s.byAddr[addrKey{def.Space, def.Address}] = def
	}
	s.Reset()
	return s
}

// UnitID returns the Modbus unit the store answers for.
func (s *Store) UnitID() uint8 { return s.unitID }

// Reset zeroes every register backed by the catalog. Reads never fail
// on missing words; this only re-establishes the defined baseline.
func (s *Store) Reset() {
	s.input = make(map[uint16]uint16)
	s.holding = make(map[uint16]uint16)
	for _, def := range registry.Catalog {
		store := s.spaceStore(def.Space)
		for offset := uint16(0); offset < def.Words(); offset++ {
			store[def.Address+offset] = 0
		}
	}
}

// ApplyValues encodes and stores each entry by register key.
func (s *Store) ApplyValues(values map[string]codec.Value) error {
	for key, value := range values {
		if err := s.applyValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyValue(key string, value codec.Value) error {
	def, ok := registry.Get(key)
	if !ok {
		return fmt.Errorf("sim: unknown register key %q", key)
	}
	words, err := codec.Encode(def, value)
	if err != nil {
		return err
	}
	store := s.spaceStore(def.Space)
	for offset, word := range words {
		store[def.Address+uint16(offset)] = word
	}
	return nil
}

// ReadBlock returns exactly count words starting at start. Addresses
// outside the catalog read as zero.
func (s *Store) ReadBlock(space registry.Space, start, count uint16) []uint16 {
	store := s.spaceStore(space)
	out := make([]uint16, count)
	for offset := uint16(0); offset < count; offset++ {
		out[offset] = store[start+offset]
	}
	return out
}

// WriteRegister stores the low 16 bits at a holding address and fires
// the configured write action, if any, for the written value.
func (s *Store) WriteRegister(addr uint16, value uint16) {
	s.holding[addr] = value

	def, ok := s.byAddr[addrKey{registry.Holding, addr}]
	if !ok || !def.Writable {
		return
	}
	updates, ok := s.actions[def.Key][value]
	if !ok {
		return
	}
	// Action tables are validated when the scenario materializes, so
	// this cannot fail at runtime.
	_ = s.ApplyValues(updates)
}

func (s *Store) spaceStore(space registry.Space) map[uint16]uint16 {
	if space == registry.Input {
		return s.input
	}
	return s.holding
}
