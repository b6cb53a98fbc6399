package sim

import (
	"fmt"
	"sync"
	"time"

	mbserver "github.com/simonvetter/modbus"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// Handler exposes a Store through the simonvetter/modbus server. It
// normalizes incoming protocol addresses exactly once: AddressBase is
// added to every request address to obtain the store register number,
// so callers using zero-based addressing against a one-based map (or
// vice versa) can be accommodated without double translation.
type Handler struct {
	store *Store
	base  uint16

	// The store has no internal locking; the server may run several
	// client sessions.
	mu sync.Mutex
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithAddressBase sets the offset added to incoming request addresses.
func WithAddressBase(base uint16) HandlerOption {
	return func(h *Handler) { h.base = base }
}

func NewHandler(store *Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleCoils rejects coil access; the wallbox exposes registers only.
func (h *Handler) HandleCoils(req *mbserver.CoilsRequest) ([]bool, error) {
	return nil, mbserver.ErrIllegalFunction
}

func (h *Handler) HandleDiscreteInputs(req *mbserver.DiscreteInputsRequest) ([]bool, error) {
	return nil, mbserver.ErrIllegalFunction
}

func (h *Handler) HandleInputRegisters(req *mbserver.InputRegistersRequest) ([]uint16, error) {
	if req.UnitId != h.store.UnitID() {
		return nil, mbserver.ErrGWTargetFailedToRespond
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.ReadBlock(registry.Input, h.normalize(req.Addr), req.Quantity), nil
}

func (h *Handler) HandleHoldingRegisters(req *mbserver.HoldingRegistersRequest) ([]uint16, error) {
	if req.UnitId != h.store.UnitID() {
		return nil, mbserver.ErrGWTargetFailedToRespond
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	addr := h.normalize(req.Addr)
	if req.IsWrite {
		for i, value := range req.Args {
			h.store.WriteRegister(addr+uint16(i), value)
		}
		return req.Args, nil
	}
	return h.store.ReadBlock(registry.Holding, addr, req.Quantity), nil
}

// normalize is the single place protocol addresses become store
// register numbers.
func (h *Handler) normalize(addr uint16) uint16 {
	return addr + h.base
}

// NewServer wraps the store in a Modbus TCP server listening on
// host:port. Callers own Start/Stop.
func NewServer(store *Store, host string, port int, opts ...HandlerOption) (*mbserver.ModbusServer, error) {
	return mbserver.NewServer(&mbserver.ServerConfiguration{
		URL:        fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout:    30 * time.Second,
		MaxClients: 5,
	}, NewHandler(store, opts...))
}
