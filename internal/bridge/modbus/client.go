// Package modbus adapts goburrow's TCP client to the bridge's
// WireClient contract.
package modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/bridge"
)

// Client is one Modbus TCP connection to a wallbox.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// New builds an unconnected client. The bridge calls Connect lazily
// under its wire lock.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Dialer returns a bridge.DialFunc producing fresh clients, so every
// retry attempt starts from a clean TCP session.
func Dialer(cfg Config) bridge.DialFunc {
	return func() (bridge.WireClient, error) {
		return New(cfg)
	}
}

func (c *Client) Connect() error {
	return c.handler.Connect()
}

func (c *Client) Close() error {
	return c.handler.Close()
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	payload, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, wrap(err, "read input", addr)
	}
	return unpackRegisters(payload, qty)
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	payload, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, wrap(err, "read holding", addr)
	}
	return unpackRegisters(payload, qty)
}

func (c *Client) WriteSingleRegister(addr, value uint16) error {
	_, err := c.client.WriteSingleRegister(addr, value)
	if err != nil {
		return wrap(err, "write", addr)
	}
	return nil
}

// wrap classifies goburrow errors: an explicit exception response from
// the device becomes ErrProtocol, anything else stays a transport
// failure.
func wrap(err error, op string, addr uint16) error {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return fmt.Errorf("%w: %s @%d: %v", bridge.ErrProtocol, op, addr, me)
	}
	return fmt.Errorf("modbus client: %s @%d: %w", op, addr, err)
}

func unpackRegisters(payload []byte, qty uint16) ([]uint16, error) {
	if len(payload) != int(qty)*2 {
		return nil, fmt.Errorf("modbus client: payload length %d, want %d", len(payload), qty*2)
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(payload[2*i])<<8 | uint16(payload[2*i+1])
	}
	return out, nil
}
