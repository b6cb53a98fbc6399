package sim

import (
	"fmt"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// Client is a WireClient look-alike backed by a registered store.
// It lets the bridge run against the simulator without a socket.
type Client struct {
	reg       *Registry
	host      string
	port      int
	unit      uint8
	connected bool
}

// NewClient builds a fake wire client resolving its store through reg
// at connect time, mirroring how a real client resolves an address.
func NewClient(reg *Registry, host string, port int, unit uint8) *Client {
	return &Client{reg: reg, host: host, port: port, unit: unit}
}

func (c *Client) Connect() error {
	if !c.reg.HasEndpoint(c.host, c.port) {
		return fmt.Errorf("sim: no virtual wallbox at %s:%d", c.host, c.port)
	}
	c.connected = true
	return nil
}

func (c *Client) Close() error {
	c.connected = false
	return nil
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	return store.ReadBlock(registry.Input, addr, qty), nil
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	return store.ReadBlock(registry.Holding, addr, qty), nil
}

func (c *Client) WriteSingleRegister(addr, value uint16) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	store.WriteRegister(addr, value)
	return nil
}

func (c *Client) store() (*Store, error) {
	if !c.connected {
		return nil, fmt.Errorf("sim: client not connected")
	}
	store := c.reg.Get(c.host, c.port, c.unit)
	if store == nil {
		return nil, fmt.Errorf("sim: no virtual wallbox at %s:%d unit %d", c.host, c.port, c.unit)
	}
	return store, nil
}
