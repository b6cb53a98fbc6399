package sim

import (
	"fmt"
	"sync"
)

type endpoint struct {
	host string
	port int
	unit uint8
}

// Registry tracks active simulated wallboxes keyed by host, port and
// unit id. It is an explicit object handed to fake clients and test
// harnesses, so parallel tests stay independent.
type Registry struct {
	mu     sync.Mutex
	stores map[endpoint]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[endpoint]*Store)}
}

// Register adds a store under host:port with the store's own unit id.
func (r *Registry) Register(host string, port int, store *Store) error {
	key := endpoint{host, port, store.UnitID()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.stores[key]; dup {
		return fmt.Errorf("sim: wallbox already registered at %s:%d unit %d", host, port, store.UnitID())
	}
	r.stores[key] = store
	return nil
}

// Unregister removes a registration. Unknown endpoints are ignored.
func (r *Registry) Unregister(host string, port int, unit uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, endpoint{host, port, unit})
}

// Get returns the store for an endpoint, or nil.
func (r *Registry) Get(host string, port int, unit uint8) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores[endpoint{host, port, unit}]
}

// HasEndpoint reports whether any unit is registered at host:port,
// which is what a TCP connect can observe.
func (r *Registry) HasEndpoint(host string, port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.stores {
		if key.host == host && key.port == port {
			return true
		}
	}
	return false
}
