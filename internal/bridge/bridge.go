// Package bridge owns the Modbus connection to one wallbox. It executes
// the cached read plan, serializes all wire traffic through a single
// lock, and retries transport failures with a fresh connection.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/codec"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/readplan"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// WireClient abstracts one Modbus connection. Implementations are not
// required to be safe for concurrent use; the bridge serializes access.
type WireClient interface {
	Connect() error
	Close() error
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	WriteSingleRegister(addr, value uint16) error
}

// DialFunc produces a fresh, unconnected WireClient.
type DialFunc func() (WireClient, error)

// Config tunes retry and shutdown behavior.
type Config struct {
	Endpoint string

	// Attempts is the fixed retry budget per operation.
	Attempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	// CloseTimeout bounds how long Close waits for an in-flight
	// operation before force-clearing the handle.
	CloseTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 2 * time.Second
	}
	return c
}

// Bridge is the transport for one wallbox. One wire operation is in
// flight at a time; the keepalive scheduler and foreground reads share
// the same lock.
type Bridge struct {
	cfg  Config
	dial DialFunc

	// sem serializes wire operations. Capacity 1.
	sem chan struct{}

	// mu guards the handle only, so Close can force-clear it while an
	// operation still holds sem.
	mu     sync.Mutex
	client WireClient

	// plan is only touched while holding sem. Demoted blocks are
	// removed permanently.
	plan []readplan.Request
}

// New builds a bridge for the readable catalog. The read plan is
// computed once here and reused for every ReadAll cycle.
func New(cfg Config, dial DialFunc) *Bridge {
	return &Bridge{
		cfg:  cfg.withDefaults(),
		dial: dial,
		sem:  make(chan struct{}, 1),
		plan: readplan.Build(registry.Readable(), registry.MaxWordsPerRequest),
	}
}

func (b *Bridge) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) release() { <-b.sem }

// Connect establishes the Modbus session. No-op when already connected.
func (b *Bridge) Connect(ctx context.Context) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()
	return b.connectLocked()
}

func (b *Bridge) connectLocked() error {
	if b.current() != nil {
		return nil
	}
	client, err := b.dial()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnectionFailed, b.cfg.Endpoint, err)
	}
	if err := client.Connect(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConnectionFailed, b.cfg.Endpoint, err)
	}
	b.mu.Lock()
	b.client = client
	b.mu.Unlock()
	log.Printf("bridge: connected to %s", b.cfg.Endpoint)
	return nil
}

func (b *Bridge) current() WireClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// teardown closes and discards the handle so the next attempt
// reconnects cleanly.
func (b *Bridge) teardown() {
	b.mu.Lock()
	client := b.client
	b.client = nil
	b.mu.Unlock()
	if client != nil {
		_ = client.Close()
	}
}

// Close shuts the connection down. Safe to call at any time, including
// concurrently with an in-flight operation: it waits at most
// CloseTimeout for the lock, then force-clears the handle. The racing
// operation fails and the next Connect starts fresh.
func (b *Bridge) Close() error {
	timer := time.NewTimer(b.cfg.CloseTimeout)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		defer b.release()
	case <-timer.C:
		log.Printf("bridge: close timed out waiting for in-flight operation, force-clearing %s", b.cfg.Endpoint)
	}
	b.teardown()
	return nil
}

// Ping performs a lightweight single-register read to validate the
// connection, used at daemon startup.
func (b *Bridge) Ping(ctx context.Context) error {
	readable := registry.Readable()
	if len(readable) == 0 {
		return nil
	}
	_, err := b.ReadRegister(ctx, readable[0])
	return err
}

// ReadRegister reads and decodes a single register, retried per the
// configured budget.
func (b *Bridge) ReadRegister(ctx context.Context, def registry.Definition) (codec.Value, error) {
	var value codec.Value
	err := b.withRetry(ctx, "read "+def.Key, func() error {
		words, err := b.readWordsLocked(ctx, def.Space, def.Address, def.Words())
		if err != nil {
			return err
		}
		value, err = codec.Decode(def, words)
		return err
	})
	if err != nil {
		return codec.Null, err
	}
	return value, nil
}

// ReadAll executes the cached read plan and returns a value for every
// readable key. Blocks degrade individually: a rejected optional block
// is demoted permanently, any other failed block yields null values for
// this cycle only. Transport-level failures abort the cycle and are
// retried as a whole.
func (b *Bridge) ReadAll(ctx context.Context) (map[string]codec.Value, error) {
	var data map[string]codec.Value
	err := b.withRetry(ctx, "bulk read", func() error {
		var err error
		data, err = b.readAllOnce(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *Bridge) readAllOnce(ctx context.Context) (map[string]codec.Value, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}

	data := make(map[string]codec.Value)
	kept := b.plan[:0:0]
	for _, req := range b.plan {
		words, err := b.readWords(req.Space, req.Start, req.Count)
		if err != nil {
			for _, def := range req.Registers {
				data[def.Key] = codec.Null
			}
			if errors.Is(err, ErrProtocol) {
				if req.Optional() {
					log.Printf("bridge: block %s@%d+%d not supported by this firmware, dropping from plan",
						req.Space, req.Start, req.Count)
					continue
				}
				log.Printf("bridge: block %s@%d+%d rejected: %v", req.Space, req.Start, req.Count, err)
				kept = append(kept, req)
				continue
			}
			return nil, err
		}
		kept = append(kept, req)

		for _, def := range req.Registers {
			offset := int(def.Address - req.Start)
			end := offset + int(def.Words())
			if end > len(words) {
				log.Printf("bridge: short response for %s: have %d words, need %d", def.Key, len(words)-offset, def.Words())
				data[def.Key] = codec.Null
				continue
			}
			value, err := codec.Decode(def, words[offset:end])
			if err != nil {
				log.Printf("bridge: decode %s failed: %v", def.Key, err)
				data[def.Key] = codec.Null
				continue
			}
			data[def.Key] = value
		}
	}
	b.plan = kept
	return data, nil
}

// WriteRegister encodes value and writes it to a single holding
// register. Non-writable registers and out-of-range values fail
// immediately without touching the wire.
func (b *Bridge) WriteRegister(ctx context.Context, def registry.Definition, value float64) error {
	if !def.Writable {
		return fmt.Errorf("%w: %s", ErrNotWritable, def.Key)
	}
	if def.Max > def.Min && (value < def.Min || value > def.Max) {
		return fmt.Errorf("%w: %s=%v outside [%v, %v]", codec.ErrValueRange, def.Key, value, def.Min, def.Max)
	}
	words, err := codec.EncodeNumber(def, value)
	if err != nil {
		return err
	}
	if len(words) != 1 {
		return fmt.Errorf("bridge: %s: only single-word writes are supported", def.Key)
	}

	return b.withRetry(ctx, "write "+def.Key, func() error {
		if err := b.acquire(ctx); err != nil {
			return err
		}
		defer b.release()
		if err := b.connectLocked(); err != nil {
			return err
		}
		if err := b.current().WriteSingleRegister(def.Address, words[0]); err != nil {
			return err
		}
		log.Printf("bridge: wrote %s=%v", def.Key, value)
		return nil
	})
}

func (b *Bridge) readWordsLocked(ctx context.Context, space registry.Space, addr, qty uint16) ([]uint16, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}
	return b.readWords(space, addr, qty)
}

// readWords must be called with sem held and a live connection.
func (b *Bridge) readWords(space registry.Space, addr, qty uint16) ([]uint16, error) {
	client := b.current()
	if client == nil {
		return nil, fmt.Errorf("%w: %s: handle cleared", ErrConnectionFailed, b.cfg.Endpoint)
	}
	if space == registry.Input {
		return client.ReadInputRegisters(addr, qty)
	}
	return client.ReadHoldingRegisters(addr, qty)
}

// withRetry runs op up to the configured attempt budget. Each failure
// tears the connection down so the next attempt reconnects. The last
// error surfaces unchanged when the budget is exhausted. Cancellation
// propagates immediately and is never retried.
func (b *Bridge) withRetry(ctx context.Context, desc string, op func() error) error {
	var last error
	for attempt := 1; attempt <= b.cfg.Attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		last = err
		log.Printf("bridge: attempt %d/%d to %s failed: %v", attempt, b.cfg.Attempts, desc, err)
		b.teardown()
		if attempt == b.cfg.Attempts {
			break
		}
		backoff := time.NewTimer(b.cfg.Backoff * time.Duration(attempt))
		select {
		case <-backoff.C:
		case <-ctx.Done():
			backoff.Stop()
			return ctx.Err()
		}
	}
	return last
}
