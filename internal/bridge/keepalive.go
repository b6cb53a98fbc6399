package bridge

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/codec"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/registry"
)

// keepaliveTransport is the slice of the bridge the scheduler needs.
type keepaliveTransport interface {
	ReadRegister(ctx context.Context, def registry.Definition) (codec.Value, error)
	WriteRegister(ctx context.Context, def registry.Definition, value float64) error
}

// KeepaliveConfig tunes the life-bit loop.
type KeepaliveConfig struct {
	// PollInterval is how often the life bit is re-read while waiting
	// for the wallbox to clear it.
	PollInterval time.Duration
	// ErrorBackoff is slept after a failed cycle before the next one.
	ErrorBackoff time.Duration
	// Window is the fallback poll window used until the failsafe
	// timeout register has been read successfully at least once.
	Window time.Duration
	// StopTimeout bounds how long Stop waits for the loop to exit.
	StopTimeout time.Duration
}

func (c KeepaliveConfig) withDefaults() KeepaliveConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Second
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 5 * time.Second
	}
	return c
}

// Keepalive runs the wallbox life-bit protocol: assert the bit, wait
// for the device to clear it, repeat. Without it the wallbox drops to
// its failsafe current limit after the failsafe timeout.
type Keepalive struct {
	tr  keepaliveTransport
	cfg KeepaliveConfig

	aliveDef   registry.Definition
	timeoutDef registry.Definition

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	window time.Duration // last known poll window
}

// NewKeepalive builds the scheduler against tr, normally the Bridge
// that also serves foreground reads; both share its wire lock.
func NewKeepalive(tr keepaliveTransport, cfg KeepaliveConfig) *Keepalive {
	cfg = cfg.withDefaults()
	return &Keepalive{
		tr:         tr,
		cfg:        cfg,
		aliveDef:   registry.MustGet(registry.KeySendKeepalive),
		timeoutDef: registry.MustGet(registry.KeyFailsafeTimeout),
		window:     cfg.Window,
	}
}

// Start launches the background loop. Starting a running scheduler is
// a no-op.
func (k *Keepalive) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	k.cancel = cancel
	k.done = make(chan struct{})
	go k.run(runCtx, k.done)
}

// Stop cancels the loop and waits for it to exit, bounded by
// StopTimeout. Stopping a stopped scheduler is a no-op.
func (k *Keepalive) Stop() {
	k.mu.Lock()
	cancel, done := k.cancel, k.done
	k.cancel, k.done = nil, nil
	k.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(k.cfg.StopTimeout):
		log.Printf("keepalive: loop did not stop within %s", k.cfg.StopTimeout)
	}
}

func (k *Keepalive) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		err := k.cycle(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.Printf("keepalive: cycle failed: %v", err)
		if !sleep(ctx, k.cfg.ErrorBackoff) {
			return
		}
	}
}

// cycle performs one assert-and-poll round.
func (k *Keepalive) cycle(ctx context.Context) error {
	// Refresh the poll window from the failsafe timeout register.
	// Best effort: the last known window survives a failed read.
	if v, err := k.tr.ReadRegister(ctx, k.timeoutDef); err == nil {
		if secs, ok := v.Number(); ok && secs > 0 {
			k.window = time.Duration(secs) * time.Second
		}
	} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if err := k.tr.WriteRegister(ctx, k.aliveDef, registry.KeepaliveAssertValue); err != nil {
		return err
	}

	asserted := time.Now()
	deadline := asserted.Add(k.window)
	for {
		if !sleep(ctx, k.cfg.PollInterval) {
			return ctx.Err()
		}
		v, err := k.tr.ReadRegister(ctx, k.aliveDef)
		if err != nil {
			return err
		}
		if n, ok := v.Number(); ok && n == 0 {
			log.Printf("keepalive: life bit cleared after %s", time.Since(asserted).Round(time.Millisecond))
			return nil
		}
		if time.Now().After(deadline) {
			log.Printf("keepalive: life bit not cleared within %s window", k.window)
			return nil
		}
	}
}

// sleep waits d or until ctx is done, reporting whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
