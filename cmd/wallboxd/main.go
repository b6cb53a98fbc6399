// cmd/wallboxd/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/bridge"
	wmodbus "github.com/tomwellnitz/Webasto-Next-Modbus/internal/bridge/modbus"
	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: wallboxd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	w := cfg.Wallbox

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Build transport
	// --------------------

	b := bridge.New(
		bridge.Config{
			Endpoint: w.Endpoint,
			Attempts: w.Retry.Attempts,
			Backoff:  time.Duration(w.Retry.BackoffMs) * time.Millisecond,
		},
		wmodbus.Dialer(wmodbus.Config{
			Endpoint: w.Endpoint,
			UnitID:   w.UnitID,
			Timeout:  time.Duration(w.TimeoutMs) * time.Millisecond,
		}),
	)
	defer b.Close()

	if err := b.Ping(ctx); err != nil {
		log.Fatalf("wallbox unreachable at %s: %v", w.Endpoint, err)
	}

	// --------------------
	// Keepalive (life bit)
	// --------------------

	if w.Keepalive.Enabled {
		ka := bridge.NewKeepalive(b, bridge.KeepaliveConfig{
			PollInterval: time.Duration(w.Keepalive.PollMs) * time.Millisecond,
			ErrorBackoff: time.Duration(w.Keepalive.ErrorBackoffMs) * time.Millisecond,
		})
		ka.Start(ctx)
		defer ka.Stop()
	}

	// --------------------
	// Poll loop with health tracking
	// --------------------

	ticker := time.NewTicker(time.Duration(w.Poll.IntervalMs) * time.Millisecond)
	defer ticker.Stop()

	failures := 0
	alerted := false

	for {
		select {
		case <-ctx.Done():
			log.Printf("shutting down")
			return

		case <-ticker.C:
			data, err := b.ReadAll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				failures++
				log.Printf("poll failed (%d consecutive): %v", failures, err)
				// Distinguish a persistent outage from a transient
				// blip so an operator can be alerted once.
				if failures >= w.AlertAfterFailures && !alerted {
					alerted = true
					log.Printf("ALERT: wallbox at %s unreachable after %d consecutive failures", w.Endpoint, failures)
				}
				continue
			}

			if alerted {
				log.Printf("wallbox at %s recovered", w.Endpoint)
			}
			failures = 0
			alerted = false

			keys := make([]string, 0, len(data))
			for key := range data {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				log.Printf("  %s = %s", key, data[key])
			}
		}
	}
}
