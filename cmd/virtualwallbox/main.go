// cmd/virtualwallbox/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tomwellnitz/Webasto-Next-Modbus/internal/sim"
)

func main() {
	var (
		host         string
		port         int
		scenarioPath string
	)

	flag.StringVar(&host, "host", "127.0.0.1", "listen address")
	flag.IntVar(&port, "port", 15020, "listen port")
	flag.StringVar(&scenarioPath, "scenario", "", "scenario YAML file (default: built-in idle wallbox)")
	flag.Parse()

	// --------------------
	// Scenario
	// --------------------

	scenario := sim.DefaultScenario()
	if scenarioPath != "" {
		var err error
		scenario, err = sim.LoadScenario(scenarioPath)
		if err != nil {
			log.Fatalf("scenario load failed: %v", err)
		}
	} else {
		// Give each ad-hoc run a distinguishable identity so several
		// simulators can coexist on one host.
		scenario.Values["serial_number"] = fmt.Sprintf("SIM-%.8s", uuid.NewString())
	}

	store, err := scenario.Materialize()
	if err != nil {
		log.Fatalf("scenario invalid: %v", err)
	}

	// --------------------
	// Serve Modbus TCP
	// --------------------

	server, err := sim.NewServer(store, host, port)
	if err != nil {
		log.Fatalf("server setup failed: %v", err)
	}

	if err := server.Start(); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
	log.Printf("virtual wallbox listening on %s:%d (unit %d)", host, port, store.UnitID())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("stopping virtual wallbox")
	if err := server.Stop(); err != nil {
		log.Printf("server stop failed: %v", err)
	}
	os.Exit(0)
}
