// Mökkiwahti Core - cabin environment monitoring service
//
// This is the main entry point. It exposes the REST API for locations,
// sensors and measurements, optionally ingests readings over MQTT and
// mirrors them into InfluxDB.
//
//	mokkiwahti serve --config configs/config.yaml
//	mokkiwahti migrate up
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
