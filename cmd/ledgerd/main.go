// Package main runs the token ledger service: a single-asset fungible-token
// ledger with supply governance, an emergency-stop switch and a REST API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/R3E-Network/ledger_layer/internal/app/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApplication()
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run application: %v", err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
