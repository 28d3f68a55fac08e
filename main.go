package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/htxfanin/tickfeed/config"
	"github.com/htxfanin/tickfeed/ferrors"
	"github.com/htxfanin/tickfeed/orchestrator"
)

func main() {
	log.Println("🐙 tickfeed starting (configuration driven)...")

	cfgPath := "config.toml"
	if p := os.Getenv("TICKFEED_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", cfgPath, err)
	}
	log.Printf("📡 mapping: %s (up to %d instruments/partition, %d bytes/slot)", cfg.MappingPath, cfg.PartitionWidth, cfg.SlotStride)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	err = orchestrator.Run(ctx, cfg, httpClient)

	var fatal *ferrors.Fatal
	switch {
	case errors.As(err, &fatal):
		log.Fatalf("fatal: %v", fatal)
	case errors.Is(err, context.Canceled):
		log.Println("👋 tickfeed stopped.")
	case err != nil:
		log.Fatalf("fatal: %v", err)
	default:
		log.Println("👋 tickfeed stopped.")
	}
}
