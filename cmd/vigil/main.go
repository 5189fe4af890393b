// cmd/vigil/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/semmidev/vigil/internal/app"
	"github.com/semmidev/vigil/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to optional YAML config file")
	once := flag.Bool("once", false, "run a single backup cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	if *once {
		outcome := application.RunOnce(ctx)
		if !outcome.Delivered {
			return fmt.Errorf("backup report was not delivered")
		}
		return nil
	}

	return application.Run(ctx)
}
