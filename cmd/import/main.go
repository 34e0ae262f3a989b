package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"marketbridge/internal/config"
	"marketbridge/internal/database"
	"marketbridge/internal/logger"
	"marketbridge/internal/worker"
)

func main() {
	itemID := pflag.String("item", "", "marketplace item ID to import")
	brand := pflag.String("brand", "", "brand profile to use (default: the listing's shop name)")
	test := pflag.Bool("test", false, "check connectivity to every external service and exit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()

	services, err := worker.NewServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *test {
		failed := false
		for _, r := range services.Probe(ctx) {
			if r.OK {
				fmt.Printf("OK    %-20s %s\n", r.Service, r.Latency.Round(time.Millisecond))
			} else {
				failed = true
				fmt.Printf("FAIL  %-20s %s\n", r.Service, r.Error)
			}
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	if *itemID == "" {
		fmt.Fprintln(os.Stderr, "--item or --test is required")
		pflag.Usage()
		os.Exit(2)
	}

	var history worker.History
	if db, err := database.New(cfg.DatabaseURL, false); err != nil {
		logger.Warn("Import history unavailable: %v", err)
	} else {
		defer db.Close()
		history = db
	}

	res := services.Pipeline(cfg, logger, history).RunForBrand(ctx, *brand, *itemID)

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if !res.Success {
		os.Exit(1)
	}
}
