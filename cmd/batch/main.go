package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"marketbridge/internal/catalog"
	"marketbridge/internal/config"
	"marketbridge/internal/database"
	"marketbridge/internal/logger"
	"marketbridge/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	brand := pflag.String("brand", "", "brand whose candidate items are imported")
	limit := pflag.Int("limit", 0, "import at most this many items (0 = all)")
	listBrands := pflag.Bool("list-brands", false, "print brands in the candidate sheet with item counts and exit")
	sheetPath := pflag.String("sheet", cfg.CandidateSheet, "candidate sheet (.xlsx or .csv)")
	pause := pflag.Duration("pause", cfg.BatchPause, "pause between items")
	skipImported := pflag.Bool("skip-imported", false, "skip items already imported successfully")
	pflag.Parse()

	logger := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()

	sheet, err := catalog.Load(*sheetPath)
	if err != nil {
		logger.Fatal("Failed to load candidate sheet: %v", err)
	}

	if *listBrands {
		for _, b := range sheet.BrandStats() {
			fmt.Printf("%6d  %s\n", b.Count, b.Brand)
		}
		return
	}
	if *brand == "" {
		fmt.Fprintln(os.Stderr, "--brand is required (see --list-brands)")
		pflag.Usage()
		os.Exit(2)
	}

	ids := sheet.ItemsForBrand(*brand)
	if len(ids) == 0 {
		logger.Fatal("No items for brand %q in %s", *brand, *sheetPath)
	}
	if *limit > 0 && len(ids) > *limit {
		ids = ids[:*limit]
	}

	// Import history is optional for batch runs.
	var history worker.History
	var checker worker.ImportChecker
	if db, err := database.New(cfg.DatabaseURL, false); err != nil {
		logger.Warn("Import history unavailable: %v", err)
	} else {
		defer db.Close()
		history, checker = db, db
	}

	services, err := worker.NewServices(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services: %v", err)
	}
	pipeline := services.Pipeline(cfg, logger, history)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := worker.NewBatch(pipeline, checker, worker.BatchOptions{
		Pause:        *pause,
		ResultsDir:   cfg.ResultsDir,
		SkipImported: *skipImported,
	}, os.Stdout, logger)

	report, path, err := batch.Run(ctx, *brand, ids)
	if err != nil {
		logger.Fatal("Failed to write results: %v", err)
	}
	fmt.Printf("Results: %s\n", path)
	if report.Failed > 0 && report.Succeeded == 0 {
		os.Exit(1)
	}
}
