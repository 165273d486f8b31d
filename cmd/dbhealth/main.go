package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	}, nil)
	if err != nil {
		log.Fatalf("opening template store: %v", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Printf("ERROR: closing store: %v", cerr)
		}
	}()

	if err := repository.HealthCheck(ctx, db, 1*time.Second, nil); err != nil {
		log.Fatalf("store health: FAIL (%v)", err)
	}
	log.Println("store health: OK")

	store := repository.NewTemplateRepository(db, nil)
	ts, err := store.ListAll(ctx)
	if err != nil {
		log.Fatalf("listing templates: %v", err)
	}
	log.Printf("templates count: %d", len(ts))
	for _, t := range ts {
		log.Printf("  %s vendor=%q usage=%d", t.TemplateID, t.VendorName, t.UsageCount)
	}
}
