package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmaine-gray/invoice-extractor/internal/ai"
	"github.com/jmaine-gray/invoice-extractor/internal/ai/openai"
	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/extract"
	"github.com/jmaine-gray/invoice-extractor/internal/learn"
	"github.com/jmaine-gray/invoice-extractor/internal/pipeline"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
)

// invoice-parse runs the extraction pipeline once over a recognized-text
// file (or stdin) and prints the JSON result.
func main() {
	_ = godotenv.Load()

	var (
		file  = flag.String("file", "", "recognized text file to parse (default: stdin)")
		noAI  = flag.Bool("no-ai", false, "skip AI escalation even when configured")
		level = flag.String("log-level", "warn", "log level: debug|info|warn|error")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*level),
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		text   []byte
		source string
		err    error
	)
	if *file != "" {
		text, err = os.ReadFile(*file)
		source = filepath.Base(*file)
	} else {
		text, err = io.ReadAll(os.Stdin)
		source = "stdin"
	}
	if err != nil {
		logger.Error("read input", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("open template store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	store := repository.NewTemplateRepository(db, logger)

	patterns := learn.DefaultPatterns()
	if cfg.Extractor.PatternFile != "" {
		if patterns, err = learn.LoadPatterns(cfg.Extractor.PatternFile); err != nil {
			logger.Error("load pattern file", "error", err)
			os.Exit(1)
		}
	}

	var aix ai.FieldExtractor
	if cfg.AI.APIKey != "" && !*noAI {
		aix = openai.NewClient(openai.Config{
			BaseURL:         cfg.AI.BaseURL,
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			Timeout:         cfg.AI.Timeout,
			MaxAttempts:     cfg.AI.MaxAttempts,
			LenientOptional: true,
		}, logger)
	}

	p := pipeline.New(
		logger,
		pipeline.Config{
			MinConfidence: cfg.Extractor.MinConfidence,
			VendorScanMax: cfg.Extractor.VendorScanMax,
		},
		store,
		learn.NewLearner(patterns, store, logger),
		extract.NewGuidedExtractor(store, logger),
		extract.NewHeuristicExtractor(cfg.Extractor.VendorScanMax, logger),
		aix,
	)

	res := p.Parse(ctx, string(text), source)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Error("marshal result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
