package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/jmaine-gray/invoice-extractor/internal/ai"
	"github.com/jmaine-gray/invoice-extractor/internal/ai/openai"
	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/extract"
	"github.com/jmaine-gray/invoice-extractor/internal/ingest"
	"github.com/jmaine-gray/invoice-extractor/internal/learn"
	"github.com/jmaine-gray/invoice-extractor/internal/pipeline"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.Server.WatchRoots) == 0 {
		logger.Error("WATCH_ROOTS is required (comma-separated directories)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("open template store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	if err := repository.HealthCheck(ctx, db, cfg.Store.PingTimeout, logger); err != nil {
		logger.Error("template store health failed", "error", err)
		os.Exit(1)
	}

	store := repository.NewTemplateRepository(db, logger)

	patterns := learn.DefaultPatterns()
	if cfg.Extractor.PatternFile != "" {
		patterns, err = learn.LoadPatterns(cfg.Extractor.PatternFile)
		if err != nil {
			logger.Error("load pattern file", "path", cfg.Extractor.PatternFile, "error", err)
			os.Exit(1)
		}
		logger.Info("field pattern file loaded", "path", cfg.Extractor.PatternFile, "patterns", len(patterns))
	}

	var aix ai.FieldExtractor
	if cfg.AI.APIKey != "" {
		aix = openai.NewClient(openai.Config{
			BaseURL:         cfg.AI.BaseURL,
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			Timeout:         cfg.AI.Timeout,
			MaxAttempts:     cfg.AI.MaxAttempts,
			LenientOptional: true,
		}, logger)
	} else {
		logger.Warn("no AI_API_KEY configured; pipeline will finalize low-confidence results locally")
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

	// gRPC health endpoint for orchestration probes
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if serr := grpcServer.Serve(lis); serr != nil {
			logger.Error("grpc serve", "error", serr)
		}
	}()
	logger.Info("health endpoint serving", "addr", cfg.Server.GRPCAddr)

	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Server.WatchRoots,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for text drops", "roots", strings.Join(cfg.Server.WatchRoots, ","))

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			grpcServer.GracefulStop()
			return
		case werr, ok := <-errCh:
			if ok {
				logger.Warn("watcher error", "error", werr)
			}
		case path, ok := <-evCh:
			if !ok {
				grpcServer.GracefulStop()
				return
			}
			processDrop(ctx, logger, p, path, cfg.Server.OutputDir)
		}
	}
}

// processDrop parses one dropped text file and writes the JSON result next
// to it (or into OUTPUT_DIR when configured).
func processDrop(ctx context.Context, logger *slog.Logger, p *pipeline.Pipeline, path, outputDir string) {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read drop", "path", path, "error", err)
		return
	}

	res := p.Parse(ctx, string(b), filepath.Base(path))

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logger.Error("marshal result", "path", path, "error", err)
		return
	}

	dest := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if outputDir != "" {
		dest = filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".json")
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		logger.Error("write result", "dest", dest, "error", err)
		return
	}
	logger.Info("drop processed",
		"path", path, "dest", dest,
		"provenance", res.Provenance, "score", res.ConfidenceScore)
}
