package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/async"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/common"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/convert"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/export"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm/openai"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/ocr"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/pipeline"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/server"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/storage"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	// Env
	if err := godotenv.Load(); err == nil {
		log.Infow("loaded .env file")
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slogger := slog.Default()

	// Stores
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:         cfg.Storage.Bucket,
		Region:         cfg.Storage.Region,
		Endpoint:       cfg.Storage.Endpoint,
		ForcePathStyle: cfg.Storage.ForcePathStyle,
	})
	if err != nil {
		log.Fatalf("creating object store: %v", err)
	}

	var kv kvstore.Store
	if cfg.KV.DSN != "" {
		pg, err := kvstore.OpenPostgres(ctx, kvstore.PostgresConfig{
			DSN:             cfg.KV.DSN,
			MaxConns:        cfg.KV.MaxConns,
			MaxConnLifetime: cfg.KV.MaxConnLifetime,
			DialTimeout:     cfg.KV.DialTimeout,
		}, slogger)
		if err != nil {
			log.Fatalf("opening postgres kv store: %v", err)
		}
		defer pg.Close()
		kv = pg
	} else {
		sq, err := kvstore.OpenSQLite(ctx, cfg.KV.Path, slogger)
		if err != nil {
			log.Fatalf("opening sqlite kv store: %v", err)
		}
		defer sq.Close()
		kv = sq
	}

	// LLM client serves both the completion and vision calls
	ai := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		RatePerSec:  cfg.LLM.RatePerSec,
	}, slogger)

	retry := pipeline.RetryPolicy{
		MaxAttempts: cfg.Pipeline.RetryAttempts,
		BaseDelay:   cfg.Pipeline.RetryBaseDelay,
		MaxDelay:    cfg.Pipeline.RetryMaxDelay,
	}

	orch := pipeline.NewOrchestrator(
		convert.NewPopplerConverter(cfg.Pipeline.ConvertDPI, cfg.Pipeline.MaxImageDim),
		pipeline.NewUploadStage(store, retry, slogger),
		ocr.NewVisionOCR(ai, cfg.Pipeline.DefaultImageMime, slogger),
		pipeline.NewAnalyzeStage(ai, retry, cfg.LLM.Temperature, cfg.Pipeline.JDTruncateRunes, slogger),
		kv,
		retry,
		slogger,
	)

	queue := async.NewWorkerQueue(cfg.Pipeline.Workers, cfg.Pipeline.QueueDepth, slogger)
	srv := server.New(orch, queue, kv, export.NewService(kv, slogger), cfg.Server.MaxUploadBytes, slogger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		log.Infof("http serving on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	queue.Shutdown(shutdownCtx)
	log.Info("stopped.")
}
