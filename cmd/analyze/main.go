// Command analyze runs the full pipeline against a local PDF using
// in-memory stores. Useful for prompt and parser iteration without S3 or a
// database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/common"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/convert"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm/openai"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/ocr"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/pipeline"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/storage"
)

func main() {
	company := flag.String("company", "", "target company name")
	title := flag.String("title", "", "target job title")
	jd := flag.String("jd", "", "path to a job description text file")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <resume.pdf>")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is required")
		os.Exit(2)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read resume: %v\n", err)
		os.Exit(1)
	}

	jobDescription := ""
	if *jd != "" {
		b, err := os.ReadFile(*jd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read job description: %v\n", err)
			os.Exit(1)
		}
		jobDescription = string(b)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ai := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		RatePerSec:  cfg.LLM.RatePerSec,
	}, logger)

	retry := pipeline.RetryPolicy{
		MaxAttempts: cfg.Pipeline.RetryAttempts,
		BaseDelay:   cfg.Pipeline.RetryBaseDelay,
		MaxDelay:    cfg.Pipeline.RetryMaxDelay,
	}

	kv := kvstore.NewMemoryStore()
	orch := pipeline.NewOrchestrator(
		convert.NewPopplerConverter(cfg.Pipeline.ConvertDPI, cfg.Pipeline.MaxImageDim),
		pipeline.NewUploadStage(storage.NewMemoryStore(), retry, logger),
		ocr.NewVisionOCR(ai, cfg.Pipeline.DefaultImageMime, logger),
		pipeline.NewAnalyzeStage(ai, retry, cfg.LLM.Temperature, cfg.Pipeline.JDTruncateRunes, logger),
		kv,
		retry,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	job := pipeline.NewJob(*company, *title, jobDescription)
	if err := orch.Run(ctx, job, pipeline.Request{
		Source:         source,
		SourceMime:     "application/pdf",
		CompanyName:    *company,
		JobTitle:       *title,
		JobDescription: jobDescription,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		if job.RawAnalysisText != "" {
			fmt.Fprintf(os.Stderr, "--- raw model output ---\n%s\n", job.RawAnalysisText)
		}
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(job, "", "  ")
	fmt.Println(string(out))
}
