package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
)

// AnalysisResult is the typed result of the analysis fan-out.
type AnalysisResult struct {
	FeedbackText string
	MarkdownText string // empty when the markdown branch degraded
	Degraded     bool
}

// AnalyzeStage issues the structured-feedback call and the markdown call
// concurrently against the same extracted text. The feedback call is
// required; the markdown call is best-effort and only degrades the job.
// That asymmetry is deliberate: structured feedback is the product's primary
// value, markdown a convenience rendering.
type AnalyzeStage struct {
	Completer       llm.Completer
	Retry           RetryPolicy
	Temperature     float32
	JDTruncateRunes int
	Logger          *slog.Logger
}

func NewAnalyzeStage(completer llm.Completer, retry RetryPolicy, temperature float32, jdTruncateRunes int, logger *slog.Logger) *AnalyzeStage {
	if logger == nil {
		logger = slog.Default()
	}
	if jdTruncateRunes <= 0 {
		jdTruncateRunes = 4000
	}
	return &AnalyzeStage{
		Completer:       completer,
		Retry:           retry,
		Temperature:     temperature,
		JDTruncateRunes: jdTruncateRunes,
		Logger:          logger,
	}
}

// Run joins on both branches. A markdown failure never fails the stage; a
// feedback failure always does.
func (a *AnalyzeStage) Run(ctx context.Context, text string, actx llm.AnalysisContext) (AnalysisResult, error) {
	g, gctx := errgroup.WithContext(ctx)

	var res AnalysisResult
	g.Go(func() error {
		err := a.Retry.Do(gctx, a.Logger, "analyze.feedback", func(ctx context.Context) error {
			out, err := a.Completer.Complete(ctx, llm.CompletionRequest{
				System:      llm.BuildFeedbackSystemPrompt(),
				Prompt:      llm.BuildFeedbackUserPrompt(text, actx, a.JDTruncateRunes),
				Temperature: a.Temperature,
			})
			if err != nil {
				return err
			}
			res.FeedbackText = out
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: feedback call: %v", ErrAnalysisFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		// Best-effort branch: degrade, never abort. The group context is
		// still honored so a feedback failure stops this branch early.
		err := a.Retry.Do(gctx, a.Logger, "analyze.markdown", func(ctx context.Context) error {
			out, err := a.Completer.Complete(ctx, llm.CompletionRequest{
				System:      llm.BuildMarkdownSystemPrompt(),
				Prompt:      llm.BuildMarkdownUserPrompt(text),
				Temperature: a.Temperature,
			})
			if err != nil {
				return err
			}
			res.MarkdownText = out
			return nil
		})
		if err != nil {
			res.Degraded = true
			a.Logger.Warn("pipeline.analyze.markdown_degraded", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return AnalysisResult{}, err
	}

	a.Logger.Info("pipeline.analyze.ok",
		"feedback_len", len(res.FeedbackText),
		"markdown_len", len(res.MarkdownText),
		"degraded", res.Degraded,
	)
	return res, nil
}
