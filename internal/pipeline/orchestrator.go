package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/convert"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/ocr"
)

// Request is one resume submission.
type Request struct {
	Source         []byte
	SourceMime     string
	CompanyName    string
	JobTitle       string
	JobDescription string
}

// Orchestrator sequences the pipeline stages for a job: Convert -> Upload ->
// ExtractText -> Analyze -> ExtractJSON -> Persist. Stage order is strict;
// on any stage error it stops immediately, persists the partial state with
// the failing step marked, and surfaces the stage name to the caller. Each
// Job record is owned and mutated only by the orchestrator run processing
// it, so jobs need no locking between each other.
type Orchestrator struct {
	Converter    convert.Converter
	Upload       *UploadStage
	Extractor    ocr.TextExtractor
	Analyze      *AnalyzeStage
	KV           kvstore.Store
	ExtractRetry RetryPolicy
	Logger       *slog.Logger
}

func NewOrchestrator(
	converter convert.Converter,
	upload *UploadStage,
	extractor ocr.TextExtractor,
	analyze *AnalyzeStage,
	kv kvstore.Store,
	extractRetry RetryPolicy,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Converter:    converter,
		Upload:       upload,
		Extractor:    extractor,
		Analyze:      analyze,
		KV:           kv,
		ExtractRetry: extractRetry,
		Logger:       logger,
	}
}

// SaveQueued persists a freshly created job so callers can observe it
// before a worker picks it up.
func (o *Orchestrator) SaveQueued(ctx context.Context, job *Job) error {
	if err := o.persistJob(ctx, job); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return nil
}

// Run executes the full pipeline for one job, mutating it to a terminal
// state. The error (if any) is a *StageError naming the failing stage.
func (o *Orchestrator) Run(ctx context.Context, job *Job, req Request) error {
	job.Status = constants.JobStatusRunning
	o.persist(ctx, job)

	o.Logger.Info("pipeline.start",
		"job_id", job.ID,
		"source_bytes", len(req.Source),
		"source_mime", req.SourceMime,
	)

	// Convert
	if !o.Converter.Supports(req.SourceMime) {
		return o.fail(ctx, job, constants.StepConvert, constants.ReasonConversionFailed,
			"unsupported document format",
			fmt.Errorf("%w: unsupported mime %q", convert.ErrConversionFailed, req.SourceMime))
	}
	o.startStep(job, constants.StepConvert)
	image, err := o.Converter.Convert(ctx, req.Source)
	if err != nil {
		return o.fail(ctx, job, constants.StepConvert, constants.ReasonConversionFailed,
			"could not convert the document to an image", err)
	}
	o.completeStep(ctx, job, constants.StepConvert)

	// Upload (fan-out, join-all)
	o.startStep(job, constants.StepUpload)
	refs, err := o.Upload.Run(ctx, req.Source, req.SourceMime, image)
	if err != nil {
		return o.fail(ctx, job, constants.StepUpload, constants.ReasonUploadFailed,
			"could not store the uploaded files", err)
	}
	job.SourceRef = refs.OriginalRef
	job.ImageRef = refs.ConvertedRef
	o.completeStep(ctx, job, constants.StepUpload)

	// Extract text
	o.startStep(job, constants.StepExtract)
	var extracted ocr.TextExtractionResult
	err = o.ExtractRetry.Do(ctx, o.Logger, "ocr.extract", func(ctx context.Context) error {
		var exErr error
		extracted, exErr = o.Extractor.Extract(ctx, image)
		return exErr
	})
	if err != nil {
		return o.fail(ctx, job, constants.StepExtract, constants.ReasonExtractionFailed,
			"could not read text from the document", fmt.Errorf("%w: %v", ErrExtractionFailed, err))
	}
	if strings.TrimSpace(extracted.Text) == "" {
		// the extractor treats empty text as success; the job does not
		return o.fail(ctx, job, constants.StepExtract, constants.ReasonExtractionFailed,
			"no text could be recovered from the document",
			fmt.Errorf("%w: empty extraction result", ErrExtractionFailed))
	}
	job.ExtractedText = extracted.Text
	o.completeStep(ctx, job, constants.StepExtract)

	// Analyze (fan-out, feedback required, markdown best-effort)
	o.startStep(job, constants.StepAnalyze)
	analysis, err := o.Analyze.Run(ctx, job.ExtractedText, llm.AnalysisContext{
		CompanyName:    job.CompanyName,
		JobTitle:       job.JobTitle,
		JobDescription: job.JobDescription,
	})
	if err != nil {
		return o.fail(ctx, job, constants.StepAnalyze, constants.ReasonAnalysisFailed,
			"the analysis service did not answer", err)
	}
	job.MarkdownText = analysis.MarkdownText
	o.completeStep(ctx, job, constants.StepAnalyze)

	// Extract JSON from the feedback output
	o.startStep(job, constants.StepParse)
	feedback, ok := llm.ExtractJSON(analysis.FeedbackText)
	if ok {
		if vErr := llm.ValidateJSONAgainstSchema(llm.BuildAnalysisJSONSchema(), feedback); vErr != nil {
			o.Logger.Warn("pipeline.parse.schema_rejected", "job_id", job.ID, "error", vErr)
			ok = false
		}
	}
	if !ok {
		// The model answered but unparsably: keep the raw text recoverable
		// for manual inspection, never silently discarded.
		job.RawAnalysisText = analysis.FeedbackText
		if err := o.KV.Set(ctx, constants.JobRawKey(job.ID), []byte(analysis.FeedbackText)); err != nil {
			o.Logger.Error("pipeline.parse.raw_persist_failed", "job_id", job.ID, "error", err)
		}
		return o.fail(ctx, job, constants.StepParse, constants.ReasonMalformedAnalysis,
			"the analysis output could not be parsed",
			fmt.Errorf("%w: no well-formed JSON value recovered", ErrMalformedAnalysis))
	}
	job.Feedback = feedback
	o.completeStep(ctx, job, constants.StepParse)

	// Persist
	o.startStep(job, constants.StepPersist)
	if err := o.persistResults(ctx, job); err != nil {
		return o.fail(ctx, job, constants.StepPersist, constants.ReasonPersistenceFailed,
			"could not save the results", fmt.Errorf("%w: %v", ErrPersistenceFailed, err))
	}
	o.completeStep(ctx, job, constants.StepPersist)

	job.Status = constants.JobStatusCompleted
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err := o.persistJob(ctx, job); err != nil {
		job.Status = constants.JobStatusFailed
		job.FailureReason = constants.ReasonPersistenceFailed
		job.StatusMessage = "could not save the final job record"
		return &StageError{
			Stage:  constants.StepPersist,
			Reason: constants.ReasonPersistenceFailed,
			Err:    fmt.Errorf("%w: %v", ErrPersistenceFailed, err),
		}
	}

	o.Logger.Info("pipeline.done",
		"job_id", job.ID,
		"elapsed_ms", time.Since(job.CreatedAt).Milliseconds(),
		"markdown_degraded", analysis.Degraded,
	)
	return nil
}

// persistResults writes the side-channel values before the final record.
func (o *Orchestrator) persistResults(ctx context.Context, job *Job) error {
	if err := o.KV.Set(ctx, constants.JobTextKey(job.ID), []byte(job.ExtractedText)); err != nil {
		return fmt.Errorf("store extracted text: %w", err)
	}
	if job.MarkdownText != "" {
		if err := o.KV.Set(ctx, constants.JobMarkdownKey(job.ID), []byte(job.MarkdownText)); err != nil {
			return fmt.Errorf("store markdown: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) persistJob(ctx context.Context, job *Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return o.KV.Set(ctx, constants.JobKey(job.ID), b)
}

// persist stores a mid-run snapshot. Failures here are logged, not fatal;
// the terminal persist is the one that matters.
func (o *Orchestrator) persist(ctx context.Context, job *Job) {
	if err := o.persistJob(ctx, job); err != nil {
		o.Logger.Warn("pipeline.snapshot_persist_failed", "job_id", job.ID, "error", err)
	}
}

func (o *Orchestrator) startStep(job *Job, name string) {
	if err := job.StartStep(name); err != nil {
		// indicates an orchestrator bug, not a job failure
		o.Logger.Error("pipeline.step_transition_rejected", "job_id", job.ID, "step", name, "error", err)
	}
}

func (o *Orchestrator) completeStep(ctx context.Context, job *Job, name string) {
	if err := job.CompleteStep(name); err != nil {
		o.Logger.Error("pipeline.step_transition_rejected", "job_id", job.ID, "step", name, "error", err)
	}
	o.persist(ctx, job)
}

// fail marks the failing step, persists the partial job state, and returns
// a StageError naming the stage.
func (o *Orchestrator) fail(ctx context.Context, job *Job, stage string, reason constants.FailureReason, msg string, err error) error {
	if s, stepErr := job.step(stage); stepErr == nil && s.Status == constants.StepProcessing {
		_ = job.FailStep(stage)
	} else if stepErr == nil && s.Status == constants.StepPending {
		// stage failed before it could start (e.g. unsupported format)
		_ = s.transition(constants.StepProcessing)
		_ = s.transition(constants.StepError)
	}
	job.Status = constants.JobStatusFailed
	job.FailureReason = reason
	job.StatusMessage = msg
	now := time.Now().UTC()
	job.FinishedAt = &now
	o.persist(ctx, job)

	o.Logger.Error("pipeline.failed",
		"job_id", job.ID,
		"stage", stage,
		"reason", string(reason),
		"error", err,
	)
	return &StageError{Stage: stage, Reason: reason, Err: err}
}
