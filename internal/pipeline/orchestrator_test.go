package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/ocr"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/storage"
)

// --- collaborator fakes ---

type fakeConverter struct {
	out []byte
	err error
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Supports(mimeType string) bool { return mimeType == "application/pdf" }

func (f *fakeConverter) Convert(context.Context, []byte) ([]byte, error) {
	return f.out, f.err
}

// failingStore fails Put for one scope deterministically and delegates the
// rest to an in-memory store.
type failingStore struct {
	inner     *storage.MemoryStore
	failScope string
}

func (f *failingStore) Put(ctx context.Context, data []byte, contentType, scope string) (string, error) {
	if scope == f.failScope {
		return "", storage.ErrStoreUnavailable
	}
	return f.inner.Put(ctx, data, contentType, scope)
}

func (f *failingStore) Get(ctx context.Context, ref string) ([]byte, error) {
	return f.inner.Get(ctx, ref)
}

func (f *failingStore) Exists(ctx context.Context, ref string) (bool, error) {
	return f.inner.Exists(ctx, ref)
}

type fakeVision struct {
	text string
	err  error
}

func (f *fakeVision) ExtractText(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

// fakeCompleter routes on the system prompt: the feedback branch is the one
// whose system prompt talks about ATS scoring.
type fakeCompleter struct {
	feedbackOut string
	feedbackErr error
	markdownOut string
	markdownErr error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	if strings.Contains(req.System, "ATS") {
		return f.feedbackOut, f.feedbackErr
	}
	return f.markdownOut, f.markdownErr
}

type fixture struct {
	orch      *Orchestrator
	kv        *kvstore.MemoryStore
	objects   *storage.MemoryStore
	converter *fakeConverter
	vision    *fakeVision
	completer *fakeCompleter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:      kvstore.NewMemoryStore(),
		objects: storage.NewMemoryStore(),
		converter: &fakeConverter{
			out: []byte("png-bytes"),
		},
		vision: &fakeVision{
			text: "Jane Doe\nSoftware Engineer\n10 years of Go",
		},
		completer: &fakeCompleter{
			feedbackOut: "```json\n{\"overallScore\":72,\"ATS\":{\"score\":80,\"tips\":[]}}\n```",
			markdownOut: "# Jane Doe\n\nSoftware Engineer",
		},
	}
	f.orch = newOrchestratorForTest(f, f.objects)
	return f
}

func newOrchestratorForTest(f *fixture, store storage.ObjectStore) *Orchestrator {
	var retry RetryPolicy // single attempt keeps failure tests fast
	return NewOrchestrator(
		f.converter,
		NewUploadStage(store, retry, nil),
		&visionAdapter{f.vision},
		NewAnalyzeStage(f.completer, retry, 0, 0, nil),
		f.kv,
		retry,
		nil,
	)
}

// visionAdapter lifts the raw fake onto the ocr.TextExtractor shape without
// dragging the sniffing logic into these tests.
type visionAdapter struct {
	vision *fakeVision
}

func (a *visionAdapter) Extract(ctx context.Context, image []byte) (ocr.TextExtractionResult, error) {
	text, err := a.vision.ExtractText(ctx, image, "image/png")
	if err != nil {
		return ocr.TextExtractionResult{}, err
	}
	return ocr.TextExtractionResult{Text: text, MimeType: "image/png", Method: "vision"}, nil
}

func run(t *testing.T, f *fixture) (*Job, error) {
	t.Helper()
	job := NewJob("Acme", "Engineer", "a job description")
	err := f.orch.Run(context.Background(), job, Request{
		Source:         []byte("%PDF-1.4 fake"),
		SourceMime:     "application/pdf",
		CompanyName:    "Acme",
		JobTitle:       "Engineer",
		JobDescription: "a job description",
	})
	return job, err
}

func stepStatus(t *testing.T, job *Job, name string) constants.StepStatus {
	t.Helper()
	for _, s := range job.Steps {
		if s.Name == name {
			return s.Status
		}
	}
	t.Fatalf("step %q not found", name)
	return ""
}

func loadPersisted(t *testing.T, f *fixture, id string) *Job {
	t.Helper()
	raw, err := f.kv.Get(context.Background(), constants.JobKey(id))
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal(raw, &job))
	return &job
}

// --- tests ---

func TestRunSuccessEndToEnd(t *testing.T) {
	f := newFixture(t)

	job, err := run(t, f)
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusCompleted, job.Status)
	for _, s := range job.Steps {
		assert.Equal(t, constants.StepCompleted, s.Status, "step %q", s.Name)
	}
	assert.NotEmpty(t, job.SourceRef)
	assert.NotEmpty(t, job.ImageRef)

	persisted := loadPersisted(t, f, job.ID)
	var feedback struct {
		OverallScore float64 `json:"overallScore"`
	}
	require.NoError(t, json.Unmarshal(persisted.Feedback, &feedback))
	assert.Equal(t, float64(72), feedback.OverallScore)

	// no diagnostic residue on the success path
	_, err = f.kv.Get(context.Background(), constants.JobRawKey(job.ID))
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

	text, err := f.kv.Get(context.Background(), constants.JobTextKey(job.ID))
	require.NoError(t, err)
	assert.Equal(t, f.vision.text, string(text))

	md, err := f.kv.Get(context.Background(), constants.JobMarkdownKey(job.ID))
	require.NoError(t, err)
	assert.Equal(t, f.completer.markdownOut, string(md))

	// both objects were stored
	assert.Equal(t, 2, f.objects.Len())
}

func TestRunConversionFailure(t *testing.T) {
	f := newFixture(t)
	f.converter.err = errors.New("pdftoppm exploded")

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepConvert, se.Stage)
	assert.Equal(t, constants.ReasonConversionFailed, se.Reason)

	assert.Equal(t, constants.JobStatusFailed, job.Status)
	assert.Equal(t, constants.StepError, stepStatus(t, job, constants.StepConvert))
	// nothing after the error step ever leaves pending
	for _, name := range constants.StepNames()[1:] {
		assert.Equal(t, constants.StepPending, stepStatus(t, job, name), "step %q", name)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	f := newFixture(t)

	job := NewJob("", "", "")
	err := f.orch.Run(context.Background(), job, Request{
		Source:     []byte("GIF89a"),
		SourceMime: "image/gif",
	})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepConvert, se.Stage)
	assert.Equal(t, constants.StepError, stepStatus(t, job, constants.StepConvert))
}

func TestRunUploadAllOrNothing(t *testing.T) {
	f := newFixture(t)
	store := &failingStore{inner: f.objects, failScope: "images"}
	f.orch = newOrchestratorForTest(f, store)

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepUpload, se.Stage)
	assert.Equal(t, constants.ReasonUploadFailed, se.Reason)
	assert.ErrorIs(t, err, ErrUploadFailed)

	// the stage failed even though the sibling upload may have been
	// durably written; no rollback is attempted
	assert.Equal(t, constants.StepError, stepStatus(t, job, constants.StepUpload))
	assert.Empty(t, job.ImageRef)
	for _, name := range []string{constants.StepExtract, constants.StepAnalyze, constants.StepParse, constants.StepPersist} {
		assert.Equal(t, constants.StepPending, stepStatus(t, job, name), "step %q", name)
	}
}

func TestRunExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.vision.err = llm.ErrServiceUnavailable

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepExtract, se.Stage)
	assert.Equal(t, constants.ReasonExtractionFailed, se.Reason)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
}

func TestRunEmptyExtractionFailsJob(t *testing.T) {
	f := newFixture(t)
	f.vision.text = "   \n\t "

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.ReasonExtractionFailed, se.Reason)
	assert.Equal(t, constants.StepError, stepStatus(t, job, constants.StepExtract))
}

func TestRunRequiredAnalysisFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.feedbackErr = llm.ErrServiceUnavailable

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepAnalyze, se.Stage)
	assert.Equal(t, constants.ReasonAnalysisFailed, se.Reason)
	// infra failure, not a parse failure: reasons stay distinguishable
	assert.NotEqual(t, constants.ReasonMalformedAnalysis, se.Reason)
	assert.Equal(t, constants.JobStatusFailed, job.Status)
}

func TestRunMarkdownDegradationIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.completer.markdownErr = llm.ErrServiceUnavailable

	job, err := run(t, f)
	require.NoError(t, err)

	assert.Equal(t, constants.JobStatusCompleted, job.Status)
	assert.Empty(t, job.MarkdownText)

	_, err = f.kv.Get(context.Background(), constants.JobMarkdownKey(job.ID))
	assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
}

func TestRunMalformedAnalysisKeepsRawText(t *testing.T) {
	f := newFixture(t)
	f.completer.feedbackOut = "I'm sorry, I can't produce JSON today."

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.StepParse, se.Stage)
	assert.Equal(t, constants.ReasonMalformedAnalysis, se.Reason)
	assert.ErrorIs(t, err, ErrMalformedAnalysis)

	// the raw text remains recoverable for manual inspection
	raw, kvErr := f.kv.Get(context.Background(), constants.JobRawKey(job.ID))
	require.NoError(t, kvErr)
	assert.Equal(t, f.completer.feedbackOut, string(raw))

	assert.Equal(t, constants.StepError, stepStatus(t, job, constants.StepParse))
	assert.Equal(t, constants.StepPending, stepStatus(t, job, constants.StepPersist))
}

func TestRunTruncatedAnalysisIsMalformed(t *testing.T) {
	f := newFixture(t)
	f.completer.feedbackOut = "```json\n{\"overallScore\":72,\"ATS\":{\"score\":80,\"tips\":["

	_, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.ReasonMalformedAnalysis, se.Reason)
}

func TestRunSchemaRejectionIsMalformed(t *testing.T) {
	f := newFixture(t)
	// parses fine, but carries no overallScore
	f.completer.feedbackOut = `{"unexpected":"shape"}`

	job, err := run(t, f)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, constants.ReasonMalformedAnalysis, se.Reason)

	raw, kvErr := f.kv.Get(context.Background(), constants.JobRawKey(job.ID))
	require.NoError(t, kvErr)
	assert.Equal(t, f.completer.feedbackOut, string(raw))
}

func TestRunPersistsPartialStateOnFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.feedbackOut = "not json"

	job, err := run(t, f)
	require.Error(t, err)

	persisted := loadPersisted(t, f, job.ID)
	assert.Equal(t, constants.JobStatusFailed, persisted.Status)
	assert.Equal(t, constants.ReasonMalformedAnalysis, persisted.FailureReason)
	assert.NotEmpty(t, persisted.StatusMessage)
	assert.NotNil(t, persisted.FinishedAt)
}
