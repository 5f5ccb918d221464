package llm

import "context"

// AnalysisContext is the caller-supplied target-role context used to tailor
// the feedback prompt. Immutable once set on a job.
type AnalysisContext struct {
	CompanyName    string `json:"company_name,omitempty"`
	JobTitle       string `json:"job_title,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
}

// CompletionRequest is one call against the language-model endpoint.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer is the language-model endpoint our pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// VisionExtractor is the OCR/vision endpoint: image bytes -> plain text.
// An empty result is success at this level; the orchestrator decides whether
// empty text is fatal for the job.
type VisionExtractor interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}
