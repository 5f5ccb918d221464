package ocr

import (
	"context"
	"time"
)

// TextExtractor is the OCR stage: image bytes -> resume text.
type TextExtractor interface {
	Extract(ctx context.Context, image []byte) (TextExtractionResult, error)
}

// TextExtractionResult is the extraction summary. An empty Text is success
// at this level; whether empty text fails the job is the orchestrator's call.
type TextExtractionResult struct {
	Text     string
	MimeType string
	Method   string // "vision"
	Sniffed  bool   // false when we fell back to the default mime
	Duration time.Duration
}
