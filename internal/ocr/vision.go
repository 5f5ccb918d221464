package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/striver-24/ai-resume-analyzer-sub000/internal/llm"
)

// VisionOCR extracts text by handing the image to a vision-capable model.
type VisionOCR struct {
	Extractor   llm.VisionExtractor
	DefaultMime string // used when the signature is not recognized
	Logger      *slog.Logger
}

var _ TextExtractor = (*VisionOCR)(nil)

func NewVisionOCR(extractor llm.VisionExtractor, defaultMime string, logger *slog.Logger) *VisionOCR {
	if defaultMime == "" {
		defaultMime = "image/png"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionOCR{Extractor: extractor, DefaultMime: defaultMime, Logger: logger}
}

// Extract sniffs the image signature and runs the vision model.
func (v *VisionOCR) Extract(ctx context.Context, image []byte) (TextExtractionResult, error) {
	start := time.Now()

	mimeType, sniffed := SniffImageMime(image, v.DefaultMime)
	if !sniffed {
		v.Logger.Warn("ocr.sniff.fallback", "default_mime", v.DefaultMime, "bytes", len(image))
	}

	text, err := v.Extractor.ExtractText(ctx, image, mimeType)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("vision extract: %w", err)
	}

	res := TextExtractionResult{
		Text:     text,
		MimeType: mimeType,
		Method:   "vision",
		Sniffed:  sniffed,
		Duration: time.Since(start),
	}
	v.Logger.Info("ocr.extract.ok",
		"mime_type", mimeType,
		"sniffed", sniffed,
		"text_len", len(text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
