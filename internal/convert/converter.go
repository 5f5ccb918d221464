// Package convert renders source documents into raster images suitable for
// OCR. Converters are pure transforms: they never retry and never touch the
// stores; retry policy belongs to the orchestrator.
package convert

import (
	"context"
	"errors"
)

// ErrConversionFailed indicates the source document could not be rasterized.
var ErrConversionFailed = errors.New("conversion failed")

// Converter renders a source document into a single image.
type Converter interface {
	// Name returns the converter name (e.g. "poppler").
	Name() string

	// Supports returns true if this converter can handle the given MIME type.
	Supports(mimeType string) bool

	// Convert renders the document. Multi-page inputs use the first page
	// only; that is a documented limitation, not a bug.
	Convert(ctx context.Context, src []byte) ([]byte, error)
}
