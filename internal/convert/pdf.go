package convert

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// PopplerConverter rasterizes the first page of a PDF with pdftoppm and
// downscales the result so vision payloads stay small.
type PopplerConverter struct {
	dpi    int // render resolution (default 150)
	maxDim int // longest output edge in pixels; 0 disables downscaling
}

var _ Converter = (*PopplerConverter)(nil)

// NewPopplerConverter creates a new Poppler-based PDF converter.
func NewPopplerConverter(dpi, maxDim int) *PopplerConverter {
	if dpi <= 0 {
		dpi = 150
	}
	return &PopplerConverter{dpi: dpi, maxDim: maxDim}
}

// Name returns the converter name.
func (p *PopplerConverter) Name() string { return "poppler" }

// Supports returns true if this converter can handle the given MIME type.
func (p *PopplerConverter) Supports(mimeType string) bool {
	return strings.ToLower(mimeType) == "application/pdf"
}

// Convert renders page one of the PDF to PNG bytes.
func (p *PopplerConverter) Convert(ctx context.Context, src []byte) ([]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm not found in PATH: %v", ErrConversionFailed, err)
	}

	tmpDir, err := os.MkdirTemp("", "resume-convert-*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", ErrConversionFailed, err)
	}
	defer os.RemoveAll(tmpDir)

	in := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(in, src, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", ErrConversionFailed, err)
	}

	// -singlefile keeps page numbers out of the filename; -f 1 -l 1 renders
	// the first page only.
	outBase := filepath.Join(tmpDir, "page")
	args := []string{
		"-png",
		"-singlefile",
		"-f", "1",
		"-l", "1",
		"-r", strconv.Itoa(p.dpi),
		in,
		outBase,
	}
	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", ErrConversionFailed, err, string(out))
	}

	rendered, err := os.ReadFile(outBase + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrConversionFailed, err)
	}

	return p.downscale(rendered)
}

// downscale re-encodes the PNG with the longest edge capped at maxDim.
func (p *PopplerConverter) downscale(data []byte) ([]byte, error) {
	if p.maxDim <= 0 {
		return data, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode rendered page: %v", ErrConversionFailed, err)
	}
	b := img.Bounds()
	if b.Dx() <= p.maxDim && b.Dy() <= p.maxDim {
		return data, nil
	}
	if b.Dx() >= b.Dy() {
		img = imaging.Resize(img, p.maxDim, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, p.maxDim, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrConversionFailed, err)
	}
	return buf.Bytes(), nil
}
