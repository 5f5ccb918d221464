package ocr

import "bytes"

// Image signature tables. We sniff the bytes ourselves instead of trusting a
// content-type header from upstream; a wrong or missing header must not
// corrupt the vision call.
var (
	sigPNG  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigGIF7 = []byte("GIF87a")
	sigGIF9 = []byte("GIF89a")
	sigRIFF = []byte("RIFF")
	sigWEBP = []byte("WEBP")
)

// SniffImageMime returns the mime type for a recognized image signature.
// Unrecognized signatures return fallback and ok=false; the caller proceeds
// with the fallback rather than failing fast.
func SniffImageMime(data []byte, fallback string) (string, bool) {
	switch {
	case bytes.HasPrefix(data, sigPNG):
		return "image/png", true
	case bytes.HasPrefix(data, sigJPEG):
		return "image/jpeg", true
	case bytes.HasPrefix(data, sigGIF7), bytes.HasPrefix(data, sigGIF9):
		return "image/gif", true
	case bytes.HasPrefix(data, sigRIFF) && len(data) >= 12 && bytes.Equal(data[8:12], sigWEBP):
		return "image/webp", true
	default:
		return fallback, false
	}
}
