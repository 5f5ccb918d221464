package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for resume upload.
// The converter renders the first page only; multi-page documents lose
// everything after page one.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// KV key scheme. Keys are job-scoped, so no two jobs ever write the same key.
const (
	KeyJobPrefix     = "job:"
	KeySuffixText    = ":text"
	KeySuffixMD      = ":markdown"
	KeySuffixRawDiag = ":raw"
)

// JobKey returns the kvstore key of the main job record.
func JobKey(id string) string { return KeyJobPrefix + id }

// JobTextKey returns the side key holding the extracted resume text.
func JobTextKey(id string) string { return KeyJobPrefix + id + KeySuffixText }

// JobMarkdownKey returns the side key holding the markdown rendering.
func JobMarkdownKey(id string) string { return KeyJobPrefix + id + KeySuffixMD }

// JobRawKey returns the diagnostic side key holding unparsable model output.
// Present only when structured extraction failed.
func JobRawKey(id string) string { return KeyJobPrefix + id + KeySuffixRawDiag }

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
