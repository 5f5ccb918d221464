package pipeline

import (
	"errors"
	"fmt"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
)

// Stage failure sentinels. Each maps to a distinguishable FailureReason so
// callers can tell transient infra failure apart from model-output-quality
// failure.
var (
	ErrUploadFailed      = errors.New("upload failed")
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrAnalysisFailed    = errors.New("analysis failed")
	ErrMalformedAnalysis = errors.New("malformed analysis")
	ErrPersistenceFailed = errors.New("persistence failed")
)

// StageError carries the failing stage name and reason to the caller.
type StageError struct {
	Stage  string
	Reason constants.FailureReason
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
