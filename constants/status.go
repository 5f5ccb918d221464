package constants

// JobStatus is the canonical status for a resume-analysis job record.
type JobStatus string

// Stable values (these exact strings are persisted).
const (
	JobStatusQueued    JobStatus = "QUEUED"    // accepted, waiting for a worker
	JobStatusRunning   JobStatus = "RUNNING"   // pipeline in progress
	JobStatusCompleted JobStatus = "COMPLETED" // analysis persisted
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// FailureReason distinguishes why a job failed so operators can tell
// transient infra failure apart from model-output-quality failure.
type FailureReason string

const (
	ReasonConversionFailed  FailureReason = "CONVERSION_FAILED"
	ReasonUploadFailed      FailureReason = "UPLOAD_FAILED"
	ReasonExtractionFailed  FailureReason = "EXTRACTION_FAILED"
	ReasonAnalysisFailed    FailureReason = "ANALYSIS_FAILED"
	ReasonMalformedAnalysis FailureReason = "MALFORMED_ANALYSIS"
	ReasonPersistenceFailed FailureReason = "PERSISTENCE_FAILED"
)

// StepStatus is the observable status of one pipeline stage.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// Stage names, in pipeline order. The ordered list is fixed at job creation
// and never reordered.
const (
	StepConvert = "Converting document"
	StepUpload  = "Uploading files"
	StepExtract = "Extracting text"
	StepAnalyze = "Analyzing resume"
	StepParse   = "Parsing analysis"
	StepPersist = "Saving results"
)

// StepNames returns the pipeline stages in execution order.
func StepNames() []string {
	return []string{StepConvert, StepUpload, StepExtract, StepAnalyze, StepParse, StepPersist}
}
