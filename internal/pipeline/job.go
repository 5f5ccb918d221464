package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
)

// ProgressStep is one pipeline stage's observable status. Steps only move
// forward (pending -> processing -> completed|error); they never revert.
type ProgressStep struct {
	Name   string               `json:"name"`
	Status constants.StepStatus `json:"status"`
}

// allowedTransitions encodes the per-step finite state machine.
var allowedTransitions = map[constants.StepStatus][]constants.StepStatus{
	constants.StepPending:    {constants.StepProcessing},
	constants.StepProcessing: {constants.StepCompleted, constants.StepError},
	constants.StepCompleted:  {},
	constants.StepError:      {},
}

func (s *ProgressStep) transition(to constants.StepStatus) error {
	for _, t := range allowedTransitions[s.Status] {
		if t == to {
			s.Status = to
			return nil
		}
	}
	return fmt.Errorf("step %q: invalid transition %s -> %s", s.Name, s.Status, to)
}

// Job is one resume-analysis request. It is created when the caller submits
// a document, mutated monotonically by the orchestrator that owns it, and
// immutable once persisted in its terminal state.
type Job struct {
	ID             string                  `json:"id"`
	CompanyName    string                  `json:"companyName,omitempty"`
	JobTitle       string                  `json:"jobTitle,omitempty"`
	JobDescription string                  `json:"jobDescription,omitempty"`
	SourceRef      string                  `json:"sourceRef,omitempty"`
	ImageRef       string                  `json:"imageRef,omitempty"`
	Feedback       json.RawMessage         `json:"feedback,omitempty"`
	Status         constants.JobStatus     `json:"status"`
	FailureReason  constants.FailureReason `json:"failureReason,omitempty"`
	StatusMessage  string                  `json:"statusMessage,omitempty"`
	Steps          []ProgressStep          `json:"steps"`
	CreatedAt      time.Time               `json:"createdAt"`
	FinishedAt     *time.Time              `json:"finishedAt,omitempty"`

	// Side-channel values persisted under their own keys, never inside the
	// main record.
	ExtractedText   string `json:"-"`
	MarkdownText    string `json:"-"`
	RawAnalysisText string `json:"-"`
}

// NewJob creates a job with the fixed, ordered step list.
func NewJob(companyName, jobTitle, jobDescription string) *Job {
	names := constants.StepNames()
	steps := make([]ProgressStep, len(names))
	for i, n := range names {
		steps[i] = ProgressStep{Name: n, Status: constants.StepPending}
	}
	return &Job{
		ID:             uuid.New().String(),
		CompanyName:    companyName,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
		Status:         constants.JobStatusQueued,
		Steps:          steps,
		CreatedAt:      time.Now().UTC(),
	}
}

func (j *Job) step(name string) (*ProgressStep, error) {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i], nil
		}
	}
	return nil, fmt.Errorf("unknown step %q", name)
}

// StartStep moves a step to processing. The pipeline is sequential at the
// stage level, so at most one step is processing at a time.
func (j *Job) StartStep(name string) error {
	for i := range j.Steps {
		if j.Steps[i].Status == constants.StepProcessing {
			return fmt.Errorf("step %q still processing", j.Steps[i].Name)
		}
	}
	s, err := j.step(name)
	if err != nil {
		return err
	}
	return s.transition(constants.StepProcessing)
}

// CompleteStep moves a step to completed.
func (j *Job) CompleteStep(name string) error {
	s, err := j.step(name)
	if err != nil {
		return err
	}
	return s.transition(constants.StepCompleted)
}

// FailStep moves a step to error. Steps after an error step are never
// started.
func (j *Job) FailStep(name string) error {
	s, err := j.step(name)
	if err != nil {
		return err
	}
	return s.transition(constants.StepError)
}

// StepSnapshot returns a deep copy of the progress list for observers.
func (j *Job) StepSnapshot() []ProgressStep {
	out := make([]ProgressStep, len(j.Steps))
	copy(out, j.Steps)
	return out
}

// Terminal reports whether the job reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status == constants.JobStatusCompleted || j.Status == constants.JobStatusFailed
}
