// Package async decouples HTTP submission from pipeline execution.
package async

import (
	"context"
	"time"
)

// Task is the smallest useful unit of queued work: a created job plus the
// submission it should process.
type Task struct {
	JobID       string
	SubmittedAt time.Time
	Run         func(ctx context.Context)
}

// Queue accepts tasks for background execution.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Shutdown(ctx context.Context)
}
