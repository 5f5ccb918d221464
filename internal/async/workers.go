package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned when the submission buffer is saturated.
var ErrQueueFull = errors.New("queue full")

// WorkerQueue runs tasks on a fixed pool of goroutines over a bounded
// channel. Shutdown stops intake and drains what was already accepted.
type WorkerQueue struct {
	tasks  chan Task
	log    *slog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

var _ Queue = (*WorkerQueue)(nil)

// NewWorkerQueue starts workers goroutines consuming a buffer of depth.
func NewWorkerQueue(workers, depth int, logger *slog.Logger) *WorkerQueue {
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	q := &WorkerQueue{
		tasks:  make(chan Task, depth),
		log:    logger,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(runCtx, i)
	}
	return q
}

func (q *WorkerQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for task := range q.tasks {
		start := time.Now()
		q.log.Info("async.task.start", "worker", id, "job_id", task.JobID)
		task.Run(ctx)
		q.log.Info("async.task.done",
			"worker", id,
			"job_id", task.JobID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Enqueue adds a task without blocking; a saturated buffer rejects the
// submission so the HTTP caller gets immediate backpressure.
func (q *WorkerQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake, cancels running tasks once ctx expires, and waits
// for the workers to drain.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	q.once.Do(func() { close(q.tasks) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.cancel()
		<-done
	}
	q.cancel()
}
