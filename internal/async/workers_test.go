package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerQueueRunsTasks(t *testing.T) {
	q := NewWorkerQueue(2, 8, nil)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := q.Enqueue(context.Background(), Task{
			JobID:       "job",
			SubmittedAt: time.Now(),
			Run: func(context.Context) {
				ran.Add(1)
				wg.Done()
			},
		})
		require.NoError(t, err)
	}
	wg.Wait()
	q.Shutdown(context.Background())

	assert.Equal(t, int32(5), ran.Load())
}

func TestWorkerQueueRejectsWhenFull(t *testing.T) {
	q := NewWorkerQueue(1, 1, nil)
	defer q.Shutdown(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, q.Enqueue(context.Background(), Task{Run: func(context.Context) {
		close(started)
		<-block
	}}))
	<-started

	// fill the buffer, then overflow it
	require.NoError(t, q.Enqueue(context.Background(), Task{Run: func(context.Context) {}}))
	err := q.Enqueue(context.Background(), Task{Run: func(context.Context) {}})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
}

func TestWorkerQueueShutdownDrains(t *testing.T) {
	q := NewWorkerQueue(1, 8, nil)

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Task{Run: func(context.Context) {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}}))
	}
	q.Shutdown(context.Background())

	// accepted work finished before Shutdown returned
	assert.Equal(t, int32(3), ran.Load())
}

func TestWorkerQueueShutdownCancelsOnDeadline(t *testing.T) {
	q := NewWorkerQueue(1, 8, nil)

	unblocked := make(chan struct{})
	require.NoError(t, q.Enqueue(context.Background(), Task{Run: func(ctx context.Context) {
		select {
		case <-ctx.Done():
			close(unblocked)
		case <-time.After(5 * time.Second):
		}
	}}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	q.Shutdown(ctx)

	select {
	case <-unblocked:
	default:
		t.Fatal("running task was not cancelled by shutdown deadline")
	}
}
