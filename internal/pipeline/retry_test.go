package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), nil, "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	wantErr := errors.New("still broken")
	calls := 0
	err := policy.Do(context.Background(), nil, "test", func(context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyZeroValueRunsOnce(t *testing.T) {
	var policy RetryPolicy

	calls := 0
	err := policy.Do(context.Background(), nil, "test", func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyHonorsCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- policy.Do(ctx, nil, "test", func(context.Context) error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestRetryPolicyCapsDelay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: 5 * time.Millisecond, MaxDelay: 5 * time.Millisecond}

	start := time.Now()
	calls := 0
	_ = policy.Do(context.Background(), nil, "test", func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	assert.Equal(t, 4, calls)
	// without the cap the waits would be 5+10+20ms; with it 15ms total
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRetryPolicyBackoffSaturates(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second}
	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 8*time.Second, p.backoff(4))
	// a huge attempt count must saturate, never wrap negative
	assert.Greater(t, p.backoff(80), time.Duration(0))

	p.MaxDelay = 5 * time.Second
	assert.Equal(t, 5*time.Second, p.backoff(4))
	assert.Equal(t, 5*time.Second, p.backoff(80))

	var zero RetryPolicy
	assert.Equal(t, time.Duration(0), zero.backoff(10))
}
