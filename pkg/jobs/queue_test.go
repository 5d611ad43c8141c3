package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	processed := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		processed <- job
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "write"}))

	select {
	case job := <-processed:
		assert.Equal(t, "job-1", job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was never processed")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	assert.Error(t, q.Enqueue(Job{ID: "early"}))
	assert.False(t, q.TryEnqueue(Job{ID: "early"}))
}

func TestTryEnqueueDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	// First job occupies the worker, second fills the buffer; the third
	// must be rejected without blocking.
	require.True(t, q.TryEnqueue(Job{ID: "a"}))
	time.Sleep(50 * time.Millisecond)
	require.True(t, q.TryEnqueue(Job{ID: "b"}))
	assert.False(t, q.TryEnqueue(Job{ID: "c"}))
	assert.Equal(t, 1, q.Depth())
}

func TestQueueAtMostOnceNeverRetries(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return assert.AnError
	}, QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 0, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "fail"}))

	time.Sleep(200 * time.Millisecond)
	q.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueRetriesUpToMax(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return assert.AnError
	}, QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) == 3
	}, 2*time.Second, 20*time.Millisecond)
	q.Stop()
}
