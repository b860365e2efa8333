package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
)

type fakeProcessor struct {
	calls atomic.Int32
	fail  bool
}

func (f *fakeProcessor) ProcessBatch(_ context.Context, b pipeline.Batch) (*pipeline.BatchOutcome, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("boom")
	}
	return &pipeline.BatchOutcome{BatchID: b.ID}, nil
}

func TestBatchQueue_ProcessesAndDrains(t *testing.T) {
	proc := &fakeProcessor{}
	var (
		mu   sync.Mutex
		seen []string
	)
	q := NewBatchQueue(proc, nil, WithWorkers(3), WithQueueSize(2),
		WithResultHandler(func(job Job, out *pipeline.BatchOutcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			assert.NoError(t, err)
			seen = append(seen, out.BatchID)
		}))

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{Batch: pipeline.Batch{ID: id}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int32(5), proc.calls.Load())
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, seen)
}

func TestBatchQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewBatchQueue(&fakeProcessor{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Batch: pipeline.Batch{ID: "late"}})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBatchQueue_ReportsFailures(t *testing.T) {
	var failures atomic.Int32
	q := NewBatchQueue(&fakeProcessor{fail: true}, nil, WithWorkers(1),
		WithResultHandler(func(_ Job, _ *pipeline.BatchOutcome, err error) {
			if err != nil {
				failures.Add(1)
			}
		}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Batch: pipeline.Batch{ID: "x"}}))
	q.Shutdown(context.Background())
	assert.Equal(t, int32(1), failures.Load())
}
