package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/entity-extractor/internal/metrics"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
)

// BatchProcessor is the part of pipeline.Processor the queue drives.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, b pipeline.Batch) (*pipeline.BatchOutcome, error)
}

// ResultHandler observes each finished job.
type ResultHandler func(job Job, outcome *pipeline.BatchOutcome, err error)

type BatchQueue struct {
	proc     BatchProcessor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult ResultHandler

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*BatchQueue)(nil)

type Option func(*BatchQueue)

func WithWorkers(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *BatchQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultHandler(h ResultHandler) Option {
	return func(q *BatchQueue) { q.onResult = h }
}

func NewBatchQueue(proc BatchProcessor, logger *slog.Logger, opts ...Option) *BatchQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &BatchQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *BatchQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					metrics.QueueLength.Dec()
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *BatchQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	outcome, err := q.proc.ProcessBatch(ctx, job.Batch)
	if err != nil {
		q.logger.Error("batch processing failed",
			"worker_id", workerID, "batch_id", job.Batch.ID, "trace_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("processed batch successfully",
			"worker_id", workerID, "batch_id", outcome.BatchID, "rows", len(outcome.Summary.Results),
			"waited_ms", time.Since(job.SubmittedAt).Milliseconds())
	}
	if q.onResult != nil {
		q.onResult(job, outcome, err)
	}
}

// Enqueue hands job to a worker. When the buffer is full it blocks until
// there is room or ctx is done.
func (q *BatchQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "batch_id", job.Batch.ID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "batch_id", job.Batch.ID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.QueueLength.Inc()
	q.logger.Info("queued batch for processing", "batch_id", job.Batch.ID, "files", len(job.Batch.Files))
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
func (q *BatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
