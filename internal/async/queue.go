package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one batch waiting for a worker.
type Job struct {
	Batch       pipeline.Batch
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
