package ingest

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/entity-extractor/internal/async"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
)

// FeedQueue turns watcher paths into batches. Paths already buffered on the
// channel when a batch starts are grouped into that batch. It returns when
// paths closes or ctx is done.
func FeedQueue(ctx context.Context, paths <-chan string, q async.Queue, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		var first string
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			first = p
		}

		files := []pipeline.File{{Name: filepath.Base(first), Path: first}}
	drain:
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					break drain
				}
				files = append(files, pipeline.File{Name: filepath.Base(p), Path: p})
			default:
				break drain
			}
		}

		job := async.Job{Batch: pipeline.Batch{ID: uuid.NewString(), Files: files}, TraceID: "watch"}
		if err := q.Enqueue(ctx, job); err != nil {
			logger.Error("ingest.feed.enqueue_failed", "batch_id", job.Batch.ID, "error", err)
			return
		}
	}
}
