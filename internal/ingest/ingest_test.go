package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/entity-extractor/internal/async"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCollectDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "Jane Doe")
	writeFile(t, filepath.Join(root, "sub", "b.PDF"), "%PDF-1.4")
	writeFile(t, filepath.Join(root, "sub", "copy.txt"), "Jane Doe")
	writeFile(t, filepath.Join(root, "notes.md"), "# skip")
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".secret.txt"), "hidden")

	files, results, stats, err := CollectDirectory(context.Background(), root, true)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
		assert.FileExists(t, f.Path)
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.PDF"}, names)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)

	var dup FileResult
	for _, r := range results {
		if r.Deduplicated {
			dup = r
		}
	}
	assert.Equal(t, filepath.Join(root, "sub", "copy.txt"), dup.Path)
	assert.NotEmpty(t, dup.HashHex)
}

func TestCollectDirectoryIncludesHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "hidden")

	files, _, _, err := CollectDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCollectDirectoryRequiresRoot(t *testing.T) {
	_, _, _, err := CollectDirectory(context.Background(), "  ", true)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("/x/file.txt"))
	assert.False(t, IsHidden("."))
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func TestFeedQueueGroupsBufferedPaths(t *testing.T) {
	paths := make(chan string, 4)
	paths <- "/in/a.txt"
	paths <- "/in/b.pdf"
	close(paths)

	q := &recordingQueue{}
	FeedQueue(context.Background(), paths, q, nil)

	require.Len(t, q.jobs, 1)
	batch := q.jobs[0].Batch
	assert.NotEmpty(t, batch.ID)
	require.Len(t, batch.Files, 2)
	assert.Equal(t, "a.txt", batch.Files[0].Name)
	assert.Equal(t, "/in/b.pdf", batch.Files[1].Path)
}

func TestWatcherInitialScanAndCreate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.txt"), "x")
	writeFile(t, filepath.Join(root, "ignored.md"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "existing.txt"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	created := filepath.Join(root, "new.docx")
	writeFile(t, created, "x")
	select {
	case p := <-events:
		assert.Equal(t, created, p)
	case <-time.After(5 * time.Second):
		t.Fatal("create event not emitted")
	}

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
