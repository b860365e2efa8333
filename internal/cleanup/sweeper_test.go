package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(p, mtime, mtime))
	return p
}

func TestSweepOnce(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	expiredXLSX := touch(t, dir, "batch.xlsx", old)
	expiredCSV := touch(t, dir, "batch.CSV", old)
	freshJSON := touch(t, dir, "fresh.json", now.Add(-time.Minute))
	oldOther := touch(t, dir, "keep.log", old)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.json"), 0o755))

	s := NewSweeper(dir, time.Hour, time.Minute, nil)
	n, err := s.SweepOnce(now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoFileExists(t, expiredXLSX)
	assert.NoFileExists(t, expiredCSV)
	assert.FileExists(t, freshJSON)
	assert.FileExists(t, oldOther)
	assert.DirExists(t, filepath.Join(dir, "old.json"))
}

func TestSweepOnceMissingDir(t *testing.T) {
	s := NewSweeper(filepath.Join(t.TempDir(), "nope"), 0, 0, nil)
	n, err := s.SweepOnce(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "a.txt", time.Now().Add(-3*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewSweeper(dir, time.Hour, 10*time.Millisecond, nil).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(p)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
