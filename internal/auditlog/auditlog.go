package auditlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	lockRetry       = 50 * time.Millisecond
)

var header = []string{"Timestamp", "Filename", "Names", "Emails", "Organizations"}

// Entry is one processed file.
type Entry struct {
	Time     time.Time
	Filename string
	Names    int
	Emails   int
	Orgs     int
}

// Logger appends entries to extractions_YYYY-MM-DD.csv under Dir. The header
// is written once, when the day's file is created. Appends are serialized
// in-process and across processes with a lock file.
type Logger struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

func New(dir string, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{dir: dir, now: time.Now, logger: logger}
}

// PathFor returns the log file that entries stamped t are written to.
func (l *Logger) PathFor(t time.Time) string {
	return filepath.Join(l.dir, "extractions_"+t.Format(dateLayout)+".csv")
}

// Append writes e. A zero e.Time is stamped with the current time.
func (l *Logger) Append(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("audit log dir: %w", err)
	}
	path := l.PathFor(e.Time)

	l.mu.Lock()
	defer l.mu.Unlock()

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("audit log lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("audit log lock: not acquired")
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			l.logger.Warn("auditlog.unlock_failed", "path", path, "error", err)
		}
	}()

	newFile := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		newFile = true
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if newFile {
		_ = w.Write(header)
	}
	_ = w.Write([]string{
		e.Time.Format(timestampLayout),
		e.Filename,
		strconv.Itoa(e.Names),
		strconv.Itoa(e.Emails),
		strconv.Itoa(e.Orgs),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("audit log encode: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit log open: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("audit log write: %w", err)
	}

	l.logger.Debug("auditlog.append", "path", path, "filename", e.Filename)
	return nil
}
