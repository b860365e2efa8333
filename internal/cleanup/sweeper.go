package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/metrics"
)

const (
	DefaultExpiry   = time.Hour
	DefaultInterval = 10 * time.Minute
)

// Sweeper deletes generated files older than Expiry from one directory.
// Only regular files directly in Dir with a known suffix are considered.
type Sweeper struct {
	dir      string
	expiry   time.Duration
	interval time.Duration
	suffixes mapset.Set[string]
	logger   *slog.Logger
}

func NewSweeper(dir string, expiry, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		dir:      dir,
		expiry:   expiry,
		interval: interval,
		suffixes: mapset.NewSet(constants.OutputSuffixes...),
		logger:   logger,
	}
}

// SweepOnce removes expired files as of now and returns how many went.
// Files that vanish or cannot be removed are logged and skipped.
func (s *Sweeper) SweepOnce(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !s.suffixes.Contains(strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.expiry {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("cleanup.remove_failed", "path", path, "error", err)
			continue
		}
		s.logger.Info("cleanup.removed", "file", e.Name(), "age", now.Sub(info.ModTime()).Round(time.Second).String())
		removed++
	}
	metrics.CleanupRemoved.Add(float64(removed))
	return removed, nil
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("cleanup.start", "dir", s.dir, "expiry", s.expiry.String(), "interval", s.interval.String())
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.SweepOnce(time.Now()); err != nil {
			s.logger.Error("cleanup.sweep_failed", "dir", s.dir, "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup.stop")
			return
		case <-t.C:
		}
	}
}
