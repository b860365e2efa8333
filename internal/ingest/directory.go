package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
)

// CollectDirectory walks root and returns every supported document as a
// batch file. Files with identical content are kept once; hidden entries are
// skipped when skipHidden is set. Walk errors are recorded per path and do
// not stop the walk.
func CollectDirectory(ctx context.Context, root string, skipHidden bool) ([]pipeline.File, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		files   []pipeline.File
		results []FileResult
		stats   DirStats
		seen    = map[string]string{}
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		hex, err := hashFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		if first, dup := seen[hex]; dup {
			results = append(results, FileResult{Path: path, HashHex: hex, Deduplicated: true, Err: "duplicate of " + first})
			stats.Deduplicated++
			return nil
		}
		seen[hex] = path

		files = append(files, pipeline.File{Name: filepath.Base(path), Path: path})
		results = append(results, FileResult{Path: path, HashHex: hex})
		stats.Succeeded++
		return nil
	})

	if err != nil {
		return files, results, stats, fmt.Errorf("walk: %w", err)
	}
	return files, results, stats, nil
}
