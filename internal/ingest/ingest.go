package ingest

// FileResult is the per-file outcome of a directory walk.
type FileResult struct {
	Path         string
	HashHex      string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory walk.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
