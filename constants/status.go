package constants

// FileStatus is the per-file outcome inside an upload batch.
type FileStatus string

// Stable values (stored in batch outcomes and logs).
const (
	FileStatusProcessed   FileStatus = "PROCESSED"
	FileStatusEmpty       FileStatus = "SKIPPED_EMPTY"       // zero-byte upload
	FileStatusUnsupported FileStatus = "SKIPPED_UNSUPPORTED" // extension or content type rejected
	FileStatusFailed      FileStatus = "FAILED"              // read, extract or decode error
)
