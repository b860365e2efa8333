package pipeline

import (
	"context"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/auditlog"
	"github.com/joseph-ayodele/entity-extractor/internal/report"
	"github.com/joseph-ayodele/entity-extractor/internal/textract"
)

// TextReader is stage 1: document -> text.
type TextReader interface {
	Read(ctx context.Context, path string) (textract.Result, error)
	ReadBytes(ctx context.Context, name string, data []byte) (textract.Result, error)
}

// AuditAppender records one processed file in the daily audit log.
type AuditAppender interface {
	Append(ctx context.Context, e auditlog.Entry) error
}

// File is one uploaded document. Data wins over Path when both are set.
type File struct {
	Name        string
	ContentType string
	Path        string
	Data        []byte
}

// Batch is a set of files processed and exported together.
type Batch struct {
	ID     string
	Files  []File
	UserIP string
}

// FileResult is the outcome of one file of a batch.
type FileResult struct {
	Filename string               `json:"filename"`
	Status   constants.FileStatus `json:"status"`
	Error    string               `json:"error,omitempty"`
}

// BatchOutcome is what a processed batch produced. Downloads maps an export
// format to the generated file name under the output directory.
type BatchOutcome struct {
	BatchID   string              `json:"batch_id"`
	Summary   report.BatchSummary `json:"summary"`
	Files     []FileResult        `json:"files"`
	Downloads map[string]string   `json:"downloads"`
	Warnings  []string            `json:"warnings,omitempty"`
}
