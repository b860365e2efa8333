package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/internal/auditlog"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
	"github.com/joseph-ayodele/entity-extractor/internal/export"
	"github.com/joseph-ayodele/entity-extractor/internal/extract"
	"github.com/joseph-ayodele/entity-extractor/internal/metrics"
	"github.com/joseph-ayodele/entity-extractor/internal/report"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
)

// exportFormats are written for every batch, in this order.
var exportFormats = []string{constants.FormatXLSX, constants.FormatCSV}

// Processor coordinates text reading, entity extraction, reporting and
// export for one batch at a time. Audit and Logs are optional.
type Processor struct {
	reader    TextReader
	extractor extract.Extractor
	exporter  *export.Exporter
	audit     AuditAppender
	logs      repository.ExtractionLogRepository
	outputDir string
	logger    *slog.Logger
}

type Option func(*Processor)

func WithAudit(a AuditAppender) Option {
	return func(p *Processor) { p.audit = a }
}

func WithExtractionLogs(r repository.ExtractionLogRepository) Option {
	return func(p *Processor) { p.logs = r }
}

func NewProcessor(reader TextReader, extractor extract.Extractor, exporter *export.Exporter, outputDir string, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		reader:    reader,
		extractor: extractor,
		exporter:  exporter,
		outputDir: outputDir,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputDir is where exports and summaries are written.
func (p *Processor) OutputDir() string { return p.outputDir }

// ProcessBatch runs every file of b through the pipeline. Files that are
// unsupported, empty or fail are skipped and reported in the outcome. When no
// file yields a row the batch fails with ErrEmptyBatch and nothing is written.
func (p *Processor) ProcessBatch(ctx context.Context, b Batch) (*BatchOutcome, error) {
	start := time.Now()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	ctx = common.WithBatchID(ctx, b.ID)
	log := common.LoggerFromContext(ctx, p.logger).With("batch_id", b.ID)
	timer := prometheus.NewTimer(metrics.BatchDuration.WithLabelValues(p.extractor.Source()))
	defer timer.ObserveDuration()

	out := &BatchOutcome{
		BatchID:   b.ID,
		Files:     make([]FileResult, 0, len(b.Files)),
		Downloads: map[string]string{},
	}
	rows := make([]report.ExtractionRow, 0, len(b.Files))

	log.Info("pipeline.batch.start", "files", len(b.Files))
	for _, f := range b.Files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		row, res := p.processFile(ctx, log, f)
		out.Files = append(out.Files, res)
		metrics.FilesTotal.WithLabelValues(string(res.Status)).Inc()
		if row == nil {
			continue
		}
		rows = append(rows, *row)
		p.record(ctx, log, b, *row)
	}

	if len(rows) == 0 {
		log.Warn("pipeline.batch.empty", "files", len(b.Files))
		return out, common.NewAppError(common.CodeEmptyBatch, "no valid files were processed", common.ErrEmptyBatch)
	}

	out.Summary = report.Summarize(rows, len(b.Files))
	metrics.EntitiesTotal.WithLabelValues("PERSON").Add(float64(out.Summary.NamesExtracted))
	metrics.EntitiesTotal.WithLabelValues("EMAIL").Add(float64(out.Summary.EmailsExtracted))
	metrics.EntitiesTotal.WithLabelValues("ORG").Add(float64(out.Summary.OrgsExtracted))

	records := report.Records(rows)
	for _, format := range exportFormats {
		name := b.ID + "." + format
		if err := p.exporter.Export(records, filepath.Join(p.outputDir, name), format); err != nil {
			metrics.ExportErrors.WithLabelValues(format).Inc()
			log.Error("pipeline.export.failed", "format", format, "error", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("%s export failed: %s", format, common.UserMessage(err)))
			continue
		}
		out.Downloads[format] = name
	}
	if err := p.exporter.WriteSummary(SummaryPath(p.outputDir, b.ID), out.Summary); err != nil {
		log.Error("pipeline.summary.failed", "error", err)
		return out, err
	}

	log.Info("pipeline.batch.ok",
		"files", len(b.Files),
		"rows", len(rows),
		"names", out.Summary.NamesExtracted,
		"emails", out.Summary.EmailsExtracted,
		"orgs", out.Summary.OrgsExtracted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) processFile(ctx context.Context, log *slog.Logger, f File) (*report.ExtractionRow, FileResult) {
	res := FileResult{Filename: filepath.Base(f.Name)}
	status, err := admit(f)
	if status != "" {
		res.Status = status
		if err != nil {
			res.Error = common.UserMessage(err)
		}
		log.Warn("pipeline.file.skipped", "filename", res.Filename, "status", status)
		return nil, res
	}

	text, err := p.readText(ctx, f)
	if err != nil {
		return nil, p.failed(log, res, "read", err)
	}
	extracted, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return nil, p.failed(log, res, "extract", err)
	}
	row := report.BuildRow(extracted, f.Name, "", log)

	res.Status = constants.FileStatusProcessed
	log.Info("pipeline.file.ok", "filename", res.Filename, "source", row.ModelSource, "text_len", len(text))
	return &row, res
}

func (p *Processor) failed(log *slog.Logger, res FileResult, stage string, err error) FileResult {
	res.Status = constants.FileStatusFailed
	res.Error = common.UserMessage(err)
	if errors.Is(err, common.ErrUnsupportedFileType) {
		res.Status = constants.FileStatusUnsupported
	}
	log.Error("pipeline.file.failed", "filename", res.Filename, "stage", stage, "error", err)
	return res
}

// record writes the audit line and the database log for a processed file.
// Failures are logged and do not affect the batch.
func (p *Processor) record(ctx context.Context, log *slog.Logger, b Batch, row report.ExtractionRow) {
	names := len(report.SplitField(row.Names))
	emails := len(report.SplitField(row.Emails))
	orgs := len(report.SplitField(row.Organizations))

	if p.audit != nil {
		if err := p.audit.Append(ctx, auditlog.Entry{Filename: row.Filename, Names: names, Emails: emails, Orgs: orgs}); err != nil {
			log.Error("pipeline.audit.failed", "filename", row.Filename, "error", err)
		}
	}
	if p.logs == nil {
		return
	}
	entry := &entity.ExtractionLog{
		BatchID:     b.ID,
		Filename:    row.Filename,
		SourceType:  row.SourceType,
		NameCount:   names,
		EmailCount:  emails,
		OrgCount:    orgs,
		ModelSource: row.ModelSource,
	}
	if b.UserIP != "" {
		ip := b.UserIP
		entry.UserIP = &ip
	}
	if _, err := p.logs.Create(ctx, entry); err != nil {
		log.Error("pipeline.db_log.failed", "filename", row.Filename, "error", err)
	}
}

// SummaryPath is where a batch's summary JSON lives.
func SummaryPath(outputDir, batchID string) string {
	return filepath.Join(outputDir, batchID+".json")
}

// LoadSummary reads a stored batch summary. Unknown or malformed batch IDs
// are ErrNotFound.
func (p *Processor) LoadSummary(batchID string) (report.BatchSummary, error) {
	var s report.BatchSummary
	if _, err := uuid.Parse(batchID); err != nil {
		return s, common.NewAppError(common.CodeNotFound, "batch not found", common.ErrNotFound)
	}
	if err := export.ReadSummary(SummaryPath(p.outputDir, batchID), &s); err != nil {
		return s, err
	}
	return s, nil
}
