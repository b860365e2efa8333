package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/entity"
)

var extractionLogColumns = []string{
	"id", "batch_id", "filename", "source_type", "upload_time",
	"name_count", "email_count", "org_count", "model_source", "user_ip",
}

type ExtractionLogRepository interface {
	Create(ctx context.Context, log *entity.ExtractionLog) (*entity.ExtractionLog, error)
	// List returns one page, newest first, and the total row count.
	List(ctx context.Context, page, pageSize int) ([]*entity.ExtractionLog, int, error)
	ListByBatch(ctx context.Context, batchID string) ([]*entity.ExtractionLog, error)
}

type extractionLogRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewExtractionLogRepository(drv *entsql.Driver, logger *slog.Logger) ExtractionLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionLogRepository{
		drv:    drv,
		logger: logger,
		now:    time.Now,
	}
}

func (r *extractionLogRepository) Create(ctx context.Context, in *entity.ExtractionLog) (*entity.ExtractionLog, error) {
	out := *in
	if out.UploadTime.IsZero() {
		out.UploadTime = r.now().UTC()
	}
	values := map[string]any{
		"batch_id":     out.BatchID,
		"filename":     out.Filename,
		"source_type":  out.SourceType,
		"upload_time":  out.UploadTime,
		"name_count":   out.NameCount,
		"email_count":  out.EmailCount,
		"org_count":    out.OrgCount,
		"model_source": out.ModelSource,
		"user_ip":      out.UserIP,
	}
	if err := validateFields(extractionLogSchema, values); err != nil {
		return nil, err
	}

	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(ExtractionLogsTable.Name).
		Columns(extractionLogColumns[1:]...).
		Values(out.BatchID, out.Filename, out.SourceType, out.UploadTime,
			out.NameCount, out.EmailCount, out.OrgCount, out.ModelSource, out.UserIP).
		Returning("id").
		Query()

	id, err := insertReturningID(ctx, r.drv, q, args)
	if err != nil {
		r.logger.Error("db.extraction_log.create_failed", "filename", out.Filename, "error", err)
		return nil, err
	}
	out.ID = id
	r.logger.Debug("db.extraction_log.created", "id", id, "batch_id", out.BatchID, "filename", out.Filename)
	return &out, nil
}

func (r *extractionLogRepository) List(ctx context.Context, page, pageSize int) ([]*entity.ExtractionLog, int, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, common.NewAppError(common.CodeValidation, "page and page_size must be positive", common.ErrValidation)
	}
	b := entsql.Dialect(r.drv.Dialect())

	total, err := count(ctx, r.drv, b.Select(entsql.Count("*")).From(b.Table(ExtractionLogsTable.Name)))
	if err != nil {
		return nil, 0, err
	}

	sel := b.Select(extractionLogColumns...).
		From(b.Table(ExtractionLogsTable.Name)).
		OrderBy(entsql.Desc("upload_time"), entsql.Desc("id")).
		Limit(pageSize).
		Offset((page - 1) * pageSize)
	items, err := r.query(ctx, sel)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *extractionLogRepository) ListByBatch(ctx context.Context, batchID string) ([]*entity.ExtractionLog, error) {
	b := entsql.Dialect(r.drv.Dialect())
	sel := b.Select(extractionLogColumns...).
		From(b.Table(ExtractionLogsTable.Name)).
		Where(entsql.EQ("batch_id", batchID)).
		OrderBy(entsql.Asc("id"))
	return r.query(ctx, sel)
}

func (r *extractionLogRepository) query(ctx context.Context, sel *entsql.Selector) ([]*entity.ExtractionLog, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query extraction logs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ExtractionLog
	for rows.Next() {
		var (
			l  entity.ExtractionLog
			ip sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.BatchID, &l.Filename, &l.SourceType, &l.UploadTime,
			&l.NameCount, &l.EmailCount, &l.OrgCount, &l.ModelSource, &ip); err != nil {
			return nil, fmt.Errorf("%w: scan extraction log: %v", common.ErrDatabase, err)
		}
		if ip.Valid {
			l.UserIP = &ip.String
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate extraction logs: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func insertReturningID(ctx context.Context, drv *entsql.Driver, q string, args []any) (int, error) {
	var rows entsql.Rows
	if err := drv.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("%w: insert: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	id, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("%w: insert returning id: %v", common.ErrDatabase, err)
	}
	return id, nil
}

func count(ctx context.Context, drv *entsql.Driver, sel *entsql.Selector) (int, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := drv.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("%w: count: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", common.ErrDatabase, err)
	}
	return n, nil
}
