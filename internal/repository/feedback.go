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

const (
	SortSubmittedAt = "submitted_at"
	SortRating      = "rating"
	OrderAsc        = "asc"
	OrderDesc       = "desc"
)

var feedbackColumns = []string{"id", "message", "rating", "submitted_at"}

// ListFeedbackParams selects one page of feedback. Empty SortBy and Order
// default to submitted_at desc.
type ListFeedbackParams struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
}

func (p ListFeedbackParams) Validate() error {
	v := common.NewValidator()
	v.Field("page", p.Page, common.IntRange(1, 1<<31-1))
	v.Field("page_size", p.PageSize, common.IntRange(1, 100))
	if p.SortBy != "" {
		v.Field("sort_by", p.SortBy, common.OneOf(SortSubmittedAt, SortRating))
	}
	if p.Order != "" {
		v.Field("order", p.Order, common.OneOf(OrderAsc, OrderDesc))
	}
	return v.Error()
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *entity.Feedback) (*entity.Feedback, error)
	List(ctx context.Context, params ListFeedbackParams) ([]*entity.Feedback, int, error)
}

type feedbackRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewFeedbackRepository(drv *entsql.Driver, logger *slog.Logger) FeedbackRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &feedbackRepository{
		drv:    drv,
		logger: logger,
		now:    time.Now,
	}
}

func (r *feedbackRepository) Create(ctx context.Context, in *entity.Feedback) (*entity.Feedback, error) {
	out := *in
	if out.SubmittedAt.IsZero() {
		out.SubmittedAt = r.now().UTC()
	}
	if err := validateFields(feedbackSchema, map[string]any{
		"message": out.Message,
		"rating":  out.Rating,
	}); err != nil {
		return nil, err
	}

	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(FeedbackTable.Name).
		Columns(feedbackColumns[1:]...).
		Values(out.Message, out.Rating, out.SubmittedAt).
		Returning("id").
		Query()
	id, err := insertReturningID(ctx, r.drv, q, args)
	if err != nil {
		r.logger.Error("db.feedback.create_failed", "error", err)
		return nil, err
	}
	out.ID = id
	r.logger.Info("db.feedback.created", "id", id, "has_rating", out.Rating != nil)
	return &out, nil
}

func (r *feedbackRepository) List(ctx context.Context, p ListFeedbackParams) ([]*entity.Feedback, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	sortBy, order := p.SortBy, p.Order
	if sortBy == "" {
		sortBy = SortSubmittedAt
	}
	if order == "" {
		order = OrderDesc
	}
	orderFn := entsql.Desc
	if order == OrderAsc {
		orderFn = entsql.Asc
	}

	b := entsql.Dialect(r.drv.Dialect())
	total, err := count(ctx, r.drv, b.Select(entsql.Count("*")).From(b.Table(FeedbackTable.Name)))
	if err != nil {
		return nil, 0, err
	}

	q, args := b.Select(feedbackColumns...).
		From(b.Table(FeedbackTable.Name)).
		OrderBy(orderFn(sortBy), orderFn("id")).
		Limit(p.PageSize).
		Offset((p.Page - 1) * p.PageSize).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, 0, fmt.Errorf("%w: query feedback: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Feedback
	for rows.Next() {
		var (
			fb     entity.Feedback
			rating sql.NullInt64
		)
		if err := rows.Scan(&fb.ID, &fb.Message, &rating, &fb.SubmittedAt); err != nil {
			return nil, 0, fmt.Errorf("%w: scan feedback: %v", common.ErrDatabase, err)
		}
		if rating.Valid {
			n := int(rating.Int64)
			fb.Rating = &n
		}
		out = append(out, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterate feedback: %v", common.ErrDatabase, err)
	}
	return out, total, nil
}
