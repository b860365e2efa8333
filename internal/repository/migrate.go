package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent"
	sqlannotation "entgo.io/ent/dialect/entsql"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	entschema "github.com/joseph-ayodele/entity-extractor/db/ent/schema"
	"github.com/joseph-ayodele/entity-extractor/internal/common"
)

var (
	extractionLogSchema ent.Interface = entschema.ExtractionLog{}
	feedbackSchema      ent.Interface = entschema.Feedback{}

	// ExtractionLogsTable and FeedbackTable are built from the ent schema
	// definitions so the migrator and the validators share one source.
	ExtractionLogsTable = tableFromSchema(extractionLogSchema)
	FeedbackTable       = tableFromSchema(feedbackSchema)
)

// Tables returns every table the service owns.
func Tables() []*schema.Table {
	return []*schema.Table{ExtractionLogsTable, FeedbackTable}
}

// Migrate creates missing tables, columns and indexes. It never drops.
func Migrate(ctx context.Context, drv *entsql.Driver, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("%w: new migrate: %v", common.ErrDatabase, err)
	}
	if err := m.Create(ctx, Tables()...); err != nil {
		logger.Error("db.migrate.failed", "error", err)
		return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
	}
	logger.Info("db.migrate.ok", "tables", len(Tables()))
	return nil
}

func tableName(s ent.Interface) string {
	for _, a := range s.Annotations() {
		if ann, ok := a.(sqlannotation.Annotation); ok && ann.Table != "" {
			return ann.Table
		}
	}
	return strings.ToLower(fmt.Sprintf("%T", s))
}

func tableFromSchema(s ent.Interface) *schema.Table {
	t := schema.NewTable(tableName(s))
	for _, f := range s.Fields() {
		d := f.Descriptor()
		col := &schema.Column{
			Name:       columnName(d.Name, d.StorageKey),
			Type:       d.Info.Type,
			SchemaType: d.SchemaType,
			Size:       int64(d.Size),
			Unique:     d.Unique,
			Nullable:   d.Optional,
		}
		if col.Name == "id" {
			col.Increment = true
			t.AddPrimary(col)
			continue
		}
		t.AddColumn(col)
	}
	for _, idx := range s.Indexes() {
		d := idx.Descriptor()
		t.AddIndex(t.Name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t
}

func columnName(name, storageKey string) string {
	if storageKey != "" {
		return storageKey
	}
	return name
}

// validateFields runs the ent field validators against values keyed by
// column name. Nil values are skipped, as are columns without validators.
func validateFields(s ent.Interface, values map[string]any) error {
	v := common.NewValidator()
	for _, f := range s.Fields() {
		d := f.Descriptor()
		val, ok := values[columnName(d.Name, d.StorageKey)]
		if !ok || val == nil {
			continue
		}
		if p, isPtr := val.(*int); isPtr {
			if p == nil {
				continue
			}
			val = *p
		}
		if p, isPtr := val.(*string); isPtr {
			if p == nil {
				continue
			}
			val = *p
		}
		for _, fn := range d.Validators {
			var err error
			switch fn := fn.(type) {
			case func(string) error:
				if sv, ok := val.(string); ok {
					err = fn(sv)
				}
			case func(int) error:
				if iv, ok := val.(int); ok {
					err = fn(iv)
				}
			}
			if err != nil {
				v.Field(d.Name, val, func(name string, value interface{}) *common.ValidationError {
					return &common.ValidationError{Field: name, Value: value, Message: err.Error()}
				})
				break
			}
		}
	}
	return v.Error()
}
