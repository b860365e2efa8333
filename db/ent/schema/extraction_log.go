package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/joseph-ayodele/entity-extractor/constants"
	"github.com/joseph-ayodele/entity-extractor/db/ent/schema/utils"
)

// ExtractionLog is one processed file of an upload batch.
type ExtractionLog struct{ ent.Schema }

func (ExtractionLog) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extraction_logs"},
	}
}

func (ExtractionLog) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").Immutable(),
		field.String("batch_id").NotEmpty().
			Validate(utils.UUIDValidator()),
		field.String("filename").NotEmpty().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.String("source_type").
			Validate(utils.EnumValidator(constants.SourceTypes()...)),
		field.Time("upload_time").Default(time.Now),
		field.Int("name_count").Default(0).NonNegative(),
		field.Int("email_count").Default(0).NonNegative(),
		field.Int("org_count").Default(0).NonNegative(),
		field.String("model_source").NotEmpty(),
		field.String("user_ip").Optional().Nillable(),
	}
}

func (ExtractionLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("batch_id"),
		index.Fields("upload_time"),
	}
}
