package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/joseph-ayodele/entity-extractor/db/ent/schema/utils"
)

// Feedback is a free-text note left by a user, optionally rated 1..5.
type Feedback struct{ ent.Schema }

func (Feedback) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "feedback"},
	}
}

func (Feedback) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").Immutable(),
		field.String("message").NotEmpty().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Int("rating").Optional().Nillable().
			Validate(utils.IntRangeValidator(1, 5)),
		field.Time("submitted_at").Default(time.Now),
	}
}

func (Feedback) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("submitted_at"),
	}
}
