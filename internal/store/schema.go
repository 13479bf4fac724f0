package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	usersTable         = "users"
	quizzesTable       = "quizzes"
	collaboratorsTable = "quiz_collaborators"
	usageTable         = "generation_usage"
	llmEventsTable     = "llm_request_events"
	activityTable      = "activity_events"
)

// Timestamps are stored as unix milliseconds so range queries compare
// integers rather than driver-specific time strings.

var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "role", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	usersSchema = &schema.Table{
		Name:       usersTable,
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	quizzesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "description", Type: field.TypeString, Default: ""},
		{Name: "source", Type: field.TypeString},
		{Name: "file_name", Type: field.TypeString, Default: ""},
		{Name: "language", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "version", Type: field.TypeInt},
		{Name: "questions", Type: field.TypeJSON},
		{Name: "metadata", Type: field.TypeJSON},
		{Name: "statistics", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	quizzesSchema = &schema.Table{
		Name:       quizzesTable,
		Columns:    quizzesColumns,
		PrimaryKey: []*schema.Column{quizzesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "quizzes_user_created", Columns: []*schema.Column{quizzesColumns[1], quizzesColumns[12]}},
		},
	}

	collaboratorsColumns = []*schema.Column{
		{Name: "quiz_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	collaboratorsSchema = &schema.Table{
		Name:       collaboratorsTable,
		Columns:    collaboratorsColumns,
		PrimaryKey: []*schema.Column{collaboratorsColumns[0], collaboratorsColumns[1]},
	}

	usageColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "day", Type: field.TypeString},
		{Name: "count", Type: field.TypeInt, Default: 0},
	}
	usageSchema = &schema.Table{
		Name:       usageTable,
		Columns:    usageColumns,
		PrimaryKey: []*schema.Column{usageColumns[0], usageColumns[1]},
	}

	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "task_id", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmEventsSchema = &schema.Table{
		Name:       llmEventsTable,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_events_purpose", Columns: []*schema.Column{llmEventsColumns[4]}},
		},
	}

	activityColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "action", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "task_id", Type: field.TypeString, Default: ""},
		{Name: "quiz_id", Type: field.TypeString, Default: ""},
		{Name: "success", Type: field.TypeBool},
		{Name: "duration_ms", Type: field.TypeInt64, Default: 0},
		{Name: "details", Type: field.TypeString, Default: ""},
	}
	activitySchema = &schema.Table{
		Name:       activityTable,
		Columns:    activityColumns,
		PrimaryKey: []*schema.Column{activityColumns[0]},
		Indexes: []*schema.Index{
			{Name: "activity_user", Columns: []*schema.Column{activityColumns[3]}},
		},
	}

	tables = []*schema.Table{
		usersSchema,
		quizzesSchema,
		collaboratorsSchema,
		usageSchema,
		llmEventsSchema,
		activitySchema,
	}
)

// migrate creates or updates all tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, tables...)
}
