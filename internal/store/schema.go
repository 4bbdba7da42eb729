package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// CredentialsColumns holds the columns for the "credentials" table.
	// The table holds at most one row (id = 1).
	CredentialsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "token", Type: field.TypeString, Size: 2147483647},
		{Name: "email", Type: field.TypeString},
		{Name: "api_url", Type: field.TypeString},
		{Name: "saved_at", Type: field.TypeTime},
	}
	// CredentialsTable holds the schema information for the "credentials" table.
	CredentialsTable = &schema.Table{
		Name:       "credentials",
		Columns:    CredentialsColumns,
		PrimaryKey: []*schema.Column{CredentialsColumns[0]},
	}

	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "student_id", Type: field.TypeString},
		{Name: "step", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt, Default: 0},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "score", Type: field.TypeInt, Nullable: true},
		{Name: "certified_level", Type: field.TypeString, Nullable: true},
		{Name: "answered", Type: field.TypeInt, Default: 0},
		{Name: "forced", Type: field.TypeBool, Default: false},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	AttemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "attempt_assessment_id",
				Unique:  true,
				Columns: []*schema.Column{AttemptsColumns[1]},
			},
			{
				Name:    "attempt_started_at",
				Unique:  false,
				Columns: []*schema.Column{AttemptsColumns[5]},
			},
		},
	}

	// LlmRequestsColumns holds the columns for the "llm_requests" table.
	LlmRequestsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Nullable: true},
	}
	// LlmRequestsTable holds the schema information for the "llm_requests" table.
	LlmRequestsTable = &schema.Table{
		Name:       "llm_requests",
		Columns:    LlmRequestsColumns,
		PrimaryKey: []*schema.Column{LlmRequestsColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		CredentialsTable,
		AttemptsTable,
		LlmRequestsTable,
	}
)
