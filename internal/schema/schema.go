// Package schema describes the job tables in a backend-neutral form.
// Each dialect renders the logical column types into its own DDL.
package schema

import "strings"

// ColumnType is a logical column type, mapped to a native type by each dialect.
type ColumnType int

const (
	// TypeID holds a textual UUID (36 characters).
	TypeID ColumnType = iota
	// TypeName holds short identifiers such as job types and statuses.
	TypeName
	// TypeText holds unbounded text (payloads, results, error messages).
	TypeText
	// TypeInt holds 32-bit integers.
	TypeInt
	// TypeTimestamp holds a point in time, stored as UTC.
	TypeTimestamp
	// TypeBool holds a flag.
	TypeBool
)

// String returns the logical type name
func (t ColumnType) String() string {
	switch t {
	case TypeID:
		return "id"
	case TypeName:
		return "name"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeTimestamp:
		return "timestamp"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Renderer renders identifiers and logical types in a backend's SQL dialect.
type Renderer interface {
	QuoteIdentifier(name string) string
	ColumnType(t ColumnType) string
}

// Column is a single column definition.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table is a table model: its columns, its single-column primary key and,
// for archive tables, the timestamp column that decides the month partition.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey string
	DateColumn string
}

// ColumnDefs renders one definition per column, without any key clause.
func (t Table) ColumnDefs(r Renderer) []string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := r.QuoteIdentifier(c.Name) + " " + r.ColumnType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return defs
}

// PrimaryKeyDef renders the model's own single-column primary key clause.
func (t Table) PrimaryKeyDef(r Renderer) string {
	return "PRIMARY KEY (" + r.QuoteIdentifier(t.PrimaryKey) + ")"
}

// Body renders the parenthesised column list including the primary key.
func (t Table) Body(r Renderer) string {
	defs := append(t.ColumnDefs(r), t.PrimaryKeyDef(r))
	return "(\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

// HasColumn reports whether the table defines the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Jobs is the live job-state table.
var Jobs = Table{
	Name: "jobs",
	Columns: []Column{
		{Name: "id", Type: TypeID},
		{Name: "type", Type: TypeName},
		{Name: "status", Type: TypeName},
		{Name: "payload", Type: TypeText},
		{Name: "retry_count", Type: TypeInt},
		{Name: "max_retries", Type: TypeInt},
		{Name: "timeout_seconds", Type: TypeInt},
		{Name: "locked_by", Type: TypeName, Nullable: true},
		{Name: "locked_until", Type: TypeTimestamp, Nullable: true},
		{Name: "available_at", Type: TypeTimestamp},
		{Name: "created_at", Type: TypeTimestamp},
		{Name: "updated_at", Type: TypeTimestamp},
	},
	PrimaryKey: "id",
}

// JobsCompleted archives successfully finished jobs.
var JobsCompleted = Table{
	Name: "jobs_completed",
	Columns: []Column{
		{Name: "id", Type: TypeID},
		{Name: "type", Type: TypeName},
		{Name: "payload", Type: TypeText},
		{Name: "result", Type: TypeText},
		{Name: "retry_count", Type: TypeInt},
		{Name: "created_at", Type: TypeTimestamp},
		{Name: "completed_at", Type: TypeTimestamp},
	},
	PrimaryKey: "id",
	DateColumn: "created_at",
}

// JobsFailed archives jobs that exhausted their retries.
var JobsFailed = Table{
	Name: "jobs_failed",
	Columns: []Column{
		{Name: "id", Type: TypeID},
		{Name: "type", Type: TypeName},
		{Name: "payload", Type: TypeText},
		{Name: "error_message", Type: TypeText},
		{Name: "retry_count", Type: TypeInt},
		{Name: "created_at", Type: TypeTimestamp},
		{Name: "failed_at", Type: TypeTimestamp},
	},
	PrimaryKey: "id",
	DateColumn: "created_at",
}

// JobSummaries holds per-type, per-day outcome counters.
var JobSummaries = Table{
	Name: "job_summaries",
	Columns: []Column{
		{Name: "id", Type: TypeID},
		{Name: "type", Type: TypeName},
		{Name: "day", Type: TypeName},
		{Name: "completed_count", Type: TypeInt},
		{Name: "failed_count", Type: TypeInt},
		{Name: "updated_at", Type: TypeTimestamp},
	},
	PrimaryKey: "id",
}

// ScheduledTasks holds recurring task definitions.
var ScheduledTasks = Table{
	Name: "scheduled_tasks",
	Columns: []Column{
		{Name: "id", Type: TypeID},
		{Name: "name", Type: TypeName},
		{Name: "schedule", Type: TypeName},
		{Name: "payload", Type: TypeText},
		{Name: "enabled", Type: TypeBool},
		{Name: "next_run", Type: TypeTimestamp, Nullable: true},
		{Name: "last_run", Type: TypeTimestamp, Nullable: true},
		{Name: "created_at", Type: TypeTimestamp},
	},
	PrimaryKey: "id",
}

// LiveTables returns the non-partitioned tables in creation order.
func LiveTables() []Table {
	return []Table{Jobs, JobSummaries, ScheduledTasks}
}

// ArchiveTables returns one table per archive kind (completed, failed).
func ArchiveTables() []Table {
	return []Table{JobsCompleted, JobsFailed}
}
