package store

import (
	"fmt"
	"strings"

	"leadharvest/internal/schema"
)

// columnType maps an inferred field type to a column type for the dialect.
func columnType(dialect string, t schema.FieldType) string {
	if dialect == DialectPostgres {
		switch t {
		case schema.TypeNumeric:
			return "NUMERIC"
		case schema.TypeBoolean:
			return "BOOLEAN"
		case schema.TypeTimestamp:
			return "TIMESTAMPTZ"
		case schema.TypeJSON:
			return "JSONB"
		default:
			return "TEXT"
		}
	}
	switch t {
	case schema.TypeNumeric:
		return "REAL"
	case schema.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// DiscoveredDDL generates a CREATE TABLE statement for the raw table from an
// inferred descriptor. Dotted field paths become underscore column names.
func (s *Store) DiscoveredDDL(desc schema.Descriptor) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS raw_jobs (\n")
	if s.dialect == DialectPostgres {
		b.WriteString("  id BIGSERIAL PRIMARY KEY,\n")
	} else {
		b.WriteString("  id INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	}
	b.WriteString("  job_hash TEXT NOT NULL UNIQUE,\n")

	for _, field := range desc.Fields() {
		col := columnName(field)
		if col == "id" || col == "job_hash" || col == "created_at" {
			continue
		}
		fmt.Fprintf(&b, "  %s %s,\n", col, columnType(s.dialect, desc[field]))
	}

	b.WriteString("  source_payload TEXT,\n")
	b.WriteString("  created_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)\n")
	b.WriteString(")")
	return b.String()
}

// CreateRawTable executes the discovered-schema DDL. Discovery mode only;
// no data is written.
func (s *Store) CreateRawTable(desc schema.Descriptor) error {
	if _, err := s.db.Exec(s.DiscoveredDDL(desc)); err != nil {
		return fmt.Errorf("creating raw_jobs from discovered schema: %w", err)
	}
	return nil
}

// columnName sanitizes a flattened field path into a column identifier.
func columnName(field string) string {
	return strings.ToLower(strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(field))
}

// rawDDL is the fixed comprehensive raw_jobs table used by ingestion.
// Timestamps are RFC3339 text in both dialects (see tsValue).
func (s *Store) rawDDL() []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	boolean := "INTEGER"
	numeric := "REAL"
	if s.dialect == DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
		boolean = "BOOLEAN"
		numeric = "NUMERIC"
	}

	table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS raw_jobs (
  id %s,
  job_hash TEXT NOT NULL UNIQUE,
  job_key TEXT,
  provider_id TEXT,
  title TEXT,
  company_name TEXT,
  company_url TEXT,
  company_logo_url TEXT,
  description_html TEXT,
  description_text TEXT,
  job_types TEXT,
  job_type_primary TEXT,
  location_city TEXT,
  location_postal_code TEXT,
  location_country TEXT,
  location_country_code TEXT,
  location_fmt_long TEXT,
  location_fmt_short TEXT,
  location_latitude %[3]s,
  location_longitude %[3]s,
  location_street_address TEXT,
  location_full_address TEXT,
  salary_currency TEXT,
  salary_min %[3]s,
  salary_max %[3]s,
  salary_source TEXT,
  salary_text TEXT,
  salary_type TEXT,
  rating_value %[3]s,
  rating_count %[3]s,
  benefits TEXT,
  occupations TEXT,
  attributes TEXT,
  shift_and_schedule TEXT,
  posted_today %[2]s,
  is_high_volume_hiring %[2]s,
  is_urgent_hire %[2]s,
  expired %[2]s,
  is_remote %[2]s,
  date_published_raw TEXT,
  date_published TEXT,
  source_name TEXT,
  age_text TEXT,
  locale TEXT,
  language TEXT,
  job_url TEXT,
  apply_url TEXT,
  company_num_employees TEXT,
  company_revenue TEXT,
  company_industry TEXT,
  company_description TEXT,
  source_payload TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
)`, serial, boolean, numeric)

	return []string{
		table,
		"CREATE INDEX IF NOT EXISTS idx_raw_jobs_company ON raw_jobs (company_name)",
		"CREATE INDEX IF NOT EXISTS idx_raw_jobs_published ON raw_jobs (date_published DESC)",
	}
}

func (s *Store) qualifiedDDL() []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS qualified_jobs (
  id %s,
  job_hash TEXT NOT NULL UNIQUE,
  job_key TEXT,
  title TEXT,
  company_name TEXT,
  location_fmt_short TEXT,
  date_published TEXT,
  salary_text TEXT,
  job_url TEXT,
  apply_url TEXT,
  description_text TEXT,
  description_html TEXT,
  score INTEGER NOT NULL,
  reasons TEXT NOT NULL,
  flags TEXT NOT NULL,
  company_30d_postings_count INTEGER NOT NULL,
  hr_contact_name TEXT,
  hr_contact_title TEXT,
  hr_contact_email TEXT,
  hr_contact_linkedin TEXT,
  qualified_at TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
)`, serial)

	return []string{
		table,
		"CREATE INDEX IF NOT EXISTS idx_qualified_jobs_score ON qualified_jobs (score DESC)",
		"CREATE INDEX IF NOT EXISTS idx_qualified_jobs_company_count ON qualified_jobs (company_30d_postings_count DESC)",
	}
}

// EnsureTables creates the fixed raw and qualified tables and their indexes.
func (s *Store) EnsureTables() error {
	for _, stmt := range append(s.rawDDL(), s.qualifiedDDL()...) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensuring tables: %w", err)
		}
	}
	return nil
}
