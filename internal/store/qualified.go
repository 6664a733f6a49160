package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"leadharvest/internal/model"
)

// UpsertQualified inserts a qualified posting or, on a hash conflict, updates
// the mutable fields (score, reasons, flags, contact, 30-day count,
// qualified_at) while preserving row identity and created_at.
func (s *Store) UpsertQualified(q *model.QualifiedPosting) error {
	const stmt = `INSERT INTO qualified_jobs (
  job_hash, job_key, title, company_name, location_fmt_short, date_published,
  salary_text, job_url, apply_url, description_text, description_html,
  score, reasons, flags, company_30d_postings_count,
  hr_contact_name, hr_contact_title, hr_contact_email, hr_contact_linkedin,
  qualified_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (job_hash) DO UPDATE SET
  score = excluded.score,
  reasons = excluded.reasons,
  flags = excluded.flags,
  company_30d_postings_count = excluded.company_30d_postings_count,
  hr_contact_name = excluded.hr_contact_name,
  hr_contact_title = excluded.hr_contact_title,
  hr_contact_email = excluded.hr_contact_email,
  hr_contact_linkedin = excluded.hr_contact_linkedin,
  qualified_at = excluded.qualified_at`

	qualifiedAt := q.QualifiedAt
	if qualifiedAt.IsZero() {
		qualifiedAt = time.Now().UTC()
	}

	_, err := s.exec(stmt,
		q.JobHash, q.JobKey, q.Title, q.CompanyName, q.LocationFmtShort, tsValue(q.DatePublished),
		q.SalaryText, q.JobURL, q.ApplyURL, q.DescriptionText, q.DescriptionHTML,
		q.Score, jsonValue(q.Reasons), jsonValue(q.Flags), q.Company30dPostings,
		q.HRContactName, q.HRContactTitle, q.HRContactEmail, q.HRContactLinkedIn,
		tsValue(&qualifiedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting qualified posting %s: %w", q.JobHash, err)
	}
	return nil
}

// ListQualified returns qualified postings with score >= minScore, best score
// first, for the read API and the downstream sync.
func (s *Store) ListQualified(minScore, limit, offset int) ([]model.QualifiedPosting, error) {
	const q = `SELECT
  job_hash, job_key, title, company_name, location_fmt_short, date_published,
  salary_text, job_url, apply_url, description_text,
  score, reasons, flags, company_30d_postings_count,
  hr_contact_name, hr_contact_title, hr_contact_email, hr_contact_linkedin,
  qualified_at
FROM qualified_jobs
WHERE score >= ?
ORDER BY score DESC, date_published DESC
LIMIT ? OFFSET ?`

	rows, err := s.query(q, minScore, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying qualified postings: %w", err)
	}
	defer rows.Close()

	var postings []model.QualifiedPosting
	for rows.Next() {
		var p model.QualifiedPosting
		var published, qualifiedAt any
		var reasons, flags string
		var locShort, salaryText, jobURL, applyURL, descText *string
		var name, title, email, linkedin *string
		if err := rows.Scan(
			&p.JobHash, &p.JobKey, &p.Title, &p.CompanyName, &locShort, &published,
			&salaryText, &jobURL, &applyURL, &descText,
			&p.Score, &reasons, &flags, &p.Company30dPostings,
			&name, &title, &email, &linkedin,
			&qualifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning qualified posting: %w", err)
		}
		p.LocationFmtShort = deref(locShort)
		p.SalaryText = deref(salaryText)
		p.JobURL = deref(jobURL)
		p.ApplyURL = deref(applyURL)
		p.DescriptionText = deref(descText)
		p.HRContactName = deref(name)
		p.HRContactTitle = deref(title)
		p.HRContactEmail = deref(email)
		p.HRContactLinkedIn = deref(linkedin)
		p.DatePublished = parseTimeValue(published)
		if t := parseTimeValue(qualifiedAt); t != nil {
			p.QualifiedAt = *t
		}
		p.Reasons = decodeStringSlice(reasons)
		if err := json.Unmarshal([]byte(flags), &p.Flags); err != nil {
			p.Flags = model.QualificationFlags{}
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating qualified postings: %w", err)
	}
	return postings, nil
}

// HasQualified reports whether a qualified row exists for the hash.
func (s *Store) HasQualified(hash string) (bool, error) {
	var exists int
	err := s.queryRow("SELECT 1 FROM qualified_jobs WHERE job_hash = ?", hash).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking qualified status for %s: %w", hash, err)
	}
	return true, nil
}
