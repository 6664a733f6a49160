package store

import (
	"fmt"
	"time"

	"leadharvest/internal/model"
)

// InsertRaw appends a posting unless its hash already exists. A hash conflict
// is a no-op and returns false.
func (s *Store) InsertRaw(p *model.RawPosting) (bool, error) {
	const q = `INSERT INTO raw_jobs (
  job_hash, job_key, provider_id, title, company_name, company_url, company_logo_url,
  description_html, description_text, job_types, job_type_primary,
  location_city, location_postal_code, location_country, location_country_code,
  location_fmt_long, location_fmt_short, location_latitude, location_longitude,
  location_street_address, location_full_address,
  salary_currency, salary_min, salary_max, salary_source, salary_text, salary_type,
  rating_value, rating_count,
  benefits, occupations, attributes, shift_and_schedule,
  posted_today, is_high_volume_hiring, is_urgent_hire, expired, is_remote,
  date_published_raw, date_published, source_name, age_text, locale, language,
  job_url, apply_url,
  company_num_employees, company_revenue, company_industry, company_description,
  source_payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (job_hash) DO NOTHING`

	res, err := s.exec(q,
		p.JobHash, p.JobKey, p.ProviderID, p.Title, p.CompanyName, p.CompanyURL, p.CompanyLogoURL,
		p.DescriptionHTML, p.DescriptionText, jsonValue(p.JobTypes), p.JobTypePrimary,
		p.LocationCity, p.LocationPostalCode, p.LocationCountry, p.LocationCountryCode,
		p.LocationFmtLong, p.LocationFmtShort, p.LocationLatitude, p.LocationLongitude,
		p.LocationStreetAddress, p.LocationFullAddress,
		p.SalaryCurrency, p.SalaryMin, p.SalaryMax, p.SalarySource, p.SalaryText, p.SalaryType,
		p.RatingValue, p.RatingCount,
		jsonValue(p.Benefits), jsonValue(p.Occupations), jsonValue(p.Attributes), jsonValue(p.ShiftAndSchedule),
		p.PostedToday, p.IsHighVolumeHiring, p.IsUrgentHire, p.Expired, p.IsRemote,
		p.DatePublishedRaw, tsValue(p.DatePublished), p.SourceName, p.AgeText, p.Locale, p.Language,
		p.JobURL, p.ApplyURL,
		p.CompanyNumEmployees, p.CompanyRevenue, p.CompanyIndustry, p.CompanyDescription,
		p.SourcePayload,
	)
	if err != nil {
		return false, fmt.Errorf("inserting raw posting %s: %w", p.JobHash, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting raw posting %s: %w", p.JobHash, err)
	}
	return n > 0, nil
}

// RawSince returns the qualification projection of postings published at or
// after the cutoff, newest-published first.
func (s *Store) RawSince(cutoff time.Time) ([]model.RawPosting, error) {
	const q = `SELECT
  job_hash, job_key, title, company_name, location_fmt_short, date_published,
  salary_text, job_url, apply_url, description_text, description_html,
  job_types, attributes, shift_and_schedule, is_remote
FROM raw_jobs
WHERE date_published >= ?
ORDER BY date_published DESC`

	rows, err := s.query(q, tsValue(&cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying raw postings: %w", err)
	}
	defer rows.Close()

	var postings []model.RawPosting
	for rows.Next() {
		var p model.RawPosting
		var published, jobTypes, attributes, shifts any
		var locShort, salaryText, jobURL, applyURL, descText, descHTML *string
		if err := rows.Scan(
			&p.JobHash, &p.JobKey, &p.Title, &p.CompanyName, &locShort, &published,
			&salaryText, &jobURL, &applyURL, &descText, &descHTML,
			&jobTypes, &attributes, &shifts, &p.IsRemote,
		); err != nil {
			return nil, fmt.Errorf("scanning raw posting: %w", err)
		}
		p.LocationFmtShort = deref(locShort)
		p.SalaryText = deref(salaryText)
		p.JobURL = deref(jobURL)
		p.ApplyURL = deref(applyURL)
		p.DescriptionText = deref(descText)
		p.DescriptionHTML = deref(descHTML)
		p.DatePublished = parseTimeValue(published)
		p.JobTypes = decodeStringSlice(textOf(jobTypes))
		p.Attributes = decodeStringSlice(textOf(attributes))
		p.ShiftAndSchedule = decodeStringSlice(textOf(shifts))
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating raw postings: %w", err)
	}
	return postings, nil
}

// CompanyPostings30d counts the company's postings published within the
// trailing 30 days. Exact name match.
func (s *Store) CompanyPostings30d(company string) (int, error) {
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	var count int
	err := s.queryRow(
		"SELECT COUNT(*) FROM raw_jobs WHERE company_name = ? AND date_published >= ?",
		company, tsValue(&cutoff),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting 30d postings for %s: %w", company, err)
	}
	return count, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func textOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	}
	return ""
}
