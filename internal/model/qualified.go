package model

import "time"

// QualificationFlags is the judge metadata stored alongside the score in the
// qualified table's flags column.
type QualificationFlags struct {
	RequiresUSCitizenship     bool     `json:"requires_us_citizenship"`
	IsPackagingOrOperatorRole bool     `json:"is_packaging_or_operator_role"`
	MatchedKeywords           []string `json:"matched_keywords"`
	RedFlags                  []string `json:"red_flags"`
	Confidence                float64  `json:"confidence"`
}

// QualifiedPosting is one row of qualified storage: raw identity fields plus
// the scoring outcome, the company's rolling 30-day posting count, and the
// selected HR contact when one was found.
type QualifiedPosting struct {
	JobHash string
	JobKey  string

	Title            string
	CompanyName      string
	LocationFmtShort string
	DatePublished    *time.Time
	SalaryText       string
	JobURL           string
	ApplyURL         string
	DescriptionText  string
	DescriptionHTML  string

	Score   int
	Reasons []string
	Flags   QualificationFlags

	Company30dPostings int

	HRContactName     string
	HRContactTitle    string
	HRContactEmail    string
	HRContactLinkedIn string

	QualifiedAt time.Time
}

// HasContact reports whether a contact was attached during qualification.
func (q *QualifiedPosting) HasContact() bool {
	return q.HRContactName != ""
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Fetched  int
	Inserted int
	Skipped  int
	Errors   int
}

// QualifyStats summarizes one qualification run.
type QualifyStats struct {
	RunID        string
	Fetched      int
	Skipped      int
	Scored       int
	Passed       int
	Failed       int
	Inserted     int
	ContactFound int
	Errors       int
}
