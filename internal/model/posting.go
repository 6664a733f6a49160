package model

import "time"

// RawPosting is the flattened form of one provider job record. Every field maps
// 1:1 to a column in the raw_jobs table; nested provider objects (location,
// salary, rating) are projected into prefixed scalar fields and provider arrays
// are kept whole and stored JSON-encoded.
type RawPosting struct {
	JobKey     string // provider job key
	ProviderID string // provider record id, falls back to jobId

	Title          string
	CompanyName    string
	CompanyURL     string
	CompanyLogoURL string

	DescriptionHTML string
	DescriptionText string // derived from DescriptionHTML when the provider omits it

	JobTypes       []string
	JobTypePrimary string

	LocationCity          string
	LocationPostalCode    string
	LocationCountry       string
	LocationCountryCode   string
	LocationFmtLong       string
	LocationFmtShort      string
	LocationLatitude      *float64
	LocationLongitude     *float64
	LocationStreetAddress string
	LocationFullAddress   string

	SalaryCurrency string
	SalaryMin      *float64
	SalaryMax      *float64
	SalarySource   string
	SalaryText     string
	SalaryType     string

	RatingValue *float64
	RatingCount *int64

	Benefits         []string
	Occupations      []string
	Attributes       []string
	ShiftAndSchedule []string

	PostedToday        bool
	IsHighVolumeHiring bool
	IsUrgentHire       bool
	Expired            bool
	IsRemote           bool

	// DatePublishedRaw is the provider's verbatim value (string or number);
	// it participates in the content hash. DatePublished is the parsed form.
	DatePublishedRaw string
	DatePublished    *time.Time

	SourceName string
	AgeText    string
	Locale     string
	Language   string

	JobURL   string
	ApplyURL string

	CompanyNumEmployees string
	CompanyRevenue      string
	CompanyIndustry     string
	CompanyDescription  string

	// SourcePayload is the original fetched record, JSON-encoded. Always set.
	SourcePayload string

	// JobHash is the dedup key: SHA-256 over the identity fields.
	JobHash string
}

// QualificationResult is the judge's verdict for one posting, after the
// hard-fail and threshold overrides have been applied.
type QualificationResult struct {
	Score                     int      `json:"score"`
	Recommended               bool     `json:"recommended"`
	RequiresUSCitizenship     bool     `json:"requires_us_citizenship"`
	IsPackagingOrOperatorRole bool     `json:"is_packaging_or_operator_role"`
	Reasons                   []string `json:"reasons"`
	MatchedKeywords           []string `json:"matched_keywords"`
	RedFlags                  []string `json:"red_flags"`
	Confidence                float64  `json:"confidence"`
}

// ContactCandidate is one person returned by the contact-search provider.
// PriorityLevel is the index into the priority title list that produced the
// candidate; lower means a more senior title.
type ContactCandidate struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Email         string `json:"email"`
	LinkedIn      string `json:"linkedin"`
	PriorityLevel int    `json:"priority_level"`
}

// RawStore is the append-only raw posting storage, keyed by JobHash.
type RawStore interface {
	// InsertRaw inserts the posting unless a row with the same hash exists.
	// Returns false (and no error) on a hash conflict.
	InsertRaw(p *RawPosting) (bool, error)
	// RawSince returns postings published at or after the cutoff,
	// newest-published first.
	RawSince(cutoff time.Time) ([]RawPosting, error)
	// CompanyPostings30d counts the company's postings published within the
	// trailing 30 days. Exact name match.
	CompanyPostings30d(company string) (int, error)
}

// QualifiedStore is the qualified posting storage, upsert-keyed by JobHash.
type QualifiedStore interface {
	UpsertQualified(q *QualifiedPosting) error
	ListQualified(minScore, limit, offset int) ([]QualifiedPosting, error)
	// HasQualified reports whether a posting with this hash has already been
	// qualified.
	HasQualified(hash string) (bool, error)
}
