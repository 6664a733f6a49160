// Package sync pushes qualified postings, projected into the summary shape,
// to a downstream REST endpoint with upsert semantics.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"leadharvest/internal/config"
	"leadharvest/internal/model"
)

// Summary is the simplified shape the downstream side consumes, keyed by
// job_hash for merge-duplicates upserts.
type Summary struct {
	JobHash           string   `json:"job_hash"`
	Title             string   `json:"title"`
	Company           string   `json:"company"`
	Location          string   `json:"location"`
	SalaryText        string   `json:"salary_text"`
	JobURL            string   `json:"job_url"`
	ApplyURL          string   `json:"apply_url"`
	Score             int      `json:"score"`
	Reasons           []string `json:"reasons"`
	MatchedKeywords   []string `json:"matched_keywords"`
	Company30d        int      `json:"company_30d_postings_count"`
	HRContactName     string   `json:"hr_contact_name,omitempty"`
	HRContactTitle    string   `json:"hr_contact_title,omitempty"`
	HRContactEmail    string   `json:"hr_contact_email,omitempty"`
	HRContactLinkedIn string   `json:"hr_contact_linkedin,omitempty"`
	DatePublished     string   `json:"date_published,omitempty"`
	QualifiedAt       string   `json:"qualified_at"`
}

// Syncer reads qualified storage and pushes summaries downstream.
type Syncer struct {
	cfg        config.SyncConfig
	store      model.QualifiedStore
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSyncer creates a syncer for the configured endpoint.
func NewSyncer(cfg config.SyncConfig, store model.QualifiedStore, httpClient *http.Client, logger *slog.Logger) *Syncer {
	return &Syncer{
		cfg:        cfg,
		store:      store,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Run fetches up to limit qualified postings (0 = default batch of 500) and
// pushes them in one upsert request. Returns the number of rows pushed.
func (s *Syncer) Run(ctx context.Context, limit int) (int, error) {
	if s.cfg.URL == "" || s.cfg.APIKey == "" {
		return 0, fmt.Errorf("sync url and api key are required")
	}
	if limit <= 0 {
		limit = 500
	}

	postings, err := s.store.ListQualified(0, limit, 0)
	if err != nil {
		return 0, fmt.Errorf("fetching qualified postings: %w", err)
	}
	if len(postings) == 0 {
		s.logger.Info("nothing to sync")
		return 0, nil
	}

	summaries := make([]Summary, 0, len(postings))
	for i := range postings {
		summaries = append(summaries, Project(&postings[i]))
	}

	if err := s.push(ctx, summaries); err != nil {
		return 0, err
	}

	s.logger.Info("sync complete", "rows", len(summaries), "table", s.cfg.Table)
	return len(summaries), nil
}

// Project maps one qualified posting into the summary shape.
func Project(p *model.QualifiedPosting) Summary {
	sum := Summary{
		JobHash:         p.JobHash,
		Title:           p.Title,
		Company:         p.CompanyName,
		Location:        p.LocationFmtShort,
		SalaryText:      p.SalaryText,
		JobURL:          p.JobURL,
		ApplyURL:        p.ApplyURL,
		Score:           p.Score,
		Reasons:         p.Reasons,
		MatchedKeywords: p.Flags.MatchedKeywords,
		Company30d:      p.Company30dPostings,

		HRContactName:     p.HRContactName,
		HRContactTitle:    p.HRContactTitle,
		HRContactEmail:    p.HRContactEmail,
		HRContactLinkedIn: p.HRContactLinkedIn,

		QualifiedAt: p.QualifiedAt.Format(time.RFC3339),
	}
	if p.DatePublished != nil {
		sum.DatePublished = p.DatePublished.Format(time.RFC3339)
	}
	return sum
}

func (s *Syncer) push(ctx context.Context, summaries []Summary) error {
	body, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal summaries: %w", err)
	}

	url := s.cfg.URL + "/rest/v1/" + s.cfg.Table
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=representation")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("sync rejected: %s", string(respBody)),
		}
	}
	return nil
}
