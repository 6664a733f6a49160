// Package contacts finds a best-effort HR contact for a company through an
// external contact-search provider, with a judge-assisted tie-break.
package contacts

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
	"leadharvest/internal/judge"
	"leadharvest/internal/model"
)

// priorityTitles is iterated in order until one title yields contacts.
// The index becomes the candidate's priority level (lower = preferred).
var priorityTitles = []string{
	"VP of Human Resources",
	"Head of Human Resources",
	"Director of Human Resources",
	"HR Business Partner",
	"HR Manager",
	"HR Generalist",
	"People Operations",
	"Talent Acquisition",
	"Recruiting Manager",
	"Recruiter",
	"Plant HR Manager",
	"Staffing Specialist",
}

const tieBreakSystem = `You are a sales outreach assistant. From a list of HR contacts, pick ONE best contact for staffing outreach.
Return STRICT JSON with fields: { "name": "", "title": "", "email": "", "linkedin": "", "reason": "" }. No extra text.`

// Sourcer queries the contact-search provider and selects one contact.
type Sourcer struct {
	cfg        config.ContactsConfig
	httpClient *http.Client
	completer  judge.Completer
	logger     *slog.Logger

	// sleep spaces successive provider calls; replaced in tests.
	sleep func(time.Duration)
}

// NewSourcer creates a contact sourcer sharing the pipeline's HTTP client.
func NewSourcer(cfg config.ContactsConfig, httpClient *http.Client, completer judge.Completer, logger *slog.Logger) *Sourcer {
	return &Sourcer{
		cfg:        cfg,
		httpClient: httpClient,
		completer:  completer,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// FindBestContact resolves the company to an organization, aggregates
// candidates across the priority titles, and selects one. Returns (nil, nil)
// when the company or its contacts cannot be found.
func (s *Sourcer) FindBestContact(ctx context.Context, companyName, jobTitle, location string) (*model.ContactCandidate, error) {
	if companyName == "" {
		return nil, nil
	}

	orgID, err := s.searchOrganization(ctx, companyName)
	if err != nil {
		return nil, err
	}
	if orgID == "" {
		s.logger.Info("no organization found", "company", companyName)
		return nil, nil
	}

	candidates, err := s.aggregate(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.logger.Info("no contacts found", "company", companyName)
		return nil, nil
	}

	best := s.selectWithJudge(ctx, candidates, companyName, jobTitle, location)
	if best == nil {
		s.logger.Info("judge selection failed, using rule-based selection")
		best = selectRuleBased(candidates)
	}

	if best != nil {
		s.logger.Info("selected contact", "name", best.Name, "title", best.Title)
	}
	return best, nil
}

type orgSearchResponse struct {
	Organizations []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"organizations"`
}

// searchOrganization resolves a company name to an organization id. An empty
// id means no match.
func (s *Sourcer) searchOrganization(ctx context.Context, companyName string) (string, error) {
	payload := map[string]any{
		"q_organization_name": companyName,
		"page":                1,
		"per_page":            1,
	}

	var result orgSearchResponse
	if err := s.post(ctx, s.cfg.OrgSearchURL, payload, &result); err != nil {
		return "", fmt.Errorf("org search for %s: %w", companyName, err)
	}

	if len(result.Organizations) == 0 {
		return "", nil
	}

	org := result.Organizations[0]
	s.logger.Debug("found organization", "name", org.Name, "id", org.ID)
	return org.ID, nil
}

type peopleSearchResponse struct {
	People []struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		Email       string `json:"email"`
		LinkedInURL string `json:"linkedin_url"`
	} `json:"people"`
}

// aggregate walks the priority titles in order, stopping at the first title
// that yields any contacts.
func (s *Sourcer) aggregate(ctx context.Context, orgID string) ([]model.ContactCandidate, error) {
	var candidates []model.ContactCandidate

	for level, title := range priorityTitles {
		payload := map[string]any{
			"organization_ids": []string{orgID},
			"person_titles":    []string{title},
			"page":             1,
			"per_page":         s.cfg.PerPage,
		}

		var result peopleSearchResponse
		if err := s.post(ctx, s.cfg.PeopleSearchURL, payload, &result); err != nil {
			s.logger.Warn("people search failed", "title", title, "error", err)
			continue
		}

		for _, person := range result.People {
			candidates = append(candidates, model.ContactCandidate{
				Name:          person.Name,
				Title:         person.Title,
				Email:         person.Email,
				LinkedIn:      person.LinkedInURL,
				PriorityLevel: level,
			})
		}

		if len(result.People) > 0 {
			s.logger.Debug("title yielded contacts, stopping early", "title", title, "count", len(result.People))
			break
		}
	}

	s.logger.Info("aggregated contacts", "count", len(candidates))
	return candidates, nil
}

// selectWithJudge asks the judgment service to pick one contact from the top
// five candidates. Any failure falls through to rule-based selection.
func (s *Sourcer) selectWithJudge(ctx context.Context, candidates []model.ContactCandidate, companyName, jobTitle, location string) *model.ContactCandidate {
	top := candidates
	if len(top) > 5 {
		top = top[:5]
	}

	candidateJSON, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil
	}

	prompt := fmt.Sprintf(`Company: %s
Role: %s
Location: %s

Contacts:
%s

Selection rules:
- Prefer senior HR leadership (VP/Director/Head) > HRBP/Manager > Recruiter.
- Prefer contacts likely tied to the hiring site/region if present.
- If multiple equal, pick the one with an email or LinkedIn.
Return JSON only.`, companyName, jobTitle, location, string(candidateJSON))

	raw, err := s.completer.Complete(ctx, tieBreakSystem, prompt)
	if err != nil {
		s.logger.Warn("judge tie-break failed", "error", err)
		return nil
	}

	var selected struct {
		Name     string `json:"name"`
		Title    string `json:"title"`
		Email    string `json:"email"`
		LinkedIn string `json:"linkedin"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw), &selected); err != nil || selected.Name == "" {
		s.logger.Warn("judge tie-break returned malformed selection", "error", err)
		return nil
	}

	contact := &model.ContactCandidate{
		Name:     selected.Name,
		Title:    selected.Title,
		Email:    selected.Email,
		LinkedIn: selected.LinkedIn,
	}
	// Recover the priority level when the selection matches a known candidate.
	for _, c := range candidates {
		if c.Name == selected.Name {
			contact.PriorityLevel = c.PriorityLevel
			break
		}
	}
	return contact
}

// selectRuleBased filters to candidates with an email or LinkedIn URL
// (falling back to all candidates) and picks the minimum of
// priority_level - 0.5*has_email. First candidate wins ties.
func selectRuleBased(candidates []model.ContactCandidate) *model.ContactCandidate {
	if len(candidates) == 0 {
		return nil
	}

	pool := make([]model.ContactCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Email != "" || c.LinkedIn != "" {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}

	best := pool[0]
	bestScore := ruleScore(pool[0])
	for _, c := range pool[1:] {
		if score := ruleScore(c); score < bestScore {
			best, bestScore = c, score
		}
	}
	return &best
}

func ruleScore(c model.ContactCandidate) float64 {
	score := float64(c.PriorityLevel)
	if c.Email != "" {
		score -= 0.5
	}
	return score
}

// post sends one provider request with the API-key header, decodes the
// response, and applies the fixed inter-call sleep.
func (s *Sourcer) post(ctx context.Context, url string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Api-Key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	s.sleep(s.cfg.RateLimitSleep)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{StatusCode: resp.StatusCode}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
