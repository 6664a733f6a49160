// Package scorer submits postings to the judgment service against the
// staffing rubric and enforces the hard-fail and threshold rules.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"leadharvest/internal/judge"
	"leadharvest/internal/model"
)

const systemMessage = `You are a recruiting assistant that scores job postings for suitability for low-skill packaging/operator staffing.
You MUST output STRICT JSON only, with no extra text.`

// requiredFields must all be present in the judge's verdict.
var requiredFields = []string{
	"score", "recommended", "requires_us_citizenship",
	"is_packaging_or_operator_role", "reasons", "matched_keywords",
	"red_flags", "confidence",
}

// Scorer scores one posting at a time through an injected Completer.
type Scorer struct {
	completer judge.Completer
	threshold int
	logger    *slog.Logger
}

// New creates a scorer. threshold is the inclusive recommendation boundary.
func New(completer judge.Completer, threshold int, logger *slog.Logger) *Scorer {
	return &Scorer{
		completer: completer,
		threshold: threshold,
		logger:    logger,
	}
}

// features is the compact projection submitted for scoring.
type features struct {
	Title            string   `json:"title"`
	CompanyName      string   `json:"company_name"`
	DescriptionText  string   `json:"description_text"`
	JobTypes         []string `json:"job_types"`
	LocationFmtShort string   `json:"location_fmt_short"`
	SalaryText       string   `json:"salary_text"`
	JobURL           string   `json:"job_url"`
	ApplyURL         string   `json:"apply_url"`
	DatePublished    string   `json:"date_published"`
	Attributes       []string `json:"attributes"`
	ShiftAndSchedule []string `json:"shift_and_schedule"`
	IsRemote         bool     `json:"is_remote"`
}

func project(p *model.RawPosting) features {
	f := features{
		Title:            p.Title,
		CompanyName:      p.CompanyName,
		DescriptionText:  p.DescriptionText,
		JobTypes:         p.JobTypes,
		LocationFmtShort: p.LocationFmtShort,
		SalaryText:       p.SalaryText,
		JobURL:           p.JobURL,
		ApplyURL:         p.ApplyURL,
		Attributes:       p.Attributes,
		ShiftAndSchedule: p.ShiftAndSchedule,
		IsRemote:         p.IsRemote,
	}
	if p.DatePublished != nil {
		f.DatePublished = p.DatePublished.Format("2006-01-02T15:04:05Z07:00")
	}
	return f
}

// buildPrompt renders the rubric prompt for one posting.
func (s *Scorer) buildPrompt(f features) (string, error) {
	featureJSON, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal features: %w", err)
	}

	return fmt.Sprintf(`Evaluate this job for packaging/operator suitability.

Job JSON:
%s

Scoring rubric (0-100):
- Role match (0-40): Is this clearly a packaging/production/warehouse/machine operator/assembly/forklift/kitting/shipping role?
- Skill/requirements fit (0-25): Minimal specialized credentials; on-the-job training; entry-level acceptable.
- Shift/labor signals (0-15): Mentions shifts, physical labor, standing, lifting, hourly pay, overtime, temp-to-hire.
- Location & on-site (0-10): On-site or plant/warehouse context.
- Language (0-10): Plain, non-professional jargon; minimal degree/licensing.

Hard FAIL condition: If the posting explicitly requires "U.S. citizenship" or similar (e.g., "must be a U.S. citizen", "US citizens only"), set requires_us_citizenship=true and score=0 and recommended=false.

Output JSON ONLY with this exact shape:
{
  "score": 0,
  "recommended": false,
  "requires_us_citizenship": false,
  "is_packaging_or_operator_role": false,
  "reasons": ["...","..."],
  "matched_keywords": ["...","..."],
  "red_flags": ["..."],
  "confidence": 0.0
}

- recommended must be true only if score >= %d and requires_us_citizenship=false.
- confidence in [0.0, 1.0].
- Use reasons to justify the score briefly.
- Include matched_keywords you used (e.g., "packaging", "warehouse", "operator", "assembly", "forklift", "shipping").
- If you detect any phrasing that demands U.S. citizenship, set requires_us_citizenship=true with a clear red_flags entry.`,
		string(featureJSON), s.threshold), nil
}

// Score submits the posting once and returns the enforced verdict.
func (s *Scorer) Score(ctx context.Context, p *model.RawPosting) (*model.QualificationResult, error) {
	prompt, err := s.buildPrompt(project(p))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scoring posting", "title", p.Title, "company", p.CompanyName)

	raw, err := s.completer.Complete(ctx, systemMessage, prompt)
	if err != nil {
		return nil, fmt.Errorf("judge complete: %w", err)
	}

	result, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	s.enforce(result, p)

	s.logger.Info("scored posting",
		"title", p.Title,
		"company", p.CompanyName,
		"score", result.Score,
		"recommended", result.Recommended,
		"hard_fail", result.RequiresUSCitizenship,
	)

	return result, nil
}

// ScoreWithRetry retries malformed or missing verdicts up to maxRetries extra
// attempts. Exhausting retries fails the posting, never the run.
func (s *Scorer) ScoreWithRetry(ctx context.Context, p *model.RawPosting, maxRetries int) (*model.QualificationResult, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("retrying score", "title", p.Title, "attempt", attempt)
		}
		result, err := s.Score(ctx, p)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// enforce applies the hard-fail and threshold overrides. Idempotent, and
// applied regardless of what the judge returned.
func (s *Scorer) enforce(r *model.QualificationResult, p *model.RawPosting) {
	if r.RequiresUSCitizenship {
		r.Score = 0
		r.Recommended = false
		s.logger.Info("hard fail: posting requires U.S. citizenship", "title", p.Title)
	}
	if r.Score < s.threshold {
		r.Recommended = false
	}
}

// parseVerdict validates that all required fields are present before
// unmarshaling into the typed result.
func parseVerdict(raw string) (*model.QualificationResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}

	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidVerdict, field)
		}
	}

	var result model.QualificationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unmarshal verdict: %w", err)
	}
	return &result, nil
}
