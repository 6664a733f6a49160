// Package qualify runs the second pass: score each unqualified raw posting,
// attach a best-effort HR contact, and upsert the enriched result.
package qualify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"leadharvest/internal/model"
)

// Scorer is the judgment seam, mocked in tests.
type Scorer interface {
	ScoreWithRetry(ctx context.Context, p *model.RawPosting, maxRetries int) (*model.QualificationResult, error)
}

// ContactFinder sources one HR contact per company. Best effort.
type ContactFinder interface {
	FindBestContact(ctx context.Context, companyName, jobTitle, location string) (*model.ContactCandidate, error)
}

// Qualifier composes the qualification pipeline for one run.
type Qualifier struct {
	scorer     Scorer
	contacts   ContactFinder // nil when contact sourcing is disabled
	raw        model.RawStore
	qualified  model.QualifiedStore
	maxRetries int
	logger     *slog.Logger

	now func() time.Time
}

// New wires a qualifier. contacts may be nil.
func New(scorer Scorer, contacts ContactFinder, raw model.RawStore, qualified model.QualifiedStore, maxRetries int, logger *slog.Logger) *Qualifier {
	return &Qualifier{
		scorer:     scorer,
		contacts:   contacts,
		raw:        raw,
		qualified:  qualified,
		maxRetries: maxRetries,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes raw postings published within the last fromHours hours, in
// the newest-published-first order storage returns them. Postings already in
// qualified storage are skipped without re-scoring. Per-posting failures are
// counted and never abort the run.
//
// Policy: a posting that is not recommended, or that trips the hard-fail
// rule, is never written to qualified storage.
func (q *Qualifier) Run(ctx context.Context, fromHours int) (*model.QualifyStats, error) {
	stats := &model.QualifyStats{RunID: uuid.NewString()}
	logger := q.logger.With("run_id", stats.RunID)

	cutoff := q.now().UTC().Add(-time.Duration(fromHours) * time.Hour)
	logger.Info("qualification run starting", "from_hours", fromHours, "cutoff", cutoff)

	postings, err := q.raw.RawSince(cutoff)
	if err != nil {
		return stats, err
	}
	stats.Fetched = len(postings)

	if len(postings) == 0 {
		logger.Info("no postings to qualify")
		return stats, nil
	}

	for i := range postings {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		q.qualifyOne(ctx, &postings[i], stats, logger)
	}

	logger.Info("qualification run complete",
		"fetched", stats.Fetched,
		"skipped", stats.Skipped,
		"scored", stats.Scored,
		"passed", stats.Passed,
		"failed", stats.Failed,
		"inserted", stats.Inserted,
		"contact_found", stats.ContactFound,
		"errors", stats.Errors,
	)
	return stats, nil
}

func (q *Qualifier) qualifyOne(ctx context.Context, p *model.RawPosting, stats *model.QualifyStats, logger *slog.Logger) {
	// Already-qualified postings keep their stored verdict; re-scoring them
	// every run would burn judge calls for the same answer.
	exists, err := q.qualified.HasQualified(p.JobHash)
	if err != nil {
		logger.Warn("qualified lookup failed, scoring anyway", "hash", p.JobHash, "error", err)
	} else if exists {
		logger.Info("already qualified, skipping", "title", p.Title, "hash", p.JobHash)
		stats.Skipped++
		return
	}

	logger.Info("qualifying", "title", p.Title, "company", p.CompanyName)

	result, err := q.scorer.ScoreWithRetry(ctx, p, q.maxRetries)
	if err != nil {
		logger.Warn("scoring failed, skipping posting", "title", p.Title, "error", err)
		stats.Errors++
		return
	}
	stats.Scored++

	if result.RequiresUSCitizenship || !result.Recommended {
		logger.Info("posting rejected",
			"title", p.Title,
			"score", result.Score,
			"hard_fail", result.RequiresUSCitizenship,
		)
		stats.Failed++
		return
	}
	stats.Passed++

	count, err := q.raw.CompanyPostings30d(p.CompanyName)
	if err != nil {
		logger.Warn("30d count failed, defaulting to zero", "company", p.CompanyName, "error", err)
		count = 0
	}

	var contact *model.ContactCandidate
	if q.contacts != nil {
		contact, err = q.contacts.FindBestContact(ctx, p.CompanyName, p.Title, p.LocationFmtShort)
		if err != nil {
			logger.Warn("contact sourcing failed, proceeding without contact",
				"company", p.CompanyName, "error", err)
			contact = nil
		}
	}

	qualified := compose(p, result, count, contact, q.now().UTC())

	if err := q.qualified.UpsertQualified(qualified); err != nil {
		logger.Error("upsert failed", "hash", p.JobHash, "error", err)
		stats.Errors++
		return
	}
	stats.Inserted++
	if qualified.HasContact() {
		stats.ContactFound++
	}

	logger.Info("qualified posting upserted",
		"title", p.Title,
		"score", qualified.Score,
		"company_30d", count,
		"contact", qualified.HasContact(),
	)
}

// compose projects the raw posting and its verdict into a qualified record.
func compose(p *model.RawPosting, r *model.QualificationResult, count30d int, contact *model.ContactCandidate, now time.Time) *model.QualifiedPosting {
	q := &model.QualifiedPosting{
		JobHash:          p.JobHash,
		JobKey:           p.JobKey,
		Title:            p.Title,
		CompanyName:      p.CompanyName,
		LocationFmtShort: p.LocationFmtShort,
		DatePublished:    p.DatePublished,
		SalaryText:       p.SalaryText,
		JobURL:           p.JobURL,
		ApplyURL:         p.ApplyURL,
		DescriptionText:  p.DescriptionText,
		DescriptionHTML:  p.DescriptionHTML,
		Score:            r.Score,
		Reasons:          r.Reasons,
		Flags: model.QualificationFlags{
			RequiresUSCitizenship:     r.RequiresUSCitizenship,
			IsPackagingOrOperatorRole: r.IsPackagingOrOperatorRole,
			MatchedKeywords:           r.MatchedKeywords,
			RedFlags:                  r.RedFlags,
			Confidence:                r.Confidence,
		},
		Company30dPostings: count30d,
		QualifiedAt:        now,
	}

	if contact != nil {
		q.HRContactName = contact.Name
		q.HRContactTitle = contact.Title
		q.HRContactEmail = contact.Email
		q.HRContactLinkedIn = contact.LinkedIn
	}

	return q
}
