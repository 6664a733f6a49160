// Package ingest drives one ingestion run: fetch, normalize, dedup-insert.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"leadharvest/internal/config"
	"leadharvest/internal/model"
	"leadharvest/internal/normalize"
	"leadharvest/internal/schema"
	"leadharvest/internal/source"
)

// Fetcher is the source-client seam, mocked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, query, location string, fromDays, maxPages int) (*source.FetchResult, error)
}

// TableCreator creates the raw table from a discovered schema.
type TableCreator interface {
	CreateRawTable(desc schema.Descriptor) error
}

// Orchestrator runs one of the four ingestion modes. Each run is terminal.
type Orchestrator struct {
	fetcher    Fetcher
	discoverer *schema.Discoverer
	raw        model.RawStore
	tables     TableCreator
	search     config.SearchConfig
	logger     *slog.Logger
}

// New wires an orchestrator with its collaborators.
func New(fetcher Fetcher, discoverer *schema.Discoverer, raw model.RawStore, tables TableCreator, search config.SearchConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		discoverer: discoverer,
		raw:        raw,
		tables:     tables,
		search:     search,
		logger:     logger,
	}
}

// Discover fetches one page, infers the schema from the sample, merges the
// core fields, and creates the raw table. No data is written.
func (o *Orchestrator) Discover(ctx context.Context) (schema.Descriptor, error) {
	o.logger.Info("discovery mode", "query", o.search.Query, "location", o.search.Location)

	res, err := o.fetcher.Fetch(ctx, o.search.Query, o.search.Location, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("discovery fetch: %w", err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("discovery fetch returned no records")
	}

	discovered := o.discoverer.Infer(res.Records)
	full := discovered.Merge(schema.CoreFields())
	o.logger.Info("schema merged with core fields", "fields", len(full))

	if err := o.tables.CreateRawTable(full); err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}

	o.logger.Info("discovery complete", "sample_size", len(res.Records), "schema_fields", len(full))
	return full, nil
}

// Backfill fetches up to maxPages for the given lookback window and inserts
// each normalized posting, skipping hash conflicts. A record-level insert
// error is counted, never fatal; a fetch yielding nothing is still a success.
func (o *Orchestrator) Backfill(ctx context.Context, fromDays, maxPages int) (*model.IngestStats, error) {
	o.logger.Info("backfill mode",
		"query", o.search.Query,
		"location", o.search.Location,
		"from_days", fromDays,
		"max_pages", maxPages,
	)

	res, err := o.fetcher.Fetch(ctx, o.search.Query, o.search.Location, fromDays, maxPages)
	if err != nil {
		return nil, fmt.Errorf("backfill fetch: %w", err)
	}

	stats := &model.IngestStats{
		Fetched: len(res.Records),
		Errors:  res.SoftErrors,
	}

	if len(res.Records) == 0 {
		o.logger.Warn("no records returned, nothing to insert")
		return stats, nil
	}

	for _, record := range res.Records {
		posting := normalize.Normalize(record)

		inserted, err := o.raw.InsertRaw(posting)
		if err != nil {
			o.logger.Error("insert failed", "hash", posting.JobHash, "error", err)
			stats.Errors++
			continue
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
	}

	o.logger.Info("backfill complete",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
	)
	return stats, nil
}

// Nightly is a backfill over the last 24 hours.
func (o *Orchestrator) Nightly(ctx context.Context) (*model.IngestStats, error) {
	o.logger.Info("nightly mode")
	return o.Backfill(ctx, 1, 0)
}

// Custom is a backfill with a caller-supplied window; both parameters are
// mandatory.
func (o *Orchestrator) Custom(ctx context.Context, fromDays, maxPages int) (*model.IngestStats, error) {
	if fromDays <= 0 || maxPages <= 0 {
		return nil, fmt.Errorf("custom mode requires positive from-days and max-pages, got %d and %d", fromDays, maxPages)
	}
	o.logger.Info("custom mode", "from_days", fromDays, "max_pages", maxPages)
	return o.Backfill(ctx, fromDays, maxPages)
}
