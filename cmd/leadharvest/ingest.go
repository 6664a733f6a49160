package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadharvest/internal/model"
)

var (
	ingestMode     string
	ingestFromDays int
	ingestMaxPages int
	ingestQuery    string
	ingestLocation string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch postings and insert them into raw storage, skipping duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if ingestQuery != "" {
			cfg.Search.Query = ingestQuery
		}
		if ingestLocation != "" {
			cfg.Search.Location = ingestLocation
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		orch := buildOrchestrator(cfg, st, logger)

		var stats *model.IngestStats
		switch ingestMode {
		case "backfill":
			stats, err = orch.Backfill(cmd.Context(), ingestFromDays, ingestMaxPages)
		case "nightly":
			stats, err = orch.Nightly(cmd.Context())
		case "custom":
			stats, err = orch.Custom(cmd.Context(), ingestFromDays, ingestMaxPages)
		default:
			return fmt.Errorf("unknown mode %q, want backfill, nightly, or custom", ingestMode)
		}
		if err != nil {
			return err
		}

		cmd.Printf("fetched=%d inserted=%d skipped=%d errors=%d\n",
			stats.Fetched, stats.Inserted, stats.Skipped, stats.Errors)

		if stats.Errors > 0 {
			return fmt.Errorf("ingest finished with %d errors", stats.Errors)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMode, "mode", "nightly", "ingestion mode: backfill, nightly, or custom")
	ingestCmd.Flags().IntVar(&ingestFromDays, "from-days", 7, "lookback window in days (backfill and custom)")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "page budget, 0 means the configured default (backfill and custom)")
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "search query, overrides search.query from config")
	ingestCmd.Flags().StringVar(&ingestLocation, "location", "", "search location, overrides search.location from config")
	rootCmd.AddCommand(ingestCmd)
}
