package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	qualifyFromHours    int
	qualifyBackfillDays int
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Score recent raw postings and upsert the ones that pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		q := buildQualifier(cfg, st, logger)

		fromHours := qualifyFromHours
		if qualifyBackfillDays > 0 {
			fromHours = qualifyBackfillDays * 24
		}

		stats, err := q.Run(cmd.Context(), fromHours)
		if err != nil {
			return err
		}

		cmd.Printf("run=%s fetched=%d skipped=%d scored=%d passed=%d failed=%d inserted=%d contacts=%d errors=%d\n",
			stats.RunID, stats.Fetched, stats.Skipped, stats.Scored, stats.Passed,
			stats.Failed, stats.Inserted, stats.ContactFound, stats.Errors)

		if stats.Errors > 0 {
			return fmt.Errorf("qualification finished with %d errors", stats.Errors)
		}
		return nil
	},
}

func init() {
	qualifyCmd.Flags().IntVar(&qualifyFromHours, "from-hours", 24, "qualify postings published within the last N hours")
	qualifyCmd.Flags().IntVar(&qualifyBackfillDays, "backfill-days", 0, "qualify postings published within the last N days, overrides --from-hours")
	rootCmd.AddCommand(qualifyCmd)
}
