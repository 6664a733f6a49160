package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"leadharvest/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the nightly ingest and qualification passes on a cron schedule",
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

		orch := buildOrchestrator(cfg, st, logger)
		qual := buildQualifier(cfg, st, logger)

		jobs := []schedule.Job{
			{
				Name: "nightly-ingest",
				Run: func(ctx context.Context) error {
					_, err := orch.Nightly(ctx)
					return err
				},
			},
			{
				Name: "nightly-qualify",
				Run: func(ctx context.Context) error {
					_, err := qual.Run(ctx, 24)
					return err
				},
			},
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if scheduleNow {
			for _, job := range jobs {
				if err := job.Run(ctx); err != nil {
					logger.Error("immediate run failed", "job", job.Name, "error", err)
				}
			}
		}

		runner := schedule.NewRunner(cfg.Schedule.Spec, jobs, logger)
		return runner.Start(ctx)
	},
}

var scheduleNow bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run the jobs once immediately before starting the schedule")
	rootCmd.AddCommand(scheduleCmd)
}
