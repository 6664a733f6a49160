package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"leadharvest/internal/sync"
)

var syncLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push qualified postings to the downstream REST endpoint",
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

		httpClient := &http.Client{Timeout: cfg.Sync.Timeout}
		syncer := sync.NewSyncer(cfg.Sync, st, httpClient, logger)

		pushed, err := syncer.Run(cmd.Context(), syncLimit)
		if err != nil {
			return err
		}

		cmd.Printf("pushed=%d\n", pushed)
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "maximum rows to push, 0 means the default batch")
	rootCmd.AddCommand(syncCmd)
}
