package main

import (
	"github.com/spf13/cobra"

	"leadharvest/internal/store"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Sample one page of postings and create the raw table from the inferred schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Discovery creates the raw table from the inferred schema itself;
		// creating the fixed tables first would make that DDL a no-op.
		st, err := store.Open(cfg.Database.Engine, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer st.Close()

		orch := buildOrchestrator(cfg, st, logger)
		desc, err := orch.Discover(cmd.Context())
		if err != nil {
			return err
		}

		for _, field := range desc.Fields() {
			cmd.Printf("%-50s %s\n", field, desc[field])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
