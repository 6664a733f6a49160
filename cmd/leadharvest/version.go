package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the leadharvest version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("leadharvest", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
