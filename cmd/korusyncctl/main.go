package main

import (
	"os"

	"github.com/korusync/korusync/cmd/korusyncctl/cmd"
	"github.com/korusync/korusync/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	logger.Init(true, "", "cli")

	rootCmd := &cobra.Command{
		Use:          "korusyncctl",
		Short:        "Administrative tools for KoruSync",
		SilenceUsage: true,
	}

	db := cmd.AddDatabaseFlags(rootCmd)
	rootCmd.AddCommand(cmd.MigrateCmd(db))
	rootCmd.AddCommand(cmd.TokensCmd(db))
	rootCmd.AddCommand(cmd.SessionsCmd(db))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
