package cmd

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/repository"
	"github.com/spf13/cobra"
)

func TokensCmd(d *Database) *cobra.Command {
	var olderThan time.Duration

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete one-time codes that expired or were used",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.With(func(conn *sqlx.DB) error {
				n, err := repository.NewTokenRepository(conn).CleanupExpired(olderThan)
				if err != nil {
					return fmt.Errorf("failed to clean up tokens: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", n)
				return nil
			})
		},
	}
	cleanupCmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "keep tokens that expired more recently than this")

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage one-time codes",
	}
	tokensCmd.AddCommand(cleanupCmd)
	return tokensCmd
}

func SessionsCmd(d *Database) *cobra.Command {
	var olderThan time.Duration

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete sessions that expired or were revoked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.With(func(conn *sqlx.DB) error {
				n, err := repository.NewSessionRepository(conn).CleanupExpired(olderThan)
				if err != nil {
					return fmt.Errorf("failed to clean up sessions: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d sessions\n", n)
				return nil
			})
		},
	}
	// Revoked sessions back refresh token reuse detection until deleted.
	cleanupCmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "keep sessions that ended more recently than this")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage refresh sessions",
	}
	sessionsCmd.AddCommand(cleanupCmd)
	return sessionsCmd
}
