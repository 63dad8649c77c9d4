// =============================================================================
// Meter Reading Import - Migrate Command
// =============================================================================
//
// COMMAND USAGE:
//   meterimport migrate
//
// Creates the meters and meter_readings tables and the unique
// (meter_id, reading_date) index if they do not exist.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		b, err := openBackend(ctx, appConfig, logger, true)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.postgres.Migrate(ctx); err != nil {
			return err
		}
		if b.cache != nil {
			if err := b.cache.Invalidate(ctx); err != nil {
				logger.Warn("failed to drop cached meter directory", zap.Error(err))
			}
		}

		logger.Info("schema migrated", zap.String("tenant_id", appConfig.TenantID))
		fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
