// =============================================================================
// Meter Reading Import - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   meterimport validate <file> [--*-column ...]
//
// Runs the upload, mapping and validation steps and prints the review
// summary. Nothing is saved. Without a database the meter directory is
// empty, so every well-formed row is reported as "meter not found".
//
// =============================================================================

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/meter-reading-import/internal/types"
	"github.com/ginjaninja78/meter-reading-import/internal/wizard"
)

var validateColumns = newColumnFlags()

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a readings file without importing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		b, err := openBackend(ctx, appConfig, logger, false)
		if err != nil {
			return err
		}
		defer b.Close()

		reporters, _ := newReporters(appConfig, out, args[0], appConfig.Auth.User, false, logger)
		dec := newDecoder(appConfig, logger)
		session := wizard.New(wizard.Dependency{
			Decoder:   dec,
			Mapper:    newMapper(appConfig),
			Directory: b.directory,
			Reporter:  reporters,
			Logger:    logger,
		})

		if err := loadAndValidate(ctx, out, session, dec, args[0], validateColumns); err != nil {
			return err
		}
		if !session.Summary().Importable() {
			return types.ErrNoValidRows
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateColumns.register(validateCmd)
}
