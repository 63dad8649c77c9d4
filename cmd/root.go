// =============================================================================
// Meter Reading Import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (meterimport)
//   ├── importCmd   (meterimport import)
//   ├── validateCmd (meterimport validate)
//   ├── templateCmd (meterimport template)
//   ├── migrateCmd  (meterimport migrate)
//   ├── tokenCmd    (meterimport token)
//   └── versionCmd  (meterimport version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads config.yaml (or the file given with --config)
//   2. Builds the zap logger from log_level and --verbose
//
// EXIT CODES:
//   0  success
//   1  the command failed
//   2  the import finished but some readings could not be saved
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/config"
	"github.com/ginjaninja78/meter-reading-import/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set by the root command before a subcommand runs.
var (
	appConfig *config.MainConfig
	logger    = zap.NewNop()
)

// exitError carries a specific process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meterimport",
	Short: "Meter Reading Import - bulk import meter readings from CSV and Excel files",
	Long: `Meter Reading Import reads meter readings from a CSV or Excel upload, maps
its columns to meter number, date, reading and note, validates every row
against the meter directory and saves the valid rows as readings.

Key Features:
  - Automatic column mapping for German and English headers
  - Per-row validation with a review summary before anything is saved
  - Optional overwrite of existing readings for the same meter and date
  - Partial failures never roll back readings that were saved

Example Usage:
  meterimport template --format xlsx      # Write an example upload file
  meterimport validate readings.csv       # Review a file without saving
  meterimport import readings.csv --yes   # Validate and import a file
  meterimport migrate                     # Create the database tables`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		l, err := logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file; a missing file means defaults",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
