// =============================================================================
// Meter Reading Import - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   meterimport import <file>... [flags]
//
// FLAGS:
//   --overwrite       : Replace existing readings for the same meter and date
//   --yes             : Import without asking for confirmation
//   --user / --token  : Identity recorded on the readings
//   --archive         : Copy each imported file into report.archive_dir
//   --refresh-meters  : Drop the cached meter directory before validating
//   --*-column        : Override the guessed column mapping
//
// PROCESSING PIPELINE (per file, one after the other):
//   1. Check extension and size, then read the file
//   2. Decode it and guess the column mapping
//   3. Validate every row against the meter directory
//   4. Print the review summary and ask for confirmation
//   5. Import the valid rows
//   6. Print the outcome and optionally archive the file
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/meter-reading-import/internal/config"
	"github.com/ginjaninja78/meter-reading-import/internal/importer"
	"github.com/ginjaninja78/meter-reading-import/internal/wizard"
	"github.com/ginjaninja78/meter-reading-import/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	importOverwrite     bool
	importYes           bool
	importUser          string
	importToken         string
	importArchive       bool
	importRefreshMeters bool
	importColumns       = newColumnFlags()
)

// errImportDeclined is returned when the user answers "no" at the prompt.
var errImportDeclined = errors.New("import cancelled")

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Validate and import meter readings from CSV or Excel files",
	Long: `The import command validates each file against the meter directory and,
after confirmation, saves every valid row as a meter reading.

Rows with an unknown meter are skipped. Rows with a missing meter number, an
unreadable date or an unreadable reading are reported and skipped.

A reading that fails to save does not stop the import and does not undo the
readings saved before it. The command then exits with code 2.`,

	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false,
		"Replace existing readings for the same meter and date (default from import.overwrite_default)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false,
		"Import without asking for confirmation")
	importCmd.Flags().StringVar(&importUser, "user", "",
		"User recorded on the imported readings (default auth.user)")
	importCmd.Flags().StringVar(&importToken, "token", "",
		"Signed user token; its subject is recorded on the imported readings")
	importCmd.Flags().BoolVar(&importArchive, "archive", false,
		"Copy each imported file into the archive directory")
	importCmd.Flags().BoolVar(&importRefreshMeters, "refresh-meters", false,
		"Reload the meter directory instead of using the cached copy")
	importColumns.register(importCmd)
}

// =============================================================================
// IMPORT EXECUTION
// =============================================================================

func runImport(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	currentUser, err := resolveUser(appConfig, importUser, importToken)
	if err != nil {
		return err
	}
	user, err := currentUser.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("cannot determine the importing user: %w", err)
	}

	overwrite := appConfig.Import.OverwriteDefault
	if cmd.Flags().Changed("overwrite") {
		overwrite = importOverwrite
	}

	b, err := openBackend(ctx, appConfig, logger, true)
	if err != nil {
		return err
	}
	defer b.Close()

	if importRefreshMeters && b.cache != nil {
		if err := b.cache.Invalidate(ctx); err != nil {
			logger.Warn("failed to drop cached meter directory", zap.Error(err))
		}
	}

	dec := newDecoder(appConfig, logger)
	executor := importer.New(importer.Dependency{Store: b.readings, Logger: logger})
	in := bufio.NewReader(cmd.InOrStdin())

	var failed int
	for _, path := range paths {
		reporters, files := newReporters(appConfig, out, path, user, overwrite, logger)

		session := wizard.New(wizard.Dependency{
			Decoder:          dec,
			Mapper:           newMapper(appConfig),
			Directory:        b.directory,
			Executor:         executor,
			Reporter:         reporters,
			User:             currentUser,
			Logger:           logger.With(zap.String("file", path)),
			OverwriteDefault: overwrite,
			OnProgress:       progressPrinter(cmd.ErrOrStderr()),
		})

		fmt.Fprintf(out, "\nFile: %s\n", path)
		if err := loadAndValidate(ctx, out, session, dec, path, importColumns); err != nil {
			return err
		}
		if files != nil && files.IssueLogPath != "" {
			fmt.Fprintf(out, "Issue log: %s\n", files.IssueLogPath)
		}

		if err := session.Confirm(); err != nil {
			return err
		}

		if !importYes {
			ok, err := confirm(out, in, session.Summary().Valid, overwrite)
			if err != nil {
				return err
			}
			if !ok {
				return errImportDeclined
			}
		}

		outcome, err := session.Import(ctx)
		if err != nil {
			return err
		}
		failed += outcome.FailureCount

		if files != nil && files.SummaryLogPath != "" {
			fmt.Fprintf(out, "Summary: %s\n", files.SummaryLogPath)
		}

		if importArchive {
			fm := newFileManager(appConfig)
			if err := fm.EnsureDirectories(); err != nil {
				return err
			}
			archived, err := fm.ArchiveSourceFile(path, outcome.BatchID)
			if err != nil {
				logger.Warn("failed to archive source file", zap.String("file", path), zap.Error(err))
			} else {
				fmt.Fprintf(out, "Archived: %s\n", archived)
			}
		}
	}

	if failed > 0 {
		return &exitError{code: 2, err: fmt.Errorf("%d reading(s) could not be saved", failed)}
	}
	return nil
}

// newFileManager returns the archive file manager for the configured report
// directories.
func newFileManager(cfg *config.MainConfig) *utils.FileManager {
	fm := utils.NewFileManager(cfg.Report.OutputDir, cfg.Report.ArchiveDir)
	fm.UseTimestampSubdirs = cfg.Report.ArchiveByDate
	return fm
}

// confirm asks whether the valid rows should be imported. Anything but
// "y" or "yes" declines.
func confirm(out io.Writer, in *bufio.Reader, valid int, overwrite bool) (bool, error) {
	mode := "existing readings are kept"
	if overwrite {
		mode = "existing readings for the same meter and date are replaced"
	}
	fmt.Fprintf(out, "\nImport %d reading(s)? (%s) [y/N]: ", valid, mode)

	answer, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "j", "ja":
		return true, nil
	}
	return false, nil
}

// progressPrinter redraws a single progress line on w.
func progressPrinter(w io.Writer) func(int) {
	return func(percent int) {
		fmt.Fprintf(w, "\rImporting... %3d%%", percent)
		if percent >= 100 {
			fmt.Fprintln(w)
		}
	}
}
