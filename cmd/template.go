// =============================================================================
// Meter Reading Import - Template Command
// =============================================================================
//
// COMMAND USAGE:
//   meterimport template [--format csv|xlsx] [--out <path>|-]
//
// Writes an example upload file with the expected columns and two sample
// rows. "--out -" writes to standard output.
//
// =============================================================================

package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/meter-reading-import/internal/sample"
)

var (
	templateFormat string
	templateOut    string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an example readings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := sample.ParseFormat(templateFormat)
		if err != nil {
			return err
		}

		if templateOut == "-" {
			return sample.Write(cmd.OutOrStdout(), format)
		}

		path := templateOut
		if path == "" {
			path = "zaehlerstaende-beispiel" + format.Extension()
		}

		var buf bytes.Buffer
		if err := sample.Write(&buf, format); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write example file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Example file written to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVar(&templateFormat, "format", "csv", "Example file format: csv or xlsx")
	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Output path, or - for standard output")
}
