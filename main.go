// =============================================================================
// Meter Reading Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   meterimport import <file>     - Validate and import a readings file
//   meterimport validate <file>   - Validate a readings file without saving
//   meterimport template          - Write an example upload file
//   meterimport migrate           - Create the database tables
//   meterimport token             - Issue a signed user token
//   meterimport version           - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra) and collaborator wiring
//   - internal/  : the import pipeline and its collaborators
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/meter-reading-import/cmd"
)

func main() {
	cmd.Execute()
}
