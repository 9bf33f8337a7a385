package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// validate replays a saved engine response against an audio file, which
// makes transcript filtering reproducible without another engine call.
func newValidateCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <transcript-json> <audio-file>",
		Short: "Validate a saved transcript against an audio file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("read transcript file: %w", err)
			}

			analysis, proceed, err := app.analyzeFile(cmd.OutOrStdout(), args[1])
			if err != nil {
				return err
			}
			if !proceed {
				return nil
			}

			validator, err := app.buildValidator()
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), validator.Validate(string(raw), analysis))
			return nil
		},
	}

	bindLoggingFlags(cmd, app)
	bindDetectorFlags(cmd, app)
	bindValidatorFlags(cmd, app)
	return cmd
}
