package cli

import (
	"fmt"

	"github.com/jackngare/speechgate/internal/audio"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Run the speech presence detector without transcribing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decodeFn := app.decodeFn
			if decodeFn == nil {
				decodeFn = audio.DecodeWAV
			}

			detector, err := app.buildDetector()
			if err != nil {
				return err
			}

			samples, err := decodeFn(args[0])
			if err != nil {
				return fmt.Errorf("analyze audio: %w", err)
			}

			analysis, err := detector.Analyze(samples)
			if err != nil {
				return fmt.Errorf("analyze audio: %w", err)
			}

			printAnalysis(cmd.OutOrStdout(), analysis)
			return nil
		},
	}

	bindLoggingFlags(cmd, app)
	bindDetectorFlags(cmd, app)
	return cmd
}
