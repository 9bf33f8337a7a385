package cli

import (
	"fmt"
	"io"

	"github.com/jackngare/speechgate/internal/audio"
	"github.com/jackngare/speechgate/internal/transcript"
)

func printAnalysis(w io.Writer, a audio.Analysis) {
	fmt.Fprintln(w, "Audio Analysis:")
	fmt.Fprintf(w, "  Duration: %.2fs\n", a.Duration)
	fmt.Fprintf(w, "  RMS Energy: %.4f\n", a.RMSEnergy)
	fmt.Fprintf(w, "  Speech Duration: %.2fs\n", a.SpeechDuration)
	fmt.Fprintf(w, "  Silence Ratio: %.2f\n", a.SilenceRatio)
	fmt.Fprintf(w, "  Has Speech: %t\n", a.HasSpeech)
}

func printNoSpeech(w io.Writer) {
	fmt.Fprintln(w, "No meaningful speech content detected in audio file.")
	fmt.Fprintln(w, "Skipping transcription to prevent hallucination.")
}

func printResult(w io.Writer, result transcript.Result) {
	if result.ParseFailed {
		fmt.Fprintln(w, "--- Raw Transcript (JSON Parse Failed) ---")
		fmt.Fprintln(w, result.Raw)
		return
	}

	for _, rejection := range result.Rejections {
		switch rejection.Reason {
		case transcript.ReasonLowConfidence:
			fmt.Fprintf(w, "[FILTERED] Low confidence (%.2f): %s\n", rejection.Entry.Confidence, formatUtterance(rejection.Entry))
		case transcript.ReasonSuspiciousContent:
			fmt.Fprintf(w, "[FILTERED] Suspicious content: %s\n", formatUtterance(rejection.Entry))
		default:
			fmt.Fprintf(w, "[FILTERED] %s: %s\n", rejection.Reason, formatUtterance(rejection.Entry))
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "[WARNING] %s\n", warning)
	}

	if len(result.Entries) == 0 {
		if len(result.Rejections) == 0 {
			fmt.Fprintln(w, "No speech detected.")
		} else {
			fmt.Fprintln(w, "No high-confidence speech detected after validation.")
		}
		return
	}

	for _, entry := range result.Entries {
		fmt.Fprintf(w, "%s [confidence: %.2f]\n", formatUtterance(entry), entry.Confidence)
	}
}

func formatUtterance(e transcript.Entry) string {
	speaker := e.Speaker
	if speaker == "" {
		speaker = "Unknown"
	}
	return fmt.Sprintf("%s %s: %s", e.Time, speaker, e.Text)
}
