package gemini

import (
	"fmt"
	"strings"

	"github.com/jackngare/speechgate/internal/audio"
)

// BuildPrompt renders the transcription instruction. The measured audio
// analysis is embedded so the model can calibrate how conservative to be;
// a clip with a high silence ratio should come back as an empty array.
func BuildPrompt(a audio.Analysis) string {
	var b strings.Builder

	b.WriteString("You are an expert transcriptionist with strict accuracy requirements.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS:\n")
	b.WriteString("- ONLY transcribe speech that you can clearly hear in the audio\n")
	b.WriteString("- DO NOT generate fictional content, conversations, or made-up speech\n")
	b.WriteString("- If you cannot clearly hear speech, return an empty array []\n")
	b.WriteString("- DO NOT create timestamps for silence or background noise\n")
	b.WriteString("- BE EXTREMELY CONSERVATIVE - when in doubt, return empty array\n\n")

	b.WriteString("Audio Analysis Context:\n")
	fmt.Fprintf(&b, "- Audio duration: %.2f seconds\n", a.Duration)
	fmt.Fprintf(&b, "- Speech content detected: %.2f seconds\n", a.SpeechDuration)
	fmt.Fprintf(&b, "- Silence ratio: %.2f\n\n", a.SilenceRatio)

	b.WriteString("Task: Transcribe ONLY the clearly audible speech in the provided audio file.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Identify speakers as \"Speaker 1\", \"Speaker 2\", etc. ONLY if you can clearly distinguish different voices\n")
	b.WriteString("2. Provide timestamps in [MM:SS] format ONLY for actual speech you can hear\n")
	b.WriteString("3. COMPLETELY IGNORE silence, background noise, or unclear audio\n")
	b.WriteString("4. If a word is repeated due to echo/stutter, write it once\n")
	b.WriteString("5. If there is no clear speech or only silence/noise, return []\n")
	b.WriteString("6. DO NOT INVENT or HALLUCINATE any speech content\n")
	b.WriteString("7. Confidence check: If you're not 90% certain you heard specific words, don't include them\n\n")

	b.WriteString("Output Format:\n")
	b.WriteString("Return a JSON array of objects. Each object must have:\n")
	b.WriteString("- \"time\": string (e.g. \"[00:12]\")\n")
	b.WriteString("- \"speaker\": string\n")
	b.WriteString("- \"text\": string\n")
	b.WriteString("- \"confidence\": number (0.0-1.0, where 1.0 is completely certain)\n\n")

	b.WriteString("REMEMBER: It's better to return an empty array than to generate fictional content!\n")

	return b.String()
}
