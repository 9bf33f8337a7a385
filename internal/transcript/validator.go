// Package transcript filters engine transcripts down to entries that can
// be trusted, using the audio analysis as a plausibility reference.
package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jackngare/speechgate/internal/audio"
)

// Entry is one utterance candidate as reported by the transcription
// engine. All fields are untrusted input.
type Entry struct {
	Time       string
	Speaker    string
	Text       string
	Confidence float64
}

// RejectionReason says why the validator excluded an entry.
type RejectionReason string

const (
	ReasonLowConfidence     RejectionReason = "low confidence"
	ReasonSuspiciousContent RejectionReason = "suspicious content"
)

// Rejection pairs an excluded entry with the reason it was excluded.
type Rejection struct {
	Entry  Entry
	Reason RejectionReason
}

// Result is the outcome of validating one engine response. ParseFailed
// marks a malformed response; Raw then holds the original text so callers
// can surface it verbatim. A parse failure is distinct from a legitimate
// empty transcript, which has ParseFailed false and no entries.
type Result struct {
	Entries     []Entry
	Rejections  []Rejection
	Warnings    []string
	ParseFailed bool
	Raw         string
}

const (
	DefaultConfidenceThreshold = 0.7
	DefaultConfidence          = 0.5
	DefaultSanityWindow        = 2.0
)

// Validator cleans a possibly-hallucinated transcript. Stateless; one
// instance may validate independent transcripts concurrently.
type Validator struct {
	confidenceThreshold float64
	defaultConfidence   float64
	suspiciousPhrases   []string
	sanityWindow        float64
}

type ValidatorConfig struct {
	// ConfidenceThreshold rejects entries whose confidence is strictly
	// below it. Zero means DefaultConfidenceThreshold.
	ConfidenceThreshold float64
	// DefaultConfidence is assigned to entries that omit confidence.
	// Zero means DefaultConfidence.
	DefaultConfidence float64
	// SuspiciousPhrases are lowercase substrings that mark an entry as
	// fabricated. Empty by default.
	SuspiciousPhrases []string
	// SanityWindow is the expected seconds of speech per transcript
	// entry, used only for a soft warning. Zero means
	// DefaultSanityWindow.
	SanityWindow float64
}

func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.DefaultConfidence == 0 {
		cfg.DefaultConfidence = DefaultConfidence
	}
	if cfg.SanityWindow == 0 {
		cfg.SanityWindow = DefaultSanityWindow
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be in [0,1], got %f", cfg.ConfidenceThreshold)
	}
	if cfg.DefaultConfidence < 0 || cfg.DefaultConfidence > 1 {
		return nil, fmt.Errorf("default confidence must be in [0,1], got %f", cfg.DefaultConfidence)
	}
	if cfg.SanityWindow <= 0 {
		return nil, fmt.Errorf("sanity window must be positive, got %f", cfg.SanityWindow)
	}

	phrases := make([]string, 0, len(cfg.SuspiciousPhrases))
	for _, p := range cfg.SuspiciousPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}

	return &Validator{
		confidenceThreshold: cfg.ConfidenceThreshold,
		defaultConfidence:   cfg.DefaultConfidence,
		suspiciousPhrases:   phrases,
		sanityWindow:        cfg.SanityWindow,
	}, nil
}

// Validate parses the raw engine response and filters it against the
// validator's thresholds and the clip's measured speech duration.
// Filtering decisions are recorded, never returned as errors.
func (v *Validator) Validate(raw string, analysis audio.Analysis) Result {
	var parsed []rawEntry
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{ParseFailed: true, Raw: raw}
	}

	result := Result{}
	for _, re := range parsed {
		entry := Entry{
			Time:       re.Time,
			Speaker:    re.Speaker,
			Text:       re.Text,
			Confidence: v.defaultConfidence,
		}
		if c, ok := re.confidence(); ok {
			entry.Confidence = c
		}

		if entry.Confidence < v.confidenceThreshold {
			result.Rejections = append(result.Rejections, Rejection{Entry: entry, Reason: ReasonLowConfidence})
			continue
		}

		if v.isSuspicious(entry.Text) {
			result.Rejections = append(result.Rejections, Rejection{Entry: entry, Reason: ReasonSuspiciousContent})
			continue
		}

		result.Entries = append(result.Entries, entry)
	}

	if len(result.Entries) > 0 {
		expectedMax := int(math.Floor(analysis.SpeechDuration / v.sanityWindow))
		if expectedMax < 1 {
			expectedMax = 1
		}
		if len(result.Entries) > expectedMax*3 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"transcript seems too long for detected speech duration: expected max ~%d entries, got %d",
				expectedMax, len(result.Entries)))
		}
	}

	return result
}

func (v *Validator) isSuspicious(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range v.suspiciousPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// rawEntry tolerates engines that omit confidence or emit it as a
// non-numeric value; either case falls back to the default.
type rawEntry struct {
	Time       string          `json:"time"`
	Speaker    string          `json:"speaker"`
	Text       string          `json:"text"`
	Confidence json.RawMessage `json:"confidence"`
}

func (r rawEntry) confidence() (float64, bool) {
	if len(r.Confidence) == 0 {
		return 0, false
	}

	var c float64
	if err := json.Unmarshal(r.Confidence, &c); err != nil {
		return 0, false
	}
	return c, true
}
