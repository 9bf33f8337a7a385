package gemini

import (
	"context"

	"github.com/jackngare/speechgate/internal/audio"
)

type TranscriptionRequest struct {
	Audio    []byte
	MIMEType string
	Analysis audio.Analysis
}

// Engine turns audio into the raw JSON-array transcript text. The text is
// untrusted until it passes the transcript validator.
type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}
