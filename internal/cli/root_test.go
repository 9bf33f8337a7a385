package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackngare/speechgate/internal/audio"
	"github.com/jackngare/speechgate/internal/gemini"
	"github.com/stretchr/testify/require"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAV(make([]int16, 160), 16000, 1), 0o644))
	return path
}

func TestRunProcessSkipsTranscriptionWithoutSpeech(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	transcribeCalls := 0

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{Data: make([]float64, 16000*2), Rate: 16000}, nil
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			transcribeCalls++
			return "[]", nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.NoError(t, err)
	require.Equal(t, 0, transcribeCalls)
	require.Contains(t, out.String(), "Has Speech: false")
	require.Contains(t, out.String(), "No meaningful speech content detected in audio file.")
	require.Contains(t, out.String(), "Skipping transcription to prevent hallucination.")
}

func TestRunProcessTranscribesAndValidates(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	var captured gemini.TranscriptionRequest

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{Data: toneSamples(16000, 3, 7), Rate: 16000}, nil
		},
		transcribeFn: func(_ context.Context, req gemini.TranscriptionRequest) (string, error) {
			captured = req
			return `[
				{"time": "[00:01]", "speaker": "Speaker 1", "text": "hello", "confidence": 0.95},
				{"time": "[00:02]", "speaker": "Speaker 2", "text": "hi", "confidence": 0.95}
			]`, nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.NoError(t, err)

	require.InDelta(t, 3.0, captured.Analysis.SpeechDuration, 1e-9)
	require.InDelta(t, 0.7, captured.Analysis.SilenceRatio, 1e-9)
	require.NotEmpty(t, captured.Audio)

	require.Contains(t, out.String(), "Has Speech: true")
	require.Contains(t, out.String(), "Silence Ratio: 0.70")
	require.Contains(t, out.String(), "[00:01] Speaker 1: hello [confidence: 0.95]")
	require.Contains(t, out.String(), "[00:02] Speaker 2: hi [confidence: 0.95]")
	require.NotContains(t, out.String(), "[WARNING]")
}

func TestRunProcessFailsOpenOnDecodeError(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	transcribeCalls := 0

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{}, audio.ErrInvalidWAV
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			transcribeCalls++
			return "[]", nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.NoError(t, err)
	require.Equal(t, 1, transcribeCalls)
	require.Contains(t, out.String(), "Has Speech: true")
	require.Contains(t, out.String(), "No speech detected.")
}

func TestRunProcessFailClosedTurnsDecodeErrorFatal(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)

	app := &appState{
		failClosed: true,
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{}, audio.ErrInvalidWAV
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			t.Fatal("transcribe must not run when decoding fails closed")
			return "", nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.ErrorIs(t, err, audio.ErrInvalidWAV)
}

func TestRunProcessSurfacesRawTextOnParseFailure(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{Data: toneSamples(16000, 3, 0), Rate: 16000}, nil
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			return "{not json", nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.NoError(t, err)
	require.Contains(t, out.String(), "--- Raw Transcript (JSON Parse Failed) ---")
	require.Contains(t, out.String(), "{not json")
}

func TestRunProcessReportsFilteredEntries(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{Data: toneSamples(16000, 3, 0), Rate: 16000}, nil
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			return `[
				{"time": "[00:01]", "speaker": "Speaker 1", "text": "mumble", "confidence": 0.6},
				{"time": "[00:02]", "speaker": "Speaker 1", "text": "clear words", "confidence": 0.95}
			]`, nil
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.NoError(t, err)
	require.Contains(t, out.String(), "[FILTERED] Low confidence (0.60): [00:01] Speaker 1: mumble")
	require.Contains(t, out.String(), "[00:02] Speaker 1: clear words [confidence: 0.95]")
}

func TestRunProcessPropagatesTranscriptionError(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	engineErr := errors.New("gemini http 500: boom")

	app := &appState{
		decodeFn: func(string) (audio.Samples, error) {
			return audio.Samples{Data: toneSamples(16000, 3, 0), Rate: 16000}, nil
		},
		transcribeFn: func(context.Context, gemini.TranscriptionRequest) (string, error) {
			return "", engineErr
		},
	}

	err := app.runProcess(context.Background(), out, writeTempAudio(t))
	require.ErrorIs(t, err, engineErr)
}
