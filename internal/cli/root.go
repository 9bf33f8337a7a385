package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jackngare/speechgate/internal/audio"
	"github.com/jackngare/speechgate/internal/gemini"
	"github.com/jackngare/speechgate/internal/logging"
	"github.com/jackngare/speechgate/internal/transcript"
	"github.com/jackngare/speechgate/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool

	silenceThreshold  float64
	minSpeechDuration time.Duration
	window            time.Duration

	confidenceThreshold float64
	suspiciousPhrases   []string
	sanityWindow        float64

	model      string
	apiKey     string
	failClosed bool

	logger *zap.Logger

	decodeFn     func(path string) (audio.Samples, error)
	transcribeFn func(ctx context.Context, req gemini.TranscriptionRequest) (string, error)

	isTerminal func() bool
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		silenceThreshold:    audio.DefaultSilenceThreshold,
		minSpeechDuration:   audio.DefaultMinSpeechDuration,
		window:              audio.DefaultWindow,
		confidenceThreshold: transcript.DefaultConfidenceThreshold,
		sanityWindow:        transcript.DefaultSanityWindow,
		model:               gemini.DefaultModel,
		apiKey:              os.Getenv("GEMINI_API_KEY"),
	}
	app.decodeFn = audio.DecodeWAV
	app.transcribeFn = app.transcribeAudio

	cmd := &cobra.Command{
		Use:           "speechgate <audio-file>",
		Short:         "Detect speech in audio and transcribe it without hallucinations",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runProcess(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindDetectorFlags(cmd, app)
	bindValidatorFlags(cmd, app)
	bindEngineFlags(cmd, app)

	cmd.AddCommand(newAnalyzeCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.Flags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindDetectorFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().Float64Var(&app.silenceThreshold, "silence-threshold", app.silenceThreshold, "RMS amplitude below which a window counts as silent")
	cmd.Flags().DurationVar(&app.minSpeechDuration, "min-speech-duration", app.minSpeechDuration, "Minimum accumulated speech time to transcribe at all")
	cmd.Flags().DurationVar(&app.window, "window", app.window, "Window size for local energy estimation")
	cmd.Flags().BoolVar(&app.failClosed, "fail-closed", app.failClosed, "Treat audio decode failures as errors instead of assuming speech")
}

func bindValidatorFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().Float64Var(&app.confidenceThreshold, "confidence-threshold", app.confidenceThreshold, "Drop transcript entries below this confidence")
	cmd.Flags().StringArrayVar(&app.suspiciousPhrases, "suspicious-phrase", app.suspiciousPhrases, "Substring that marks a transcript entry as fabricated (repeatable)")
	cmd.Flags().Float64Var(&app.sanityWindow, "sanity-window", app.sanityWindow, "Expected seconds of speech per transcript entry, for the length sanity check")
}

func bindEngineFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "Gemini model used for transcription")
	cmd.Flags().StringVar(&app.apiKey, "api-key", app.apiKey, "Gemini API key (defaults to GEMINI_API_KEY)")
}

// runProcess is the full pipeline: decode, analyze, gate, transcribe,
// validate, report.
func (a *appState) runProcess(ctx context.Context, out io.Writer, audioPath string) error {
	analysis, proceed, err := a.analyzeFile(out, audioPath)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}

	transcribeFn := a.transcribeFn
	if transcribeFn == nil {
		transcribeFn = a.transcribeAudio
	}

	audioBytes, err := os.ReadFile(filepath.Clean(audioPath))
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	a.log().Info("transcribing...", zap.String("audio", audioPath), zap.String("model", a.model))
	stopSpinner := startSpinner(a.progressEnabled(), "Transcribing")
	started := time.Now()

	raw, err := transcribeFn(ctx, gemini.TranscriptionRequest{
		Audio:    audioBytes,
		MIMEType: "audio/wav",
		Analysis: analysis,
	})
	stopSpinner()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)))

	validator, err := a.buildValidator()
	if err != nil {
		return err
	}

	printResult(out, validator.Validate(raw, analysis))
	return nil
}

// analyzeFile decodes and analyzes the clip and prints the analysis
// report. The second return value says whether the pipeline should go on
// to transcription; a clip without speech stops cleanly.
func (a *appState) analyzeFile(out io.Writer, audioPath string) (audio.Analysis, bool, error) {
	detector, err := a.buildDetector()
	if err != nil {
		return audio.Analysis{}, false, err
	}

	decodeFn := a.decodeFn
	if decodeFn == nil {
		decodeFn = audio.DecodeWAV
	}

	samples, err := decodeFn(audioPath)
	if err != nil {
		if a.failClosed {
			return audio.Analysis{}, false, fmt.Errorf("analyze audio: %w", err)
		}

		// Decode failures assume speech rather than silently dropping a
		// real recording. A corrupted file therefore still reaches the
		// engine; --fail-closed opts out.
		a.log().Warn("audio analysis failed; assuming speech is present", zap.String("audio", audioPath), zap.Error(err))
		analysis := audio.Analysis{HasSpeech: true, SilenceRatio: 1}
		printAnalysis(out, analysis)
		return analysis, true, nil
	}

	analysis, err := detector.Analyze(samples)
	if err != nil {
		return audio.Analysis{}, false, fmt.Errorf("analyze audio: %w", err)
	}

	a.log().Debug("audio analyzed",
		zap.Float64("duration_s", analysis.Duration),
		zap.Float64("rms_energy", analysis.RMSEnergy),
		zap.Float64("speech_duration_s", analysis.SpeechDuration),
		zap.Float64("silence_ratio", analysis.SilenceRatio),
		zap.Bool("has_speech", analysis.HasSpeech),
	)

	printAnalysis(out, analysis)

	if !analysis.HasSpeech {
		printNoSpeech(out)
		return analysis, false, nil
	}

	return analysis, true, nil
}

func (a *appState) buildDetector() (*audio.Detector, error) {
	detector, err := audio.NewDetector(audio.DetectorConfig{
		SilenceThreshold:  a.silenceThreshold,
		MinSpeechDuration: a.minSpeechDuration,
		Window:            a.window,
	})
	if err != nil {
		return nil, fmt.Errorf("configure detector: %w", err)
	}
	return detector, nil
}

func (a *appState) buildValidator() (*transcript.Validator, error) {
	validator, err := transcript.NewValidator(transcript.ValidatorConfig{
		ConfidenceThreshold: a.confidenceThreshold,
		SuspiciousPhrases:   a.suspiciousPhrases,
		SanityWindow:        a.sanityWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("configure validator: %w", err)
	}
	return validator, nil
}

func (a *appState) transcribeAudio(ctx context.Context, req gemini.TranscriptionRequest) (string, error) {
	client, err := gemini.NewClient(gemini.ClientOptions{
		APIKey: a.apiKey,
		Model:  a.model,
		Logger: a.log(),
	})
	if err != nil {
		return "", err
	}
	return client.Transcribe(ctx, req)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}
