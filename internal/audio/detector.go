package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidAudio reports audio that cannot be analyzed at all, as opposed
// to audio that merely contains no speech.
var ErrInvalidAudio = errors.New("invalid audio input")

const (
	DefaultSilenceThreshold  = 0.005
	DefaultMinSpeechDuration = 200 * time.Millisecond
	DefaultWindow            = 100 * time.Millisecond
)

// Analysis summarizes one clip. It is a pure value: created once by
// Detector.Analyze and read-only afterwards.
type Analysis struct {
	Duration       float64
	RMSEnergy      float64
	SpeechDuration float64
	SilenceRatio   float64
	HasSpeech      bool
}

// Detector classifies whether a clip holds enough audible speech to be
// worth transcribing. It keeps no state between calls, so a single
// Detector may analyze independent clips concurrently.
type Detector struct {
	silenceThreshold  float64
	minSpeechDuration time.Duration
	window            time.Duration
}

type DetectorConfig struct {
	// SilenceThreshold is the RMS amplitude below which a window counts
	// as silent. Zero means DefaultSilenceThreshold.
	SilenceThreshold float64
	// MinSpeechDuration is the accumulated active time required before
	// the clip counts as speech. Zero means DefaultMinSpeechDuration.
	MinSpeechDuration time.Duration
	// Window is the span of each energy-estimation window. Zero means
	// DefaultWindow.
	Window time.Duration
}

func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if cfg.SilenceThreshold == 0 {
		cfg.SilenceThreshold = DefaultSilenceThreshold
	}
	if cfg.MinSpeechDuration == 0 {
		cfg.MinSpeechDuration = DefaultMinSpeechDuration
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}

	if cfg.SilenceThreshold < 0 {
		return nil, fmt.Errorf("silence threshold must not be negative, got %f", cfg.SilenceThreshold)
	}
	if cfg.MinSpeechDuration < 0 {
		return nil, fmt.Errorf("min speech duration must not be negative, got %s", cfg.MinSpeechDuration)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", cfg.Window)
	}

	return &Detector{
		silenceThreshold:  cfg.SilenceThreshold,
		minSpeechDuration: cfg.MinSpeechDuration,
		window:            cfg.Window,
	}, nil
}

// Analyze scans the clip once and fills an Analysis. Samples must be
// non-empty, mono, and normalized; anything else is ErrInvalidAudio,
// which callers must not confuse with a no-speech verdict.
func (d *Detector) Analyze(s Samples) (Analysis, error) {
	if len(s.Data) == 0 {
		return Analysis{}, fmt.Errorf("%w: empty sample sequence", ErrInvalidAudio)
	}
	if s.Rate <= 0 {
		return Analysis{}, fmt.Errorf("%w: sample rate %d", ErrInvalidAudio, s.Rate)
	}

	duration := float64(len(s.Data)) / float64(s.Rate)
	energy := rms(s.Data)

	windowSeconds := d.window.Seconds()
	windowSamples := int(windowSeconds * float64(s.Rate))

	activeWindows := 0
	if windowSamples > 0 {
		// Fixed stride, no overlap; a trailing partial window is not
		// analyzed.
		for i := 0; i+windowSamples <= len(s.Data); i += windowSamples {
			if rms(s.Data[i:i+windowSamples]) > d.silenceThreshold {
				activeWindows++
			}
		}
	}

	speechDuration := float64(activeWindows) * windowSeconds

	silenceRatio := 1.0
	if duration > 0 {
		silenceRatio = 1 - speechDuration/duration
	}

	return Analysis{
		Duration:       duration,
		RMSEnergy:      energy,
		SpeechDuration: speechDuration,
		SilenceRatio:   silenceRatio,
		HasSpeech:      speechDuration >= d.minSpeechDuration.Seconds() && energy > d.silenceThreshold,
	}, nil
}

func rms(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	var sumSquares float64
	for _, v := range data {
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(data)))
}
