package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
)

var ErrMissingAPIKey = errors.New("gemini api key is required")

// Client calls the generateContent endpoint with inline audio plus the
// transcription prompt. Responses are requested as JSON with temperature
// zero so repeated runs stay deterministic.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

type ClientOptions struct {
	APIKey     string
	Model      string
	Endpoint   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}, nil
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Transcribe sends the clip and returns the model's raw JSON text.
func (c *Client) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	payload := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Audio),
				}},
				{Text: BuildPrompt(req.Analysis)},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMIMEType: "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response contains no candidates")
	}

	c.logger.Debug("gemini call finished",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("audio_bytes", len(req.Audio)),
	)

	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
