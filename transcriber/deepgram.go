package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/binyominzeev/leining-app/encoder"
)

const deepgramBatchURL = "https://api.deepgram.com/v1/listen"

// Deepgram supports both batch transcription and live streaming over a
// WebSocket, which drives interim transcript updates during a take.
type Deepgram struct {
	baseTranscriber
	apiKey string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		baseTranscriber: baseTranscriber{
			client: NewTracedClient(deepgramBatchURL),
			lang:   DefaultLanguage,
		},
		apiKey: apiKey,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) NewSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if cfg.Language != "" {
		d.SetLanguage(cfg.Language)
	}
	if cfg.Stream {
		return newStreamSession(func() (rawStreamSession, error) {
			return d.dialStream(ctx)
		}), nil
	}
	go d.client.Warm()
	return newBatchSession(d.transcribe)
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) transcribe(audioData []byte) (*Result, error) {
	endpoint, err := url.Parse(deepgramBatchURL)
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	q.Set("model", "nova-2")
	if d.lang != "" {
		q.Set("language", d.lang)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequest("POST", endpoint.String(), bytes.NewReader(audioData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "audio/flac")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("deepgram API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, fmt.Errorf("deepgram response parse error: %w", err)
	}

	var text string
	var confidence float64
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		text = alt.Transcript
		confidence = alt.Confidence
	}

	remaining := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining")
	limit := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit")

	return &Result{
		Text:       text,
		Metrics:    resp.Metrics,
		RateLimit:  remaining + "/" + limit,
		Confidence: confidence,
		Duration:   dgResp.Metadata.Duration,
	}, nil
}

func (d *Deepgram) streamURL() string {
	endpoint, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	q := endpoint.Query()
	q.Set("model", "nova-2")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", encoder.SampleRate))
	q.Set("channels", fmt.Sprintf("%d", encoder.Channels))
	if d.lang != "" {
		q.Set("language", d.lang)
	}
	endpoint.RawQuery = q.Encode()
	return endpoint.String()
}
