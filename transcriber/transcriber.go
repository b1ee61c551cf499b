// Package transcriber turns captured PCM into Hebrew text. Providers
// implement the Transcriber interface; a session accepts PCM via Feed
// and yields the transcript on Close, with interim updates on the
// Updates channel for streaming providers.
package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// DefaultLanguage is what every provider transcribes unless overridden.
const DefaultLanguage = "he"

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type Segment struct {
	Text         string
	NoSpeechProb float64
	AvgLogProb   float64
	Start        float64
	End          float64
}

type Result struct {
	Text         string
	Metrics      *NetworkMetrics
	RateLimit    string
	Confidence   float64
	NoSpeechProb float64
	AvgLogProb   float64
	Duration     float64
	Segments     []Segment
}

type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	GetLanguage() string
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

type baseTranscriber struct {
	client *TracedClient
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

// New picks a provider from the environment. Groq handles Hebrew batch
// transcription well; Deepgram adds live streaming updates.
func New() (Transcriber, error) {
	groqKey := os.Getenv("GROQ_API_KEY")
	dgKey := os.Getenv("DEEPGRAM_API_KEY")

	if groqKey != "" {
		return NewGroq(groqKey), nil
	}
	if dgKey != "" {
		return NewDeepgram(dgKey), nil
	}

	return nil, fmt.Errorf("set GROQ_API_KEY or DEEPGRAM_API_KEY environment variable")
}
