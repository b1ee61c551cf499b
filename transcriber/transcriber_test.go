package transcriber

import (
	"context"
	"encoding/binary"
	"net/http"
	"testing"
	"time"

	"github.com/binyominzeev/leining-app/encoder"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func TestBatchSessionFeedAndClose(t *testing.T) {
	fakeFn := func(audio []byte) (*Result, error) {
		if len(audio) < 4 || string(audio[:4]) != "fLaC" {
			t.Error("transcribe did not receive FLAC data")
		}
		return &Result{
			Text:    "בראשית ברא",
			Metrics: &NetworkMetrics{TTFB: 10 * time.Millisecond},
		}, nil
	}

	bs, err := newBatchSession(fakeFn)
	if err != nil {
		t.Fatalf("newBatchSession: %v", err)
	}

	// Drain updates — channel closed by Close()
	go func() {
		for range bs.Updates() {
		}
	}()

	nSamples := encoder.BlockSize + encoder.BlockSize/2
	pcm := make([]byte, nSamples*2)
	for i := range nSamples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(i%1000))
	}

	bs.Feed(pcm)

	result, err := bs.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Text != "בראשית ברא" {
		t.Errorf("Text = %q", result.Text)
	}
	if !result.HasText {
		t.Error("HasText should be true")
	}
	if result.Batch == nil {
		t.Fatal("Batch should be non-nil")
	}
	if result.Batch.AudioLengthS <= 0 {
		t.Error("AudioLengthS should be positive")
	}
}

func TestFakeScriptCycles(t *testing.T) {
	f := NewFakeScript("בראשית", "ברא אלהים")

	for i, want := range []string{"בראשית", "ברא אלהים", "בראשית"} {
		sess, err := f.NewSession(context.Background(), SessionConfig{})
		if err != nil {
			t.Fatal(err)
		}
		res, err := sess.Close()
		if err != nil {
			t.Fatal(err)
		}
		if res.Text != want {
			t.Errorf("session %d: got %q, want %q", i, res.Text, want)
		}
	}
}

func TestFakeDefaultLanguage(t *testing.T) {
	f := NewFake("שלום", nil)
	if f.GetLanguage() != DefaultLanguage {
		t.Errorf("expected language %q, got %q", DefaultLanguage, f.GetLanguage())
	}
}

func TestGroqRejectsStreaming(t *testing.T) {
	g := NewGroq("test-key")
	if _, err := g.NewSession(context.Background(), SessionConfig{Stream: true}); err == nil {
		t.Error("expected error for streaming session")
	}
}
