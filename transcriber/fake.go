package transcriber

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeTranscriber returns canned text instead of calling an API. Used
// by simulation mode and tests. A script makes successive sessions
// return successive entries, so a whole practice run can be replayed
// without a microphone.
type FakeTranscriber struct {
	script []string
	next   int
	err    error
	lang   string
	mu     sync.Mutex
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{script: []string{text}, err: err, lang: DefaultLanguage}
}

func NewFakeScript(texts ...string) *FakeTranscriber {
	return &FakeTranscriber{script: texts, lang: DefaultLanguage}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) SetLanguage(lang string) { f.lang = lang }

func (f *FakeTranscriber) GetLanguage() string { return f.lang }

func (f *FakeTranscriber) NewSession(_ context.Context, cfg SessionConfig) (Session, error) {
	f.mu.Lock()
	text := ""
	if len(f.script) > 0 {
		text = f.script[f.next%len(f.script)]
		f.next++
	}
	f.mu.Unlock()

	updates := make(chan string, 1)
	if cfg.Stream && text != "" {
		go func() {
			time.Sleep(100 * time.Millisecond)
			updates <- text
			close(updates)
		}()
	} else {
		close(updates)
	}
	return &fakeSession{text: text, err: f.err, updates: updates}, nil
}

type fakeSession struct {
	text    string
	err     error
	updates chan string
}

func (s *fakeSession) Feed([]byte) {}

func (s *fakeSession) Updates() <-chan string { return s.updates }

func (s *fakeSession) Close() (SessionResult, error) {
	if s.err != nil {
		return SessionResult{}, fmt.Errorf("fake transcriber error: %w", s.err)
	}
	r := SessionResult{
		Text:    s.text,
		HasText: s.text != "",
		Batch: &BatchStats{
			AudioLengthS: 1.0,
			TotalTimeMs:  10,
		},
		Metrics: []string{"total: 10ms (fake)"},
	}
	r.captureMemStats()
	return r, nil
}
