package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binyominzeev/leining-app/reading"
	"github.com/binyominzeev/leining-app/transcriber"
)

func testServer(t *testing.T) *server {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []struct{ name, content string }{
		{"bereshit.mp3", "fake"},
		{"bereshit.txt", "בראשית ברא אלהים את השמים ואת הארץ"},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.name), []byte(f.content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	lib := reading.NewLibrary(dir)
	lib.ProbeDuration = func(string) (float64, error) { return 4.0, nil }
	return &server{
		lib:   lib,
		trans: transcriber.NewFake("בראשית ברא", nil),
		opts:  serverOptions{IgnoreMarks: true},
	}
}

func TestHandleCompare(t *testing.T) {
	s := testServer(t)
	body := `{"reference":"בְּרֵאשִׁית","transcribed":"בראשית"}`
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCompare(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		ExactMatch bool    `json:"exact_match"`
		Similarity float64 `json:"similarity"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.ExactMatch {
		t.Error("expected exact match after normalization")
	}
	if resp.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", resp.Similarity)
	}
}

func TestHandleCompareBadJSON(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/compare", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.handleCompare(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleCompareMethodNotAllowed(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/compare", nil)
	w := httptest.NewRecorder()
	s.handleCompare(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleMarkerCheck(t *testing.T) {
	s := testServer(t)
	body := `{"transcribed":"בראשית ברא אלהים","marker_word":"ברא"}`
	req := httptest.NewRequest(http.MethodPost, "/api/marker/check", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleMarkerCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		MarkerReached bool `json:"marker_reached"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.MarkerReached {
		t.Error("expected marker reached")
	}
}

func TestHandleMarkerCheckMissingWord(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/marker/check", strings.NewReader(`{"transcribed":"x"}`))
	w := httptest.NewRecorder()
	s.handleMarkerCheck(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleReadings(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	w := httptest.NewRecorder()
	s.handleReadings(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Readings []readingSummary `json:"readings"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(resp.Readings))
	}
	r := resp.Readings[0]
	if r.Name != "bereshit" || r.TotalWords != 7 || r.AudioSeconds != 4.0 {
		t.Errorf("summary = %+v", r)
	}
}

func TestHandleTranscribe(t *testing.T) {
	s := testServer(t)
	pcm := make([]byte, 3200) // 100ms of PCM16 at 16kHz
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(string(pcm)))
	w := httptest.NewRecorder()
	s.handleTranscribe(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Transcription != "בראשית ברא" {
		t.Errorf("transcription = %q", resp.Transcription)
	}
}

func TestHandleTranscribeEmptyBody(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(""))
	w := httptest.NewRecorder()
	s.handleTranscribe(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "healthy" || resp["provider"] != "fake" {
		t.Errorf("health = %v", resp)
	}
}
