package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/binyominzeev/leining-app/feedback"
	"github.com/binyominzeev/leining-app/hebrew"
	"github.com/binyominzeev/leining-app/log"
	"github.com/binyominzeev/leining-app/reading"
	"github.com/binyominzeev/leining-app/transcriber"
)

type serverOptions struct {
	Marker      string
	IgnoreMarks bool
}

// server exposes the feedback pipeline over HTTP so a web frontend can
// drive the same comparison and marker logic the TUI uses.
type server struct {
	lib   *reading.Library
	trans transcriber.Transcriber
	opts  serverOptions
}

func runServer(addr string, lib *reading.Library, trans transcriber.Transcriber, opts serverOptions) error {
	s := &server{lib: lib, trans: trans, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/readings", s.handleReadings)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/marker/check", s.handleMarkerCheck)
	mux.HandleFunc("/api/transcribe", s.handleTranscribe)
	mux.HandleFunc("/ws/feedback", s.handleFeedbackWS)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	log.Info("serve_start: " + addr)
	fmt.Printf("leining API listening on %s\n", addr)
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"provider":  s.trans.Name(),
		"language":  s.trans.GetLanguage(),
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type readingSummary struct {
	Name         string  `json:"name"`
	TotalWords   int     `json:"total_words"`
	AudioSeconds float64 `json:"audio_seconds"`
	WPM          float64 `json:"words_per_minute"`
}

func (s *server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	entries, err := s.lib.Scan()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summaries := make([]readingSummary, 0, len(entries))
	for _, e := range entries {
		rd, err := s.lib.Load(e.Name)
		if err != nil {
			log.Warnf("readings: load %s: %v", e.Name, err)
			continue
		}
		summaries = append(summaries, readingSummary{
			Name:         rd.Name,
			TotalWords:   rd.TotalWords,
			AudioSeconds: rd.AudioSeconds,
			WPM:          rd.WordsPerMinute(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": summaries})
}

type compareRequest struct {
	Reference   string `json:"reference"`
	Transcribed string `json:"transcribed"`
	IgnoreNikud *bool  `json:"ignore_nikud"`
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ignore := true
	if req.IgnoreNikud != nil {
		ignore = *req.IgnoreNikud
	}
	c := hebrew.Compare(req.Reference, req.Transcribed, ignore)
	refNorm, transNorm := req.Reference, req.Transcribed
	if ignore {
		refNorm = hebrew.Normalize(req.Reference)
		transNorm = hebrew.Normalize(req.Transcribed)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exact_match":            c.ExactMatch,
		"similarity":             c.Similarity,
		"reference_normalized":   refNorm,
		"transcribed_normalized": transNorm,
	})
}

type markerCheckRequest struct {
	Transcribed string `json:"transcribed"`
	MarkerWord  string `json:"marker_word"`
	IgnoreNikud *bool  `json:"ignore_nikud"`
}

func (s *server) handleMarkerCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req markerCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MarkerWord == "" {
		writeError(w, http.StatusBadRequest, "marker_word required")
		return
	}
	ignore := true
	if req.IgnoreNikud != nil {
		ignore = *req.IgnoreNikud
	}
	reached := hebrew.HasReachedMarker(req.Transcribed, req.MarkerWord, ignore)
	writeJSON(w, http.StatusOK, map[string]any{
		"marker_reached": reached,
		"marker_word":    req.MarkerWord,
		"transcribed":    req.Transcribed,
	})
}

// handleTranscribe accepts PCM16 mono audio at the capture sample rate,
// either as the raw request body or as a multipart "file" field, and
// runs it through a batch transcription session.
func (s *server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var pcm []byte
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			writeError(w, http.StatusBadRequest, "file field required")
			return
		}
		defer file.Close()
		pcm, err = io.ReadAll(file)
	} else {
		pcm, err = io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<20))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if len(pcm) == 0 {
		writeError(w, http.StatusBadRequest, "no audio data")
		return
	}

	start := time.Now()
	sess, err := s.trans.NewSession(r.Context(), transcriber.SessionConfig{
		Language: s.trans.GetLanguage(),
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	sess.Feed(pcm)
	result, err := sess.Close()
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	log.TranscriptionText(result.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"transcription":   result.Text,
		"language":        s.trans.GetLanguage(),
		"processing_time": time.Since(start).Seconds(),
	})
}

// WebSocket feedback protocol: the client configures a reference and
// marker, then streams transcription updates; each update gets a
// feedback event back. "reset" clears the flash latch for a new take.
type wsClientMsg struct {
	Type          string `json:"type"` // config | transcription | reset
	ReferenceText string `json:"reference_text,omitempty"`
	MarkerWord    string `json:"marker_word,omitempty"`
	IgnoreNikud   *bool  `json:"ignore_nikud,omitempty"`
	Text          string `json:"text,omitempty"`
}

type wsServerMsg struct {
	Type          string  `json:"type"` // config_ack | feedback | reset_ack | error
	Message       string  `json:"message,omitempty"`
	ExactMatch    bool    `json:"exact_match,omitempty"`
	Similarity    float64 `json:"similarity,omitempty"`
	MarkerReached bool    `json:"marker_reached,omitempty"`
	Flash         bool    `json:"flash,omitempty"`
}

func (s *server) handleFeedbackWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")
	log.Info("ws_connect")

	ctx := r.Context()
	sess := feedback.NewSession("", s.opts.Marker, s.opts.IgnoreMarks)

	for {
		var msg wsClientMsg
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
			} else {
				log.Warnf("ws read: %v", err)
			}
			log.Info("ws_disconnect")
			return
		}

		switch msg.Type {
		case "config":
			ignore := s.opts.IgnoreMarks
			if msg.IgnoreNikud != nil {
				ignore = *msg.IgnoreNikud
			}
			sess = feedback.NewSession(msg.ReferenceText, msg.MarkerWord, ignore)
			wsjson.Write(ctx, conn, wsServerMsg{Type: "config_ack", Message: "configuration updated"})

		case "transcription":
			ev := sess.Submit(msg.Text)
			if ev.FlashTriggered {
				log.MarkerFlash(sess.Marker())
			}
			wsjson.Write(ctx, conn, wsServerMsg{
				Type:          "feedback",
				ExactMatch:    ev.ExactMatch,
				Similarity:    ev.Similarity,
				MarkerReached: ev.MarkerReached,
				Flash:         ev.FlashTriggered,
			})

		case "reset":
			sess.Reset()
			wsjson.Write(ctx, conn, wsServerMsg{Type: "reset_ack"})

		default:
			wsjson.Write(ctx, conn, wsServerMsg{Type: "error", Message: "unknown message type"})
		}
	}
}
