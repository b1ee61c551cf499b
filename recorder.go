package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/binyominzeev/leining-app/audio"
	"github.com/binyominzeev/leining-app/beep"
	"github.com/binyominzeev/leining-app/encoder"
	"github.com/binyominzeev/leining-app/log"
	"github.com/binyominzeev/leining-app/transcriber"
)

const recordTail = 500 * time.Millisecond

// recorder runs one take at a time: capture feeds the transcription
// session while a VAD-backed monitor warns about silence and eventually
// auto-stops the take.
type recorder struct {
	capture audio.CaptureDevice
	trans   transcriber.Transcriber
	stream  bool

	mu     sync.Mutex
	active bool
	stopCh chan struct{}
}

func newRecorder(capture audio.CaptureDevice, trans transcriber.Transcriber, stream bool) *recorder {
	return &recorder{capture: capture, trans: trans, stream: stream}
}

func (r *recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start begins a take. The result arrives as a TakeResultMsg.
func (r *recorder) Start() error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return fmt.Errorf("take already in progress")
	}
	r.active = true
	r.stopCh = make(chan struct{})
	stop := r.stopCh
	r.mu.Unlock()

	sess, err := r.trans.NewSession(context.Background(), transcriber.SessionConfig{
		Stream:   r.stream,
		Language: r.trans.GetLanguage(),
	})
	if err != nil {
		r.finish()
		return err
	}

	go beep.PlayStart()
	log.Info("take_start")

	go r.runTake(sess, stop)
	return nil
}

// Stop ends the current take; no-op when idle.
func (r *recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
}

func (r *recorder) finish() {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()
}

func (r *recorder) runTake(sess transcriber.Session, stop <-chan struct{}) {
	defer r.finish()

	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for text := range sess.Updates() {
			tuiSend(LiveTranscriptionMsg{Text: text})
		}
	}()

	totalFrames, err := r.record(sess, stop)
	if err != nil {
		sess.Close()
		tuiSend(TakeResultMsg{Err: err})
		return
	}
	if totalFrames < uint64(encoder.SampleRate/10) {
		// Sub-100ms take, nothing worth transcribing.
		sess.Close()
		<-updatesDone
		tuiSend(TakeResultMsg{TooShort: true})
		return
	}

	result, closeErr := sess.Close()
	<-updatesDone
	tuiSend(LiveTranscriptionMsg{Text: ""})

	if closeErr != nil {
		log.Errorf("transcription error: %v", closeErr)
		tuiSend(TakeResultMsg{Err: closeErr})
		return
	}

	if result.RateLimit != "" && result.RateLimit != "?/?" {
		log.Info("rate_limit: " + result.RateLimit)
		tuiSend(RateLimitMsg{Text: "requests: " + result.RateLimit + " remaining"})
	}
	if result.NoSpeech {
		log.Info("no_speech")
	} else {
		log.TranscriptionText(result.Text)
	}
	if result.Batch != nil {
		bs := result.Batch
		log.TranscriptionMetrics(log.Metrics{
			AudioLengthS:     bs.AudioLengthS,
			RawSizeKB:        bs.RawSizeKB,
			CompressedSizeKB: bs.CompressedSizeKB,
			CompressionPct:   bs.CompressionPct,
			EncodeTimeMs:     bs.EncodeTimeMs,
			DNSTimeMs:        bs.DNSTimeMs,
			TLSTimeMs:        bs.TLSTimeMs,
			TTFBMs:           bs.TTFBMs,
			TotalTimeMs:      bs.TotalTimeMs,
			MemoryAllocMB:    result.MemoryAllocMB,
			MemoryPeakMB:     result.MemoryPeakMB,
		}, "batch", r.trans.Name(), bs.ConnReused)
	}
	if result.Stream != nil {
		ss := result.Stream
		log.StreamMetrics(log.StreamMetricsData{
			ConnectMs:    ss.ConnectMs,
			FinalizeMs:   ss.FinalizeMs,
			TotalMs:      ss.TotalMs,
			AudioS:       ss.AudioS,
			SentChunks:   ss.SentChunks,
			SentKB:       ss.SentKB,
			RecvMessages: ss.RecvMessages,
			RecvFinal:    ss.RecvFinal,
			CommitEvents: ss.CommitEvents,
		})
	}

	tuiSend(TakeResultMsg{
		Text:     result.Text,
		NoSpeech: result.NoSpeech,
		Metrics:  result.Metrics,
	})
}

func (r *recorder) record(sess transcriber.Session, stop <-chan struct{}) (uint64, error) {
	vp, err := newVADProcessor()
	if err != nil {
		return 0, fmt.Errorf("VAD init: %w", err)
	}

	var bufMu sync.Mutex
	var totalFrames uint64
	var stopped bool
	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	r.capture.SetCallback(func(data []byte, frameCount uint32) {
		bufMu.Lock()
		if stopped {
			bufMu.Unlock()
			return
		}
		totalFrames += uint64(frameCount)
		bufMu.Unlock()

		if len(data) > 0 {
			pcm := make([]byte, len(data))
			copy(pcm, data)
			sess.Feed(pcm)
		}

		if len(data) > 1 {
			var sumSquares float64
			for i := 0; i+1 < len(data); i += 2 {
				sample := int16(binary.LittleEndian.Uint16(data[i:]))
				normalized := float64(sample) / 32768.0
				sumSquares += normalized * normalized
			}
			rms := math.Sqrt(sumSquares / float64(len(data)/2))
			tuiSend(AudioLevelMsg{Level: rms})
			vp.Process(data)
		}
	})

	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		return 0, err
	}

	mon := newSilenceMonitor()
	recordStart := time.Now()
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tuiSend(TakeTickMsg{Duration: time.Since(recordStart).Seconds()})
				switch mon.Tick(vp.HasSpeechTick()) {
				case SilenceWarn:
					log.Info("no_voice_warning")
					tuiSend(NoVoiceWarningMsg{})
					beep.PlayError()
				case SilenceWarnClear:
					tuiSend(VoiceClearedMsg{})
				case SilenceRepeat:
					log.Info("silence_during_warning")
					tuiSend(NoVoiceWarningMsg{})
					beep.PlayError()
				case SilenceAutoClose:
					log.Info("silence_auto_close")
					tuiSend(SilenceAutoCloseMsg{})
					go beep.PlayEnd()
					time.Sleep(recordTail)
					closeDone()
					return
				}
			}
		}
	}()

	go func() {
		select {
		case <-stop:
		case <-done:
			return
		}
		log.Info("take_stop")
		go beep.PlayEnd()
		if r.stream {
			time.Sleep(recordTail)
		}
		closeDone()
	}()
	<-done

	r.capture.Stop()
	r.capture.ClearCallback()

	bufMu.Lock()
	stopped = true
	frames := totalFrames
	bufMu.Unlock()

	return frames, nil
}
