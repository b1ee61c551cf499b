// Package scroll advances a segmented reference text in sync with audio
// playback. Timing is derived once per reading from the audio duration
// and total scroll distance; the engine itself is a tick-driven state
// machine doing pure arithmetic, so it can be stepped from any scheduler
// (terminal tick, timer callback, test loop).
package scroll

import (
	"errors"
	"math"

	"github.com/binyominzeev/leining-app/line"
)

var (
	ErrInvalidInput = errors.New("scroll: invalid timing parameters")
	ErrNotReady     = errors.New("scroll: no reading loaded")
)

// Config holds the display geometry and tick policy. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	LineHeight    float64 // vertical units per line
	VisibleLines  int     // window size, odd
	MainLines     int     // full-emphasis band size, odd, <= VisibleLines
	BufferSeconds float64 // scroll finishes this long before the audio
	MaxTickStep   float64 // clamp on a single tick's elapsed seconds
	BaseY         float64 // vertical position of the centered line
}

// DefaultConfig mirrors the reader's display: a 7-line window with a
// 3-line emphasis band, 40-unit line height, 2 s completion margin, and
// tick deltas clamped to 100 ms to smooth over irregular tick delivery.
func DefaultConfig() Config {
	return Config{
		LineHeight:    40,
		VisibleLines:  7,
		MainLines:     3,
		BufferSeconds: 2.0,
		MaxTickStep:   0.1,
		BaseY:         190,
	}
}

// Timing is derived once per loaded reading and immutable afterwards.
type Timing struct {
	WordsPerSecond  float64
	PixelsPerSecond float64
	TotalDistance   float64
	totalLines      int
}

// NewTiming derives scroll timing from the reading's word count, its
// segmented line count, and the audio duration. The scroll is paced to
// cover the full distance in audioSeconds minus the configured buffer,
// so it completes strictly before the audio ends.
func NewTiming(totalWords, totalLines int, audioSeconds float64, cfg Config) (Timing, error) {
	if totalWords <= 0 || totalLines <= 0 {
		return Timing{}, ErrInvalidInput
	}
	if audioSeconds <= cfg.BufferSeconds {
		return Timing{}, ErrInvalidInput
	}
	distance := float64(totalLines) * cfg.LineHeight
	return Timing{
		WordsPerSecond:  float64(totalWords) / audioSeconds,
		PixelsPerSecond: distance / (audioSeconds - cfg.BufferSeconds),
		TotalDistance:   distance,
		totalLines:      totalLines,
	}, nil
}

// Band is the emphasis level of a rendered line.
type Band int

const (
	BandMain Band = iota // full emphasis, reader is here
	BandDim              // context line above/below the main band
)

// Placement is one line's render instruction for the current frame.
type Placement struct {
	Index int     // line index into the loaded segmentation
	Text  string  // visual-order form, ready to draw
	Y     float64 // vertical position in the same units as LineHeight
	Band  Band
}

// Frame is the output of a single tick.
type Frame struct {
	Lines    []Placement
	Position float64
	Done     bool // this frame reached the end of the scroll
}

// State of the engine.
type State int

const (
	Idle State = iota
	Running
	Finished
)

// Engine maps accumulated elapsed time to a scroll position over the
// loaded lines. All methods are cheap, synchronous arithmetic; the
// engine owns no timers and never blocks.
type Engine struct {
	cfg    Config
	lines  []line.Line
	timing Timing
	loaded bool

	state    State
	position float64
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Load installs a new reading, replacing any previous one wholesale, and
// resets the engine to Idle at position zero.
func (e *Engine) Load(lines []line.Line, timing Timing) {
	e.lines = lines
	e.timing = timing
	e.loaded = true
	e.state = Idle
	e.position = 0
}

// Start begins a run from the top of the text. Starting without a
// loaded reading fails with ErrNotReady.
func (e *Engine) Start() error {
	if !e.loaded {
		return ErrNotReady
	}
	e.position = 0
	e.state = Running
	return nil
}

// Stop halts the run and rewinds to the top. Idempotent; safe in any
// state.
func (e *Engine) Stop() {
	e.state = Idle
	e.position = 0
}

// State reports the engine's current state.
func (e *Engine) State() State { return e.state }

// Position reports the current scroll offset.
func (e *Engine) Position() float64 { return e.position }

// Tick advances the scroll by elapsed seconds and returns the frame to
// render. Elapsed is clamped to MaxTickStep so delayed or bursty tick
// delivery cannot jump the text. Ticks outside the Running state return
// ok=false and mutate nothing. The frame that saturates the total
// distance is still emitted, with Done set, after which the engine is
// Finished.
func (e *Engine) Tick(elapsed float64) (Frame, bool) {
	if e.state != Running {
		return Frame{}, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > e.cfg.MaxTickStep {
		elapsed = e.cfg.MaxTickStep
	}

	e.position += e.timing.PixelsPerSecond * elapsed
	if e.position >= e.timing.TotalDistance {
		e.position = e.timing.TotalDistance
		e.state = Finished
	}

	f := e.frame()
	f.Done = e.state == Finished
	return f, true
}

func (e *Engine) frame() Frame {
	center := int(e.position / e.cfg.LineHeight)
	shift := math.Mod(e.position, e.cfg.LineHeight)
	half := (e.cfg.VisibleLines - 1) / 2
	mainHalf := (e.cfg.MainLines - 1) / 2

	f := Frame{Position: e.position}
	for i := -half; i <= half; i++ {
		idx := center + i
		if idx < 0 || idx >= len(e.lines) {
			continue
		}
		band := BandDim
		if i >= -mainHalf && i <= mainHalf {
			band = BandMain
		}
		f.Lines = append(f.Lines, Placement{
			Index: idx,
			Text:  e.lines[idx].Visual,
			Y:     e.cfg.BaseY + float64(i)*e.cfg.LineHeight - shift,
			Band:  band,
		})
	}
	return f
}
