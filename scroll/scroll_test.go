package scroll

import (
	"errors"
	"testing"

	"github.com/binyominzeev/leining-app/line"
)

func testLines(t *testing.T, n int) []line.Line {
	t.Helper()
	words := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		words = append(words, 'a', 'b', ' ')
	}
	lines, err := line.Segment(string(words), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != n {
		t.Fatalf("setup: got %d lines, want %d", len(lines), n)
	}
	return lines
}

func testEngine(t *testing.T, totalLines int, audioSeconds float64) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	timing, err := NewTiming(totalLines*5, totalLines, audioSeconds, cfg)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(cfg)
	e.Load(testLines(t, totalLines), timing)
	return e
}

func TestNewTimingRejectsBadInput(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name         string
		words, lines int
		seconds      float64
	}{
		{"zero words", 0, 10, 60},
		{"zero lines", 50, 0, 60},
		{"negative words", -1, 10, 60},
		{"duration equals buffer", 50, 10, cfg.BufferSeconds},
		{"duration below buffer", 50, 10, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTiming(tc.words, tc.lines, tc.seconds, cfg); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNewTimingDerivation(t *testing.T) {
	cfg := DefaultConfig()
	timing, err := NewTiming(120, 10, 62, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if timing.TotalDistance != 400 {
		t.Errorf("TotalDistance = %v, want 400", timing.TotalDistance)
	}
	// 400 units over (62-2)s
	wantPPS := 400.0 / 60.0
	if diff := timing.PixelsPerSecond - wantPPS; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("PixelsPerSecond = %v, want %v", timing.PixelsPerSecond, wantPPS)
	}
	wantWPS := 120.0 / 62.0
	if diff := timing.WordsPerSecond - wantWPS; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("WordsPerSecond = %v, want %v", timing.WordsPerSecond, wantWPS)
	}
}

func TestStartWithoutLoadFails(t *testing.T) {
	e := NewEngine(DefaultConfig())
	if err := e.Start(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Start err = %v, want ErrNotReady", err)
	}
}

func TestTickBeforeStartIsNoop(t *testing.T) {
	e := testEngine(t, 10, 60)
	if _, ok := e.Tick(0.033); ok {
		t.Error("tick in Idle should return ok=false")
	}
	if e.Position() != 0 {
		t.Errorf("position moved to %v without Start", e.Position())
	}
}

func TestPositionMonotonicAndSaturating(t *testing.T) {
	e := testEngine(t, 10, 30)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	deltas := []float64{0.033, 0, 0.5, 0.01, 0.1, 0.033, 2.0, 0.05}
	prev := 0.0
	for i := 0; i < 2000; i++ {
		f, ok := e.Tick(deltas[i%len(deltas)])
		if !ok {
			break
		}
		if f.Position < prev {
			t.Fatalf("position reversed: %v -> %v", prev, f.Position)
		}
		if f.Position > 400 {
			t.Fatalf("position overshot total distance: %v", f.Position)
		}
		prev = f.Position
	}
	if e.State() != Finished {
		t.Errorf("state = %v, want Finished", e.State())
	}
	if e.Position() != 400 {
		t.Errorf("final position = %v, want 400", e.Position())
	}
}

func TestTickClampsLargeSteps(t *testing.T) {
	e := testEngine(t, 10, 30)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	f, ok := e.Tick(10.0) // clamped to 0.1s
	if !ok {
		t.Fatal("expected running tick")
	}
	cfg := DefaultConfig()
	want := 400.0 / (30 - cfg.BufferSeconds) * cfg.MaxTickStep
	if diff := f.Position - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("position after clamped tick = %v, want %v", f.Position, want)
	}
}

func TestNegativeElapsedIgnored(t *testing.T) {
	e := testEngine(t, 10, 30)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.Tick(0.05)
	before := e.Position()
	f, _ := e.Tick(-1)
	if f.Position != before {
		t.Errorf("negative elapsed moved position %v -> %v", before, f.Position)
	}
}

func TestFinishedFrameEmittedOnce(t *testing.T) {
	e := testEngine(t, 4, 10)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	var sawDone bool
	for i := 0; i < 5000; i++ {
		f, ok := e.Tick(0.1)
		if !ok {
			break
		}
		if f.Done {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatal("never saw the finishing frame")
	}
	// Ticks after Finished are silent no-ops.
	if _, ok := e.Tick(0.1); ok {
		t.Error("tick after Finished should return ok=false")
	}
	if e.Position() != 160 { // 4 lines * 40 units
		t.Errorf("position mutated after Finished: %v", e.Position())
	}
}

func TestWindowBandsAndOmission(t *testing.T) {
	e := testEngine(t, 10, 60)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	f, ok := e.Tick(0.001)
	if !ok {
		t.Fatal("expected frame")
	}
	// At the top of the text the window is half out of range: the
	// center line plus three below it.
	if len(f.Lines) != 4 {
		t.Fatalf("got %d lines, want 4 near the top", len(f.Lines))
	}
	for _, p := range f.Lines {
		wantBand := BandDim
		if p.Index <= 1 { // offsets 0 and +1 of a 3-line main band
			wantBand = BandMain
		}
		if p.Band != wantBand {
			t.Errorf("line %d band = %v, want %v", p.Index, p.Band, wantBand)
		}
		if p.Index < 0 || p.Index >= 10 {
			t.Errorf("out-of-range line emitted: %d", p.Index)
		}
	}
}

func TestWindowYPositions(t *testing.T) {
	cfg := DefaultConfig()
	e := testEngine(t, 20, 120)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	// Advance far enough that the full 7-line window is in range.
	var f Frame
	for e.Position() < 5*cfg.LineHeight {
		f, _ = e.Tick(0.1)
	}
	if len(f.Lines) != cfg.VisibleLines {
		t.Fatalf("got %d lines, want full window of %d", len(f.Lines), cfg.VisibleLines)
	}
	center := int(f.Position / cfg.LineHeight)
	shift := f.Position - float64(center)*cfg.LineHeight
	for _, p := range f.Lines {
		offset := p.Index - center
		wantY := cfg.BaseY + float64(offset)*cfg.LineHeight - shift
		if diff := p.Y - wantY; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("line %d Y = %v, want %v", p.Index, p.Y, wantY)
		}
	}
}

func TestStopRewindsAndIsIdempotent(t *testing.T) {
	e := testEngine(t, 10, 60)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.Tick(0.1)
	e.Stop()
	e.Stop()
	if e.State() != Idle {
		t.Errorf("state after Stop = %v, want Idle", e.State())
	}
	if e.Position() != 0 {
		t.Errorf("position after Stop = %v, want 0", e.Position())
	}
	if _, ok := e.Tick(0.1); ok {
		t.Error("tick after Stop should return ok=false")
	}
}

func TestRestartAfterFinish(t *testing.T) {
	e := testEngine(t, 4, 10)
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	for {
		if _, ok := e.Tick(0.1); !ok {
			break
		}
	}
	if err := e.Start(); err != nil {
		t.Fatalf("restart after finish: %v", err)
	}
	if e.Position() != 0 {
		t.Errorf("restart position = %v, want 0", e.Position())
	}
}
