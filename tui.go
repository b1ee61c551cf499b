package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/binyominzeev/leining-app/beep"
	"github.com/binyominzeev/leining-app/feedback"
	"github.com/binyominzeev/leining-app/line"
	"github.com/binyominzeev/leining-app/log"
	"github.com/binyominzeev/leining-app/reading"
	"github.com/binyominzeev/leining-app/scroll"
)

// TUI message types
type AudioLevelMsg struct{ Level float64 }
type TakeTickMsg struct{ Duration float64 }
type LiveTranscriptionMsg struct{ Text string }
type TakeResultMsg struct {
	Text     string
	Metrics  []string
	NoSpeech bool
	TooShort bool
	Err      error
}
type NoVoiceWarningMsg struct{}
type VoiceClearedMsg struct{}
type SilenceAutoCloseMsg struct{}
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type RateLimitMsg struct{ Text string }
type tickMsg time.Time

type tuiView int

const (
	viewLibrary tuiView = iota
	viewPractice
)

const (
	tuiFrameInterval = 33 * time.Millisecond
	flashDuration    = 900 * time.Millisecond
)

type tuiOptions struct {
	Marker      string
	IgnoreMarks bool
	LineChars   int
	Provider    string
	Device      string
}

type tuiModel struct {
	view          tuiView
	frame         int
	width, height int

	// library view
	lib     *reading.Library
	entries []reading.Entry
	cursor  int
	loadErr string

	// practice view
	opts    tuiOptions
	rec     *recorder
	reading *reading.Reading
	lines   []line.Line
	engine  *scroll.Engine
	fb      *feedback.Session
	takes   int

	scrollFrame scroll.Frame
	haveFrame   bool
	lastTick    time.Time

	recording    bool
	takeDuration float64
	audioLevel   float64
	peakLevel    float64
	silenceWarn  bool

	liveText    string
	lastText    string
	lastMetrics []string
	noSpeech    bool
	copied      bool
	haveEvent   bool
	lastEvent   feedback.Event
	flashUntil  time.Time

	modeLine   string
	deviceLine string
	rateLimit  string
	errLine    string
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// Pre-computed styles, shared by both views.
var (
	styleTitle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)
	styleMain    = lipgloss.NewStyle().Foreground(lipgloss.Color("231"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFaint   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleLive    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleFlash   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	styleFlashBg = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("226")).Bold(true)
	styleCursor  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)
)

func newTUIModel(lib *reading.Library, rec *recorder, opts tuiOptions) tuiModel {
	m := tuiModel{
		view:       viewLibrary,
		lib:        lib,
		rec:        rec,
		opts:       opts,
		engine:     scroll.NewEngine(scroll.DefaultConfig()),
		modeLine:   opts.Provider,
		deviceLine: opts.Device,
	}
	if entries, err := lib.Scan(); err != nil {
		m.loadErr = err.Error()
	} else {
		m.entries = entries
	}
	return m
}

func NewTUIProgram(lib *reading.Library, rec *recorder, opts tuiOptions) *tea.Program {
	return tea.NewProgram(newTUIModel(lib, rec, opts), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(tuiFrameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// tuiSend forwards a message to the running program; safe before startup.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		now := time.Time(msg)
		if m.engine.State() == scroll.Running && !m.lastTick.IsZero() {
			if f, ok := m.engine.Tick(now.Sub(m.lastTick).Seconds()); ok {
				m.scrollFrame = f
				m.haveFrame = true
			}
		}
		m.lastTick = now
		return m, tuiTick()

	case AudioLevelMsg:
		if m.recording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case TakeTickMsg:
		m.takeDuration = msg.Duration

	case LiveTranscriptionMsg:
		m.liveText = msg.Text
		if msg.Text != "" && m.fb != nil {
			m.applyEvent(m.fb.Submit(msg.Text), false)
		}

	case TakeResultMsg:
		m.recording = false
		m.audioLevel = 0
		m.silenceWarn = false
		switch {
		case msg.Err != nil:
			m.errLine = msg.Err.Error()
		case msg.TooShort:
			m.errLine = "take too short, try again"
		default:
			m.errLine = ""
			m.takes++
			m.lastText = msg.Text
			m.lastMetrics = msg.Metrics
			m.noSpeech = msg.NoSpeech
			m.copied = false
			if !msg.NoSpeech && m.fb != nil {
				m.applyEvent(m.fb.Submit(msg.Text), true)
			}
		}

	case NoVoiceWarningMsg:
		m.silenceWarn = true

	case VoiceClearedMsg:
		m.silenceWarn = false

	case SilenceAutoCloseMsg:
		m.silenceWarn = false

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case RateLimitMsg:
		m.rateLimit = msg.Text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || (key == "q" && !m.recording) {
		if m.reading != nil {
			log.PracticeEnd(m.reading.Name, m.takes)
		}
		return m, tea.Quit
	}

	if m.view == viewLibrary {
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.entries) > 0 {
				m.openReading(m.entries[m.cursor].Name)
			}
		}
		return m, nil
	}

	switch key {
	case "esc":
		if m.recording {
			m.rec.Stop()
		}
		m.engine.Stop()
		log.PracticeEnd(m.reading.Name, m.takes)
		m.view = viewLibrary
		m.reading = nil
		m.haveFrame = false
		m.liveText = ""
		m.lastText = ""
		m.haveEvent = false
		m.takes = 0
	case "s":
		switch m.engine.State() {
		case scroll.Running:
			m.engine.Stop()
			m.haveFrame = false
		default:
			if err := m.engine.Start(); err == nil {
				m.lastTick = time.Now()
			}
		}
	case "r":
		if m.recording {
			m.rec.Stop()
		} else {
			m.fb.Reset()
			m.recording = true
			m.takeDuration = 0
			m.peakLevel = 0
			m.errLine = ""
			if err := m.rec.Start(); err != nil {
				m.recording = false
				m.errLine = err.Error()
			}
		}
	case "c":
		if m.lastText != "" && !m.noSpeech {
			if err := clipboard.WriteAll(m.lastText); err == nil {
				m.copied = true
			}
		}
	}
	return m, nil
}

func (m *tuiModel) openReading(name string) {
	r, err := m.lib.Load(name)
	if err != nil {
		m.loadErr = err.Error()
		return
	}
	chars := m.opts.LineChars
	if chars <= 0 {
		chars = 40
	}
	lines, err := line.Segment(r.Text, chars)
	if err != nil {
		m.loadErr = err.Error()
		return
	}
	timing, err := scroll.NewTiming(r.TotalWords, len(lines), r.AudioSeconds, scroll.DefaultConfig())
	if err != nil {
		m.loadErr = err.Error()
		return
	}

	m.reading = r
	m.lines = lines
	m.engine.Load(lines, timing)
	m.fb = feedback.NewSession(r.Text, m.opts.Marker, m.opts.IgnoreMarks)
	m.view = viewPractice
	m.loadErr = ""
	m.haveFrame = false
	m.haveEvent = false
	m.liveText = ""
	m.lastText = ""
	m.takes = 0

	log.ReadingLoaded(r.Name, r.TotalWords, r.AudioSeconds, r.WordsPerMinute())
	log.PracticeStart(r.Name, m.opts.Provider)
}

// applyEvent folds a feedback event into the model. Interim stream
// updates only contribute the flash; similarity display waits for the
// final transcript.
func (m *tuiModel) applyEvent(ev feedback.Event, final bool) {
	if final {
		m.lastEvent = ev
		m.haveEvent = true
	}
	if ev.FlashTriggered {
		m.flashUntil = time.Now().Add(flashDuration)
		go beep.PlayMarker()
		log.MarkerFlash(m.opts.Marker)
	}
	if final {
		log.Feedback(ev.Similarity, ev.ExactMatch, ev.MarkerReached)
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.view == viewLibrary {
		return m.viewLibraryScreen()
	}
	return m.viewPracticeScreen()
}

func (m tuiModel) viewLibraryScreen() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("leining — readings") + "\n\n")

	if m.loadErr != "" {
		b.WriteString(styleWarn.Render(m.loadErr) + "\n\n")
	}
	if len(m.entries) == 0 {
		b.WriteString(styleDim.Render("no readings found (need <name>.mp3 + <name>.txt pairs)") + "\n")
	}
	for i, e := range m.entries {
		if i == m.cursor {
			b.WriteString(styleCursor.Render("> "+e.Name) + "\n")
		} else {
			b.WriteString(styleDim.Render("  "+e.Name) + "\n")
		}
	}

	b.WriteString("\n")
	if m.modeLine != "" {
		b.WriteString(styleDim.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(styleDim.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n" + styleFaint.Render("↑/↓ select · enter open · q quit") + "\n")
	b.WriteString(styleFaint.Render("leining "+version) + "\n")
	return b.String()
}

func (m tuiModel) viewPracticeScreen() string {
	textWidth := m.width * 3 / 5
	if textWidth < 30 {
		textWidth = 30
	}
	sideWidth := m.width - textWidth - 1
	if sideWidth < 20 {
		sideWidth = 20
	}

	flash := time.Now().Before(m.flashUntil)

	// Left panel: the scrolling text.
	var text strings.Builder
	header := fmt.Sprintf("%s  %d words · %.0fs · %.0f wpm",
		m.reading.Name, m.reading.TotalWords, m.reading.AudioSeconds, m.reading.WordsPerMinute())
	text.WriteString(styleTitle.Render(header) + "\n\n")

	switch {
	case m.haveFrame:
		for _, p := range m.scrollFrame.Lines {
			text.WriteString(renderPlacement(p, textWidth, flash) + "\n")
		}
		if m.scrollFrame.Done {
			text.WriteString("\n" + styleGood.Render("— end of reading —") + "\n")
		}
	case m.engine.State() == scroll.Idle:
		// Static preview of the top of the text.
		for i, ln := range m.lines {
			if i >= 9 {
				break
			}
			sty := styleDim
			if i < 3 {
				sty = styleMain
			}
			text.WriteString(padRight(sty.Render(ln.Visual), textWidth) + "\n")
		}
	}

	// Right panel: take state and feedback.
	var side strings.Builder
	if m.recording {
		side.WriteString(styleRec.Render(fmt.Sprintf("● REC %.1fs", m.takeDuration)) + "\n")
		side.WriteString(levelBar(m.audioLevel, sideWidth-4) + "\n")
		if m.silenceWarn {
			side.WriteString(styleWarn.Render("⚠ no voice detected") + "\n")
		}
	} else {
		side.WriteString(styleDim.Render("○ standby") + "\n")
	}
	if m.engine.State() == scroll.Running {
		side.WriteString(styleLive.Render(fmt.Sprintf("▶ scrolling (%.0f)", m.engine.Position())) + "\n")
	}
	side.WriteString("\n")

	if flash {
		side.WriteString(styleFlashBg.Render(" ★ "+m.opts.Marker+" ") + "\n\n")
	}

	if m.liveText != "" {
		side.WriteString(styleFaint.Render("live:") + "\n")
		for _, l := range wrapText(m.liveText, sideWidth-2) {
			side.WriteString(styleLive.Render(l) + "\n")
		}
		side.WriteString("\n")
	}

	if m.lastText != "" || m.noSpeech {
		side.WriteString(styleFaint.Render(fmt.Sprintf("take #%d:", m.takes)) + "\n")
		if m.noSpeech {
			side.WriteString(styleWarn.Render("(no speech detected)") + "\n")
		} else {
			for i, l := range wrapText(m.lastText, sideWidth-2) {
				side.WriteString(styleMain.Render(l))
				if i == 0 && m.copied {
					side.WriteString(" " + styleGood.Render("[✓ copied]"))
				}
				side.WriteString("\n")
			}
		}
	}
	if m.haveEvent {
		sim := fmt.Sprintf("similarity %.0f%%", m.lastEvent.Similarity*100)
		switch {
		case m.lastEvent.ExactMatch:
			side.WriteString(styleGood.Render(sim+" — exact") + "\n")
		case m.lastEvent.Similarity >= 0.8:
			side.WriteString(styleGood.Render(sim) + "\n")
		default:
			side.WriteString(styleWarn.Render(sim) + "\n")
		}
		if m.lastEvent.MarkerReached && m.opts.Marker != "" {
			side.WriteString(styleFlash.Render("marker reached: "+m.opts.Marker) + "\n")
		}
	}
	if len(m.lastMetrics) > 0 {
		side.WriteString("\n")
		for _, metric := range m.lastMetrics {
			side.WriteString(styleFaint.Render(metric) + "\n")
		}
	}
	if m.errLine != "" {
		side.WriteString("\n" + styleWarn.Render(m.errLine) + "\n")
	}
	if m.rateLimit != "" {
		side.WriteString("\n" + styleDim.Render(m.rateLimit) + "\n")
	}

	side.WriteString("\n" + styleFaint.Render("s scroll · r record · c copy · esc back · q quit") + "\n")

	left := lipgloss.NewStyle().Width(textWidth).Height(m.height).Render(text.String())
	right := lipgloss.NewStyle().Width(sideWidth).Height(m.height).PaddingLeft(1).Render(side.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderPlacement draws one scroll line with its band emphasis. During a
// flash the main band lights up yellow so the marker cue is visible even
// when the eye is on the text.
func renderPlacement(p scroll.Placement, width int, flash bool) string {
	sty := styleDim
	if p.Band == scroll.BandMain {
		sty = styleMain
		if flash {
			sty = styleFlash
		}
	}
	return padRight(sty.Render(p.Text), width)
}

func levelBar(level float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(level * 3 * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styleLive.Render(bar)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}
	var lines []string
	words := strings.Fields(text)
	cur := ""
	for _, w := range words {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= width:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
