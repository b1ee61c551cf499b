// Package line wraps a reference text into fixed-width display lines and
// prepares each line's visual (right-to-left) render form.
package line

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"
)

var ErrInvalidInput = errors.New("line: max chars per line must be at least 1")

// Line is one display line of a segmented text. Logical holds the words
// in reading order and is authoritative for all text operations; Visual
// is the same line reordered for rendering on a left-to-right surface.
type Line struct {
	Logical string
	Visual  string
	Words   []string
}

// Segment greedily wraps text into lines of at most maxChars characters,
// never splitting a word. A word longer than maxChars gets a line of its
// own. The concatenation of Words across the returned lines reproduces
// the word sequence of text exactly.
func Segment(text string, maxChars int) ([]Line, error) {
	if maxChars < 1 {
		return nil, ErrInvalidInput
	}

	words := strings.Fields(text)
	var lines []Line
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		logical := strings.Join(current, " ")
		lines = append(lines, Line{
			Logical: logical,
			Visual:  VisualOrder(logical),
			Words:   current,
		})
		current = nil
		currentLen = 0
	}

	for _, word := range words {
		wlen := utf8.RuneCountInString(word)
		if len(current) > 0 && currentLen+wlen+1 > maxChars {
			flush()
		}
		current = append(current, word)
		if currentLen == 0 {
			currentLen = wlen
		} else {
			currentLen += wlen + 1
		}
	}
	flush()

	return lines, nil
}

// VisualOrder reorders a logical-order string for display on a surface
// that draws left to right: bidi runs are laid out in display order and
// right-to-left runs are reversed.
func VisualOrder(s string) string {
	if s == "" {
		return s
	}
	var p bidi.Paragraph
	p.SetString(s, bidi.DefaultDirection(bidi.RightToLeft))
	o, err := p.Order()
	if err != nil || o.NumRuns() == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < o.NumRuns(); i++ {
		run := o.Run(i)
		text := run.String()
		if run.Direction() == bidi.RightToLeft {
			text = bidi.ReverseString(text)
		}
		b.WriteString(text)
	}
	return b.String()
}

// WordCount reports the number of whitespace-delimited words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
