// Package feedback turns transcription updates into practice feedback:
// a similarity score against the reference verse and a one-shot flash
// cue when the configured marker word is first reached.
package feedback

import "github.com/binyominzeev/leining-app/hebrew"

// Event is emitted once per submitted transcription.
type Event struct {
	ExactMatch     bool
	Similarity     float64
	MarkerReached  bool
	FlashTriggered bool // true only on the first detection per take
}

// Session holds the reference text, the marker word, and the flash
// latch. It is meant for single-goroutine use from the host's update
// loop; concurrent hosts must replace the whole session rather than
// mutate it in place.
type Session struct {
	reference   string
	marker      string
	ignoreMarks bool
	flashed     bool
}

func NewSession(reference, marker string, ignoreMarks bool) *Session {
	return &Session{reference: reference, marker: marker, ignoreMarks: ignoreMarks}
}

// SetReference replaces the reference text and clears the flash latch.
func (s *Session) SetReference(text string) {
	s.reference = text
	s.flashed = false
}

// SetMarker replaces the marker word and clears the flash latch.
func (s *Session) SetMarker(word string) {
	s.marker = word
	s.flashed = false
}

// Reference returns the current reference text.
func (s *Session) Reference() string { return s.reference }

// Marker returns the current marker word.
func (s *Session) Marker() string { return s.marker }

// Reset clears the flash latch for a new take.
func (s *Session) Reset() { s.flashed = false }

// Submit scores one transcription update. MarkerReached reflects the
// update itself; FlashTriggered fires only on the false-to-true
// transition since the last Reset, so the visual cue shows once even
// while the marker keeps appearing in subsequent updates.
func (s *Session) Submit(transcribed string) Event {
	c := hebrew.Compare(s.reference, transcribed, s.ignoreMarks)
	ev := Event{
		ExactMatch: c.ExactMatch,
		Similarity: c.Similarity,
	}
	if s.marker != "" {
		ev.MarkerReached = hebrew.HasReachedMarker(transcribed, s.marker, s.ignoreMarks)
	}
	if ev.MarkerReached && !s.flashed {
		s.flashed = true
		ev.FlashTriggered = true
	}
	return ev
}
