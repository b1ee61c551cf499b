// Package hebrew implements text normalization and fuzzy comparison for
// vocalized Hebrew: stripping nikud (vowel points and cantillation marks),
// word-overlap similarity scoring, and marker word detection over noisy
// speech-to-text output.
package hebrew

import "strings"

// Unicode block of Hebrew combining marks: cantillation accents
// (U+0591..U+05AF) and points/nikud (U+05B0..U+05C7).
const (
	nikudLo = 0x0591
	nikudHi = 0x05C7
)

// IsNikud reports whether r is a Hebrew vowel point or cantillation mark.
func IsNikud(r rune) bool {
	return r >= nikudLo && r <= nikudHi
}

// RemoveNikud strips every vowel point and cantillation mark from text,
// leaving consonants and all other characters untouched.
func RemoveNikud(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !IsNikud(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize strips nikud and collapses whitespace runs to single spaces,
// trimming the ends. Idempotent; empty input yields empty output.
func Normalize(text string) string {
	return strings.Join(strings.Fields(RemoveNikud(text)), " ")
}

// SplitWords splits text on whitespace.
func SplitWords(text string) []string {
	return strings.Fields(text)
}

// Comparison is the result of comparing a transcription against a
// reference text.
type Comparison struct {
	ExactMatch bool
	Similarity float64
}

// Compare scores transcribed against reference. With ignoreMarks both
// sides are normalized first, otherwise only trimmed. Similarity is the
// fraction of reference words covered by the transcription: each
// transcribed word scores when it appears in the reference word set, so
// the metric is order-insensitive and recall-oriented — suited to partial,
// noisy live transcriptions rather than edit-distance scoring.
func Compare(reference, transcribed string, ignoreMarks bool) Comparison {
	var ref, trans string
	if ignoreMarks {
		ref = Normalize(reference)
		trans = Normalize(transcribed)
	} else {
		ref = strings.TrimSpace(reference)
		trans = strings.TrimSpace(transcribed)
	}

	c := Comparison{ExactMatch: ref == trans}

	refWords := SplitWords(ref)
	if len(refWords) == 0 {
		return c
	}

	refSet := make(map[string]struct{}, len(refWords))
	for _, w := range refWords {
		refSet[w] = struct{}{}
	}

	matches := 0
	for _, w := range SplitWords(trans) {
		if _, ok := refSet[w]; ok {
			matches++
		}
	}
	c.Similarity = float64(matches) / float64(len(refWords))
	return c
}

// FindWordPosition returns the 0-based index of word in text's word
// sequence, or -1 when absent.
func FindWordPosition(text, word string, ignoreMarks bool) int {
	if ignoreMarks {
		text = Normalize(text)
		word = Normalize(word)
	}
	for i, w := range SplitWords(text) {
		if w == word {
			return i
		}
	}
	return -1
}

// HasReachedMarker reports whether the transcription contains the marker
// word. Matching is substring containment on the normalized forms, not
// word-boundary aware: a marker embedded in a longer word also matches.
// This mirrors how chanted markers (Etnachta, Sof Pasuk positions) are
// announced in practice and is intentional.
func HasReachedMarker(transcribed, marker string, ignoreMarks bool) bool {
	if ignoreMarks {
		transcribed = Normalize(transcribed)
		marker = Normalize(marker)
	}
	return strings.Contains(transcribed, marker)
}
