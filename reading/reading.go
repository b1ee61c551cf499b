// Package reading manages the practice library: a directory of paired
// audio and text files, one pair per reading. A reading is loaded with
// its reference text as authored (with nikud) and the probed duration of
// its recording; everything else is derived.
package reading

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/binyominzeev/leining-app/hebrew"
	"github.com/binyominzeev/leining-app/line"
)

var ErrNotFound = errors.New("reading: no such reading")

// Entry is one available reading in the library.
type Entry struct {
	Name      string
	AudioPath string
	TextPath  string
}

// Reading is a loaded reference text plus the timing facts derived from
// its recording. Immutable once loaded.
type Reading struct {
	Name         string
	Text         string // as authored, with nikud
	TotalWords   int
	AudioSeconds float64
}

// Plain returns the reference text with nikud stripped. Derived, never
// stored.
func (r *Reading) Plain() string {
	return hebrew.Normalize(r.Text)
}

// WordsPerMinute reports the recording's reading pace.
func (r *Reading) WordsPerMinute() float64 {
	if r.AudioSeconds <= 0 {
		return 0
	}
	return float64(r.TotalWords) * 60 / r.AudioSeconds
}

// Library scans and loads readings from a single directory.
type Library struct {
	Dir string

	// ProbeDuration returns the audio length in seconds for a file.
	// Defaults to probing the file's metadata; tests substitute a stub.
	ProbeDuration func(path string) (float64, error)
}

func NewLibrary(dir string) *Library {
	return &Library{Dir: dir, ProbeDuration: probeDuration}
}

// Scan lists the readings available in the library directory: base names
// present as both <name>.mp3 and <name>.txt, sorted by name. Unpaired
// files are ignored.
func (l *Library) Scan() ([]Entry, error) {
	dirents, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("scanning library: %w", err)
	}

	audio := map[string]string{}
	text := map[string]string{}
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		switch strings.ToLower(filepath.Ext(name)) {
		case ".mp3":
			audio[base] = filepath.Join(l.Dir, name)
		case ".txt":
			text[base] = filepath.Join(l.Dir, name)
		}
	}

	var entries []Entry
	for base, ap := range audio {
		tp, ok := text[base]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Name: base, AudioPath: ap, TextPath: tp})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Load reads one reading's text and probes its audio duration.
func (l *Library) Load(name string) (*Reading, error) {
	entries, err := l.Scan()
	if err != nil {
		return nil, err
	}
	var entry *Entry
	for i := range entries {
		if entries[i].Name == name {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	raw, err := os.ReadFile(entry.TextPath)
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	text := string(raw)

	seconds, err := l.ProbeDuration(entry.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("probing audio duration: %w", err)
	}

	return &Reading{
		Name:         entry.Name,
		Text:         text,
		TotalWords:   line.WordCount(text),
		AudioSeconds: seconds,
	}, nil
}
