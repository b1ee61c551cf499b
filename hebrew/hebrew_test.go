package hebrew

import "testing"

const (
	genesisVocalized = "בְּרֵאשִׁית בָּרָא אֱלֹהִים אֵת הַשָּׁמַיִם וְאֵת הָאָרֶץ"
	genesisPlain     = "בראשית ברא אלהים את השמים ואת הארץ"
)

func TestRemoveNikud(t *testing.T) {
	got := RemoveNikud(genesisVocalized)
	if got != genesisPlain {
		t.Errorf("RemoveNikud = %q, want %q", got, genesisPlain)
	}
}

func TestRemoveNikudLeavesPlainText(t *testing.T) {
	for _, s := range []string{"", "hello world", genesisPlain} {
		if got := RemoveNikud(s); got != s {
			t.Errorf("RemoveNikud(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestNormalizeLeavesNoMarks(t *testing.T) {
	for _, r := range Normalize(genesisVocalized) {
		if IsNikud(r) {
			t.Fatalf("normalized text still contains mark U+%04X", r)
		}
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("  בראשית \t ברא\n\nאלהים ")
	want := "בראשית ברא אלהים"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"", genesisVocalized, "  a  b  ", genesisPlain} {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, twice, once)
		}
	}
}

func TestCompareIdentical(t *testing.T) {
	c := Compare(genesisPlain, genesisPlain, true)
	if !c.ExactMatch || c.Similarity != 1.0 {
		t.Errorf("Compare(x, x) = %+v, want exact match with similarity 1.0", c)
	}
}

func TestCompareIgnoresMarks(t *testing.T) {
	c := Compare("בְּרֵאשִׁית בָּרָא אֱלֹהִים", "בראשית ברא אלהים", true)
	if !c.ExactMatch {
		t.Error("expected exact match once marks are stripped")
	}
	if c.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", c.Similarity)
	}
}

func TestCompareRespectMarksFlag(t *testing.T) {
	c := Compare("בְּרֵאשִׁית", "בראשית", false)
	if c.ExactMatch {
		t.Error("marks differ; expected no exact match with ignoreMarks=false")
	}
}

func TestComparePartial(t *testing.T) {
	c := Compare("בראשית ברא אלהים את", "בראשית ברא", true)
	if c.ExactMatch {
		t.Error("unexpected exact match")
	}
	if c.Similarity != 0.5 {
		t.Errorf("Similarity = %v, want 0.5", c.Similarity)
	}
}

func TestCompareEmptyTranscription(t *testing.T) {
	c := Compare(genesisPlain, "", true)
	if c.ExactMatch {
		t.Error("unexpected exact match against empty transcription")
	}
	if c.Similarity != 0.0 {
		t.Errorf("Similarity = %v, want 0.0", c.Similarity)
	}
}

func TestCompareEmptyReference(t *testing.T) {
	c := Compare("", "", true)
	if !c.ExactMatch {
		t.Error("two empty strings should match exactly")
	}
	if c.Similarity != 0.0 {
		t.Errorf("Similarity = %v, want 0.0 for empty reference", c.Similarity)
	}
}

func TestCompareDuplicateReferenceWordsNotDoubleCredited(t *testing.T) {
	// Reference has 4 words (one duplicated); transcription supplies the
	// duplicated word once. One match out of four reference words.
	c := Compare("את את ברא אלהים", "את", true)
	if c.Similarity != 0.25 {
		t.Errorf("Similarity = %v, want 0.25", c.Similarity)
	}
}

func TestCompareRepeatedTranscribedWordsEachCount(t *testing.T) {
	c := Compare("את ברא", "את את", true)
	if c.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0 (both repeats match the set)", c.Similarity)
	}
}

func TestFindWordPosition(t *testing.T) {
	if got := FindWordPosition(genesisVocalized, "אלהים", true); got != 2 {
		t.Errorf("position = %d, want 2", got)
	}
	if got := FindWordPosition(genesisPlain, "משה", true); got != -1 {
		t.Errorf("position = %d, want -1 for missing word", got)
	}
}

func TestHasReachedMarker(t *testing.T) {
	if !HasReachedMarker("בראשית ברא אלהים את השמים", "השמים", true) {
		t.Error("expected marker to be detected")
	}
	if HasReachedMarker("בראשית ברא אלהים את השמים", "הארץ", true) {
		t.Error("marker not present; expected false")
	}
}

func TestHasReachedMarkerStripsMarks(t *testing.T) {
	if !HasReachedMarker("בראשית ברא אלהים את השמים", "הַשָּׁמַיִם", true) {
		t.Error("vocalized marker should match plain transcription")
	}
}

func TestHasReachedMarkerSubstring(t *testing.T) {
	// Containment is substring-based: a marker inside a longer word matches.
	if !HasReachedMarker("והשמימה", "השמימ", true) {
		t.Error("expected substring containment to match")
	}
}
