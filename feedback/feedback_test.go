package feedback

import "testing"

const (
	verse  = "בְּרֵאשִׁית בָּרָא אֱלֹהִים אֵת הַשָּׁמַיִם וְאֵת הָאָרֶץ"
	marker = "השמים"
)

func practiceSession() *Session {
	return NewSession(verse, marker, true)
}

func TestSubmitScoresAgainstReference(t *testing.T) {
	s := practiceSession()
	ev := s.Submit("בראשית ברא אלהים")
	if ev.ExactMatch {
		t.Error("partial reading should not be an exact match")
	}
	want := 3.0 / 7.0
	if diff := ev.Similarity - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Similarity = %v, want %v", ev.Similarity, want)
	}
	if ev.MarkerReached {
		t.Error("marker not yet read")
	}
}

func TestFullReadingExactMatch(t *testing.T) {
	s := practiceSession()
	ev := s.Submit("בראשית ברא אלהים את השמים ואת הארץ")
	if !ev.ExactMatch || ev.Similarity != 1.0 {
		t.Errorf("full reading: %+v, want exact match at 1.0", ev)
	}
	if !ev.MarkerReached {
		t.Error("full reading contains the marker")
	}
}

func TestFlashFiresExactlyOnce(t *testing.T) {
	s := practiceSession()
	first := s.Submit("בראשית ברא אלהים את השמים")
	if !first.MarkerReached || !first.FlashTriggered {
		t.Fatalf("first marker hit: %+v, want reached and flashed", first)
	}
	second := s.Submit("בראשית ברא אלהים את השמים")
	if !second.MarkerReached {
		t.Error("marker still present in second update")
	}
	if second.FlashTriggered {
		t.Error("flash must not re-trigger while latched")
	}
}

func TestResetRearmsFlash(t *testing.T) {
	s := practiceSession()
	s.Submit("את השמים")
	s.Reset()
	ev := s.Submit("את השמים")
	if !ev.FlashTriggered {
		t.Error("flash should fire again after Reset")
	}
}

func TestSetMarkerRearmsFlash(t *testing.T) {
	s := practiceSession()
	s.Submit("את השמים")
	s.SetMarker("הארץ")
	ev := s.Submit("ואת הארץ")
	if !ev.FlashTriggered {
		t.Error("flash should fire for the new marker")
	}
}

func TestEmptyMarkerNeverFlashes(t *testing.T) {
	s := NewSession(verse, "", true)
	ev := s.Submit("בראשית ברא אלהים את השמים ואת הארץ")
	if ev.MarkerReached || ev.FlashTriggered {
		t.Errorf("no marker configured: %+v", ev)
	}
}

func TestSetReferenceReplacesWholesale(t *testing.T) {
	s := practiceSession()
	s.Submit("את השמים")
	s.SetReference("שמע ישראל")
	ev := s.Submit("שמע ישראל")
	if !ev.ExactMatch || ev.Similarity != 1.0 {
		t.Errorf("new reference: %+v, want exact match", ev)
	}
	// Latch was cleared by the replacement: the old marker flashes again.
	if again := s.Submit("את השמים"); !again.FlashTriggered {
		t.Error("latch should be cleared on reference replacement")
	}
}
