package score

import (
	"testing"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
)

// fourQuarters fills a measure of 4/4 with the given pitch names.
func fourQuarters(t *testing.T, m *Measure, names ...string) {
	t.Helper()
	v := m.EnsureVoice(1)
	for _, name := range names {
		v.Events = append(v.Events, NewNote(pitch.MustParse(name), meter.Quarter))
	}
}

func TestBuildAndStream(t *testing.T) {
	s := NewScore()
	s.Metadata.Title = "Test Piece"
	p := s.AddPart("Soprano")

	m1 := p.AddMeasure()
	ts := meter.CommonTime
	m1.Time = &ts
	fourQuarters(t, m1, "C4", "D4", "E4", "F4")

	m2 := p.AddMeasure()
	v := m2.EnsureVoice(1)
	v.Events = append(v.Events,
		NewNote(pitch.MustParse("G4"), meter.Half),
		NewRest(meter.Half),
	)

	if m2.Number != 2 {
		t.Errorf("second measure number = %d", m2.Number)
	}
	if s.MeasureCount() != 2 {
		t.Errorf("MeasureCount = %d", s.MeasureCount())
	}

	stream := p.NoteStream(1)
	if len(stream) != 5 {
		t.Fatalf("NoteStream length = %d, want 5 (rest skipped)", len(stream))
	}
	if stream[4].Pitch().String() != "G4" {
		t.Errorf("last stream note = %s", stream[4].Pitch())
	}
}

func TestChordHelpers(t *testing.T) {
	c := NewChord(meter.Half,
		pitch.MustParse("E4"), pitch.MustParse("C4"), pitch.MustParse("G4"))
	if !c.IsChord() || c.IsRest() {
		t.Fatal("chord flags wrong")
	}
	if c.Pitch().String() != "C4" || c.Top().String() != "G4" {
		t.Errorf("chord bounds = %s..%s", c.Pitch(), c.Top())
	}
	if c.Pitches[0].String() != "C4" {
		t.Errorf("chord not sorted: %v", c.Pitches)
	}
}

func TestEnsureVoiceOrdering(t *testing.T) {
	m := &Measure{Number: 1}
	m.EnsureVoice(2)
	m.EnsureVoice(1)
	again := m.EnsureVoice(2)
	if len(m.Voices) != 2 {
		t.Fatalf("voice count = %d", len(m.Voices))
	}
	if m.Voices[0].Number != 1 || m.Voices[1].Number != 2 {
		t.Errorf("voices out of order: %d, %d", m.Voices[0].Number, m.Voices[1].Number)
	}
	if again != m.Voices[1] {
		t.Error("EnsureVoice created a duplicate")
	}
}

func TestActiveAttributes(t *testing.T) {
	p := &Part{Name: "P"}
	m1 := p.AddMeasure()
	three, _ := meter.ParseTimeSignature("3/4")
	m1.Time = &three
	k, _ := pitch.ParseKey("d")
	m1.Key = &k
	p.AddMeasure()
	p.AddMeasure()

	if got := p.ActiveTime(2); got != three {
		t.Errorf("ActiveTime(2) = %v", got)
	}
	if got := p.ActiveKey(2); got != k {
		t.Errorf("ActiveKey(2) = %v", got)
	}
	// Default when nothing is declared.
	empty := &Part{}
	empty.AddMeasure()
	if got := empty.ActiveTime(0); got != meter.CommonTime {
		t.Errorf("default time = %v", got)
	}
}

func TestFlatten(t *testing.T) {
	s := NewScore()
	upper := s.AddPart("Upper")
	lower := s.AddPart("Lower")

	m := upper.AddMeasure()
	ts := meter.CommonTime
	m.Time = &ts
	fourQuarters(t, m, "C5", "D5", "E5", "F5")
	m2 := upper.AddMeasure()
	fourQuarters(t, m2, "G5", "A5", "B5", "C6")

	lm := lower.AddMeasure()
	lts := meter.CommonTime
	lm.Time = &lts
	lv := lm.EnsureVoice(1)
	lv.Events = append(lv.Events,
		NewNote(pitch.MustParse("C3"), meter.Half),
		NewNote(pitch.MustParse("G3"), meter.Half),
	)

	events := s.Flatten()
	if len(events) != 10 {
		t.Fatalf("event count = %d, want 10", len(events))
	}
	// Offset 0 holds both parts' first notes, upper part first.
	if events[0].Note.Pitch().String() != "C5" || events[1].Note.Pitch().String() != "C3" {
		t.Errorf("first verticality = %s, %s", events[0].Note, events[1].Note)
	}
	// Second measure of the upper part starts a whole note in.
	for _, e := range events {
		if e.Measure == 2 && e.Note.Pitch().String() == "G5" {
			if e.Offset != meter.Whole {
				t.Errorf("measure 2 start offset = %v", e.Offset)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	s := NewScore()
	p := s.AddPart("Alto")
	m := p.AddMeasure()
	ts := meter.CommonTime
	m.Time = &ts
	v := m.EnsureVoice(1)
	// Overfull: five quarters in 4/4.
	for i := 0; i < 5; i++ {
		v.Events = append(v.Events, NewNote(pitch.MustParse("A4"), meter.Quarter))
	}
	// Tie stop with nothing open.
	v.Events[0].TieStop = true
	// Unterminated tie.
	v.Events[4].TieStart = true

	problems := s.Validate()
	if len(problems) != 3 {
		t.Fatalf("problem count = %d, want 3: %v", len(problems), problems)
	}
}

func TestValidateCleanScore(t *testing.T) {
	s := NewScore()
	p := s.AddPart("Tenor")
	m := p.AddMeasure()
	ts := meter.CommonTime
	m.Time = &ts
	fourQuarters(t, m, "C4", "D4", "E4", "F4")
	if problems := s.Validate(); len(problems) != 0 {
		t.Errorf("unexpected problems: %v", problems)
	}
}
