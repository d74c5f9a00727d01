package voiceleading

import (
	"testing"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
	"scorekit/internal/score"
)

type voicePart struct {
	Name  string
	Notes []string
}

// partScore builds a score in 4/4, one quarter note per name ("-" is a
// rest), one measure per four names.
func partScore(t *testing.T, parts ...voicePart) *score.Score {
	t.Helper()
	s := score.NewScore()
	for _, ps := range parts {
		p := s.AddPart(ps.Name)
		var m *score.Measure
		for i, name := range ps.Notes {
			if i%4 == 0 {
				m = p.AddMeasure()
				if i == 0 {
					ts := meter.CommonTime
					m.Time = &ts
				}
			}
			v := m.EnsureVoice(1)
			if name == "-" {
				v.Events = append(v.Events, score.NewRest(meter.Quarter))
			} else {
				v.Events = append(v.Events, score.NewNote(pitch.MustParse(name), meter.Quarter))
			}
		}
	}
	return s
}

func runRule(t *testing.T, r Rule, parts ...voicePart) []Violation {
	t.Helper()
	c := &Checker{Rules: []Rule{r}}
	return c.CheckScore(partScore(t, parts...))
}

func TestParallelFifths(t *testing.T) {
	r := ParallelPerfects{Semis: 7, Label: "parallel-fifths", Interval: "fifth"}

	v := runRule(t, r,
		voicePart{"Soprano", []string{"C5", "D5"}},
		voicePart{"Bass", []string{"F4", "G4"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}
	if v[0].Rule != "parallel-fifths" || v[0].Measure != 1 {
		t.Errorf("violation = %+v", v[0])
	}

	// Contrary motion into a fifth is clean.
	v = runRule(t, r,
		voicePart{"Soprano", []string{"E5", "D5"}},
		voicePart{"Bass", []string{"C4", "G3"}},
	)
	if len(v) != 0 {
		t.Errorf("contrary approach flagged: %v", v)
	}

	// Oblique motion into a fifth is clean.
	v = runRule(t, r,
		voicePart{"Soprano", []string{"D5", "D5"}},
		voicePart{"Bass", []string{"D4", "G4"}},
	)
	if len(v) != 0 {
		t.Errorf("oblique approach flagged: %v", v)
	}

	// A repeated fifth with no motion is not a parallel.
	v = runRule(t, r,
		voicePart{"Soprano", []string{"G4", "G4"}},
		voicePart{"Bass", []string{"C4", "C4"}},
	)
	if len(v) != 0 {
		t.Errorf("repeated verticality flagged: %v", v)
	}

	// A diminished fifth moving to a perfect fifth is not parallel fifths.
	v = runRule(t, r,
		voicePart{"Soprano", []string{"F4", "G4"}},
		voicePart{"Bass", []string{"B3", "C4"}},
	)
	if len(v) != 0 {
		t.Errorf("d5 to P5 flagged: %v", v)
	}
}

func TestParallelOctaves(t *testing.T) {
	r := ParallelPerfects{Semis: 0, Label: "parallel-octaves", Interval: "octave"}
	v := runRule(t, r,
		voicePart{"Soprano", []string{"C5", "D5"}},
		voicePart{"Bass", []string{"C4", "D4"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}
}

func TestHiddenPerfects(t *testing.T) {
	v := runRule(t, HiddenPerfects{},
		voicePart{"Soprano", []string{"E4", "A4"}},
		voicePart{"Bass", []string{"C3", "D3"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}

	// Stepwise soprano into a fifth is allowed.
	v = runRule(t, HiddenPerfects{},
		voicePart{"Soprano", []string{"B4", "A4"}},
		voicePart{"Bass", []string{"C3", "D3"}},
	)
	if len(v) != 0 {
		t.Errorf("stepwise approach flagged: %v", v)
	}
}

func TestVoiceCrossing(t *testing.T) {
	v := runRule(t, VoiceCrossing{},
		voicePart{"Alto", []string{"C4", "E4"}},
		voicePart{"Tenor", []string{"E4", "C4"}},
	)
	// Crossed in the first verticality only.
	if len(v) != 1 || v[0].Measure != 1 {
		t.Fatalf("violations = %v, want 1 in m.1", v)
	}
}

func TestVoiceOverlap(t *testing.T) {
	v := runRule(t, VoiceOverlap{},
		voicePart{"Alto", []string{"G4", "C4"}},
		voicePart{"Tenor", []string{"E4", "C4"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}
}

func TestSpacing(t *testing.T) {
	// Three parts so the upper pair is checked; soprano and alto a tenth
	// apart.
	v := runRule(t, Spacing{MaxSemis: 12},
		voicePart{"Soprano", []string{"E5"}},
		voicePart{"Alto", []string{"C4"}},
		voicePart{"Bass", []string{"C3"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}
	// The gap above the bass is unrestricted.
	v = runRule(t, Spacing{MaxSemis: 12},
		voicePart{"Soprano", []string{"C5"}},
		voicePart{"Alto", []string{"G4"}},
		voicePart{"Bass", []string{"C2"}},
	)
	if len(v) != 0 {
		t.Errorf("bass gap flagged: %v", v)
	}
}

func TestMelodicIntervals(t *testing.T) {
	v := runRule(t, MelodicIntervals{},
		voicePart{"Alto", []string{"G4", "A#4", "B4", "F4"}},
	)
	// G4-A#4 is an augmented second, B4-F4 a tritone.
	if len(v) != 2 {
		t.Fatalf("violations = %v, want 2", v)
	}
}

func TestRanges(t *testing.T) {
	v := runRule(t, Ranges{Limits: DefaultRanges()},
		voicePart{"Soprano", []string{"B3", "C5"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}
	// Unrecognized part names in a non-four-part score are unchecked.
	v = runRule(t, Ranges{Limits: DefaultRanges()},
		voicePart{"Synth", []string{"C8"}},
	)
	if len(v) != 0 {
		t.Errorf("unmatched part flagged: %v", v)
	}
}

func TestLeadingToneResolution(t *testing.T) {
	// C major; soprano abandons B4 for G4 at the cadence.
	v := runRule(t, LeadingToneResolution{},
		voicePart{"Soprano", []string{"C5", "B4", "G4", "-"}},
		voicePart{"Bass", []string{"E3", "G3", "C3", "-"}},
	)
	if len(v) != 1 {
		t.Fatalf("violations = %v, want 1", v)
	}

	// Proper resolution is clean.
	v = runRule(t, LeadingToneResolution{},
		voicePart{"Soprano", []string{"C5", "B4", "C5", "-"}},
		voicePart{"Bass", []string{"E3", "G3", "C3", "-"}},
	)
	if len(v) != 0 {
		t.Errorf("resolved leading tone flagged: %v", v)
	}
}

func TestCheckScoreCleanChorale(t *testing.T) {
	c := NewChecker()
	v := c.CheckScore(partScore(t,
		voicePart{"Soprano", []string{"E4", "D4", "C4", "C4"}},
		voicePart{"Bass", []string{"C3", "G2", "C3", "C3"}},
	))
	if len(v) != 0 {
		t.Errorf("clean progression flagged: %v", v)
	}
}

func TestPrepareReducesChordsAndRests(t *testing.T) {
	s := score.NewScore()
	p := s.AddPart("Piano")
	m := p.AddMeasure()
	ts := meter.CommonTime
	m.Time = &ts
	v := m.EnsureVoice(1)
	v.Events = append(v.Events,
		score.NewChord(meter.Half, pitch.MustParse("C4"), pitch.MustParse("E4"), pitch.MustParse("G4")),
		score.NewRest(meter.Half),
	)
	a := Prepare(s)
	if len(a.Lines) != 1 || len(a.Lines[0].Notes) != 1 {
		t.Fatalf("lines = %+v", a.Lines)
	}
	// Bottom (only) part tracks the bass of the chord.
	if a.Lines[0].Notes[0].Pitch.String() != "C4" {
		t.Errorf("chord reduced to %s", a.Lines[0].Notes[0].Pitch)
	}
}
