package pitch

import (
	"testing"
)

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in   string
		want Pitch
	}{
		{"C4", Pitch{StepC, 0, 4}},
		{"C#4", Pitch{StepC, 1, 4}},
		{"Bb-1", Pitch{StepB, -1, -1}},
		{"Fx3", Pitch{StepF, 2, 3}},
		{"Ebb2", Pitch{StepE, -2, 2}},
		{"g#5", Pitch{StepG, 1, 5}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if s := MustParse("Fx3").String(); s != "F##3" {
		t.Errorf("String() = %q, want F##3", s)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "H4", "C", "C#", "C#q"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestMIDI(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"C4", 60},
		{"A4", 69},
		{"C#4", 61},
		{"Db4", 61},
		{"B3", 59},
		{"Cb4", 59},
		{"C-1", 0},
		{"G9", 127},
	}
	for _, c := range cases {
		if got := MustParse(c.in).MIDI(); got != c.want {
			t.Errorf("%s.MIDI() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFrequency(t *testing.T) {
	f := MustParse("A4").Frequency()
	if f < 439.99 || f > 440.01 {
		t.Errorf("A4 frequency = %f, want 440", f)
	}
	f = MustParse("A3").Frequency()
	if f < 219.99 || f > 220.01 {
		t.Errorf("A3 frequency = %f, want 220", f)
	}
}

func TestEnharmonic(t *testing.T) {
	a, b := MustParse("C#4"), MustParse("Db4")
	if a.Eq(b) {
		t.Error("C#4 should not equal Db4 by spelling")
	}
	if !a.EnharmonicEq(b) {
		t.Error("C#4 should equal Db4 enharmonically")
	}
}

func TestTranspose(t *testing.T) {
	cases := []struct {
		from string
		iv   Interval
		want string
	}{
		{"C4", MajorThird, "E4"},
		{"C4", MinorThird, "Eb4"},
		{"B3", MinorSecond, "C4"},
		{"F#4", PerfectFifth, "C#5"},
		{"Ab4", MajorSixth, "F5"},
		{"C4", PerfectOctave, "C5"},
		{"E4", AugmentedSecond, "F##4"},
	}
	for _, c := range cases {
		got := MustParse(c.from).Transpose(c.iv)
		if got.String() != c.want {
			t.Errorf("%s + %v = %s, want %s", c.from, c.iv, got, c.want)
		}
		// Round trip back down.
		back := got.Transpose(c.iv.Invert())
		if back != MustParse(c.from) {
			t.Errorf("round trip %s: got %s", c.from, back)
		}
	}
}

func TestBetween(t *testing.T) {
	cases := []struct {
		a, b    string
		number  int
		quality Quality
	}{
		{"C4", "G4", 5, QualityPerfect},
		{"C4", "E4", 3, QualityMajor},
		{"E4", "G4", 3, QualityMinor},
		{"C4", "F#4", 4, QualityAugmented},
		{"C4", "Gb4", 5, QualityDiminished},
		{"C4", "C5", 8, QualityPerfect},
		{"C4", "D5", 9, QualityMajor},
		{"G4", "C4", 5, QualityPerfect},
	}
	for _, c := range cases {
		iv := Between(MustParse(c.a), MustParse(c.b))
		if iv.Number() != c.number {
			t.Errorf("Between(%s,%s).Number() = %d, want %d", c.a, c.b, iv.Number(), c.number)
		}
		if iv.Quality() != c.quality {
			t.Errorf("Between(%s,%s).Quality() = %v, want %v", c.a, c.b, iv.Quality(), c.quality)
		}
	}
}

func TestSimple(t *testing.T) {
	iv := Between(MustParse("C4"), MustParse("E5")) // major tenth
	s := iv.Simple()
	if s != MajorThird {
		t.Errorf("Simple(major tenth) = %v, want major third", s)
	}
	down := Between(MustParse("E5"), MustParse("C4")).Simple()
	if down != MajorThird.Invert() {
		t.Errorf("Simple(descending tenth) = %v", down)
	}
}
