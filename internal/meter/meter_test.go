package meter

import "testing"

func TestDurationArithmetic(t *testing.T) {
	if got := Quarter.Add(Eighth); got != NewDuration(3, 8) {
		t.Errorf("quarter + eighth = %v, want 3/8", got)
	}
	if got := Half.Sub(Quarter); got != Quarter {
		t.Errorf("half - quarter = %v, want quarter", got)
	}
	if Quarter.Cmp(Eighth) != 1 || Eighth.Cmp(Quarter) != -1 || Quarter.Cmp(Quarter) != 0 {
		t.Error("Cmp ordering wrong")
	}
	// Reduction to lowest terms.
	if got := NewDuration(2, 8); got != Quarter {
		t.Errorf("2/8 = %v, want 1/4", got)
	}
	if got := NewDuration(1, -4); got != NewDuration(-1, 4) {
		t.Errorf("sign normalization: %v", got)
	}
}

func TestDots(t *testing.T) {
	if got := Quarter.Dotted(1); got != NewDuration(3, 8) {
		t.Errorf("dotted quarter = %v, want 3/8", got)
	}
	if got := Quarter.Dotted(2); got != NewDuration(7, 16) {
		t.Errorf("double dotted quarter = %v, want 7/16", got)
	}
	if got := Quarter.Dotted(0); got != Quarter {
		t.Errorf("zero dots changed the value: %v", got)
	}
}

func TestTuplet(t *testing.T) {
	triplet := Eighth.Tuplet(3, 2)
	if triplet != NewDuration(1, 12) {
		t.Errorf("triplet eighth = %v, want 1/12", triplet)
	}
	// Three of them fill a quarter exactly.
	sum := triplet.Add(triplet).Add(triplet)
	if sum != Quarter {
		t.Errorf("3 triplet eighths = %v, want 1/4", sum)
	}
	quintuplet := Sixteenth.Tuplet(5, 4)
	if quintuplet != NewDuration(1, 20) {
		t.Errorf("quintuplet 16th = %v, want 1/20", quintuplet)
	}
}

func TestValueNames(t *testing.T) {
	d, err := ParseValue("quarter")
	if err != nil || d != Quarter {
		t.Fatalf("ParseValue(quarter) = %v, %v", d, err)
	}
	if _, err := ParseValue("hemidemisemiquaver"); err == nil {
		t.Error("expected error for unknown value name")
	}

	name, dots, ok := NewDuration(3, 8).Value()
	if !ok || name != "quarter" || dots != 1 {
		t.Errorf("3/8.Value() = %q, %d, %v", name, dots, ok)
	}
	if _, _, ok := NewDuration(1, 12).Value(); ok {
		t.Error("1/12 should not resolve to a dotted binary value")
	}
	if NewDuration(3, 8).String() != "quarter." {
		t.Errorf("String() = %q", NewDuration(3, 8).String())
	}
}

func TestTupletValue(t *testing.T) {
	name, actual, normal, ok := Quarter.Tuplet(3, 2).TupletValue()
	if !ok || name != "quarter" || actual != 3 || normal != 2 {
		t.Errorf("triplet quarter = %q %d:%d %v", name, actual, normal, ok)
	}
	name, actual, normal, ok = Sixteenth.Tuplet(5, 4).TupletValue()
	if !ok || name != "16th" || actual != 5 || normal != 4 {
		t.Errorf("quintuplet 16th = %q %d:%d %v", name, actual, normal, ok)
	}
	if _, _, _, ok := Quarter.TupletValue(); ok {
		t.Error("plain quarter should not factor as a tuplet")
	}
	if _, _, _, ok := NewDuration(3, 8).TupletValue(); ok {
		t.Error("dotted quarter should not factor as a tuplet")
	}
}

func TestTimeSignature(t *testing.T) {
	ts, err := ParseTimeSignature("6/8")
	if err != nil {
		t.Fatal(err)
	}
	if ts.MeasureLength() != NewDuration(3, 4) {
		t.Errorf("6/8 measure length = %v, want 3/4", ts.MeasureLength())
	}
	if !ts.IsCompound() {
		t.Error("6/8 should be compound")
	}

	c, err := ParseTimeSignature("C")
	if err != nil || c != CommonTime {
		t.Errorf("ParseTimeSignature(C) = %v, %v", c, err)
	}
	if CommonTime.IsCompound() {
		t.Error("4/4 is not compound")
	}

	for _, bad := range []string{"", "3", "0/4", "3/0", "x/y"} {
		if _, err := ParseTimeSignature(bad); err == nil {
			t.Errorf("ParseTimeSignature(%q): expected error", bad)
		}
	}
}

func TestBeatOf(t *testing.T) {
	ts := CommonTime
	if got := ts.BeatOf(Zero); got != 1 {
		t.Errorf("beat of 0 = %f", got)
	}
	if got := ts.BeatOf(Quarter); got != 2 {
		t.Errorf("beat of 1/4 = %f", got)
	}
	if got := ts.BeatOf(NewDuration(3, 8)); got != 2.5 {
		t.Errorf("beat of 3/8 = %f", got)
	}
}
