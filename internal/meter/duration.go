// Package meter models musical time: exact rational durations, dots,
// tuplets, and time signatures. All arithmetic stays in integers so a
// triplet eighth is exactly 1/12 of a whole note, never 0.0833.
package meter

import (
	"fmt"
)

// Duration is a span of musical time as a fraction of a whole note.
// The zero value is a zero-length duration (grace notes, zero spans).
type Duration struct {
	Num int64
	Den int64
}

// Named base values.
var (
	Whole        = Duration{1, 1}
	Half         = Duration{1, 2}
	Quarter      = Duration{1, 4}
	Eighth       = Duration{1, 8}
	Sixteenth    = Duration{1, 16}
	ThirtySecond = Duration{1, 32}
	SixtyFourth  = Duration{1, 64}
	Breve        = Duration{2, 1}
	Zero         = Duration{0, 1}
)

var nameToDuration = map[string]Duration{
	"breve":   Breve,
	"whole":   Whole,
	"half":    Half,
	"quarter": Quarter,
	"eighth":  Eighth,
	"16th":    Sixteenth,
	"32nd":    ThirtySecond,
	"64th":    SixtyFourth,
}

var durationToName = map[Duration]string{
	Breve:        "breve",
	Whole:        "whole",
	Half:         "half",
	Quarter:      "quarter",
	Eighth:       "eighth",
	Sixteenth:    "16th",
	ThirtySecond: "32nd",
	SixtyFourth:  "64th",
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NewDuration returns num/den of a whole note in lowest terms.
func NewDuration(num, den int64) Duration {
	if den == 0 {
		den = 1
	}
	if num == 0 {
		return Zero
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Duration{num / g, den / g}
}

// ParseValue resolves a MusicXML-style note type name ("quarter", "16th").
func ParseValue(name string) (Duration, error) {
	d, ok := nameToDuration[name]
	if !ok {
		return Zero, fmt.Errorf("unknown note value %q", name)
	}
	return d, nil
}

// Value returns the undotted base type name and the dot count needed to
// express the duration, or ok=false if it is not a dotted binary value.
func (d Duration) Value() (name string, dots int, ok bool) {
	for base, n := range durationToName {
		acc := base
		for dot := 0; dot <= 3; dot++ {
			if d == acc {
				return n, dot, true
			}
			// Next dot adds half of the previous increment.
			acc = acc.Add(NewDuration(base.Num, base.Den*int64(2<<dot)))
		}
	}
	return "", 0, false
}

// TupletValue factors a duration that Value cannot name into a base type
// scaled by actual:normal, where normal is the largest power of two below
// actual. A triplet quarter comes back as ("quarter", 3, 2).
func (d Duration) TupletValue() (name string, actual, normal int64, ok bool) {
	if d.Num <= 0 {
		return "", 0, 0, false
	}
	if _, _, named := d.Value(); named {
		return "", 0, 0, false
	}
	for base, n := range durationToName {
		// d = base * normal/actual
		num := d.Num * base.Den
		den := d.Den * base.Num
		g := gcd(num, den)
		nrm, act := num/g, den/g
		if act <= nrm || act > 15 {
			continue
		}
		pow := int64(1)
		for pow*2 < act {
			pow *= 2
		}
		if nrm == pow {
			return n, act, nrm, true
		}
	}
	return "", 0, 0, false
}

// Dotted extends the duration by n dots: one dot adds 1/2, two add 3/4.
func (d Duration) Dotted(n int) Duration {
	out := d
	add := d
	for i := 0; i < n; i++ {
		add = NewDuration(add.Num, add.Den*2)
		out = out.Add(add)
	}
	return out
}

// Tuplet scales the duration so that `actual` notes fit in the time of
// `normal`: Quarter.Tuplet(3, 2) is a triplet quarter.
func (d Duration) Tuplet(actual, normal int64) Duration {
	return NewDuration(d.Num*normal, d.Den*actual)
}

// Add returns d + e.
func (d Duration) Add(e Duration) Duration {
	return NewDuration(d.Num*e.Den+e.Num*d.Den, d.Den*e.Den)
}

// Sub returns d - e; negative results are legal (cursor rewinds).
func (d Duration) Sub(e Duration) Duration {
	return NewDuration(d.Num*e.Den-e.Num*d.Den, d.Den*e.Den)
}

// Cmp returns -1, 0, or 1 as d is shorter than, equal to, or longer than e.
func (d Duration) Cmp(e Duration) int {
	l := d.Num * e.Den
	r := e.Num * d.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// IsZero reports a zero-length duration.
func (d Duration) IsZero() bool { return d.Num == 0 }

// Float returns the approximate value for display only.
func (d Duration) Float() float64 { return float64(d.Num) / float64(d.Den) }

// Quarters returns the length in quarter notes, the unit most analysis
// output uses.
func (d Duration) Quarters() float64 { return d.Float() * 4 }

func (d Duration) String() string {
	if name, dots, ok := d.Value(); ok {
		s := name
		for i := 0; i < dots; i++ {
			s += "."
		}
		return s
	}
	return fmt.Sprintf("%d/%d", d.Num, d.Den)
}
