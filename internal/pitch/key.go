package pitch

import (
	"fmt"
	"strings"
)

// Mode is a key mode. Only major and minor carry key signatures here.
type Mode string

const (
	Major Mode = "major"
	Minor Mode = "minor"
)

// Key is a tonal center: a tonic spelling (octave ignored) and a mode.
type Key struct {
	TonicStep  Step
	TonicAlter int
	Mode       Mode
}

// Circle-of-fifths position of each natural step, with C = 0.
var fifthsIndex = [7]int{0, 2, 4, -1, 1, 3, 5}

// sharp order F C G D A E B; flat order is the reverse.
var sharpOrder = [7]Step{StepF, StepC, StepG, StepD, StepA, StepE, StepB}

// NewKey builds a key from a tonic spelling and mode.
func NewKey(step Step, alter int, mode Mode) Key {
	return Key{TonicStep: step, TonicAlter: alter, Mode: mode}
}

// ParseKey reads forms like "C", "f#", "Bb major", "c minor". A lowercase
// tonic with no explicit mode means minor.
func ParseKey(s string) (Key, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Key{}, fmt.Errorf("empty key")
	}
	tonic := fields[0]
	step, err := ParseStep(tonic[0])
	if err != nil {
		return Key{}, fmt.Errorf("key %q: %w", s, err)
	}
	alter := 0
	for _, r := range tonic[1:] {
		switch r {
		case '#':
			alter++
		case 'b':
			alter--
		default:
			return Key{}, fmt.Errorf("key %q: bad accidental %q", s, string(r))
		}
	}
	mode := Major
	if tonic[0] >= 'a' && tonic[0] <= 'g' {
		mode = Minor
	}
	if len(fields) > 1 {
		switch strings.ToLower(fields[1]) {
		case "major", "maj":
			mode = Major
		case "minor", "min":
			mode = Minor
		default:
			return Key{}, fmt.Errorf("key %q: unknown mode %q", s, fields[1])
		}
	}
	return Key{TonicStep: step, TonicAlter: alter, Mode: mode}, nil
}

// KeyFromFifths inverts Fifths: a signed sharp/flat count and a mode give
// back the tonic spelling. Counts beyond ±7 spell with double accidentals.
func KeyFromFifths(fifths int, mode Mode) Key {
	f := fifths
	if mode == Minor {
		f += 3
	}
	for step := StepC; step <= StepB; step++ {
		if d := f - fifthsIndex[step]; d%7 == 0 {
			return Key{TonicStep: step, TonicAlter: d / 7, Mode: mode}
		}
	}
	// Unreachable: fifthsIndex covers every residue mod 7.
	return Key{TonicStep: StepC, Mode: mode}
}

func (k Key) String() string {
	name := k.TonicStep.String()
	switch {
	case k.TonicAlter > 0:
		name += strings.Repeat("#", k.TonicAlter)
	case k.TonicAlter < 0:
		name += strings.Repeat("b", -k.TonicAlter)
	}
	if k.Mode == Minor {
		name = strings.ToLower(name[:1]) + name[1:]
		return name + " minor"
	}
	return name + " major"
}

// Fifths returns the key signature as a signed count: positive sharps,
// negative flats (D major = 2, g minor = -2).
func (k Key) Fifths() int {
	f := fifthsIndex[k.TonicStep] + 7*k.TonicAlter
	if k.Mode == Minor {
		f -= 3
	}
	return f
}

// AlterOf returns the alteration the key signature applies to a step:
// +1 in sharp keys for sharped steps, -1 in flat keys, 0 otherwise.
func (k Key) AlterOf(step Step) int {
	f := k.Fifths()
	if f > 0 {
		for i := 0; i < f && i < 7; i++ {
			if sharpOrder[i] == step {
				return 1
			}
		}
	} else if f < 0 {
		for i := 0; i < -f && i < 7; i++ {
			if sharpOrder[6-i] == step {
				return -1
			}
		}
	}
	return 0
}

// Tonic returns the tonic pitch in the given octave.
func (k Key) Tonic(octave int) Pitch {
	return Pitch{Step: k.TonicStep, Alter: k.TonicAlter, Octave: octave}
}

// ScaleDegree returns the pitch of degree 1..7 above the tonic placed in
// octave, spelled per the key signature. Minor uses the natural form; the
// leading tone of minor keys is the caller's concern.
func (k Key) ScaleDegree(degree, octave int) (Pitch, error) {
	if degree < 1 || degree > 7 {
		return Pitch{}, fmt.Errorf("scale degree %d out of range", degree)
	}
	tonic := k.Tonic(octave)
	d := tonic.diatonic() + degree - 1
	step := Step(((d % 7) + 7) % 7)
	oct := (d - int(step)) / 7
	return Pitch{Step: step, Alter: k.AlterOf(step), Octave: oct}, nil
}

// LeadingTone returns the raised seventh degree resolving to the tonic in
// the given octave (B3 for C major with octave 4).
func (k Key) LeadingTone(octave int) Pitch {
	seventh, _ := k.ScaleDegree(7, octave-1)
	if k.Mode == Minor {
		seventh.Alter++
	}
	return seventh
}
