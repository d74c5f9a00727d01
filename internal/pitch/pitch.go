// Package pitch models pitches, intervals, and keys with exact spelling.
// All arithmetic is integer-based; enharmonic spellings are preserved and
// never collapsed to MIDI numbers except where the caller asks for them.
package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Step is a diatonic letter name, C through B.
type Step int

const (
	StepC Step = iota
	StepD
	StepE
	StepF
	StepG
	StepA
	StepB
)

var stepNames = [7]string{"C", "D", "E", "F", "G", "A", "B"}

// Semitone offset of each natural step above C.
var stepSemis = [7]int{0, 2, 4, 5, 7, 9, 11}

func (s Step) String() string {
	if s < StepC || s > StepB {
		return "?"
	}
	return stepNames[s]
}

// ParseStep reads a single letter A-G (case-insensitive).
func ParseStep(r byte) (Step, error) {
	switch r {
	case 'C', 'c':
		return StepC, nil
	case 'D', 'd':
		return StepD, nil
	case 'E', 'e':
		return StepE, nil
	case 'F', 'f':
		return StepF, nil
	case 'G', 'g':
		return StepG, nil
	case 'A', 'a':
		return StepA, nil
	case 'B', 'b':
		return StepB, nil
	}
	return 0, fmt.Errorf("invalid step letter %q", string(r))
}

// Pitch is a spelled pitch: a letter step, a chromatic alteration in
// semitones (sharp positive, flat negative), and a scientific octave
// (C4 = middle C).
type Pitch struct {
	Step   Step
	Alter  int
	Octave int
}

// New is a convenience constructor.
func New(step Step, alter, octave int) Pitch {
	return Pitch{Step: step, Alter: alter, Octave: octave}
}

// Parse reads scientific pitch notation: a letter, optional accidentals
// (#, ##, x, b, bb), and an octave which may be negative ("C#4", "Bb-1").
func Parse(s string) (Pitch, error) {
	if len(s) < 2 {
		return Pitch{}, fmt.Errorf("pitch %q too short", s)
	}
	step, err := ParseStep(s[0])
	if err != nil {
		return Pitch{}, fmt.Errorf("pitch %q: %w", s, err)
	}
	rest := s[1:]
	alter := 0
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, "##"), strings.HasPrefix(rest, "x"):
			alter += 2
			if rest[0] == 'x' {
				rest = rest[1:]
			} else {
				rest = rest[2:]
			}
			continue
		case rest[0] == '#':
			alter++
			rest = rest[1:]
			continue
		case strings.HasPrefix(rest, "bb"):
			alter -= 2
			rest = rest[2:]
			continue
		case rest[0] == 'b':
			alter--
			rest = rest[1:]
			continue
		}
		break
	}
	oct, err := strconv.Atoi(rest)
	if err != nil {
		return Pitch{}, fmt.Errorf("pitch %q: bad octave %q", s, rest)
	}
	return Pitch{Step: step, Alter: alter, Octave: oct}, nil
}

// MustParse panics on a malformed pitch. For tests and literals.
func MustParse(s string) Pitch {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pitch) String() string {
	var b strings.Builder
	b.WriteString(p.Step.String())
	switch {
	case p.Alter > 0:
		b.WriteString(strings.Repeat("#", p.Alter))
	case p.Alter < 0:
		b.WriteString(strings.Repeat("b", -p.Alter))
	}
	b.WriteString(strconv.Itoa(p.Octave))
	return b.String()
}

// MIDI returns the MIDI note number (C4 = 60). Values outside 0..127 are
// returned as-is; range clamping is the caller's concern.
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + stepSemis[p.Step] + p.Alter
}

// Frequency returns equal-tempered frequency in Hz with A4 = 440.
func (p Pitch) Frequency() float64 {
	return 440 * math.Pow(2, float64(p.MIDI()-69)/12)
}

// diatonic returns the absolute diatonic index (steps above C0... well,
// above octave -infinity; only differences matter).
func (p Pitch) diatonic() int {
	return p.Octave*7 + int(p.Step)
}

// Transpose moves the pitch by iv, preserving spelling: the diatonic step
// moves by iv.Steps and the alteration absorbs the chromatic remainder.
func (p Pitch) Transpose(iv Interval) Pitch {
	d := p.diatonic() + iv.Steps
	step := Step(((d % 7) + 7) % 7)
	oct := (d - int(step)) / 7
	natural := (oct+1)*12 + stepSemis[step]
	return Pitch{Step: step, Alter: p.MIDI() + iv.Semis - natural, Octave: oct}
}

// Eq reports spelled equality (C#4 != Db4).
func (p Pitch) Eq(q Pitch) bool { return p == q }

// EnharmonicEq reports sounding equality (C#4 == Db4).
func (p Pitch) EnharmonicEq(q Pitch) bool { return p.MIDI() == q.MIDI() }
