// Package figuredbass parses figured-bass notation and realizes a figured
// bass line into four voices.
package figuredbass

import (
	"fmt"
	"strconv"
	"strings"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
)

// Modifier alters the pitch a figure calls for, relative to the key.
type Modifier int

const (
	ModNone Modifier = iota
	ModSharp
	ModFlat
	ModNatural
	ModRaise // slash or plus: raised a semitone, like a sharp
)

func (m Modifier) String() string {
	switch m {
	case ModSharp:
		return "#"
	case ModFlat:
		return "b"
	case ModNatural:
		return "n"
	case ModRaise:
		return "+"
	}
	return ""
}

// Figure is one stacked number with an optional accidental. Number 0
// means a bare accidental, which by convention applies to the third.
type Figure struct {
	Number   int
	Modifier Modifier
}

func (f Figure) String() string {
	if f.Number == 0 {
		return f.Modifier.String() + "3"
	}
	return f.Modifier.String() + strconv.Itoa(f.Number)
}

// Entry is one bass note with its figures.
type Entry struct {
	Bass     pitch.Pitch
	Figures  []Figure
	Duration meter.Duration
}

// ParseFigures reads a figure stack like "6", "6,4", "#6,3", "7#", "5/3".
// Comma and slash both separate stacked figures; an empty string is a
// valid empty stack (root position).
func ParseFigures(s string) ([]Figure, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == ' ' })
	var figures []Figure
	for _, tok := range tokens {
		f, err := parseFigure(tok)
		if err != nil {
			return nil, fmt.Errorf("figures %q: %w", s, err)
		}
		figures = append(figures, f)
	}
	return figures, nil
}

func parseFigure(tok string) (Figure, error) {
	f := Figure{}
	readMod := func(c byte) (Modifier, bool) {
		switch c {
		case '#':
			return ModSharp, true
		case 'b':
			return ModFlat, true
		case 'n':
			return ModNatural, true
		case '+', '\\':
			return ModRaise, true
		}
		return ModNone, false
	}
	if m, ok := readMod(tok[0]); ok {
		f.Modifier = m
		tok = tok[1:]
	}
	if len(tok) > 0 {
		if m, ok := readMod(tok[len(tok)-1]); ok {
			if f.Modifier != ModNone {
				return Figure{}, fmt.Errorf("figure %q: two accidentals", tok)
			}
			f.Modifier = m
			tok = tok[:len(tok)-1]
		}
	}
	if tok == "" {
		if f.Modifier == ModNone {
			return Figure{}, fmt.Errorf("empty figure")
		}
		return f, nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 1 || n > 13 {
		return Figure{}, fmt.Errorf("figure number %q out of range", tok)
	}
	f.Number = n
	return f, nil
}

// Intervals expands a figure stack into the full interval-number set under
// the standard abbreviation rules. The bass itself (1) is not included.
func Intervals(figures []Figure) []int {
	nums := make([]int, 0, len(figures))
	for _, f := range figures {
		n := f.Number
		if n == 0 {
			n = 3
		}
		nums = append(nums, n)
	}

	has := func(n int) bool {
		for _, x := range nums {
			if x == n {
				return true
			}
		}
		return false
	}
	switch {
	case len(nums) == 0:
		return []int{3, 5}
	case len(nums) == 1 && has(3):
		return []int{3, 5}
	case len(nums) == 1 && has(6):
		return []int{3, 6}
	case len(nums) == 1 && has(7):
		return []int{3, 5, 7}
	case len(nums) == 2 && has(6) && has(5):
		return []int{3, 5, 6}
	case len(nums) == 2 && has(4) && has(3):
		return []int{3, 4, 6}
	case len(nums) == 2 && has(4) && has(2):
		return []int{2, 4, 6}
	case len(nums) == 1 && has(2):
		return []int{2, 4, 6}
	case len(nums) == 2 && has(6) && has(4):
		return []int{4, 6}
	case len(nums) == 1 && has(9):
		return []int{3, 5, 9}
	}
	// Explicit stacks pass through as written.
	out := append([]int(nil), nums...)
	sortInts(out)
	return out
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// modifierFor returns the figure accidental applying to interval n, if
// any. Bare accidentals attach to the third.
func modifierFor(figures []Figure, n int) Modifier {
	for _, f := range figures {
		num := f.Number
		if num == 0 {
			num = 3
		}
		if num == n {
			return f.Modifier
		}
	}
	return ModNone
}

// ToneAbove spells the pitch the figure stack calls for at interval n
// above the bass, in the key. The key signature supplies the default
// alteration; a figure accidental overrides it.
func ToneAbove(k pitch.Key, bass pitch.Pitch, figures []Figure, n int) pitch.Pitch {
	stepIdx := int(bass.Step) + n - 1
	step := pitch.Step(stepIdx % 7)
	octave := bass.Octave + stepIdx/7

	alter := k.AlterOf(step)
	switch modifierFor(figures, n) {
	case ModSharp, ModRaise:
		alter++
	case ModFlat:
		alter--
	case ModNatural:
		alter = 0
	}
	return pitch.New(step, alter, octave)
}

// Tones returns the distinct pitch spellings (octave-normalized to the
// bass octave) of a figured bass entry: the bass tone plus every figured
// interval.
func Tones(k pitch.Key, e Entry) []pitch.Pitch {
	tones := []pitch.Pitch{e.Bass}
	for _, n := range Intervals(e.Figures) {
		tones = append(tones, ToneAbove(k, e.Bass, e.Figures, n))
	}
	return tones
}
