package braille

import (
	"fmt"
	"strings"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
	"scorekit/internal/score"
)

// Transcriber converts one part at a time. The zero value is usable;
// LineWidth defaults to 32 cells.
type Transcriber struct {
	LineWidth int
}

const defaultLineWidth = 32

// valueGroupOf maps a duration to its rhythm shape and dot count.
func valueGroupOf(d meter.Duration) (valueGroup, int, error) {
	name, dots, ok := d.Value()
	if !ok {
		return 0, 0, fmt.Errorf("duration %s has no braille value", d)
	}
	switch name {
	case "breve", "whole", "16th":
		return groupWhole, dots, nil
	case "half", "32nd":
		return groupHalf, dots, nil
	case "quarter", "64th":
		return groupQuarter, dots, nil
	case "eighth":
		return groupEighth, dots, nil
	}
	return 0, 0, fmt.Errorf("duration %s has no braille value", d)
}

// TranscribePart renders one part: key and time signature prefix, then
// measures separated by blank cells, wrapped at the line width on measure
// boundaries, closed by the final double bar.
func (t *Transcriber) TranscribePart(p *score.Part) (string, error) {
	width := t.LineWidth
	if width <= 0 {
		width = defaultLineWidth
	}

	var segments []string
	header := signatureCells(p)
	if header != "" {
		segments = append(segments, header)
	}

	state := &octaveState{}
	for i, m := range p.Measures {
		key := p.ActiveKey(i)
		cells, err := t.measureCells(m, key, state)
		if err != nil {
			return "", fmt.Errorf("measure %d: %w", m.Number, err)
		}
		if i == len(p.Measures)-1 || m.Barline == score.BarFinal {
			cells = append(cells, finalBar...)
		}
		segments = append(segments, string(cells))
		if m.Barline == score.BarFinal {
			break
		}
	}

	return wrap(segments, width), nil
}

// signatureCells renders the opening key and time signature.
func signatureCells(p *score.Part) string {
	if len(p.Measures) == 0 {
		return ""
	}
	var cells []rune
	m := p.Measures[0]
	if m.Key != nil {
		cells = append(cells, keySignatureCells(*m.Key)...)
	}
	if m.Time != nil {
		cells = append(cells, timeSignatureCells(*m.Time)...)
	}
	return string(cells)
}

// keySignatureCells writes up to three accidental signs literally; four
// or more use the number-sign shorthand.
func keySignatureCells(k pitch.Key) []rune {
	f := k.Fifths()
	sign, count := sharpSign, f
	if f < 0 {
		sign, count = flatSign, -f
	}
	if count == 0 {
		return nil
	}
	if count <= 3 {
		out := make([]rune, count)
		for i := range out {
			out[i] = sign
		}
		return out
	}
	return []rune{numberSign, upperDigits[count%10], sign}
}

func timeSignatureCells(ts meter.TimeSignature) []rune {
	cells := []rune{numberSign}
	for _, d := range digits(ts.Beats) {
		cells = append(cells, upperDigits[d])
	}
	for _, d := range digits(ts.BeatUnit) {
		cells = append(cells, lowerDigits[d])
	}
	return cells
}

func digits(n int) []int {
	if n == 0 {
		return []int{0}
	}
	var out []int
	for n > 0 {
		out = append([]int{n % 10}, out...)
		n /= 10
	}
	return out
}

// octaveState tracks the octave-mark rule across a part: the first note
// is always marked; after that a step or third is never re-marked, a
// fourth or fifth only when it lands in a new octave, and a sixth or
// larger always.
type octaveState struct {
	has  bool
	prev pitch.Pitch
}

func (s *octaveState) needsMark(p pitch.Pitch) bool {
	if !s.has {
		return true
	}
	steps := p.Octave*7 + int(p.Step) - (s.prev.Octave*7 + int(s.prev.Step))
	if steps < 0 {
		steps = -steps
	}
	switch {
	case steps <= 2:
		return false
	case steps <= 4:
		return p.Octave != s.prev.Octave
	}
	return true
}

func (s *octaveState) note(p pitch.Pitch) {
	s.has = true
	s.prev = p
}

// measureCells renders one measure's notes.
func (t *Transcriber) measureCells(m *score.Measure, key pitch.Key, state *octaveState) ([]rune, error) {
	var cells []rune
	v := m.Voice(0)
	if v == nil {
		return cells, nil
	}

	// Accidentals carry through the measure per step and octave.
	stated := make(map[[2]int]int)

	for _, n := range v.Events {
		group, dots, err := valueGroupOf(n.Duration)
		if err != nil {
			return nil, err
		}

		if n.IsRest() {
			cells = append(cells, restCells[group])
			for i := 0; i < dots; i++ {
				cells = append(cells, dotSign)
			}
			continue
		}

		written := n.Top()

		// Accidental sign when the note departs from the key signature
		// (or a prior accidental in this measure).
		current := key.AlterOf(written.Step)
		sk := [2]int{int(written.Step), written.Octave}
		if prior, ok := stated[sk]; ok {
			current = prior
		}
		if written.Alter != current {
			cells = append(cells, accidentalCells(written.Alter)...)
			stated[sk] = written.Alter
		}

		if state.needsMark(written) {
			cells = append(cells, octaveMark(written.Octave))
		}
		state.note(written)

		cells = append(cells, noteCell(written.Step, group))
		for i := 0; i < dots; i++ {
			cells = append(cells, dotSign)
		}

		// Chord members below the written note as interval signs.
		if n.IsChord() {
			cells = append(cells, chordIntervals(written, n.Pitches)...)
		}
	}
	return cells, nil
}

// chordIntervals renders downward interval signs from the written (top)
// note, nearest first. Compound intervals octave-reduce with an octave
// sign for the octave itself.
func chordIntervals(top pitch.Pitch, pitches []pitch.Pitch) []rune {
	lower := make([]pitch.Pitch, 0, len(pitches)-1)
	for _, p := range pitches {
		if p != top {
			lower = append(lower, p)
		}
	}
	// Highest of the lower notes first.
	for i := 1; i < len(lower); i++ {
		for j := i; j > 0 && lower[j].MIDI() > lower[j-1].MIDI(); j-- {
			lower[j], lower[j-1] = lower[j-1], lower[j]
		}
	}
	var cells []rune
	for _, p := range lower {
		n := pitch.Between(p, top).Simple().Number()
		if n == 1 {
			n = 8
		}
		cells = append(cells, intervalSigns[n])
	}
	return cells
}

// wrap joins measure segments with single blank cells, breaking lines at
// the cell width only between measures.
func wrap(segments []string, width int) string {
	var b strings.Builder
	lineLen := 0
	for i, seg := range segments {
		n := len([]rune(seg))
		switch {
		case i == 0:
			b.WriteString(seg)
			lineLen = n
		case lineLen+1+n > width:
			b.WriteString("\n")
			b.WriteString(seg)
			lineLen = n
		default:
			b.WriteString(" ")
			b.WriteString(seg)
			lineLen += 1 + n
		}
	}
	return b.String()
}
