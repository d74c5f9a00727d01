// Package braille transcribes score parts into Unicode braille music
// notation (U+2800 block). The tables follow the New International Manual
// of Braille Music Notation: pitch letters on dots 1-2-4-5 with rhythm on
// dots 3-6, paired value groups (whole with 16th, half with 32nd, quarter
// with 64th, eighth with 128th), prefix accidentals, and seven octave
// marks.
package braille

import "scorekit/internal/pitch"

// cell builds a braille rune from dot numbers 1-6.
func cell(dots ...int) rune {
	r := rune(0x2800)
	for _, d := range dots {
		r |= 1 << (d - 1)
	}
	return r
}

// valueGroup distinguishes the four rhythm shapes.
type valueGroup int

const (
	groupEighth  valueGroup = iota // plain letter cell
	groupQuarter                   // + dot 6
	groupHalf                      // + dot 3
	groupWhole                     // + dots 3 and 6
)

// Pitch letter cells in the eighth-note shape, indexed by pitch.Step.
var noteBase = map[pitch.Step]rune{
	pitch.StepC: cell(1, 4, 5),
	pitch.StepD: cell(1, 5),
	pitch.StepE: cell(1, 2, 4),
	pitch.StepF: cell(1, 2, 4, 5),
	pitch.StepG: cell(1, 2, 5),
	pitch.StepA: cell(2, 4),
	pitch.StepB: cell(2, 4, 5),
}

// noteCell returns the letter cell in the given rhythm shape.
func noteCell(step pitch.Step, g valueGroup) rune {
	r := noteBase[step]
	switch g {
	case groupQuarter:
		r |= 1 << 5 // dot 6
	case groupHalf:
		r |= 1 << 2 // dot 3
	case groupWhole:
		r |= 1<<2 | 1<<5
	}
	return r
}

// Rest cells by value group.
var restCells = map[valueGroup]rune{
	groupWhole:   cell(1, 3, 4),
	groupHalf:    cell(1, 3, 6),
	groupQuarter: cell(1, 2, 3, 6),
	groupEighth:  cell(1, 3, 4, 6),
}

// Accidental signs.
var (
	sharpSign   = cell(1, 4, 6)
	flatSign    = cell(1, 2, 6)
	naturalSign = cell(1, 6)
)

// accidentalCells renders an alteration as prefix signs; double
// accidentals double the sign.
func accidentalCells(alter int) []rune {
	switch {
	case alter > 0:
		out := make([]rune, alter)
		for i := range out {
			out[i] = sharpSign
		}
		return out
	case alter < 0:
		out := make([]rune, -alter)
		for i := range out {
			out[i] = flatSign
		}
		return out
	}
	return []rune{naturalSign}
}

// Octave marks for braille octaves 1-7; octave 4 holds middle C.
var octaveMarks = map[int]rune{
	1: cell(4),
	2: cell(4, 5),
	3: cell(4, 5, 6),
	4: cell(5),
	5: cell(4, 6),
	6: cell(5, 6),
	7: cell(6),
}

// octaveMark returns the mark for a scientific octave, clamped to the
// marked range.
func octaveMark(octave int) rune {
	if octave < 1 {
		octave = 1
	}
	if octave > 7 {
		octave = 7
	}
	return octaveMarks[octave]
}

// Interval signs for chord members, read downward from the written note.
var intervalSigns = map[int]rune{
	2: cell(3, 4),
	3: cell(3, 4, 6),
	4: cell(3, 4, 5, 6),
	5: cell(3, 5),
	6: cell(3, 5, 6),
	7: cell(2, 5),
	8: cell(3, 6),
}

// Number sign and digits (upper cell) for key and time signatures.
var numberSign = cell(3, 4, 5, 6)

var upperDigits = [10]rune{
	cell(2, 4, 5),    // 0 (j)
	cell(1),          // 1 (a)
	cell(1, 2),       // 2 (b)
	cell(1, 4),       // 3 (c)
	cell(1, 4, 5),    // 4 (d)
	cell(1, 5),       // 5 (e)
	cell(1, 2, 4),    // 6 (f)
	cell(1, 2, 4, 5), // 7 (g)
	cell(1, 2, 5),    // 8 (h)
	cell(2, 4),       // 9 (i)
}

// Lower-cell digits used for the denominator of a time signature.
var lowerDigits = [10]rune{
	cell(3, 5, 6),    // 0
	cell(2),          // 1
	cell(2, 3),       // 2
	cell(2, 5),       // 3
	cell(2, 5, 6),    // 4
	cell(2, 6),       // 5
	cell(2, 3, 5),    // 6
	cell(2, 3, 5, 6), // 7
	cell(2, 3, 6),    // 8
	cell(3, 5),       // 9
}

// Rhythmic dot and the final double bar.
var (
	dotSign  = cell(3)
	finalBar = []rune{cell(1, 2, 6), cell(1, 3)}
)
