package pitch

import "fmt"

// Interval is a directed distance between two spelled pitches: a diatonic
// step count and an exact chromatic semitone count. Both are negative for
// descending intervals.
type Interval struct {
	Steps int
	Semis int
}

// Quality classifies an interval.
type Quality int

const (
	QualityDiminished Quality = iota - 2
	QualityMinor
	QualityPerfect
	QualityMajor
	QualityAugmented
)

func (q Quality) String() string {
	switch q {
	case QualityDiminished:
		return "diminished"
	case QualityMinor:
		return "minor"
	case QualityPerfect:
		return "perfect"
	case QualityMajor:
		return "major"
	case QualityAugmented:
		return "augmented"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// Between returns the interval from a to b.
func Between(a, b Pitch) Interval {
	return Interval{
		Steps: b.diatonic() - a.diatonic(),
		Semis: b.MIDI() - a.MIDI(),
	}
}

// Semitone reference for simple intervals, indexed by step count 0..7.
// Perfect/major sizes; {0,3,4,7} are the perfect step counts.
var referenceSemis = [8]int{0, 2, 4, 5, 7, 9, 11, 12}

func isPerfectNumber(steps int) bool {
	switch steps {
	case 0, 3, 4, 7:
		return true
	}
	return false
}

// Number returns the conventional interval number: 1 for a unison, 8 for
// an octave, 9 for a compound second, and so on. Always positive.
func (iv Interval) Number() int {
	s := iv.Steps
	if s < 0 {
		s = -s
	}
	return s + 1
}

// Simple reduces a compound interval to its simple equivalent within one
// octave, keeping direction. Octaves reduce to octaves, not unisons.
func (iv Interval) Simple() Interval {
	steps, semis := iv.Steps, iv.Semis
	neg := steps < 0 || (steps == 0 && semis < 0)
	if neg {
		steps, semis = -steps, -semis
	}
	for steps > 7 {
		steps -= 7
		semis -= 12
	}
	if neg {
		steps, semis = -steps, -semis
	}
	return Interval{Steps: steps, Semis: semis}
}

// Quality classifies the interval. Quantities beyond singly augmented or
// diminished saturate at QualityAugmented/QualityDiminished.
func (iv Interval) Quality() Quality {
	s := iv.Simple()
	steps, semis := s.Steps, s.Semis
	if steps < 0 || (steps == 0 && semis < 0) {
		steps, semis = -steps, -semis
	}
	diff := semis - referenceSemis[steps]
	if isPerfectNumber(steps) {
		switch {
		case diff == 0:
			return QualityPerfect
		case diff > 0:
			return QualityAugmented
		default:
			return QualityDiminished
		}
	}
	switch {
	case diff == 0:
		return QualityMajor
	case diff == -1:
		return QualityMinor
	case diff > 0:
		return QualityAugmented
	default:
		return QualityDiminished
	}
}

// Invert returns the interval in the opposite direction.
func (iv Interval) Invert() Interval {
	return Interval{Steps: -iv.Steps, Semis: -iv.Semis}
}

func (iv Interval) String() string {
	dir := ""
	if iv.Steps < 0 || (iv.Steps == 0 && iv.Semis < 0) {
		dir = "-"
	}
	return fmt.Sprintf("%s%s %d", dir, iv.Quality(), iv.Number())
}

// Named simple intervals, ascending.
var (
	Unison          = Interval{0, 0}
	MinorSecond     = Interval{1, 1}
	MajorSecond     = Interval{1, 2}
	AugmentedSecond = Interval{1, 3}
	MinorThird      = Interval{2, 3}
	MajorThird      = Interval{2, 4}
	PerfectFourth   = Interval{3, 5}
	Tritone         = Interval{3, 6}
	PerfectFifth    = Interval{4, 7}
	MinorSixth      = Interval{5, 8}
	MajorSixth      = Interval{5, 9}
	MinorSeventh    = Interval{6, 10}
	MajorSeventh    = Interval{6, 11}
	PerfectOctave   = Interval{7, 12}
)
