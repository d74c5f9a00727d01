package voiceleading

import (
	"fmt"
	"strings"

	"scorekit/internal/pitch"
)

func mod(a, b int) int { return ((a % b) + b) % b }

// isSimpleFifth reports a perfect fifth mod octave between lower and
// upper, by spelling (an augmented fourth never qualifies).
func isSimpleFifth(lower, upper pitch.Pitch) bool {
	iv := pitch.Between(lower, upper)
	return mod(iv.Steps, 7) == 4 && mod(iv.Semis, 12) == 7
}

// isSimpleOctave reports an octave or unison mod octave by spelling.
func isSimpleOctave(lower, upper pitch.Pitch) bool {
	iv := pitch.Between(lower, upper)
	return mod(iv.Steps, 7) == 0 && mod(iv.Semis, 12) == 0
}

// ParallelPerfects flags consecutive perfect fifths or octaves reached in
// similar motion. Oblique and contrary approaches are clean, as are
// repeated verticalities with no motion at all.
type ParallelPerfects struct {
	Semis    int // 7 for fifths, 0 for octaves
	Label    string
	Interval string
}

func (r ParallelPerfects) Name() string { return r.Label }

func (r ParallelPerfects) match(lower, upper pitch.Pitch) bool {
	if r.Semis == 7 {
		return isSimpleFifth(lower, upper)
	}
	return isSimpleOctave(lower, upper)
}

func (r ParallelPerfects) Check(a *Analysis) []Violation {
	var out []Violation
	forVoicePairs(a, func(upper, lower int, a1, b1, a2, b2 *TimedNote, measure int) {
		if classifyMotion(a1.Pitch, a2.Pitch, b1.Pitch, b2.Pitch) != MotionSimilar {
			return
		}
		if r.match(b1.Pitch, a1.Pitch) && r.match(b2.Pitch, a2.Pitch) {
			out = append(out, Violation{
				Rule:    r.Label,
				Measure: measure,
				Voices:  []string{a.Lines[upper].Part, a.Lines[lower].Part},
				Message: fmt.Sprintf("parallel %ss between %s and %s (%s-%s to %s-%s)",
					r.Interval, a.Lines[upper].Part, a.Lines[lower].Part,
					b1.Pitch, a1.Pitch, b2.Pitch, a2.Pitch),
			})
		}
	})
	return out
}

// HiddenPerfects flags direct fifths and octaves in the outer voices:
// similar motion into a perfect fifth or octave with a leap in the top
// voice.
type HiddenPerfects struct{}

func (HiddenPerfects) Name() string { return "hidden-perfects" }

func (HiddenPerfects) Check(a *Analysis) []Violation {
	if len(a.Lines) < 2 {
		return nil
	}
	top, bottom := 0, len(a.Lines)-1
	var out []Violation
	forPair(a, top, bottom, func(a1, b1, a2, b2 *TimedNote, measure int) {
		if classifyMotion(a1.Pitch, a2.Pitch, b1.Pitch, b2.Pitch) != MotionSimilar {
			return
		}
		arrivedFifth := isSimpleFifth(b2.Pitch, a2.Pitch)
		arrivedOctave := isSimpleOctave(b2.Pitch, a2.Pitch)
		if !arrivedFifth && !arrivedOctave {
			return
		}
		// Already the same perfect interval: that is the parallel rule's
		// business, not a hidden approach.
		if arrivedFifth && isSimpleFifth(b1.Pitch, a1.Pitch) {
			return
		}
		if arrivedOctave && isSimpleOctave(b1.Pitch, a1.Pitch) {
			return
		}
		sopranoLeap := pitch.Between(a1.Pitch, a2.Pitch)
		if abs(sopranoLeap.Steps) <= 1 {
			return // stepwise soprano is allowed
		}
		what := "fifth"
		if arrivedOctave {
			what = "octave"
		}
		out = append(out, Violation{
			Rule:    "hidden-perfects",
			Measure: measure,
			Voices:  []string{a.Lines[top].Part, a.Lines[bottom].Part},
			Message: fmt.Sprintf("hidden %s in outer voices (soprano leaps to %s)", what, a2.Pitch),
		})
	})
	return out
}

// VoiceCrossing flags a nominally higher voice sounding below a lower one.
type VoiceCrossing struct{}

func (VoiceCrossing) Name() string { return "voice-crossing" }

func (VoiceCrossing) Check(a *Analysis) []Violation {
	var out []Violation
	for _, v := range a.Verticalities {
		for i := 0; i < len(v.Notes)-1; i++ {
			upper, lower := v.Notes[i], v.Notes[i+1]
			if upper == nil || lower == nil {
				continue
			}
			if upper.Pitch.MIDI() < lower.Pitch.MIDI() {
				out = append(out, Violation{
					Rule:    "voice-crossing",
					Measure: v.Measure,
					Voices:  []string{a.Lines[i].Part, a.Lines[i+1].Part},
					Message: fmt.Sprintf("%s (%s) sounds below %s (%s)",
						a.Lines[i].Part, upper.Pitch, a.Lines[i+1].Part, lower.Pitch),
				})
			}
		}
	}
	return out
}

// VoiceOverlap flags a voice moving past where its neighbor just was:
// the upper voice dropping below the lower voice's previous note or the
// lower rising above the upper's.
type VoiceOverlap struct{}

func (VoiceOverlap) Name() string { return "voice-overlap" }

func (VoiceOverlap) Check(a *Analysis) []Violation {
	var out []Violation
	for i := 0; i < len(a.Lines)-1; i++ {
		forPair(a, i, i+1, func(a1, b1, a2, b2 *TimedNote, measure int) {
			if a2.Pitch.MIDI() < b1.Pitch.MIDI() {
				out = append(out, Violation{
					Rule:    "voice-overlap",
					Measure: measure,
					Voices:  []string{a.Lines[i].Part, a.Lines[i+1].Part},
					Message: fmt.Sprintf("%s moves to %s, below %s's previous %s",
						a.Lines[i].Part, a2.Pitch, a.Lines[i+1].Part, b1.Pitch),
				})
			} else if b2.Pitch.MIDI() > a1.Pitch.MIDI() {
				out = append(out, Violation{
					Rule:    "voice-overlap",
					Measure: measure,
					Voices:  []string{a.Lines[i].Part, a.Lines[i+1].Part},
					Message: fmt.Sprintf("%s moves to %s, above %s's previous %s",
						a.Lines[i+1].Part, b2.Pitch, a.Lines[i].Part, a1.Pitch),
				})
			}
		})
	}
	return out
}

// Spacing flags adjacent upper voices more than MaxSemis apart. The gap
// above the bass is traditionally unlimited and is not checked.
type Spacing struct {
	MaxSemis int
}

func (Spacing) Name() string { return "spacing" }

func (r Spacing) Check(a *Analysis) []Violation {
	var out []Violation
	for _, v := range a.Verticalities {
		// Exclude the pair that includes the bottom line.
		for i := 0; i < len(v.Notes)-2; i++ {
			upper, lower := v.Notes[i], v.Notes[i+1]
			if upper == nil || lower == nil {
				continue
			}
			if gap := upper.Pitch.MIDI() - lower.Pitch.MIDI(); gap > r.MaxSemis {
				out = append(out, Violation{
					Rule:    "spacing",
					Measure: v.Measure,
					Voices:  []string{a.Lines[i].Part, a.Lines[i+1].Part},
					Message: fmt.Sprintf("%s and %s are %d semitones apart (limit %d)",
						a.Lines[i].Part, a.Lines[i+1].Part, gap, r.MaxSemis),
				})
			}
		}
	}
	return out
}

// MelodicIntervals flags augmented seconds and melodic tritones in any
// single line.
type MelodicIntervals struct{}

func (MelodicIntervals) Name() string { return "melodic-intervals" }

func (MelodicIntervals) Check(a *Analysis) []Violation {
	var out []Violation
	for li, l := range a.Lines {
		for i := 1; i < len(l.Notes); i++ {
			iv := pitch.Between(l.Notes[i-1].Pitch, l.Notes[i].Pitch)
			steps, semis := abs(iv.Steps), abs(iv.Semis)
			bad := ""
			switch {
			case steps == 1 && semis == 3:
				bad = "augmented second"
			case (steps == 3 || steps == 4) && semis == 6:
				bad = "tritone"
			}
			if bad != "" {
				out = append(out, Violation{
					Rule:    "melodic-intervals",
					Measure: l.Notes[i].Measure,
					Voices:  []string{l.Part},
					Message: fmt.Sprintf("melodic %s in %s (%s to %s)",
						bad, a.Lines[li].Part, l.Notes[i-1].Pitch, l.Notes[i].Pitch),
				})
			}
		}
	}
	return out
}

// Range is an inclusive sounding range for one voice part.
type Range struct {
	Low  pitch.Pitch
	High pitch.Pitch
}

// DefaultRanges returns conventional SATB ranges keyed by part-name
// substring.
func DefaultRanges() map[string]Range {
	return map[string]Range{
		"soprano": {pitch.MustParse("C4"), pitch.MustParse("A5")},
		"alto":    {pitch.MustParse("G3"), pitch.MustParse("D5")},
		"tenor":   {pitch.MustParse("C3"), pitch.MustParse("G4")},
		"bass":    {pitch.MustParse("E2"), pitch.MustParse("C4")},
	}
}

// Ranges flags notes outside the range assigned to their part. Parts are
// matched by name substring; four-part scores with unrecognized names
// fall back to SATB order.
type Ranges struct {
	Limits map[string]Range
}

func (Ranges) Name() string { return "ranges" }

var satbOrder = []string{"soprano", "alto", "tenor", "bass"}

func (r Ranges) rangeFor(a *Analysis, li int) (Range, bool) {
	name := strings.ToLower(a.Lines[li].Part)
	for key, rng := range r.Limits {
		if strings.Contains(name, key) {
			return rng, true
		}
	}
	if len(a.Lines) == 4 {
		if rng, ok := r.Limits[satbOrder[li]]; ok {
			return rng, true
		}
	}
	return Range{}, false
}

func (r Ranges) Check(a *Analysis) []Violation {
	var out []Violation
	for li, l := range a.Lines {
		rng, ok := r.rangeFor(a, li)
		if !ok {
			continue
		}
		for _, n := range l.Notes {
			if n.Pitch.MIDI() < rng.Low.MIDI() || n.Pitch.MIDI() > rng.High.MIDI() {
				out = append(out, Violation{
					Rule:    "ranges",
					Measure: n.Measure,
					Voices:  []string{l.Part},
					Message: fmt.Sprintf("%s out of range for %s (%s-%s)",
						n.Pitch, l.Part, rng.Low, rng.High),
				})
			}
		}
	}
	return out
}

// LeadingToneResolution flags an outer voice that sounds the leading tone
// at the final cadence without resolving it to the tonic.
type LeadingToneResolution struct{}

func (LeadingToneResolution) Name() string { return "leading-tone" }

func (LeadingToneResolution) Check(a *Analysis) []Violation {
	if len(a.Verticalities) < 2 {
		return nil
	}
	penult := a.Verticalities[len(a.Verticalities)-2]
	final := a.Verticalities[len(a.Verticalities)-1]

	leading := a.Key.LeadingTone(4)
	tonicClass := mod(a.Key.Tonic(4).MIDI(), 12)
	leadingClass := mod(leading.MIDI(), 12)

	var out []Violation
	outer := []int{0}
	if len(a.Lines) > 1 {
		outer = append(outer, len(a.Lines)-1)
	}
	for _, li := range outer {
		p1, p2 := penult.Notes[li], final.Notes[li]
		if p1 == nil || p2 == nil {
			continue
		}
		if mod(p1.Pitch.MIDI(), 12) != leadingClass {
			continue
		}
		if mod(p2.Pitch.MIDI(), 12) != tonicClass {
			out = append(out, Violation{
				Rule:    "leading-tone",
				Measure: final.Measure,
				Voices:  []string{a.Lines[li].Part},
				Message: fmt.Sprintf("leading tone %s in %s does not resolve to the tonic (moves to %s)",
					p1.Pitch, a.Lines[li].Part, p2.Pitch),
			})
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// forPair walks consecutive verticalities of one voice pair, calling fn
// when all four corner notes are present and at least one voice moved.
func forPair(a *Analysis, upper, lower int, fn func(a1, b1, a2, b2 *TimedNote, measure int)) {
	for vi := 1; vi < len(a.Verticalities); vi++ {
		prev, cur := a.Verticalities[vi-1], a.Verticalities[vi]
		a1, b1 := prev.Notes[upper], prev.Notes[lower]
		a2, b2 := cur.Notes[upper], cur.Notes[lower]
		if a1 == nil || b1 == nil || a2 == nil || b2 == nil {
			continue
		}
		if a1 == a2 && b1 == b2 {
			continue // nothing sounded anew
		}
		fn(a1, b1, a2, b2, cur.Measure)
	}
}

// forVoicePairs runs forPair over every ordered voice pair.
func forVoicePairs(a *Analysis, fn func(upper, lower int, a1, b1, a2, b2 *TimedNote, measure int)) {
	for i := 0; i < len(a.Lines); i++ {
		for j := i + 1; j < len(a.Lines); j++ {
			forPair(a, i, j, func(a1, b1, a2, b2 *TimedNote, measure int) {
				fn(i, j, a1, b1, a2, b2, measure)
			})
		}
	}
}
