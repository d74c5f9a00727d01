// Package voiceleading checks part writing against the common-practice
// rulebook: parallel and hidden perfect intervals, crossing, overlap,
// spacing, melodic intervals, ranges, and leading-tone resolution.
//
// The score is reduced to one melodic line per part (voice 1; chords
// contribute their top pitch, the bottom part its lowest) and aligned
// into verticalities at every onset. Rules are independent and each
// returns its own violations.
package voiceleading

import (
	"fmt"
	"sort"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
	"scorekit/internal/score"
)

// Violation is one rule finding.
type Violation struct {
	Rule    string
	Measure int
	Voices  []string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("m.%d [%s] %s", v.Measure, v.Rule, v.Message)
}

// Rule checks one concern over a prepared analysis.
type Rule interface {
	Name() string
	Check(a *Analysis) []Violation
}

// TimedNote is one melodic note with its absolute position.
type TimedNote struct {
	Offset  meter.Duration
	End     meter.Duration
	Measure int
	Pitch   pitch.Pitch
}

// Line is one part reduced to a monophonic succession.
type Line struct {
	Part  string
	Notes []TimedNote
}

// Verticality is the set of sounding notes at one onset, indexed by line.
// A nil entry means that line is resting or silent.
type Verticality struct {
	Offset  meter.Duration
	Measure int
	Notes   []*TimedNote
}

// Analysis is the prepared material rules run over.
type Analysis struct {
	Lines         []Line
	Verticalities []Verticality
	Key           pitch.Key
}

// Prepare reduces a score for rule checking.
func Prepare(s *score.Score) *Analysis {
	a := &Analysis{}
	if len(s.Parts) > 0 {
		a.Key = s.Parts[0].ActiveKey(0)
	}

	for pi, p := range s.Parts {
		line := Line{Part: p.Name}
		cursor := meter.Zero
		for mi, m := range p.Measures {
			span := p.ActiveTime(mi).MeasureLength()
			v := m.Voice(0)
			if v != nil {
				at := cursor
				for _, n := range v.Events {
					if n.Grace {
						continue
					}
					if !n.IsRest() {
						pp := n.Top()
						if pi == len(s.Parts)-1 {
							pp = n.Pitch() // bottom part tracks the bass
						}
						line.Notes = append(line.Notes, TimedNote{
							Offset:  at,
							End:     at.Add(n.Duration),
							Measure: m.Number,
							Pitch:   pp,
						})
					}
					at = at.Add(n.Duration)
				}
			}
			cursor = cursor.Add(span)
		}
		a.Lines = append(a.Lines, line)
	}

	a.Verticalities = buildVerticalities(a.Lines)
	return a
}

func buildVerticalities(lines []Line) []Verticality {
	type onset struct {
		off     meter.Duration
		measure int
	}
	seen := make(map[meter.Duration]onset)
	for _, l := range lines {
		for _, n := range l.Notes {
			if o, ok := seen[n.Offset]; !ok || n.Measure < o.measure {
				seen[n.Offset] = onset{n.Offset, n.Measure}
			}
		}
	}
	onsets := make([]onset, 0, len(seen))
	for _, o := range seen {
		onsets = append(onsets, o)
	}
	sort.Slice(onsets, func(i, j int) bool { return onsets[i].off.Cmp(onsets[j].off) < 0 })

	verts := make([]Verticality, 0, len(onsets))
	idx := make([]int, len(lines))
	for _, o := range onsets {
		v := Verticality{Offset: o.off, Measure: o.measure, Notes: make([]*TimedNote, len(lines))}
		for li := range lines {
			notes := lines[li].Notes
			for idx[li] < len(notes) && notes[idx[li]].End.Cmp(o.off) <= 0 {
				idx[li]++
			}
			if idx[li] < len(notes) && notes[idx[li]].Offset.Cmp(o.off) <= 0 {
				v.Notes[li] = &notes[idx[li]]
			}
		}
		verts = append(verts, v)
	}
	return verts
}

// Motion classifies how two voices move between verticalities.
type Motion int

const (
	MotionNone Motion = iota // neither voice moved
	MotionOblique
	MotionContrary
	MotionSimilar
)

func classifyMotion(a1, a2, b1, b2 pitch.Pitch) Motion {
	da := a2.MIDI() - a1.MIDI()
	db := b2.MIDI() - b1.MIDI()
	switch {
	case da == 0 && db == 0:
		return MotionNone
	case da == 0 || db == 0:
		return MotionOblique
	case (da > 0) == (db > 0):
		return MotionSimilar
	}
	return MotionContrary
}

// Checker runs a configured rule set.
type Checker struct {
	Rules []Rule
}

// NewChecker builds a checker with the default rulebook.
func NewChecker() *Checker {
	return &Checker{Rules: DefaultRules()}
}

// DefaultRules returns every rule with standard settings.
func DefaultRules() []Rule {
	return []Rule{
		ParallelPerfects{Semis: 7, Label: "parallel-fifths", Interval: "fifth"},
		ParallelPerfects{Semis: 0, Label: "parallel-octaves", Interval: "octave"},
		HiddenPerfects{},
		VoiceCrossing{},
		VoiceOverlap{},
		Spacing{MaxSemis: 12},
		MelodicIntervals{},
		Ranges{Limits: DefaultRanges()},
		LeadingToneResolution{},
	}
}

// CheckScore prepares the score and runs every rule, returning violations
// sorted by measure.
func (c *Checker) CheckScore(s *score.Score) []Violation {
	a := Prepare(s)
	var all []Violation
	for _, r := range c.Rules {
		all = append(all, r.Check(a)...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Measure < all[j].Measure })
	return all
}
