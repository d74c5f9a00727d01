package score

import "fmt"

// Problem is one validation finding.
type Problem struct {
	PartName string
	Measure  int
	Message  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s m.%d: %s", p.PartName, p.Measure, p.Message)
}

// Validate checks structural soundness: measure fill against the active
// time signature, tie continuity within each voice, and duplicate voice
// numbers. It returns findings rather than failing on the first.
func (s *Score) Validate() []Problem {
	var problems []Problem
	for _, p := range s.Parts {
		problems = append(problems, p.validate()...)
	}
	return problems
}

func (p *Part) validate() []Problem {
	var problems []Problem
	add := func(measure int, format string, args ...interface{}) {
		problems = append(problems, Problem{
			PartName: p.Name,
			Measure:  measure,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	// Open ties per voice number, carried across measures.
	openTies := make(map[int]int)

	for i, m := range p.Measures {
		span := p.ActiveTime(i).MeasureLength()
		seen := make(map[int]bool)
		for _, v := range m.Voices {
			if seen[v.Number] {
				add(m.Number, "duplicate voice %d", v.Number)
			}
			seen[v.Number] = true

			length := v.Length()
			switch c := length.Cmp(span); {
			case c > 0:
				add(m.Number, "voice %d overfull: %s in a %s measure", v.Number, length, span)
			case c < 0 && !m.Implicit && i != len(p.Measures)-1:
				add(m.Number, "voice %d underfull: %s in a %s measure", v.Number, length, span)
			}

			for _, n := range v.Events {
				if n.TieStop {
					if openTies[v.Number] == 0 {
						add(m.Number, "voice %d: tie stop with no open tie", v.Number)
					} else {
						openTies[v.Number]--
					}
				}
				if n.TieStart {
					if n.IsRest() {
						add(m.Number, "voice %d: tie on a rest", v.Number)
					} else {
						openTies[v.Number]++
					}
				}
			}
		}
	}

	for voice, open := range openTies {
		if open > 0 {
			last := 0
			if n := len(p.Measures); n > 0 {
				last = p.Measures[n-1].Number
			}
			add(last, "voice %d: %d unterminated tie(s)", voice, open)
		}
	}
	return problems
}
