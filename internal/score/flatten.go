package score

import (
	"sort"

	"scorekit/internal/meter"
)

// Event is one note placed in absolute score time. Offset is measured in
// whole notes from the start of the piece.
type Event struct {
	Offset  meter.Duration
	Measure int // measure number, not index
	PartID  string
	Voice   int
	Note    *Note
}

// Flatten returns every event of every part ordered by offset, then part
// order, then voice number. Measure starts are computed from the active
// time signature, so an underfull measure still advances the grid by its
// nominal length.
func (s *Score) Flatten() []Event {
	var events []Event
	partOrder := make(map[string]int, len(s.Parts))
	for i, p := range s.Parts {
		partOrder[p.ID] = i
		events = append(events, p.flatten()...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].Offset.Cmp(events[j].Offset); c != 0 {
			return c < 0
		}
		if a, b := partOrder[events[i].PartID], partOrder[events[j].PartID]; a != b {
			return a < b
		}
		return events[i].Voice < events[j].Voice
	})
	return events
}

func (p *Part) flatten() []Event {
	var events []Event
	measureStart := meter.Zero
	for i, m := range p.Measures {
		span := p.ActiveTime(i).MeasureLength()
		for _, v := range m.Voices {
			cursor := measureStart
			for _, n := range v.Events {
				events = append(events, Event{
					Offset:  cursor,
					Measure: m.Number,
					PartID:  p.ID,
					Voice:   v.Number,
					Note:    n,
				})
				if !n.Grace {
					cursor = cursor.Add(n.Duration)
				}
			}
		}
		measureStart = measureStart.Add(span)
	}
	return events
}
