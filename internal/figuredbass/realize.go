package figuredbass

import (
	"fmt"
	"sort"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
	"scorekit/internal/score"
	"scorekit/internal/voiceleading"
)

// Chord is one realized four-voice verticality.
type Chord struct {
	Soprano pitch.Pitch
	Alto    pitch.Pitch
	Tenor   pitch.Pitch
	Bass    pitch.Pitch
}

// voices returns the chord top-down.
func (c Chord) voices() [4]pitch.Pitch {
	return [4]pitch.Pitch{c.Soprano, c.Alto, c.Tenor, c.Bass}
}

// Realization is a fully voiced figured bass line.
type Realization struct {
	Key     pitch.Key
	Entries []Entry
	Chords  []Chord
}

const beamWidth = 8

// Realize voices each entry in four parts, preferring common tones and
// minimal motion, and screening each transition for parallel perfect
// intervals. An entry with no legal voicing fails.
func Realize(k pitch.Key, entries []Entry) (*Realization, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("realize: empty bass line")
	}

	type path struct {
		chords []Chord
		cost   int
	}

	first, err := candidateVoicings(k, entries[0])
	if err != nil {
		return nil, fmt.Errorf("entry 1 (%s): %w", entries[0].Bass, err)
	}
	beam := make([]path, 0, beamWidth)
	for _, c := range first {
		beam = append(beam, path{chords: []Chord{c}, cost: staticCost(k, entries[0], c)})
	}
	sort.Slice(beam, func(i, j int) bool { return beam[i].cost < beam[j].cost })
	if len(beam) > beamWidth {
		beam = beam[:beamWidth]
	}

	for i := 1; i < len(entries); i++ {
		cands, err := candidateVoicings(k, entries[i])
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i+1, entries[i].Bass, err)
		}
		var next []path
		for _, p := range beam {
			prev := p.chords[len(p.chords)-1]
			for _, c := range cands {
				cost := p.cost + staticCost(k, entries[i], c) + transitionCost(prev, c)
				chords := append(append([]Chord(nil), p.chords...), c)
				next = append(next, path{chords: chords, cost: cost})
			}
		}
		sort.Slice(next, func(a, b int) bool { return next[a].cost < next[b].cost })
		if len(next) > beamWidth {
			next = next[:beamWidth]
		}
		beam = next
	}

	return &Realization{Key: k, Entries: entries, Chords: beam[0].chords}, nil
}

var upperRanges = func() [3]voiceleading.Range {
	r := voiceleading.DefaultRanges()
	return [3]voiceleading.Range{r["soprano"], r["alto"], r["tenor"]}
}()

// candidateVoicings enumerates legal SATB voicings of one entry: every
// figured tone covered (the fifth may be omitted), voices in range and
// order, adjacent upper voices within an octave.
func candidateVoicings(k pitch.Key, e Entry) ([]Chord, error) {
	tones := Tones(k, e)

	// The fifth above the bass is the only omittable tone.
	var fifth *pitch.Pitch
	for _, n := range Intervals(e.Figures) {
		if n == 5 {
			p := ToneAbove(k, e.Bass, e.Figures, 5)
			fifth = &p
		}
	}

	class := func(p pitch.Pitch) [2]int { return [2]int{int(p.Step), p.Alter} }

	var out []Chord
	var pick func(assigned []pitch.Pitch)
	pick = func(assigned []pitch.Pitch) {
		if len(assigned) == 3 {
			covered := map[[2]int]bool{class(e.Bass): true}
			for _, p := range assigned {
				covered[class(p)] = true
			}
			for _, tone := range tones {
				if covered[class(tone)] {
					continue
				}
				if fifth != nil && class(tone) == class(*fifth) {
					continue
				}
				return // a required tone is missing
			}
			out = append(out, placeVoices(e.Bass, assigned)...)
			return
		}
		for _, tone := range tones {
			pick(append(assigned, tone))
		}
	}
	pick(nil)

	if len(out) == 0 {
		return nil, fmt.Errorf("no legal voicing for figures %v", e.Figures)
	}
	return out, nil
}

// placeVoices turns tenor/alto/soprano tone classes into concrete pitches
// obeying range, ordering, and spacing.
func placeVoices(bass pitch.Pitch, tones []pitch.Pitch) []Chord {
	var out []Chord
	octaves := func(tone pitch.Pitch, r voiceleading.Range, above int) []pitch.Pitch {
		var ps []pitch.Pitch
		for oct := r.Low.Octave - 1; oct <= r.High.Octave+1; oct++ {
			p := pitch.New(tone.Step, tone.Alter, oct)
			if p.MIDI() < r.Low.MIDI() || p.MIDI() > r.High.MIDI() || p.MIDI() < above {
				continue
			}
			ps = append(ps, p)
		}
		return ps
	}

	for _, tenor := range octaves(tones[0], upperRanges[2], bass.MIDI()+1) {
		for _, alto := range octaves(tones[1], upperRanges[1], tenor.MIDI()) {
			if alto.MIDI()-tenor.MIDI() > 12 {
				continue
			}
			for _, sop := range octaves(tones[2], upperRanges[0], alto.MIDI()) {
				if sop.MIDI()-alto.MIDI() > 12 {
					continue
				}
				out = append(out, Chord{Soprano: sop, Alto: alto, Tenor: tenor, Bass: bass})
			}
		}
	}
	return out
}

// staticCost prefers bass doubling in triads and penalizes extremes of
// register distance.
func staticCost(k pitch.Key, e Entry, c Chord) int {
	cost := 0
	class := func(p pitch.Pitch) [2]int { return [2]int{int(p.Step), p.Alter} }
	if len(Intervals(e.Figures)) == 2 { // triad
		doubled := 0
		for _, v := range []pitch.Pitch{c.Soprano, c.Alto, c.Tenor} {
			if class(v) == class(e.Bass) {
				doubled++
			}
		}
		if doubled == 0 {
			cost += 3
		}
	}
	// Mild penalty for a very wide total spread.
	if c.Soprano.MIDI()-c.Bass.MIDI() > 28 {
		cost += 2
	}
	return cost
}

// transitionCost scores voice movement between chords and heavily
// penalizes parallel perfects and overlaps.
func transitionCost(prev, cur Chord) int {
	pv, cv := prev.voices(), cur.voices()
	cost := 0
	for i := range pv {
		d := cv[i].MIDI() - pv[i].MIDI()
		if d < 0 {
			d = -d
		}
		cost += d
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d1 := cv[i].MIDI() - pv[i].MIDI()
			d2 := cv[j].MIDI() - pv[j].MIDI()
			if d1 == 0 || d2 == 0 || (d1 > 0) != (d2 > 0) {
				continue // oblique or contrary
			}
			iv1 := (pv[i].MIDI() - pv[j].MIDI()) % 12
			iv2 := (cv[i].MIDI() - cv[j].MIDI()) % 12
			if iv1 == iv2 && (iv2 == 7 || iv2 == 0) {
				cost += 100
			}
		}
	}
	// Overlap: a voice moving past its neighbor's previous pitch.
	for i := 0; i < 3; i++ {
		if cv[i].MIDI() < pv[i+1].MIDI() || cv[i+1].MIDI() > pv[i].MIDI() {
			cost += 20
		}
	}
	return cost
}

// Score lays the realization out as a four-part SATB score in the given
// time signature.
func (r *Realization) Score(ts meter.TimeSignature) *score.Score {
	s := score.NewScore()
	s.Metadata.Title = "Figured Bass Realization"
	names := []string{"Soprano", "Alto", "Tenor", "Bass"}
	span := ts.MeasureLength()

	for vi, name := range names {
		p := s.AddPart(name)
		m := p.AddMeasure()
		sig := ts
		m.Time = &sig
		k := r.Key
		m.Key = &k
		fill := meter.Zero

		for ci, c := range r.Chords {
			d := r.Entries[ci].Duration
			if d.IsZero() {
				d = meter.Quarter
			}
			if fill.Cmp(span) >= 0 {
				m = p.AddMeasure()
				fill = meter.Zero
			}
			v := m.EnsureVoice(1)
			v.Events = append(v.Events, score.NewNote(c.voices()[vi], d))
			fill = fill.Add(d)
		}
		m.Barline = score.BarFinal
	}
	return s
}
