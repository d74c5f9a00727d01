// Package score is the in-memory score object model: a Score holds Parts,
// a Part holds Measures, a Measure holds numbered Voices of notes, rests,
// and chords. Layout hints (system/page breaks, staff spacing) live on the
// measure that carries them.
package score

import (
	"github.com/google/uuid"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
)

// Metadata is the score-level metadata bag.
type Metadata struct {
	Title      string
	Movement   string
	WorkNumber string
	Composer   string
	Lyricist   string
	Rights     string
	Software   string
	SourcePath string
}

// Score is a complete piece: metadata plus ordered parts.
type Score struct {
	ID       string
	Metadata Metadata
	Parts    []*Part
}

// NewScore allocates a score with a fresh ID.
func NewScore() *Score {
	return &Score{ID: uuid.NewString()}
}

// AddPart appends a new named part and returns it.
func (s *Score) AddPart(name string) *Part {
	p := &Part{ID: uuid.NewString(), Name: name}
	s.Parts = append(s.Parts, p)
	return p
}

// PartByID returns the part with the given ID, or nil.
func (s *Score) PartByID(id string) *Part {
	for _, p := range s.Parts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// MeasureCount returns the measure count of the longest part.
func (s *Score) MeasureCount() int {
	max := 0
	for _, p := range s.Parts {
		if len(p.Measures) > max {
			max = len(p.Measures)
		}
	}
	return max
}

// Part is one instrument or voice part.
type Part struct {
	ID           string
	Name         string
	Abbreviation string
	Measures     []*Measure
}

// AddMeasure appends a measure numbered after the last one.
func (p *Part) AddMeasure() *Measure {
	n := 1
	if len(p.Measures) > 0 {
		n = p.Measures[len(p.Measures)-1].Number + 1
	}
	m := &Measure{Number: n}
	p.Measures = append(p.Measures, m)
	return m
}

// ActiveTime returns the time signature in effect at measure index i:
// the most recent explicit signature at or before i. Defaults to 4/4
// when no part measure declares one.
func (p *Part) ActiveTime(i int) meter.TimeSignature {
	for ; i >= 0 && i < len(p.Measures); i-- {
		if ts := p.Measures[i].Time; ts != nil {
			return *ts
		}
	}
	return meter.CommonTime
}

// ActiveKey returns the key in effect at measure index i, defaulting to
// C major.
func (p *Part) ActiveKey(i int) pitch.Key {
	for ; i >= 0 && i < len(p.Measures); i-- {
		if k := p.Measures[i].Key; k != nil {
			return *k
		}
	}
	return pitch.NewKey(pitch.StepC, 0, pitch.Major)
}

// NoteStream returns the melodic succession of one voice across every
// measure, skipping rests. voiceNumber 0 means the first voice present
// in each measure.
func (p *Part) NoteStream(voiceNumber int) []*Note {
	var out []*Note
	for _, m := range p.Measures {
		v := m.Voice(voiceNumber)
		if v == nil {
			continue
		}
		for _, n := range v.Events {
			if !n.IsRest() {
				out = append(out, n)
			}
		}
	}
	return out
}

// Clef positions pitches on a staff.
type Clef struct {
	Sign         string // G, F, C, percussion
	Line         int
	OctaveChange int // -1 for tenor G clef, etc.
}

var (
	TrebleClef = Clef{Sign: "G", Line: 2}
	BassClef   = Clef{Sign: "F", Line: 4}
	AltoClef   = Clef{Sign: "C", Line: 3}
	TenorClef  = Clef{Sign: "C", Line: 4}
)

// BarlineStyle is the right-barline style of a measure.
type BarlineStyle string

const (
	BarRegular     BarlineStyle = ""
	BarDouble      BarlineStyle = "light-light"
	BarFinal       BarlineStyle = "light-heavy"
	BarRepeatStart BarlineStyle = "repeat-forward"
	BarRepeatEnd   BarlineStyle = "repeat-backward"
)

// StaffLayout carries engraving distances in tenths of staff space.
type StaffLayout struct {
	StaffDistance  float64
	SystemDistance float64
}

// Measure holds attribute changes in force from this measure on, and the
// measure's voices.
type Measure struct {
	Number   int
	Implicit bool // pickup measures are unnumbered in display

	// Attribute changes; nil means "unchanged from previous measure".
	Clef *Clef
	Key  *pitch.Key
	Time *meter.TimeSignature

	Voices []*Voice

	Barline     BarlineStyle
	SystemBreak bool
	PageBreak   bool
	Layout      *StaffLayout
}

// Voice returns the voice with the given number; number 0 returns the
// first voice. Nil when absent.
func (m *Measure) Voice(number int) *Voice {
	if number == 0 {
		if len(m.Voices) == 0 {
			return nil
		}
		return m.Voices[0]
	}
	for _, v := range m.Voices {
		if v.Number == number {
			return v
		}
	}
	return nil
}

// EnsureVoice returns the voice with the given number, creating it if
// needed. Voices are kept ordered by number.
func (m *Measure) EnsureVoice(number int) *Voice {
	if number == 0 {
		number = 1
	}
	for _, v := range m.Voices {
		if v.Number == number {
			return v
		}
	}
	v := &Voice{Number: number}
	i := 0
	for ; i < len(m.Voices) && m.Voices[i].Number < number; i++ {
	}
	m.Voices = append(m.Voices, nil)
	copy(m.Voices[i+1:], m.Voices[i:])
	m.Voices[i] = v
	return v
}

// Voice is one rhythmic strand within a measure.
type Voice struct {
	Number int
	Events []*Note
}

// Length returns the summed duration of the voice's events, grace notes
// excluded.
func (v *Voice) Length() meter.Duration {
	total := meter.Zero
	for _, n := range v.Events {
		if !n.Grace {
			total = total.Add(n.Duration)
		}
	}
	return total
}
