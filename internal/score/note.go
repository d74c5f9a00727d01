package score

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
)

// Note is a note, rest, or chord: zero pitches is a rest, two or more a
// chord sharing one duration.
type Note struct {
	ID       string
	Pitches  []pitch.Pitch
	Duration meter.Duration
	Dots     int
	Grace    bool

	TieStart bool
	TieStop  bool

	Articulations []string
	Lyric         string
}

// NewNote builds a single-pitch note.
func NewNote(p pitch.Pitch, d meter.Duration) *Note {
	return &Note{ID: uuid.NewString(), Pitches: []pitch.Pitch{p}, Duration: d}
}

// NewRest builds a rest.
func NewRest(d meter.Duration) *Note {
	return &Note{ID: uuid.NewString(), Duration: d}
}

// NewChord builds a chord; pitches are sorted low to high.
func NewChord(d meter.Duration, ps ...pitch.Pitch) *Note {
	n := &Note{ID: uuid.NewString(), Pitches: append([]pitch.Pitch(nil), ps...), Duration: d}
	sort.Slice(n.Pitches, func(i, j int) bool { return n.Pitches[i].MIDI() < n.Pitches[j].MIDI() })
	return n
}

// IsRest reports whether the note is a rest.
func (n *Note) IsRest() bool { return len(n.Pitches) == 0 }

// IsChord reports whether the note carries more than one pitch.
func (n *Note) IsChord() bool { return len(n.Pitches) > 1 }

// Pitch returns the written (lowest for chords) pitch; zero value for
// rests.
func (n *Note) Pitch() pitch.Pitch {
	if n.IsRest() {
		return pitch.Pitch{}
	}
	low := n.Pitches[0]
	for _, p := range n.Pitches[1:] {
		if p.MIDI() < low.MIDI() {
			low = p
		}
	}
	return low
}

// Top returns the highest pitch; zero value for rests.
func (n *Note) Top() pitch.Pitch {
	if n.IsRest() {
		return pitch.Pitch{}
	}
	hi := n.Pitches[0]
	for _, p := range n.Pitches[1:] {
		if p.MIDI() > hi.MIDI() {
			hi = p
		}
	}
	return hi
}

func (n *Note) String() string {
	if n.IsRest() {
		return "rest(" + n.Duration.String() + ")"
	}
	names := make([]string, len(n.Pitches))
	for i, p := range n.Pitches {
		names[i] = p.String()
	}
	return strings.Join(names, "+") + "(" + n.Duration.String() + ")"
}
