package musicxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
	"scorekit/internal/score"
)

// Decode reads a score-partwise MusicXML document.
func Decode(r io.Reader) (*score.Score, error) {
	var doc xmlScorePartwise
	dec := xml.NewDecoder(r)
	// Scores in the wild carry all manner of charset declarations.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode musicxml: %w", err)
	}
	return fromDocument(&doc)
}

func fromDocument(doc *xmlScorePartwise) (*score.Score, error) {
	s := score.NewScore()
	if doc.Work != nil {
		s.Metadata.Title = doc.Work.Title
		s.Metadata.WorkNumber = doc.Work.Number
	}
	if s.Metadata.Title == "" {
		s.Metadata.Title = doc.MovementTitle
	}
	s.Metadata.Movement = doc.MovementTitle
	if id := doc.Identification; id != nil {
		for _, c := range id.Creators {
			switch c.Type {
			case "composer":
				s.Metadata.Composer = strings.TrimSpace(c.Value)
			case "lyricist", "poet":
				s.Metadata.Lyricist = strings.TrimSpace(c.Value)
			}
		}
		s.Metadata.Rights = id.Rights
		if id.Encoding != nil {
			s.Metadata.Software = id.Encoding.Software
		}
	}

	names := make(map[string]xmlScorePart, len(doc.PartList.ScoreParts))
	for _, sp := range doc.PartList.ScoreParts {
		names[sp.ID] = sp
	}

	for _, xp := range doc.Parts {
		name := xp.ID
		abbrev := ""
		if sp, ok := names[xp.ID]; ok {
			name = sp.Name
			abbrev = sp.Abbreviation
		}
		p := s.AddPart(name)
		p.Abbreviation = abbrev
		decodePart(p, &xp)
	}
	return s, nil
}

func decodePart(p *score.Part, xp *xmlPart) {
	divisions := 1 // missing divisions means quarter-note ticks
	for _, xm := range xp.Measures {
		m := p.AddMeasure()
		if n := atoiDefault(xm.Number, m.Number); n != 0 {
			m.Number = n
		}
		m.Implicit = xm.Implicit

		// Last non-chord note per voice, for chord pitch merging.
		lastInVoice := make(map[int]*score.Note)

		for _, item := range xm.Items {
			switch it := item.(type) {
			case *xmlAttributes:
				if it.Divisions > 0 {
					divisions = it.Divisions
				}
				if it.Key != nil {
					mode := pitch.Major
					if it.Key.Mode == "minor" {
						mode = pitch.Minor
					}
					k := pitch.KeyFromFifths(it.Key.Fifths, mode)
					m.Key = &k
				}
				if it.Time != nil && it.Time.Beats > 0 && it.Time.BeatType > 0 {
					ts := meter.TimeSignature{Beats: it.Time.Beats, BeatUnit: it.Time.BeatType}
					m.Time = &ts
				}
				if it.Clef != nil {
					c := score.Clef{Sign: it.Clef.Sign, Line: it.Clef.Line, OctaveChange: it.Clef.OctaveChange}
					m.Clef = &c
				}
			case *xmlNote:
				decodeNote(m, it, divisions, lastInVoice)
			case *xmlForward:
				// A forward with a voice is an invisible gap; keep the
				// voice's timeline honest with a rest.
				if it.Voice > 0 && it.Duration > 0 {
					v := m.EnsureVoice(it.Voice)
					v.Events = append(v.Events, score.NewRest(divDuration(it.Duration, divisions)))
				}
			case *xmlBackup:
				// Voice assignment is explicit on notes; the cursor jump
				// itself carries no content.
			case *xmlBarline:
				if it.Location == "" || it.Location == "right" {
					m.Barline = score.BarlineStyle(it.BarStyle)
				}
			case *xmlPrint:
				if it.NewSystem == "yes" {
					m.SystemBreak = true
				}
				if it.NewPage == "yes" {
					m.PageBreak = true
				}
				if it.StaffLayout != nil || it.SystemLayout != nil {
					l := &score.StaffLayout{}
					if it.StaffLayout != nil {
						l.StaffDistance = it.StaffLayout.StaffDistance
					}
					if it.SystemLayout != nil {
						l.SystemDistance = it.SystemLayout.SystemDistance
					}
					m.Layout = l
				}
			}
		}
	}
}

func decodeNote(m *score.Measure, xn *xmlNote, divisions int, lastInVoice map[int]*score.Note) {
	voice := xn.Voice
	if voice == 0 {
		voice = 1
	}

	var pp *pitch.Pitch
	if xn.Pitch != nil {
		if xn.Pitch.Step == "" {
			return
		}
		step, err := pitch.ParseStep(xn.Pitch.Step[0])
		if err != nil {
			return // malformed note, skip
		}
		p := pitch.New(step, int(math.Round(xn.Pitch.Alter)), xn.Pitch.Octave)
		pp = &p
	}

	// A chord flag merges this note's pitch into the previous note of the
	// same voice. A chord flag on the first note is invalid MusicXML but
	// tolerated as a plain note.
	if xn.Chord != nil && pp != nil {
		if prev := lastInVoice[voice]; prev != nil && !prev.IsRest() {
			prev.Pitches = append(prev.Pitches, *pp)
			return
		}
	}

	d := meter.Zero
	if xn.Duration > 0 {
		d = divDuration(xn.Duration, divisions)
	}

	var n *score.Note
	if pp == nil {
		n = score.NewRest(d)
	} else {
		n = score.NewNote(*pp, d)
	}
	n.Grace = xn.Grace != nil
	n.Dots = len(xn.Dots)
	for _, tie := range xn.Ties {
		switch tie.Type {
		case "start":
			n.TieStart = true
		case "stop":
			n.TieStop = true
		}
	}
	if xn.Lyric != nil {
		n.Lyric = xn.Lyric.Text
	}

	v := m.EnsureVoice(voice)
	v.Events = append(v.Events, n)
	lastInVoice[voice] = n
}

// divDuration converts a duration in division units to an exact fraction
// of a whole note. Divisions count per quarter note.
func divDuration(dur, divisions int) meter.Duration {
	if divisions <= 0 {
		divisions = 1
	}
	return meter.NewDuration(int64(dur), int64(divisions)*4)
}
