package musicxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"scorekit/internal/meter"
	"scorekit/internal/score"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	doctype   = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` + "\n"
)

// Encode writes the score as a MusicXML 3.1 score-partwise document.
func Encode(w io.Writer, s *score.Score) error {
	doc := toDocument(s)
	if _, err := io.WriteString(w, xmlHeader+doctype); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode musicxml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toDocument(s *score.Score) *xmlScorePartwise {
	doc := &xmlScorePartwise{Version: "3.1"}
	md := s.Metadata
	if md.Title != "" || md.WorkNumber != "" {
		doc.Work = &xmlWork{Title: md.Title, Number: md.WorkNumber}
	}
	doc.MovementTitle = md.Movement
	id := &xmlIdentification{Rights: md.Rights}
	if md.Composer != "" {
		id.Creators = append(id.Creators, xmlCreator{Type: "composer", Value: md.Composer})
	}
	if md.Lyricist != "" {
		id.Creators = append(id.Creators, xmlCreator{Type: "lyricist", Value: md.Lyricist})
	}
	if md.Software != "" {
		id.Encoding = &xmlEncoding{Software: md.Software}
	}
	if len(id.Creators) > 0 || id.Rights != "" || id.Encoding != nil {
		doc.Identification = id
	}

	for i, p := range s.Parts {
		partID := fmt.Sprintf("P%d", i+1)
		doc.PartList.ScoreParts = append(doc.PartList.ScoreParts, xmlScorePart{
			ID:           partID,
			Name:         p.Name,
			Abbreviation: p.Abbreviation,
		})
		doc.Parts = append(doc.Parts, encodePart(partID, p))
	}
	return doc
}

func encodePart(id string, p *score.Part) xmlPart {
	divisions := partDivisions(p)
	xp := xmlPart{ID: id}
	for i, m := range p.Measures {
		xm := xmlMeasure{Number: fmt.Sprintf("%d", m.Number), Implicit: m.Implicit}

		if m.SystemBreak || m.PageBreak || m.Layout != nil {
			pr := &xmlPrint{}
			if m.SystemBreak {
				pr.NewSystem = "yes"
			}
			if m.PageBreak {
				pr.NewPage = "yes"
			}
			if m.Layout != nil {
				if m.Layout.StaffDistance != 0 {
					pr.StaffLayout = &xmlStaffLayout{StaffDistance: m.Layout.StaffDistance}
				}
				if m.Layout.SystemDistance != 0 {
					pr.SystemLayout = &xmlSystemLayout{SystemDistance: m.Layout.SystemDistance}
				}
			}
			xm.Items = append(xm.Items, pr)
		}

		attrs := &xmlAttributes{}
		hasAttrs := false
		if i == 0 {
			attrs.Divisions = divisions
			hasAttrs = true
		}
		if m.Key != nil {
			attrs.Key = &xmlKey{Fifths: m.Key.Fifths(), Mode: string(m.Key.Mode)}
			hasAttrs = true
		}
		if m.Time != nil {
			attrs.Time = &xmlTime{Beats: m.Time.Beats, BeatType: m.Time.BeatUnit}
			hasAttrs = true
		}
		if m.Clef != nil {
			attrs.Clef = &xmlClef{Sign: m.Clef.Sign, Line: m.Clef.Line, OctaveChange: m.Clef.OctaveChange}
			hasAttrs = true
		}
		if hasAttrs {
			xm.Items = append(xm.Items, attrs)
		}

		for vi, v := range m.Voices {
			if vi > 0 {
				// Rewind to the measure start before the next voice.
				prev := m.Voices[vi-1]
				xm.Items = append(xm.Items, &xmlBackup{Duration: divTicks(prev.Length(), divisions)})
			}
			for _, n := range v.Events {
				xm.Items = append(xm.Items, encodeNote(n, v.Number, divisions)...)
			}
		}

		if m.Barline != score.BarRegular {
			xm.Items = append(xm.Items, &xmlBarline{Location: "right", BarStyle: string(m.Barline)})
		}
		xp.Measures = append(xp.Measures, xm)
	}
	return xp
}

// encodeNote returns one xmlNote per pitch; chord members after the first
// carry the chord flag.
func encodeNote(n *score.Note, voice, divisions int) []interface{} {
	typ, dots, typed := n.Duration.Value()
	ticks := divTicks(n.Duration, divisions)

	base := func() *xmlNote {
		xn := &xmlNote{Voice: voice}
		if !n.Grace {
			xn.Duration = ticks
		} else {
			xn.Grace = &xmlEmpty{}
		}
		if typed {
			xn.Type = typ
			for i := 0; i < dots; i++ {
				xn.Dots = append(xn.Dots, xmlEmpty{})
			}
		} else if name, actual, normal, ok := n.Duration.TupletValue(); ok {
			xn.Type = name
			xn.TimeMod = &xmlTimeMod{ActualNotes: int(actual), NormalNotes: int(normal)}
		}
		if n.TieStart {
			xn.Ties = append(xn.Ties, xmlTie{Type: "start"})
		}
		if n.TieStop {
			xn.Ties = append(xn.Ties, xmlTie{Type: "stop"})
		}
		return xn
	}

	if n.IsRest() {
		xn := base()
		xn.Rest = &xmlEmpty{}
		if n.Lyric != "" {
			xn.Lyric = &xmlLyric{Text: n.Lyric}
		}
		return []interface{}{xn}
	}

	out := make([]interface{}, 0, len(n.Pitches))
	for i, p := range n.Pitches {
		xn := base()
		if i > 0 {
			xn.Chord = &xmlEmpty{}
		} else if n.Lyric != "" {
			xn.Lyric = &xmlLyric{Text: n.Lyric}
		}
		xp := &xmlPitch{Step: p.Step.String(), Octave: p.Octave}
		if p.Alter != 0 {
			xp.Alter = float64(p.Alter)
		}
		xn.Pitch = xp
		out = append(out, xn)
	}
	return out
}

// partDivisions picks the smallest division count per quarter that makes
// every duration in the part an integer tick count.
func partDivisions(p *score.Part) int {
	div := int64(1)
	for _, m := range p.Measures {
		for _, v := range m.Voices {
			for _, n := range v.Events {
				if n.Duration.IsZero() {
					continue
				}
				// Need den | 4*div, i.e. div a multiple of den/gcd(den,4).
				need := n.Duration.Den / gcd64(n.Duration.Den, 4)
				div = div / gcd64(div, need) * need
			}
		}
	}
	return int(div)
}

func divTicks(d meter.Duration, divisions int) int {
	return int(d.Num * 4 * int64(divisions) / d.Den)
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
