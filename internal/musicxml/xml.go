// Package musicxml reads and writes MusicXML score-partwise documents and
// the compressed .mxl container. Decoding is tolerant: unknown elements
// are skipped, malformed notes are dropped with the rest of the measure
// kept. Encoding targets MusicXML 3.1.
package musicxml

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Document shapes. Measure content is order-sensitive (notes interleave
// with backup/forward cursors), so xmlMeasure carries a custom
// marshal/unmarshal pair over an ordered item list.

type xmlScorePartwise struct {
	XMLName        xml.Name           `xml:"score-partwise"`
	Version        string             `xml:"version,attr,omitempty"`
	Work           *xmlWork           `xml:"work"`
	MovementTitle  string             `xml:"movement-title,omitempty"`
	Identification *xmlIdentification `xml:"identification"`
	PartList       xmlPartList        `xml:"part-list"`
	Parts          []xmlPart          `xml:"part"`
}

type xmlWork struct {
	Number string `xml:"work-number,omitempty"`
	Title  string `xml:"work-title,omitempty"`
}

type xmlIdentification struct {
	Creators []xmlCreator `xml:"creator"`
	Rights   string       `xml:"rights,omitempty"`
	Encoding *xmlEncoding `xml:"encoding"`
}

type xmlCreator struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlEncoding struct {
	Software string `xml:"software,omitempty"`
}

type xmlPartList struct {
	ScoreParts []xmlScorePart `xml:"score-part"`
}

type xmlScorePart struct {
	ID           string `xml:"id,attr"`
	Name         string `xml:"part-name"`
	Abbreviation string `xml:"part-abbreviation,omitempty"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number   string
	Implicit bool
	Items    []interface{}
}

type xmlAttributes struct {
	XMLName   xml.Name `xml:"attributes"`
	Divisions int      `xml:"divisions,omitempty"`
	Key       *xmlKey  `xml:"key"`
	Time      *xmlTime `xml:"time"`
	Clef      *xmlClef `xml:"clef"`
}

type xmlKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode,omitempty"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign         string `xml:"sign"`
	Line         int    `xml:"line,omitempty"`
	OctaveChange int    `xml:"clef-octave-change,omitempty"`
}

type xmlNote struct {
	XMLName  xml.Name    `xml:"note"`
	Grace    *xmlEmpty   `xml:"grace"`
	Chord    *xmlEmpty   `xml:"chord"`
	Pitch    *xmlPitch   `xml:"pitch"`
	Rest     *xmlEmpty   `xml:"rest"`
	Duration int         `xml:"duration,omitempty"`
	Ties     []xmlTie    `xml:"tie"`
	Voice    int         `xml:"voice,omitempty"`
	Type     string      `xml:"type,omitempty"`
	Dots     []xmlEmpty  `xml:"dot"`
	TimeMod  *xmlTimeMod `xml:"time-modification"`
	Lyric    *xmlLyric   `xml:"lyric"`
}

type xmlEmpty struct{}

type xmlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter,omitempty"`
	Octave int     `xml:"octave"`
}

type xmlTie struct {
	Type string `xml:"type,attr"`
}

type xmlTimeMod struct {
	ActualNotes int `xml:"actual-notes"`
	NormalNotes int `xml:"normal-notes"`
}

type xmlLyric struct {
	Text string `xml:"text"`
}

type xmlBackup struct {
	XMLName  xml.Name `xml:"backup"`
	Duration int      `xml:"duration"`
}

type xmlForward struct {
	XMLName  xml.Name `xml:"forward"`
	Duration int      `xml:"duration"`
	Voice    int      `xml:"voice,omitempty"`
}

type xmlBarline struct {
	XMLName  xml.Name `xml:"barline"`
	Location string   `xml:"location,attr,omitempty"`
	BarStyle string   `xml:"bar-style,omitempty"`
}

type xmlPrint struct {
	XMLName      xml.Name         `xml:"print"`
	NewSystem    string           `xml:"new-system,attr,omitempty"`
	NewPage      string           `xml:"new-page,attr,omitempty"`
	StaffLayout  *xmlStaffLayout  `xml:"staff-layout"`
	SystemLayout *xmlSystemLayout `xml:"system-layout"`
}

type xmlStaffLayout struct {
	StaffDistance float64 `xml:"staff-distance,omitempty"`
}

type xmlSystemLayout struct {
	SystemDistance float64 `xml:"system-distance,omitempty"`
}

// UnmarshalXML decodes measure children in document order, skipping
// elements it does not know.
func (m *xmlMeasure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "number":
			m.Number = attr.Value
		case "implicit":
			m.Implicit = attr.Value == "yes"
		}
	}
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var item interface{}
			switch t.Name.Local {
			case "attributes":
				item = &xmlAttributes{}
			case "note":
				item = &xmlNote{}
			case "backup":
				item = &xmlBackup{}
			case "forward":
				item = &xmlForward{}
			case "barline":
				item = &xmlBarline{}
			case "print":
				item = &xmlPrint{}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := d.DecodeElement(item, &t); err != nil {
				return err
			}
			m.Items = append(m.Items, item)
		case xml.EndElement:
			return nil
		}
	}
}

// MarshalXML writes measure children in item order.
func (m xmlMeasure) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "measure"
	start.Attr = append(start.Attr[:0], xml.Attr{Name: xml.Name{Local: "number"}, Value: m.Number})
	if m.Implicit {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "implicit"}, Value: "yes"})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, item := range m.Items {
		if err := e.Encode(item); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func atoiDefault(s string, def int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return def
	}
	return n
}
