// Package corpus builds and queries a searchable metadata index over a
// directory tree of MusicXML scores. Extraction parses each file once;
// the SQLite index caches the results so rescans only touch changed
// files.
package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scorekit/internal/logging"
	"scorekit/internal/musicxml"
	"scorekit/internal/score"
)

// Metadata is one indexed score.
type Metadata struct {
	Path    string
	Format  string // musicxml or mxl
	Size    int64
	ModTime int64 // unix seconds
	Hash    string

	Title    string
	Composer string
	Parts    int
	Measures int
	Notes    int
	KeySig   string // opening key of the first part, e.g. "D major"
	TimeSig  string // opening time signature, e.g. "4/4"

	// Ambitus over all parts, as MIDI numbers. Zero when the score has
	// no pitched notes.
	AmbitusLow  int
	AmbitusHigh int

	// Total length of the first part in quarter notes.
	DurationQuarters float64
}

// formatOf classifies a score file by extension.
func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mxl") {
		return "mxl"
	}
	return "musicxml"
}

// hashFile returns the hex SHA-256 of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Extract parses one score file and derives its index metadata.
func Extract(path string) (*Metadata, error) {
	timer := logging.StartTimer(logging.CategoryParse, "Extract "+filepath.Base(path))
	defer timer.Stop()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	hash, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	s, err := musicxml.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	md := &Metadata{
		Path:     path,
		Format:   formatOf(path),
		Size:     info.Size(),
		ModTime:  info.ModTime().Unix(),
		Hash:     hash,
		Title:    s.Metadata.Title,
		Composer: s.Metadata.Composer,
		Parts:    len(s.Parts),
		Measures: s.MeasureCount(),
	}
	md.describe(s)

	logging.ParseDebug("Extracted %s: %q by %q, %d parts, %d measures, %d notes",
		path, md.Title, md.Composer, md.Parts, md.Measures, md.Notes)
	return md, nil
}

// describe fills the musical fields from the parsed score.
func (md *Metadata) describe(s *score.Score) {
	low, high := 0, 0
	for _, p := range s.Parts {
		for _, m := range p.Measures {
			for _, v := range m.Voices {
				for _, n := range v.Events {
					if n.IsRest() {
						continue
					}
					md.Notes++
					for _, pc := range n.Pitches {
						midi := pc.MIDI()
						if low == 0 || midi < low {
							low = midi
						}
						if midi > high {
							high = midi
						}
					}
				}
			}
		}
	}
	md.AmbitusLow, md.AmbitusHigh = low, high

	if len(s.Parts) == 0 {
		return
	}
	first := s.Parts[0]
	md.KeySig = first.ActiveKey(0).String()
	md.TimeSig = first.ActiveTime(0).String()
	for i := range first.Measures {
		md.DurationQuarters += first.ActiveTime(i).MeasureLength().Quarters()
	}
}
