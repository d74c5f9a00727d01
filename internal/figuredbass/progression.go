package figuredbass

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"scorekit/internal/meter"
	"scorekit/internal/pitch"
)

// Progression is a figured bass line read from a text file.
type Progression struct {
	Key     pitch.Key
	Time    meter.TimeSignature
	Entries []Entry
}

// ParseProgression reads a figured bass progression. The format is line
// based: optional "key:" and "time:" headers, then one entry per line
// as "<bass> <value>[.] [figures]". Blank lines and # comments are
// skipped.
//
//	key: d
//	time: 4/4
//	D3 quarter
//	G2 quarter 6
//	A2 half 7
//	D3 half
func ParseProgression(r io.Reader) (*Progression, error) {
	p := &Progression{Time: meter.CommonTime}
	keySet := false

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "key:"):
			k, err := pitch.ParseKey(strings.TrimSpace(line[4:]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.Key = k
			keySet = true
			continue
		case strings.HasPrefix(lower, "time:"):
			ts, err := meter.ParseTimeSignature(strings.TrimSpace(line[5:]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p.Time = ts
			continue
		}

		entry, err := parseEntryLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Entries = append(p.Entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if !keySet {
		p.Key, _ = pitch.ParseKey("C")
	}
	if len(p.Entries) == 0 {
		return nil, fmt.Errorf("progression has no entries")
	}
	return p, nil
}

func parseEntryLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, fmt.Errorf("want \"<bass> <value> [figures]\", got %q", line)
	}

	bass, err := pitch.Parse(fields[0])
	if err != nil {
		return Entry{}, err
	}

	value := fields[1]
	dots := 0
	for strings.HasSuffix(value, ".") {
		value = strings.TrimSuffix(value, ".")
		dots++
	}
	dur, err := meter.ParseValue(value)
	if err != nil {
		return Entry{}, err
	}
	dur = dur.Dotted(dots)

	var figures []Figure
	if len(fields) > 2 {
		figures, err = ParseFigures(strings.Join(fields[2:], ","))
		if err != nil {
			return Entry{}, err
		}
	}

	return Entry{Bass: bass, Figures: figures, Duration: dur}, nil
}
