package meter

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeSignature is a meter: Beats per measure of BeatUnit notes (4/4 has
// Beats=4, BeatUnit=4).
type TimeSignature struct {
	Beats    int
	BeatUnit int
}

// CommonTime is 4/4.
var CommonTime = TimeSignature{4, 4}

// ParseTimeSignature reads "3/4", "6/8", or the symbols "C" (4/4) and
// "C|" (2/2).
func ParseTimeSignature(s string) (TimeSignature, error) {
	switch s {
	case "C", "common":
		return TimeSignature{4, 4}, nil
	case "C|", "cut":
		return TimeSignature{2, 2}, nil
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return TimeSignature{}, fmt.Errorf("time signature %q: want beats/unit", s)
	}
	beats, err := strconv.Atoi(parts[0])
	if err != nil || beats <= 0 {
		return TimeSignature{}, fmt.Errorf("time signature %q: bad beat count", s)
	}
	unit, err := strconv.Atoi(parts[1])
	if err != nil || unit <= 0 {
		return TimeSignature{}, fmt.Errorf("time signature %q: bad beat unit", s)
	}
	return TimeSignature{Beats: beats, BeatUnit: unit}, nil
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.BeatUnit)
}

// IsZero reports an unset time signature.
func (ts TimeSignature) IsZero() bool { return ts.Beats == 0 }

// MeasureLength returns the full span of one measure.
func (ts TimeSignature) MeasureLength() Duration {
	return NewDuration(int64(ts.Beats), int64(ts.BeatUnit))
}

// BeatLength returns the span of one written beat.
func (ts TimeSignature) BeatLength() Duration {
	return NewDuration(1, int64(ts.BeatUnit))
}

// BeatOf returns the 1-based beat number an offset into the measure falls
// on, with a fractional part for off-beat positions (offset 3/8 in 4/4 is
// beat 2.5).
func (ts TimeSignature) BeatOf(offset Duration) float64 {
	return offset.Float()/ts.BeatLength().Float() + 1
}

// IsCompound reports compound meters (6/8, 9/8, 12/8): dotted-note beats
// grouped in threes.
func (ts TimeSignature) IsCompound() bool {
	return ts.Beats >= 6 && ts.Beats%3 == 0 && ts.BeatUnit >= 8
}
