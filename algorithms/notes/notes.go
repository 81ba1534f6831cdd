package notes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ReferencePitch is the tuning reference for A4 in Hz
const ReferencePitch = 440.0

// pitchClasses maps midi % 12 to a note name
var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Observation is a single per-tick pitch classification
type Observation struct {
	Name      string  `json:"name"`      // e.g. "A4"
	MIDI      int     `json:"midi"`      // MIDI note number (A4 = 69)
	Frequency float64 `json:"frequency"` // Observed frequency in Hz
	Cents     float64 `json:"cents"`     // Deviation from the ideal frequency
}

// IdealFrequency returns the equal-temperament frequency for a MIDI number
func IdealFrequency(midi int) float64 {
	return ReferencePitch * math.Pow(2.0, float64(midi-69)/12.0)
}

// Name returns the note name for a MIDI number, e.g. 69 -> "A4"
func Name(midi int) string {
	pc := pitchClasses[((midi%12)+12)%12]
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", pc, octave)
}

// MIDIFromName parses a "<PitchClass><Octave>" note name, e.g. "A4", "C#3".
func MIDIFromName(name string) (int, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("note name too short: %q", name)
	}

	pc := name[:1]
	rest := name[1:]
	if strings.HasPrefix(rest, "#") {
		pc = name[:2]
		rest = name[2:]
	}

	pcIndex := -1
	for i, candidate := range pitchClasses {
		if candidate == pc {
			pcIndex = i
			break
		}
	}
	if pcIndex < 0 {
		return 0, fmt.Errorf("unknown pitch class in %q", name)
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q: %w", name, err)
	}

	return (octave+1)*12 + pcIndex, nil
}

// CentsBetween returns the signed cents distance from frequency a to b
func CentsBetween(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 1200.0 * math.Log2(b/a)
}

// Mapper maps smoothed frequencies to note observations within a pitch range
type Mapper struct {
	minMIDI  int
	maxMIDI  int
	maxCents float64
}

// DefaultMinMIDI and DefaultMaxMIDI bound the default pitch range (E2-C6)
const (
	DefaultMinMIDI = 40
	DefaultMaxMIDI = 84
)

// NewMapper creates a note mapper for the given MIDI range
func NewMapper(minMIDI, maxMIDI int) *Mapper {
	return &Mapper{
		minMIDI:  minMIDI,
		maxMIDI:  maxMIDI,
		maxCents: 50.0,
	}
}

// NewDefaultMapper creates a mapper with the default E2-C6 range
func NewDefaultMapper() *Mapper {
	return NewMapper(DefaultMinMIDI, DefaultMaxMIDI)
}

// Map converts a frequency to a note observation. The second return value is
// false when the frequency is non-positive, outside the configured range, or
// deviates beyond tolerance from any note.
func (m *Mapper) Map(freq float64) (Observation, bool) {
	if freq <= 0 {
		return Observation{}, false
	}

	midi := int(math.Round(12.0*math.Log2(freq/ReferencePitch) + 69.0))
	cents := CentsBetween(IdealFrequency(midi), freq)

	// Rounding near a note boundary can land on the wrong neighbor; pick the
	// adjacent note with the smaller absolute deviation.
	if math.Abs(cents) > m.maxCents {
		for _, adjacent := range []int{midi - 1, midi + 1} {
			adjCents := CentsBetween(IdealFrequency(adjacent), freq)
			if math.Abs(adjCents) < math.Abs(cents) {
				midi = adjacent
				cents = adjCents
			}
		}
	}

	if midi < m.minMIDI || midi > m.maxMIDI {
		return Observation{}, false
	}
	if math.Abs(cents) > m.maxCents {
		return Observation{}, false
	}

	return Observation{
		Name:      Name(midi),
		MIDI:      midi,
		Frequency: freq,
		Cents:     cents,
	}, true
}
