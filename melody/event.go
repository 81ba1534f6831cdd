package melody

// EventKind distinguishes sounded notes from rests
type EventKind int

const (
	KindNote EventKind = iota
	KindPause
)

// PauseName is the note field used for pause entries in the exported document
const PauseName = "Pause"

func (k EventKind) String() string {
	if k == KindPause {
		return PauseName
	}
	return "Note"
}

// NoteEvent is one segment of the melody timeline. Events are immutable once
// emitted by the segmenter; the quantizer produces adjusted copies.
type NoteEvent struct {
	Kind      EventKind `json:"kind"`
	Note      string    `json:"note,omitempty"`      // e.g. "A4", empty for pauses
	MIDI      int       `json:"midi,omitempty"`      // 0 for pauses
	Frequency float64   `json:"frequency,omitempty"` // Hz, 0 for pauses
	Start     float64   `json:"start"`               // Seconds from recording start
	Duration  float64   `json:"duration"`            // Seconds
}

// End returns the event's end time in seconds
func (e NoteEvent) End() float64 {
	return e.Start + e.Duration
}

// Melody is the finalized, ordered result of a recording session
type Melody struct {
	ID            string      `json:"id,omitempty"`
	BPM           float64     `json:"bpm"`
	Quantization  int         `json:"quantization"`
	Events        []NoteEvent `json:"events"`
	TotalDuration float64     `json:"totalDuration"`
}

// DocumentEntry is the wire form of one melody event
type DocumentEntry struct {
	Note           string  `json:"note"`
	Duration       float64 `json:"duration"`
	StartTimestamp float64 `json:"startTimestamp"`
	Frequency      float64 `json:"frequency,omitempty"`
}

// Document is the exported melody layout: one entry per event with pause
// entries named "Pause" and note entries named "<PitchClass><Octave>".
type Document struct {
	ID            string          `json:"id,omitempty"`
	BPM           float64         `json:"bpm"`
	Quantization  int             `json:"quantization"`
	TotalDuration float64         `json:"totalDuration"`
	Events        []DocumentEntry `json:"events"`
}

// Document renders the melody in its exported layout
func (m *Melody) Document() Document {
	entries := make([]DocumentEntry, 0, len(m.Events))
	for _, ev := range m.Events {
		entry := DocumentEntry{
			Note:           ev.Note,
			Duration:       ev.Duration,
			StartTimestamp: ev.Start,
		}
		if ev.Kind == KindPause {
			entry.Note = PauseName
		} else {
			entry.Frequency = ev.Frequency
		}
		entries = append(entries, entry)
	}

	return Document{
		ID:            m.ID,
		BPM:           m.BPM,
		Quantization:  m.Quantization,
		TotalDuration: m.TotalDuration,
		Events:        entries,
	}
}
