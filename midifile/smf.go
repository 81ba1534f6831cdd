package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Parse reads SMF bytes back into a structured form. It exists so consumers
// and tests can verify what the encoder produced without hand-parsing bytes.
func Parse(data []byte) (s *smf.SMF, e error) {
	// the smf reader panics on some malformed inputs
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing midi bytes: %w", err)
	}
	return res, nil
}

// ParseFile reads an SMF file from disk
func ParseFile(path string) (*smf.SMF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	return Parse(data)
}

// NoteSpan is one note-on/note-off pair in absolute ticks
type NoteSpan struct {
	Key       uint8
	Velocity  uint8
	StartTick uint32
	EndTick   uint32
}

// Summary describes the musical content of an SMF byte stream
type Summary struct {
	Format          uint16
	NumTracks       int
	TicksPerQuarter uint16
	BPM             float64
	Notes           []NoteSpan
}

// Summarize parses SMF bytes and extracts tempo, resolution and note spans
func Summarize(data []byte) (*Summary, error) {
	parsed, err := Parse(data)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Format:    parsed.Format(),
		NumTracks: len(parsed.Tracks),
	}
	if metric, ok := parsed.TimeFormat.(smf.MetricTicks); ok {
		summary.TicksPerQuarter = metric.Resolution()
	}

	open := make(map[uint8]*NoteSpan)
	for _, track := range parsed.Tracks {
		tick := uint32(0)
		for _, ev := range track {
			tick += ev.Delta

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				summary.BPM = bpm
				continue
			}

			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel):
				if vel > 0 {
					open[key] = &NoteSpan{Key: key, Velocity: vel, StartTick: tick}
					continue
				}
				closeSpan(summary, open, key, tick)
			case ev.Message.GetNoteOff(&ch, &key, &vel):
				closeSpan(summary, open, key, tick)
			}
		}
	}

	return summary, nil
}

// closeSpan finishes the open note-on for key, if any. A note-on with zero
// velocity counts as a note-off.
func closeSpan(summary *Summary, open map[uint8]*NoteSpan, key uint8, tick uint32) {
	if span, ok := open[key]; ok {
		span.EndTick = tick
		summary.Notes = append(summary.Notes, *span)
		delete(open, key)
	}
}
