package midifile

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
	os.Exit(m.Run())
}

func testMelody(events ...melody.NoteEvent) *melody.Melody {
	m := &melody.Melody{BPM: 120, Quantization: 16, Events: events}
	for _, ev := range events {
		if end := ev.End(); end > m.TotalDuration {
			m.TotalDuration = end
		}
	}
	return m
}

func noteEvent(name string, start, duration float64) melody.NoteEvent {
	return melody.NoteEvent{Kind: melody.KindNote, Note: name, Start: start, Duration: duration}
}

func pauseEvent(start, duration float64) melody.NoteEvent {
	return melody.NoteEvent{Kind: melody.KindPause, Start: start, Duration: duration}
}

func TestWriteVarLen(t *testing.T) {
	cases := []struct {
		value uint32
		bytes []byte
	}{
		{0x00, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x1E0, []byte{0x83, 0x60}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		writeVarLen(&buf, tc.value)
		assert.Equal(t, tc.bytes, buf.Bytes(), "value 0x%X", tc.value)
	}
}

func TestEncodeSingleNoteBytes(t *testing.T) {
	// A4 for half a second at 120 BPM: one quarter note, 480 ticks
	data, err := Encode(testMelody(noteEvent("A4", 0, 0.5)))
	assert.NoError(t, err)

	expected := []byte{
		'M', 'T', 'h', 'd',
		0x00, 0x00, 0x00, 0x06, // header length
		0x00, 0x00, // format 0
		0x00, 0x01, // one track
		0x01, 0xE0, // 480 ticks per quarter
		'M', 'T', 'r', 'k',
		0x00, 0x00, 0x00, 0x17, // track length
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo: 500000 us/quarter
		0x00, 0xC0, 0x00, // program change
		0x00, 0x90, 0x45, 0x60, // note on A4, velocity 96
		0x83, 0x60, 0x80, 0x45, 0x00, // note off after 480 ticks
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}
	assert.Equal(t, expected, data)
}

func TestEncodeEmptyMelody(t *testing.T) {
	data, err := Encode(testMelody())
	assert.NoError(t, err)

	summary, err := Summarize(data)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0), summary.Format)
	assert.Equal(t, 1, summary.NumTracks)
	assert.Equal(t, uint16(480), summary.TicksPerQuarter)
	assert.InDelta(t, 120.0, summary.BPM, 0.01)
	assert.Empty(t, summary.Notes)
}

func TestEncodePausesAdvanceTime(t *testing.T) {
	data, err := Encode(testMelody(
		pauseEvent(0, 0.25),
		noteEvent("A4", 0.25, 0.5),
	))
	assert.NoError(t, err)

	summary, err := Summarize(data)
	assert.NoError(t, err)
	assert.Len(t, summary.Notes, 1)
	span := summary.Notes[0]
	assert.Equal(t, uint8(69), span.Key)
	assert.Equal(t, uint8(96), span.Velocity)
	assert.Equal(t, uint32(240), span.StartTick)
	assert.Equal(t, uint32(720), span.EndTick)
}

func TestEncodeSkipsUnencodableNotes(t *testing.T) {
	data, err := Encode(testMelody(
		noteEvent("A4", 0, 0.5),
		noteEvent("H9", 0.5, 0.5),
		noteEvent("C5", 1.0, 0.5),
	))
	assert.NoError(t, err)

	summary, err := Summarize(data)
	assert.NoError(t, err)
	assert.Len(t, summary.Notes, 2)

	assert.Equal(t, uint8(69), summary.Notes[0].Key)
	assert.Equal(t, uint32(0), summary.Notes[0].StartTick)
	assert.Equal(t, uint32(480), summary.Notes[0].EndTick)

	// The skipped span still advances time before the next note
	assert.Equal(t, uint8(72), summary.Notes[1].Key)
	assert.Equal(t, uint32(960), summary.Notes[1].StartTick)
	assert.Equal(t, uint32(1440), summary.Notes[1].EndTick)
}

func TestEncodeRoundTrip(t *testing.T) {
	m := testMelody(
		noteEvent("E2", 0, 0.25),
		noteEvent("A4", 0.25, 0.5),
		pauseEvent(0.75, 0.25),
		noteEvent("C6", 1.0, 0.125),
	)
	m.BPM = 90

	data, err := Encode(m)
	assert.NoError(t, err)

	summary, err := Summarize(data)
	assert.NoError(t, err)
	assert.InDelta(t, 90.0, summary.BPM, 0.01)
	assert.Len(t, summary.Notes, 3)

	// 90 BPM on 480 ticks per quarter: 720 ticks per second
	assert.Equal(t, uint8(40), summary.Notes[0].Key)
	assert.Equal(t, uint32(0), summary.Notes[0].StartTick)
	assert.Equal(t, uint32(180), summary.Notes[0].EndTick)
	assert.Equal(t, uint8(69), summary.Notes[1].Key)
	assert.Equal(t, uint32(180), summary.Notes[1].StartTick)
	assert.Equal(t, uint32(540), summary.Notes[1].EndTick)
	assert.Equal(t, uint8(84), summary.Notes[2].Key)
	assert.Equal(t, uint32(720), summary.Notes[2].StartTick)
	assert.Equal(t, uint32(810), summary.Notes[2].EndTick)
}

func TestEncodeCustomOptions(t *testing.T) {
	opts := DefaultEncoderOptions()
	opts.TicksPerQuarter = 96
	opts.Program = 40
	opts.Velocity = 64

	data, err := EncodeWithOptions(testMelody(noteEvent("A4", 0, 0.5)), opts)
	assert.NoError(t, err)

	summary, err := Summarize(data)
	assert.NoError(t, err)
	assert.Equal(t, uint16(96), summary.TicksPerQuarter)
	assert.Len(t, summary.Notes, 1)
	assert.Equal(t, uint8(64), summary.Notes[0].Velocity)
	assert.Equal(t, uint32(96), summary.Notes[0].EndTick)
}

func TestEncodeRejectsBadInput(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)

	_, err = Encode(&melody.Melody{BPM: 0})
	assert.Error(t, err)
}
