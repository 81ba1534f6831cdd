package midifile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-melody/algorithms/notes"
	"github.com/RyanBlaney/sonido-melody/logging"
	"github.com/RyanBlaney/sonido-melody/melody"
)

// DefaultTicksPerQuarter is the default SMF time division
const DefaultTicksPerQuarter = 480

// EncoderOptions control the emitted track
type EncoderOptions struct {
	TicksPerQuarter uint16 `json:"ticks_per_quarter"`
	Program         uint8  `json:"program"`  // Program-select patch number
	Channel         uint8  `json:"channel"`  // 0-15
	Velocity        uint8  `json:"velocity"` // Note-on velocity
}

// DefaultEncoderOptions returns the standard encoding options
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{
		TicksPerQuarter: DefaultTicksPerQuarter,
		Program:         0, // acoustic grand
		Channel:         0,
		Velocity:        96,
	}
}

// Encode serializes a finalized melody as a single-track (format 0) standard
// MIDI file using the default options.
func Encode(m *melody.Melody) ([]byte, error) {
	return EncodeWithOptions(m, DefaultEncoderOptions())
}

// EncodeWithOptions serializes a finalized melody as a format 0 SMF byte
// stream. Pause events contribute no MIDI events and only advance the delta
// accumulator. Events with note names that cannot be parsed are skipped with
// a warning; their span still advances time. An empty melody produces a
// minimal valid file containing only the tempo, program and end-of-track.
func EncodeWithOptions(m *melody.Melody, opts EncoderOptions) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("nil melody")
	}
	if m.BPM <= 0 {
		return nil, fmt.Errorf("melody bpm must be positive, got %g", m.BPM)
	}
	if opts.TicksPerQuarter == 0 {
		opts.TicksPerQuarter = DefaultTicksPerQuarter
	}

	track := encodeTrack(m, opts)

	var out bytes.Buffer
	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, uint16(0)) // format 0
	binary.Write(&out, binary.BigEndian, uint16(1)) // single track
	binary.Write(&out, binary.BigEndian, opts.TicksPerQuarter)

	out.WriteString("MTrk")
	binary.Write(&out, binary.BigEndian, uint32(len(track)))
	out.Write(track)

	return out.Bytes(), nil
}

func encodeTrack(m *melody.Melody, opts EncoderOptions) []byte {
	var track bytes.Buffer
	channel := opts.Channel & 0x0F

	// Tempo meta event: microseconds per quarter note
	microsPerQuarter := uint32(60_000_000 / m.BPM)
	writeVarLen(&track, 0)
	track.Write([]byte{0xFF, 0x51, 0x03,
		byte(microsPerQuarter >> 16),
		byte(microsPerQuarter >> 8),
		byte(microsPerQuarter),
	})

	// Program select
	writeVarLen(&track, 0)
	track.Write([]byte{0xC0 | channel, opts.Program & 0x7F})

	// Seconds-to-ticks scale
	ticksPerSecond := (m.BPM / 60.0) * float64(opts.TicksPerQuarter)
	toTicks := func(seconds float64) uint32 {
		return uint32(math.Round(seconds * ticksPerSecond))
	}

	cursor := uint32(0)
	for _, ev := range m.Events {
		if ev.Kind == melody.KindPause {
			continue // the start-time cursor math covers the gap
		}

		key, err := notes.MIDIFromName(ev.Note)
		if err != nil || key < 0 || key > 127 {
			logging.Warn("skipping unencodable note", logging.Fields{
				"note":  ev.Note,
				"start": ev.Start,
			})
			continue
		}

		onTick := toTicks(ev.Start)
		offTick := toTicks(ev.End())
		if onTick < cursor {
			onTick = cursor
		}
		if offTick <= onTick {
			continue
		}

		writeVarLen(&track, onTick-cursor)
		track.Write([]byte{0x90 | channel, byte(key), opts.Velocity & 0x7F})
		writeVarLen(&track, offTick-onTick)
		track.Write([]byte{0x80 | channel, byte(key), 0x00})
		cursor = offTick
	}

	// End of track
	writeVarLen(&track, 0)
	track.Write([]byte{0xFF, 0x2F, 0x00})

	return track.Bytes()
}

// writeVarLen writes a MIDI variable-length quantity: 7 data bits per byte,
// most significant byte first, continuation bit set on all but the last.
func writeVarLen(buf *bytes.Buffer, value uint32) {
	var stack [5]byte
	n := 0
	stack[n] = byte(value & 0x7F)
	n++
	value >>= 7
	for value > 0 {
		stack[n] = byte(value&0x7F) | 0x80
		n++
		value >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		buf.WriteByte(stack[i])
	}
}
