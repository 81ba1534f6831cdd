package notes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapIsIdempotentOnIdealFrequencies(t *testing.T) {
	mapper := NewDefaultMapper()

	for midi := DefaultMinMIDI; midi <= DefaultMaxMIDI; midi++ {
		obs, ok := mapper.Map(IdealFrequency(midi))
		assert.True(t, ok, "midi %d should map", midi)
		assert.Equal(t, midi, obs.MIDI)
		assert.InDelta(t, 0.0, obs.Cents, 1e-9, "midi %d should have zero deviation", midi)
	}
}

func TestMapRejectsOutOfRange(t *testing.T) {
	mapper := NewDefaultMapper()

	_, ok := mapper.Map(IdealFrequency(DefaultMinMIDI - 1))
	assert.False(t, ok, "below range")

	_, ok = mapper.Map(IdealFrequency(DefaultMaxMIDI + 1))
	assert.False(t, ok, "above range")

	_, ok = mapper.Map(0)
	assert.False(t, ok, "non-positive frequency")
}

func TestMapCorrectsBoundaryRounding(t *testing.T) {
	mapper := NewDefaultMapper()

	// 55 cents above A4 is closer to A#4 than to A4
	freq := IdealFrequency(69) * math.Pow(2, 55.0/1200.0)
	obs, ok := mapper.Map(freq)
	assert.True(t, ok)
	assert.Equal(t, 70, obs.MIDI)
	assert.Equal(t, "A#4", obs.Name)
	assert.InDelta(t, -45.0, obs.Cents, 0.5)
}

func TestNameAndMIDIFromNameRoundTrip(t *testing.T) {
	cases := map[int]string{
		40: "E2",
		60: "C4",
		61: "C#4",
		69: "A4",
		84: "C6",
	}

	for midi, name := range cases {
		assert.Equal(t, name, Name(midi))
		parsed, err := MIDIFromName(name)
		assert.NoError(t, err)
		assert.Equal(t, midi, parsed)
	}
}

func TestMIDIFromNameRejectsMalformed(t *testing.T) {
	for _, name := range []string{"", "A", "H4", "Pause", "A#", "C#x"} {
		_, err := MIDIFromName(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestCentsBetween(t *testing.T) {
	assert.InDelta(t, 1200.0, CentsBetween(220, 440), 1e-9)
	assert.InDelta(t, -100.0, CentsBetween(IdealFrequency(69), IdealFrequency(68)), 1e-9)
}
