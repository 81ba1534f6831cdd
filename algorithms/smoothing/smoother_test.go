package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoothConstantStream(t *testing.T) {
	s := NewSmoother(DefaultParams())

	var out float64
	for range 10 {
		out = s.Smooth(440.0)
	}
	assert.InDelta(t, 440.0, out, 1e-9)
}

func TestSmoothSubstitutesOutliers(t *testing.T) {
	s := NewSmoother(DefaultParams())
	for range 5 {
		s.Smooth(440.0)
	}

	// A single octave-error sample is replaced by the buffer median
	out := s.Smooth(880.0)
	assert.InDelta(t, 440.0, out, 1.0)
}

func TestSmoothFollowsSustainedChange(t *testing.T) {
	s := NewSmoother(DefaultParams())
	for range 6 {
		s.Smooth(440.0)
	}

	// A real note change persists; the rolling median catches up and the
	// output converges even though early samples get substituted.
	var out float64
	for range 12 {
		out = s.Smooth(523.25)
	}
	assert.InDelta(t, 523.25, out, 15.0)
}

func TestSmoothIgnoresNonPositive(t *testing.T) {
	s := NewSmoother(DefaultParams())
	s.Smooth(440.0)

	out := s.Smooth(0)
	assert.InDelta(t, 440.0, out, 1e-9)
}

func TestResetClearsHistory(t *testing.T) {
	s := NewSmoother(DefaultParams())
	for range 6 {
		s.Smooth(440.0)
	}

	s.Reset()
	assert.Zero(t, s.LastValid())

	// After a silence gap a new phrase starts from scratch: a frequency far
	// from the old one passes through unsubstituted.
	out := s.Smooth(220.0)
	assert.InDelta(t, 220.0, out, 1e-9)
}
