package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSampleRate = 44100

// sineBlock synthesizes one block of summed sine components
func sineBlock(size int, components map[float64]float64) []float64 {
	block := make([]float64, size)
	for freq, amp := range components {
		for i := range block {
			block[i] += amp * math.Sin(2.0*math.Pi*freq*float64(i)/float64(testSampleRate))
		}
	}
	return block
}

func TestEstimateBlockSine(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))
	block := sineBlock(2048, map[float64]float64{440.0: 0.8})

	est := e.EstimateBlock(block)
	assert.True(t, est.Voiced)
	assert.InDelta(t, 440.0, est.Frequency, 440.0*0.01, "estimate should be within 1 percent")
	assert.Greater(t, est.RMS, 0.5)
}

func TestEstimateBlockLowFrequency(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))
	block := sineBlock(2048, map[float64]float64{110.0: 0.8})

	est := e.EstimateBlock(block)
	assert.True(t, est.Voiced)
	assert.InDelta(t, 110.0, est.Frequency, 110.0*0.01)
}

func TestEstimateBlockSilence(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))

	est := e.EstimateBlock(make([]float64, 2048))
	assert.False(t, est.Voiced)
	assert.Zero(t, est.Frequency)

	// low-level noise below the floor is silence too
	noise := sineBlock(2048, map[float64]float64{440.0: 0.005})
	est = e.EstimateBlock(noise)
	assert.False(t, est.Voiced)
}

func TestEstimateSpectralPrefersFundamentalOverTallestPeak(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))

	// The 2nd harmonic dominates the spectrum; harmonic scoring should still
	// pick 220 Hz as the fundamental instead of the 440 Hz formant peak.
	block := sineBlock(4096, map[float64]float64{
		220.0: 0.5,
		440.0: 1.0,
		660.0: 0.4,
	})

	est := e.EstimateSpectral(block)
	assert.True(t, est.Voiced)
	assert.InDelta(t, 220.0, est.Frequency, 220.0*0.02)
}

func TestEstimateSpectralSine(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))
	block := sineBlock(4096, map[float64]float64{440.0: 0.8})

	est := e.EstimateSpectral(block)
	assert.True(t, est.Voiced)
	assert.InDelta(t, 440.0, est.Frequency, 440.0*0.01)
}

func TestOctaveJumpKeepsPreviousOnHarmonicRatio(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))

	first := e.EstimateBlock(sineBlock(2048, map[float64]float64{880.0: 0.8}))
	assert.True(t, first.Voiced)
	assert.InDelta(t, 880.0, first.Frequency, 880.0*0.01)

	// 880 -> 110 is a 3-octave drop matching the 1/8 sub-harmonic: the
	// sustained-note assumption keeps the previous frequency.
	est := e.EstimateBlock(sineBlock(2048, map[float64]float64{110.0: 0.8}))
	assert.True(t, est.Voiced)
	assert.Equal(t, first.Frequency, est.Frequency)
}

func TestSilenceClearsJumpTracking(t *testing.T) {
	e := NewEstimator(DefaultParams(testSampleRate))

	e.EstimateBlock(sineBlock(2048, map[float64]float64{880.0: 0.8}))
	e.EstimateBlock(make([]float64, 2048))

	// After the gap there is no previous frequency to guard against
	est := e.EstimateBlock(sineBlock(2048, map[float64]float64{110.0: 0.8}))
	assert.True(t, est.Voiced)
	assert.InDelta(t, 110.0, est.Frequency, 110.0*0.01)
}

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 1.0, RMS([]float64{1, -1, 1, -1}), 1e-12)
	assert.InDelta(t, 0.8/math.Sqrt2, RMS(sineBlock(44100, map[float64]float64{100.0: 0.8})), 1e-3)
}
