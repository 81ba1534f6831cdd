package pitch

import (
	"math"

	"github.com/RyanBlaney/sonido-melody/algorithms/spectral"
)

// Method selects the estimation algorithm for a block
type Method string

const (
	// MethodAutocorrelation uses time-domain normalized autocorrelation
	MethodAutocorrelation Method = "autocorrelation"
	// MethodSpectral uses harmonic-aware spectral peak analysis
	MethodSpectral Method = "spectral"
)

// Params contains parameters for pitch estimation
type Params struct {
	SampleRate int     `json:"sample_rate"`
	MinFreq    float64 `json:"min_freq"` // Minimum detectable frequency (Hz)
	MaxFreq    float64 `json:"max_freq"` // Maximum detectable frequency (Hz)

	// Gating thresholds
	NoiseFloorRMS float64 `json:"noise_floor_rms"` // Blocks below this RMS are silence
	TrimThreshold float64 `json:"trim_threshold"`  // Amplitude below which edge samples are trimmed

	// Octave-jump guard
	MaxJumpOctaves   float64 `json:"max_jump_octaves"`   // Reject jumps larger than this
	HarmonicRatioTol float64 `json:"harmonic_ratio_tol"` // Relative tolerance for harmonic ratios

	// Spectral path tuning
	MinPeakRatio    float64 `json:"min_peak_ratio"` // Peaks below this fraction of the max are ignored
	MaxPeaks        int     `json:"max_peaks"`
	MinPeakDistance float64 `json:"min_peak_distance"` // Hz
}

// DefaultParams returns estimation parameters suited to voice and most
// melodic instruments.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:       sampleRate,
		MinFreq:          70.0,
		MaxFreq:          1200.0,
		NoiseFloorRMS:    0.01,
		TrimThreshold:    0.015,
		MaxJumpOctaves:   2.0,
		HarmonicRatioTol: 0.05,
		MinPeakRatio:     0.1,
		MaxPeaks:         8,
		MinPeakDistance:  30.0,
	}
}

// Estimate is the per-block result. Voiced is false when the block carries no
// usable pitch (silence, out of range, rejected jump).
type Estimate struct {
	Frequency float64 `json:"frequency"`
	RMS       float64 `json:"rms"`
	Voiced    bool    `json:"voiced"`
}

// Estimator extracts a candidate fundamental frequency per audio block.
// It keeps the previous accepted frequency across blocks for the octave-jump
// guard; Reset clears that history.
type Estimator struct {
	params   Params
	fft      *spectral.FFT
	window   []float64
	prevFreq float64
}

// NewEstimator creates a pitch estimator
func NewEstimator(params Params) *Estimator {
	return &Estimator{
		params: params,
		fft:    spectral.NewFFT(),
	}
}

// Params returns the current parameters
func (e *Estimator) Params() Params {
	return e.params
}

// Reset clears the frame-to-frame tracking state
func (e *Estimator) Reset() {
	e.prevFreq = 0.0
}

// Estimate dispatches to the configured estimation method
func (e *Estimator) Estimate(block []float64, method Method) Estimate {
	if method == MethodSpectral {
		return e.EstimateSpectral(block)
	}
	return e.EstimateBlock(block)
}

// EstimateBlock estimates the fundamental of one block using normalized
// time-domain autocorrelation with parabolic peak refinement.
func (e *Estimator) EstimateBlock(block []float64) Estimate {
	rms := RMS(block)
	if rms < e.params.NoiseFloorRMS {
		e.prevFreq = 0.0
		return Estimate{RMS: rms}
	}

	trimmed := trimEdges(block, e.params.TrimThreshold)

	minLag := int(float64(e.params.SampleRate) / e.params.MaxFreq)
	maxLag := int(float64(e.params.SampleRate) / e.params.MinFreq)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(trimmed) {
		maxLag = len(trimmed) - 1
	}
	if maxLag <= minLag {
		return Estimate{RMS: rms}
	}

	corr := autocorrelate(trimmed, maxLag)

	// Skip the descending shoulder of the zero-lag peak so the search cannot
	// land on lag 0's slope.
	start := minLag
	for start < maxLag && corr[start] > corr[start+1] {
		start++
	}

	bestLag := 0
	bestValue := 0.0
	for lag := start; lag <= maxLag; lag++ {
		if corr[lag] > bestValue {
			bestValue = corr[lag]
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return Estimate{RMS: rms}
	}

	refinedLag := parabolicPeak(corr, bestLag)
	frequency := float64(e.params.SampleRate) / refinedLag

	return e.accept(frequency, rms)
}

// accept validates a candidate against the frequency range and the
// octave-jump guard, updating the tracking state.
func (e *Estimator) accept(frequency, rms float64) Estimate {
	if frequency < e.params.MinFreq || frequency > e.params.MaxFreq {
		return Estimate{RMS: rms}
	}

	if e.prevFreq > 0 {
		jump := math.Abs(math.Log2(frequency / e.prevFreq))
		if jump > e.params.MaxJumpOctaves {
			if e.isHarmonicRatio(frequency, e.prevFreq) {
				// Sustained-note assumption: the jump landed on a harmonic or
				// sub-harmonic of what we were already tracking.
				return Estimate{Frequency: e.prevFreq, RMS: rms, Voiced: true}
			}
			return Estimate{RMS: rms}
		}
	}

	e.prevFreq = frequency
	return Estimate{Frequency: frequency, RMS: rms, Voiced: true}
}

// isHarmonicRatio reports whether a/b or b/a is close to a small integer
func (e *Estimator) isHarmonicRatio(a, b float64) bool {
	ratio := a / b
	if ratio < 1 {
		ratio = 1 / ratio
	}
	for n := 2; n <= 8; n++ {
		if math.Abs(ratio-float64(n))/float64(n) < e.params.HarmonicRatioTol {
			return true
		}
	}
	return false
}

// RMS calculates root mean square energy of a block
func RMS(block []float64) float64 {
	if len(block) == 0 {
		return 0.0
	}
	sumSquares := 0.0
	for _, sample := range block {
		sumSquares += sample * sample
	}
	return math.Sqrt(sumSquares / float64(len(block)))
}

// trimEdges strips leading and trailing near-zero samples to reduce edge
// artifacts in the autocorrelation.
func trimEdges(block []float64, threshold float64) []float64 {
	start := 0
	for start < len(block) && math.Abs(block[start]) < threshold {
		start++
	}
	end := len(block)
	for end > start && math.Abs(block[end-1]) < threshold {
		end--
	}
	if end-start < 2 {
		return block
	}
	return block[start:end]
}

// autocorrelate computes the autocorrelation normalized by lag-0 energy
func autocorrelate(signal []float64, maxLag int) []float64 {
	corr := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		sum := 0.0
		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
		}
		corr[lag] = sum
	}
	if corr[0] > 0 {
		for i := range corr {
			corr[i] /= corr[0]
		}
		corr[0] = 1.0
	}
	return corr
}

// parabolicPeak refines a peak location to sub-sample precision using the
// three bins around it.
func parabolicPeak(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) < 1e-12 {
		return float64(peakIdx)
	}

	offset := (y3 - y1) / denom
	return float64(peakIdx) + offset
}
