package smoothing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Params contains parameters for frequency smoothing
type Params struct {
	BufferSize       int     `json:"buffer_size"`       // Rolling buffer length
	OutlierThreshold float64 `json:"outlier_threshold"` // Relative deviation from median
	MinAlpha         float64 `json:"min_alpha"`         // Smoothing weight while moving
	MaxAlpha         float64 `json:"max_alpha"`         // Smoothing weight while stable
	StableSpread     float64 `json:"stable_spread"`     // Relative spread considered stable
}

// DefaultParams returns smoothing parameters tuned for sung or played melodies
func DefaultParams() Params {
	return Params{
		BufferSize:       6,
		OutlierThreshold: 0.15,
		MinAlpha:         0.2,
		MaxAlpha:         0.7,
		StableSpread:     0.01,
	}
}

// Smoother removes outliers and jitter from a stream of raw frequencies.
// A rolling buffer provides the median used for outlier substitution; the
// exponential smoothing weight adapts to how stable the recent samples are.
// State never survives a silence gap: Reset must be called whenever the
// estimator reports no pitch, so smoothing cannot bridge unrelated phrases.
type Smoother struct {
	params    Params
	buffer    []float64
	lastValid float64
}

// NewSmoother creates a frequency smoother
func NewSmoother(params Params) *Smoother {
	if params.BufferSize < 1 {
		params.BufferSize = 1
	}
	return &Smoother{
		params: params,
		buffer: make([]float64, 0, params.BufferSize),
	}
}

// Smooth accepts one raw frequency and returns the smoothed value
func (s *Smoother) Smooth(frequency float64) float64 {
	if frequency <= 0 {
		return s.lastValid
	}

	// The raw sample always enters the buffer so the median can follow a real
	// sustained change; only the output is substituted.
	s.push(frequency)

	sample := frequency
	if med := s.median(); med > 0 {
		deviation := math.Abs(sample-med) / med
		if deviation > s.params.OutlierThreshold {
			sample = med
		}
	}

	if s.lastValid <= 0 {
		s.lastValid = sample
		return sample
	}

	alpha := s.adaptiveAlpha()
	smoothed := alpha*s.lastValid + (1.0-alpha)*sample
	s.lastValid = smoothed
	return smoothed
}

// Reset clears the buffer and the last valid frequency
func (s *Smoother) Reset() {
	s.buffer = s.buffer[:0]
	s.lastValid = 0.0
}

// LastValid returns the most recent smoothed frequency, 0 if none
func (s *Smoother) LastValid() float64 {
	return s.lastValid
}

func (s *Smoother) push(sample float64) {
	if len(s.buffer) == s.params.BufferSize {
		copy(s.buffer, s.buffer[1:])
		s.buffer = s.buffer[:len(s.buffer)-1]
	}
	s.buffer = append(s.buffer, sample)
}

func (s *Smoother) median() float64 {
	if len(s.buffer) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(s.buffer))
	copy(sorted, s.buffer)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// adaptiveAlpha raises the smoothing weight when recent samples sit close
// together (suppressing jitter) and lowers it when the pitch is moving
// (reducing lag behind real note changes).
func (s *Smoother) adaptiveAlpha() float64 {
	if len(s.buffer) < 3 {
		return s.params.MinAlpha
	}

	mean := stat.Mean(s.buffer, nil)
	if mean <= 0 {
		return s.params.MinAlpha
	}
	spread := stat.StdDev(s.buffer, nil) / mean

	if spread <= s.params.StableSpread {
		return s.params.MaxAlpha
	}
	// Fade from MaxAlpha to MinAlpha as the spread grows past stable
	ratio := s.params.StableSpread / spread
	return s.params.MinAlpha + (s.params.MaxAlpha-s.params.MinAlpha)*ratio
}
