package pitch

import (
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-melody/algorithms/spectral"
)

// peakCandidate is a refined spectral peak scored as a potential fundamental
type peakCandidate struct {
	frequency float64
	magnitude float64
	score     float64
	binIndex  int
}

// EstimateSpectral estimates the fundamental of one block from its magnitude
// spectrum. Instead of taking the tallest peak, every prominent peak is scored
// by the energy found at its 2nd-5th harmonics (lower harmonics weighted more)
// and the best-scoring peak wins. This avoids octave errors when a formant or
// harmonic dominates the spectrum.
func (e *Estimator) EstimateSpectral(block []float64) Estimate {
	rms := RMS(block)
	if rms < e.params.NoiseFloorRMS {
		e.prevFreq = 0.0
		return Estimate{RMS: rms}
	}

	if len(e.window) != len(block) {
		e.window = spectral.HannWindow(len(block))
	}
	magnitude := e.fft.Magnitude(spectral.ApplyWindow(block, e.window))
	if len(magnitude) == 0 {
		return Estimate{RMS: rms}
	}

	binWidth := float64(e.params.SampleRate) / float64(len(block))
	minBin := int(e.params.MinFreq / binWidth)
	maxBin := int(e.params.MaxFreq / binWidth)
	if minBin < 1 {
		minBin = 1
	}
	if maxBin >= len(magnitude)-1 {
		maxBin = len(magnitude) - 2
	}
	if maxBin <= minBin {
		return Estimate{RMS: rms}
	}

	peaks := e.findPeaks(magnitude, minBin, maxBin, binWidth)
	if len(peaks) == 0 {
		return Estimate{RMS: rms}
	}

	for i := range peaks {
		peaks[i].score = harmonicScore(magnitude, peaks[i], binWidth)
	}
	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].score > peaks[j].score
	})

	return e.accept(peaks[0].frequency, rms)
}

// findPeaks collects prominent local maxima within the bin range, refining
// each with quadratic interpolation and enforcing a minimum peak distance.
func (e *Estimator) findPeaks(magnitude []float64, minBin, maxBin int, binWidth float64) []peakCandidate {
	maxMag := 0.0
	for bin := minBin; bin <= maxBin; bin++ {
		if magnitude[bin] > maxMag {
			maxMag = magnitude[bin]
		}
	}
	if maxMag <= 0 {
		return nil
	}

	floor := maxMag * e.params.MinPeakRatio
	minDistanceBins := int(e.params.MinPeakDistance / binWidth)
	if minDistanceBins < 1 {
		minDistanceBins = 1
	}

	var peaks []peakCandidate
	for bin := minBin; bin <= maxBin; bin++ {
		if magnitude[bin] < floor ||
			magnitude[bin] <= magnitude[bin-1] ||
			magnitude[bin] <= magnitude[bin+1] {
			continue
		}

		refinedBin := parabolicPeak(magnitude, bin)
		candidate := peakCandidate{
			frequency: refinedBin * binWidth,
			magnitude: magnitude[bin],
			binIndex:  bin,
		}

		replaced := false
		for i := range peaks {
			if abs(peaks[i].binIndex-bin) < minDistanceBins {
				if candidate.magnitude > peaks[i].magnitude {
					peaks[i] = candidate
				}
				replaced = true
				break
			}
		}
		if !replaced {
			peaks = append(peaks, candidate)
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].magnitude > peaks[j].magnitude
	})
	if len(peaks) > e.params.MaxPeaks {
		peaks = peaks[:e.params.MaxPeaks]
	}
	return peaks
}

// harmonicScore scores a peak as a fundamental: its own magnitude plus the
// magnitudes found at harmonics 2-5, weighted by 1/h.
func harmonicScore(magnitude []float64, peak peakCandidate, binWidth float64) float64 {
	score := peak.magnitude
	for h := 2; h <= 5; h++ {
		bin := int(math.Round(peak.frequency * float64(h) / binWidth))
		if bin >= len(magnitude) {
			break
		}
		score += magnitudeNear(magnitude, bin) / float64(h)
	}
	return score
}

// magnitudeNear returns the largest magnitude within one bin of the target,
// absorbing the inharmonicity of real instruments.
func magnitudeNear(magnitude []float64, bin int) float64 {
	best := 0.0
	for b := bin - 1; b <= bin+1; b++ {
		if b >= 0 && b < len(magnitude) && magnitude[b] > best {
			best = magnitude[b]
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
