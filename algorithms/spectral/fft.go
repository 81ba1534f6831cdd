package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality over go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	// go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude returns the one-sided magnitude spectrum of a real signal
func (f *FFT) Magnitude(x []float64) []float64 {
	spectrum := f.Compute(x)
	half := len(spectrum) / 2
	magnitude := make([]float64, half)
	for i := range magnitude {
		magnitude[i] = math.Hypot(real(spectrum[i]), imag(spectrum[i]))
	}
	return magnitude
}

// HannWindow returns a Hann window of the given size
func HannWindow(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1.0
		return window
	}
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// ApplyWindow multiplies the signal by the window in a new slice
func ApplyWindow(signal, window []float64) []float64 {
	n := min(len(signal), len(window))
	windowed := make([]float64, n)
	for i := range n {
		windowed[i] = signal[i] * window[i]
	}
	return windowed
}
