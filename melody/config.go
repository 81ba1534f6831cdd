package melody

import (
	"fmt"

	"github.com/RyanBlaney/sonido-melody/algorithms/notes"
	"github.com/RyanBlaney/sonido-melody/algorithms/pitch"
	"github.com/RyanBlaney/sonido-melody/algorithms/smoothing"
)

// Config configures a recording session end to end
type Config struct {
	SampleRate int `json:"sample_rate"`
	BlockSize  int `json:"block_size"`

	BPM          float64 `json:"bpm"`
	Quantization int     `json:"quantization"` // 4, 8 or 16

	// Pitch range accepted by the note mapper
	MinMIDI int `json:"min_midi"`
	MaxMIDI int `json:"max_midi"`

	Method    pitch.Method     `json:"method"`
	Pitch     pitch.Params     `json:"pitch"`
	Smoothing smoothing.Params `json:"smoothing"`
	Segmenter SegmenterParams  `json:"segmenter"`
}

// DefaultConfig returns a session configuration for 44.1 kHz input in
// 2048-sample blocks at 120 BPM on a sixteenth-note grid.
func DefaultConfig() Config {
	sampleRate := 44100
	return Config{
		SampleRate:   sampleRate,
		BlockSize:    2048,
		BPM:          120.0,
		Quantization: 16,
		MinMIDI:      notes.DefaultMinMIDI,
		MaxMIDI:      notes.DefaultMaxMIDI,
		Method:       pitch.MethodAutocorrelation,
		Pitch:        pitch.DefaultParams(sampleRate),
		Smoothing:    smoothing.DefaultParams(),
		Segmenter:    DefaultSegmenterParams(),
	}
}

// Validate checks the configuration for values the pipeline cannot work with
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	if c.BPM <= 0 {
		return fmt.Errorf("bpm must be positive, got %g", c.BPM)
	}
	switch c.Quantization {
	case 4, 8, 16:
	default:
		return fmt.Errorf("quantization must be 4, 8 or 16, got %d", c.Quantization)
	}
	if c.MinMIDI >= c.MaxMIDI {
		return fmt.Errorf("midi range [%d, %d] is empty", c.MinMIDI, c.MaxMIDI)
	}
	switch c.Method {
	case pitch.MethodAutocorrelation, pitch.MethodSpectral, "":
	default:
		return fmt.Errorf("unknown pitch method %q", c.Method)
	}
	return nil
}

// BlockDuration returns the duration of one audio block in seconds
func (c *Config) BlockDuration() float64 {
	return float64(c.BlockSize) / float64(c.SampleRate)
}
