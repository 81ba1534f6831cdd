package transcode

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a WAV file to mono float64 samples in [-1, 1] at the file's
// native sample rate
func ReadWAV(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%s contains no audio", path)
	}

	samples := downmix(buf, dec.BitDepth)
	return &Recording{
		PCM:        samples,
		SampleRate: buf.Format.SampleRate,
		Duration:   time.Duration(len(samples)) * time.Second / time.Duration(buf.Format.SampleRate),
	}, nil
}

// ReadFile decodes an audio file to a mono recording. WAV files are decoded
// natively; anything else goes through the FFmpeg decoder resampled to
// targetRate.
func ReadFile(ctx context.Context, path string, targetRate int) (*Recording, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return ReadWAV(path)
	}

	config := DefaultDecoderConfig()
	if targetRate > 0 {
		config.TargetSampleRate = targetRate
	}
	return NewDecoder(config).DecodeFile(ctx, path)
}

// downmix averages interleaved channels into normalized mono samples
func downmix(buf *audio.IntBuffer, bitDepth uint16) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := math.Pow(2, float64(bitDepth)-1)

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}
	return samples
}
