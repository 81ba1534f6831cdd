package transcode

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
)

func TestBytesToFloat64(t *testing.T) {
	values := []float64{0, 0.5, -0.25, 1, -1}
	data := make([]byte, 0, len(values)*8+3)
	for _, v := range values {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		data = append(data, b[:]...)
	}
	// trailing partial sample must be ignored
	data = append(data, 0x01, 0x02, 0x03)

	assert.Equal(t, values, bytesToFloat64(data))
	assert.Nil(t, bytesToFloat64(nil))
	assert.Nil(t, bytesToFloat64([]byte{0x01}))
}

func TestDownmixStereo(t *testing.T) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:   []int{16384, -16384, 32767, 32767},
	}

	samples := downmix(buf, 16)
	assert.Len(t, samples, 2)
	assert.InDelta(t, 0.0, samples[0], 1e-9)
	assert.InDelta(t, 1.0, samples[1], 1e-3)
}

func TestParseFFprobeOutput(t *testing.T) {
	jsonData := []byte(`{
		"streams": [{
			"codec_type": "audio",
			"codec_name": "mp3",
			"sample_rate": "48000",
			"channels": 2,
			"duration": "12.5"
		}]
	}`)

	meta, err := parseFFprobeOutput(jsonData)
	assert.NoError(t, err)
	assert.Equal(t, 48000, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "mp3", meta.Codec)
	assert.InDelta(t, 12.5, meta.Duration, 1e-9)
}

func TestParseFFprobeOutputRejectsNonAudio(t *testing.T) {
	_, err := parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "video", "channels": 0}]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`{"streams": []}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`not json`))
	assert.Error(t, err)
}

func TestRecordingBlocks(t *testing.T) {
	rec := &Recording{
		PCM:        make([]float64, 10),
		SampleRate: 44100,
		Duration:   10 * time.Second / 44100,
	}

	blocks := rec.Blocks(4)
	assert.Len(t, blocks, 2, "trailing partial block is dropped")
	assert.Len(t, blocks[0], 4)

	assert.Nil(t, rec.Blocks(0))
}
