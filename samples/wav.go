// Package samples loads click sounds and writes recorded loops as WAV
package samples

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	exportBitDepth = 24
	pcmFormat      = 1
	floatFormat    = 3
	extensible     = 0xFFFE

	maxInt8  = 127.0
	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0
)

// ErrSampleRate is returned when a file does not match the session rate
var ErrSampleRate = errors.New("sample rate mismatch")

// Load decodes an integer PCM or 32-bit float WAV file into mono samples.
// Multichannel files are averaged down to one channel
func Load(path string, sampleRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	format := buf.Format
	if format.SampleRate != sampleRate {
		return nil, fmt.Errorf("%w: %s is %d Hz, session is %d Hz", ErrSampleRate, path, format.SampleRate, sampleRate)
	}
	channels := format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid WAV file: %s has no channels", path)
	}

	sample, err := sampleDecoder(dec.WavAudioFormat, int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += sample(buf.Data[i*channels+ch])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out, nil
}

// sampleDecoder converts one decoded value to [-1, 1]. The decoder hands
// float samples back as their raw 32-bit pattern
func sampleDecoder(format uint16, bitDepth int) (func(int) float64, error) {
	switch format {
	case floatFormat:
		if bitDepth != 32 {
			return nil, fmt.Errorf("unsupported float bit depth %d", bitDepth)
		}
		return func(v int) float64 {
			return float64(math.Float32frombits(uint32(int32(v))))
		}, nil
	case pcmFormat, extensible:
		scale, offset, err := pcmScale(bitDepth)
		if err != nil {
			return nil, err
		}
		return func(v int) float64 {
			return (float64(v) - offset) / scale
		}, nil
	default:
		return nil, fmt.Errorf("unsupported WAV format %d", format)
	}
}

// pcmScale returns the full-scale value and the zero offset for a bit depth.
// 8-bit WAV is unsigned
func pcmScale(bitDepth int) (scale, offset float64, err error) {
	switch bitDepth {
	case 8:
		return maxInt8, 128, nil
	case 16:
		return maxInt16, 0, nil
	case 24:
		return maxInt24, 0, nil
	case 32:
		return maxInt32, 0, nil
	default:
		return 0, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}

// Save writes samples as a 24-bit mono WAV file, clipping to [-1, 1]
func Save(path string, samples []float32, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(clip(s) * maxInt24)
	}

	enc := wav.NewEncoder(f, sampleRate, exportBitDepth, 1, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: exportBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return enc.Close()
}

func clip(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}
