package looper

import (
	"fmt"
)

// BeatsPerMeasure is fixed: only 4/4 is supported
const BeatsPerMeasure = 4

// ClockKind tags an event on the clocked sample stream
type ClockKind uint8

const (
	Data ClockKind = iota
	Tick
	PreTick
)

func (k ClockKind) String() string {
	switch k {
	case Data:
		return "data"
	case Tick:
		return "tick"
	case PreTick:
		return "pretick"
	default:
		return fmt.Sprintf("clock(%d)", uint8(k))
	}
}

// ClockSample is one event sent from the playback stage to the engine.
// Value is only meaningful for Data
type ClockSample struct {
	Kind  ClockKind
	Value float32
}

// Timing holds the session's fixed tempo grid
type Timing struct {
	BPM               int
	SampleRate        int
	BlockSize         int
	SamplesPerBeat    int
	SamplesPerMeasure int
}

// NewTiming derives the measure length from tempo and rate.
// A measure must span at least four blocks so that the engine can
// finish a recording at mid-measure before the next block is due
func NewTiming(bpm, sampleRate, blockSize int) (Timing, error) {
	if bpm <= 0 {
		return Timing{}, fmt.Errorf("%w: bpm must be positive, got %d", ErrConfig, bpm)
	}
	if sampleRate <= 0 {
		return Timing{}, fmt.Errorf("%w: sample rate must be positive, got %d", ErrConfig, sampleRate)
	}
	if blockSize <= 0 {
		return Timing{}, fmt.Errorf("%w: block size must be positive, got %d", ErrConfig, blockSize)
	}

	spb := sampleRate * 60 / bpm
	t := Timing{
		BPM:               bpm,
		SampleRate:        sampleRate,
		BlockSize:         blockSize,
		SamplesPerBeat:    spb,
		SamplesPerMeasure: spb * BeatsPerMeasure,
	}
	if t.SamplesPerMeasure < 4*blockSize {
		return Timing{}, fmt.Errorf("%w: measure of %d samples is shorter than four %d-sample blocks",
			ErrConfig, t.SamplesPerMeasure, blockSize)
	}
	return t, nil
}

// Position converts a running sample count to a zero-based measure and beat
func (t Timing) Position(samples int64) (measure, beat int) {
	spm := int64(t.SamplesPerMeasure)
	measure = int(samples / spm)
	beat = int(samples%spm) / t.SamplesPerBeat
	return measure, beat
}
