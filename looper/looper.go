// Package looper is the synchronization and mixing core of the looper.
//
// Playback runs on the audio callback. It applies effects to the live
// input, streams it to the Engine tagged with measure clock events and adds
// the mixed loops coming back. The Engine owns the loop registers, records
// and mixes a measure ahead of playback. The two only share a pair of
// single-producer single-consumer queues and the command channels
package looper

import (
	"fmt"

	"go-looper/debug"
	"go-looper/ring"
)

// Config holds the immutable session settings
type Config struct {
	BPM        int
	SampleRate int
	BlockSize  int
	NumLoops   int // including the metronome

	Threshold     float64 // compressor threshold in dB
	Ratio         float64 // compressor ratio
	DistortionMix float32 // wet share of the waveshaper
}

// DefaultConfig mirrors the shipped pedal settings
func DefaultConfig() Config {
	return Config{
		BPM:           80,
		SampleRate:    48000,
		BlockSize:     512,
		NumLoops:      24,
		Threshold:     -30,
		Ratio:         4,
		DistortionMix: 0.1,
	}
}

// Session wires a Playback stage to an Engine
type Session struct {
	Timing   Timing
	Engine   *Engine
	Playback *Playback
	Controls *Controls
}

// New validates cfg, builds the metronome from the two clicks, allocates
// both queues with room for two measures and queues the first metronome
// measure so playback can start immediately
func New(cfg Config, big, little []float32) (*Session, error) {
	if cfg.NumLoops < 2 {
		return nil, fmt.Errorf("%w: need at least 2 loops, got %d", ErrConfig, cfg.NumLoops)
	}
	if cfg.Ratio < 1 {
		return nil, fmt.Errorf("%w: compressor ratio must be at least 1, got %g", ErrConfig, cfg.Ratio)
	}
	if cfg.DistortionMix < 0 || cfg.DistortionMix > 1 {
		return nil, fmt.Errorf("%w: distortion mix must be within [0, 1], got %g", ErrConfig, cfg.DistortionMix)
	}

	t, err := NewTiming(cfg.BPM, cfg.SampleRate, cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	metronome, err := BuildMetronome(t, big, little)
	if err != nil {
		return nil, err
	}

	// Each measure adds a PreTick and a Tick to the clocked stream
	clockTx, clockRx := ring.New[ClockSample](2*t.SamplesPerMeasure + 4)
	mixTx, mixRx := ring.New[float32](2 * t.SamplesPerMeasure)
	for _, s := range metronome {
		if !mixTx.Push(s) {
			return nil, fmt.Errorf("%w: priming metronome", ErrMixFull)
		}
	}

	loopCmds := make(chan LoopCommand, CommandQueueSize)
	effectCmds := make(chan EffectCommand, CommandQueueSize)

	s := &Session{
		Timing: t,
		Engine: newEngine(t, cfg.NumLoops, metronome, clockRx, mixTx, loopCmds),
		Playback: &Playback{
			timing:     t,
			stream:     clockTx,
			mixed:      mixRx,
			effects:    effectCmds,
			compressor: Compressor{Threshold: cfg.Threshold, Ratio: cfg.Ratio},
			shaper:     NewWaveshaper(cfg.DistortionMix),
		},
		Controls: &Controls{loops: loopCmds, effects: effectCmds},
	}

	debug.Log("session", "bpm=%d rate=%d block=%d loops=%d measure=%d samples",
		cfg.BPM, cfg.SampleRate, cfg.BlockSize, cfg.NumLoops, t.SamplesPerMeasure)
	return s, nil
}

// Snapshot returns the engine's latest published state
func (s *Session) Snapshot() *Snapshot { return s.Engine.Snapshot() }

// Effects reports the playback effect toggles
func (s *Session) Effects() (compress, distort bool) { return s.Playback.Effects() }
