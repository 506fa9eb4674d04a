package looper

import (
	"fmt"
	"math"
	"sync/atomic"

	"go-looper/ring"
)

// Playback is the real-time stage. Process runs on the audio callback and
// never blocks or allocates on the success path
type Playback struct {
	timing  Timing
	stream  *ring.Producer[ClockSample]
	mixed   *ring.Consumer[float32]
	effects <-chan EffectCommand

	compressor Compressor
	shaper     *Waveshaper

	compress atomic.Bool
	distort  atomic.Bool

	counter   int // samples since the last tick
	processed atomic.Int64
	level     atomic.Uint32

	err    error
	failed atomic.Bool
}

// Process applies the enabled effects to input, writes it to output,
// streams it to the engine and adds one block of mixed loops to output.
// After the first error every call outputs silence and returns that error
func (p *Playback) Process(input, output []float32) error {
	if p.err != nil {
		clear(output)
		return p.err
	}
	if len(input) != p.timing.BlockSize || len(output) != len(input) {
		clear(output)
		return p.fail(fmt.Errorf("%w: got %d in, %d out, want %d",
			ErrBlockSize, len(input), len(output), p.timing.BlockSize))
	}

	p.pollEffects()

	copy(output, input)
	if p.compress.Load() {
		p.compressor.Process(output)
	}
	if p.distort.Load() {
		p.shaper.Process(output)
	}
	p.level.Store(math.Float32bits(RMS(output)))

	if err := p.sendStream(output); err != nil {
		clear(output)
		return p.fail(err)
	}
	p.stream.Notify()

	if ready := p.mixed.Len(); ready < len(output) {
		clear(output)
		return p.fail(fmt.Errorf("%w: need %d samples, %d ready", ErrUnderrun, len(output), ready))
	}
	for i := range output {
		s, _ := p.mixed.Pop()
		output[i] += s
	}
	p.processed.Add(int64(len(output)))
	return nil
}

func (p *Playback) pollEffects() {
	for {
		select {
		case cmd := <-p.effects:
			switch cmd {
			case CmdToggleCompression:
				p.compress.Store(!p.compress.Load())
			case CmdToggleDistortion:
				p.distort.Store(!p.distort.Load())
			}
		default:
			return
		}
	}
}

// sendStream tags block with measure clock events. A PreTick goes out one
// block before the boundary and the Tick right after the measure's last
// sample
func (p *Playback) sendStream(block []float32) error {
	spm := p.timing.SamplesPerMeasure
	lead := p.timing.BlockSize
	for _, s := range block {
		if spm-p.counter == lead {
			if !p.stream.Push(ClockSample{Kind: PreTick}) {
				return fmt.Errorf("%w: pushing pretick", ErrStreamFull)
			}
		}
		if !p.stream.Push(ClockSample{Kind: Data, Value: s}) {
			return fmt.Errorf("%w: pushing data", ErrStreamFull)
		}
		p.counter++
		if p.counter == spm {
			if !p.stream.Push(ClockSample{Kind: Tick}) {
				return fmt.Errorf("%w: pushing tick", ErrStreamFull)
			}
			p.counter = 0
		}
	}
	return nil
}

func (p *Playback) fail(err error) error {
	p.err = err
	p.failed.Store(true)
	return err
}

// Failed reports whether Process has hit a fatal error
func (p *Playback) Failed() bool { return p.failed.Load() }

// Effects reports the current effect toggles
func (p *Playback) Effects() (compress, distort bool) {
	return p.compress.Load(), p.distort.Load()
}

// Level is the RMS of the last processed input block, after effects
func (p *Playback) Level() float32 {
	return math.Float32frombits(p.level.Load())
}

// Position is the playback position in whole measures and beats
func (p *Playback) Position() (measure, beat int) {
	return p.timing.Position(p.processed.Load())
}
