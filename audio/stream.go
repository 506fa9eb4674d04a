// Package audio runs a Processor on a portaudio duplex stream
package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"go-looper/debug"
)

// Processor fills one output block from one input block. *looper.Playback
// implements it
type Processor interface {
	Process(input, output []float32) error
}

// guard records the first error a Processor returns
type guard struct {
	proc   Processor
	once   sync.Once
	err    error
	failed chan struct{}
}

func newGuard(p Processor) *guard {
	return &guard{proc: p, failed: make(chan struct{})}
}

func (g *guard) process(in, out []float32) {
	if err := g.proc.Process(in, out); err != nil {
		g.once.Do(func() {
			g.err = err
			close(g.failed)
		})
	}
}

// Stream is a mono in, mono out stream on the default devices
type Stream struct {
	pa      *portaudio.Stream
	guard   *guard
	mu      sync.Mutex
	running bool
}

// Open initializes portaudio and opens the default duplex stream. Close
// releases both
func Open(p Processor, sampleRate, blockSize int) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	g := newGuard(p)
	pa, err := portaudio.OpenDefaultStream(1, 1, float64(sampleRate), blockSize, g.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream: %w", err)
	}

	info := pa.Info()
	debug.Log("audio", "opened rate=%.0f in=%v out=%v", info.SampleRate, info.InputLatency, info.OutputLatency)
	return &Stream{pa: pa, guard: g}, nil
}

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if err := s.pa.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	s.running = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	if err := s.pa.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	s.running = false
	return nil
}

// Close stops the stream and terminates portaudio
func (s *Stream) Close() error {
	if err := s.Stop(); err != nil {
		debug.Log("audio", "%v", err)
	}
	err := s.pa.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

// Failed is closed once the processor has returned an error
func (s *Stream) Failed() <-chan struct{} {
	return s.guard.failed
}

// Err is the first processor error, nil until Failed is closed
func (s *Stream) Err() error {
	select {
	case <-s.guard.failed:
		return s.guard.err
	default:
		return nil
	}
}
