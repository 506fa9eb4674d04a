package looper

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"

	"go-looper/debug"
	"go-looper/ring"
)

// MetronomeLoop is the register holding the click track
const MetronomeLoop = 0

type loop struct {
	samples []float32
	length  int // measures
	status  Status
}

type activeLoop struct {
	index int
	start int // first sample of the measure being mixed
}

// Engine owns the loop registers. It consumes the clocked sample stream and
// loop commands, and mixes each upcoming measure into the mixed audio queue
type Engine struct {
	timing   Timing
	loops    []loop
	stream   *ring.Consumer[ClockSample]
	mixed    *ring.Producer[float32]
	commands <-chan LoopCommand

	recording   int  // register in RecordStart, Recording or RecordEnd; -1 if none
	window      bool // a PreTick was handled and its Tick has not arrived
	pendingStop bool // stop requested inside the window
	measures    int
	active      []activeLoop

	snapshot atomic.Pointer[Snapshot]
	updates  chan struct{}
	notices  chan Notice
}

// LoopInfo is the published state of one register
type LoopInfo struct {
	Status Status
	Length int
}

// Snapshot is an immutable copy of the engine state for display
type Snapshot struct {
	Loops     []LoopInfo
	Recording int // -1 if nothing records
	Measures  int // ticks seen since start
}

// Notice is a recoverable event worth showing to the performer
type Notice struct {
	Loop    int // -1 when not about a single loop
	Message string
}

func (n Notice) String() string {
	if n.Loop < 0 {
		return n.Message
	}
	return fmt.Sprintf("loop %d: %s", n.Loop, n.Message)
}

const noticeBuffer = 64

func newEngine(t Timing, numLoops int, metronome []float32,
	stream *ring.Consumer[ClockSample], mixed *ring.Producer[float32], commands <-chan LoopCommand) *Engine {
	e := &Engine{
		timing:    t,
		loops:     make([]loop, numLoops),
		stream:    stream,
		mixed:     mixed,
		commands:  commands,
		recording: -1,
		active:    make([]activeLoop, 0, numLoops),
		updates:   make(chan struct{}, 1),
		notices:   make(chan Notice, noticeBuffer),
	}
	e.loops[MetronomeLoop] = loop{
		samples: metronome,
		length:  1,
		status:  Status{Kind: On},
	}
	e.publish()
	return e
}

// Run processes clock events and commands until ctx is done or a fatal
// error occurs. It returns nil when ctx is cancelled
func (e *Engine) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	debug.Log("engine", "started: %d loops, %d samples per measure", len(e.loops), e.timing.SamplesPerMeasure)

	for {
		ev, ok := e.stream.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				debug.Log("engine", "stopped after %d measures", e.measures)
				return nil
			case <-e.stream.Ready():
			case cmd := <-e.commands:
				e.handleCommand(cmd)
			}
			continue
		}

		if err := e.handle(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			debug.Log("engine", "fatal: %v", err)
			return err
		}

		select {
		case cmd := <-e.commands:
			e.handleCommand(cmd)
		default:
		}
	}
}

func (e *Engine) handle(ctx context.Context, ev ClockSample) error {
	switch ev.Kind {
	case Data:
		e.record(ev.Value)
	case Tick:
		return e.tick()
	case PreTick:
		return e.mixAhead(ctx)
	default:
		return fmt.Errorf("%w: unknown clock event %s", ErrProtocol, ev.Kind)
	}
	return nil
}

func (e *Engine) record(s float32) {
	if e.recording < 0 {
		return
	}
	l := &e.loops[e.recording]
	if l.status.Kind == Recording || l.status.Kind == RecordEnd {
		l.samples = append(l.samples, s)
	}
}

func (e *Engine) tick() error {
	e.boundary()

	if e.recording >= 0 {
		l := &e.loops[e.recording]
		next, outcome := Transition(l.status.Kind, EventTick)
		switch outcome {
		case Violation:
			return fmt.Errorf("%w: loop %d is %s at a measure boundary", ErrProtocol, e.recording, l.status)
		case Apply:
			if l.status.Kind == Recording {
				l.length++
			} else {
				e.notify(e.recording, "recording")
			}
			l.status = Status{Kind: next}
			l.samples = slices.Grow(l.samples, e.timing.SamplesPerMeasure)
		}
	}

	if e.pendingStop {
		e.pendingStop = false
		e.stopRecording()
	}
	e.publish()
	return nil
}

func (e *Engine) boundary() {
	e.window = false
	e.measures++
}

// mixAhead streams the next measure into the mixed queue. A loop in
// RecordEnd plays from its first measure; its recording is closed at the
// midpoint, once the first half of the mix is queued
func (e *Engine) mixAhead(ctx context.Context) error {
	spm := e.timing.SamplesPerMeasure
	finishing := -1
	active := e.active[:0]
	for i := range e.loops {
		switch st := e.loops[i].status; st.Kind {
		case On:
			active = append(active, activeLoop{index: i, start: st.Offset * spm})
		case RecordEnd:
			active = append(active, activeLoop{index: i})
			finishing = i
		}
	}
	e.active = active

	for pos := range spm {
		if pos == spm/2 && finishing >= 0 {
			if err := e.finishRecording(ctx, finishing); err != nil {
				return err
			}
		}
		var sum float32
		for _, a := range active {
			sum += e.loops[a.index].samples[a.start+pos]
		}
		if !e.mixed.Push(sum) {
			return fmt.Errorf("%w: at sample %d of measure %d", ErrMixFull, pos, e.measures)
		}
	}

	for _, a := range active {
		l := &e.loops[a.index]
		if l.status.Kind != On {
			return fmt.Errorf("%w: loop %d is %s after mixing", ErrProtocol, a.index, l.status)
		}
		l.status.Offset = (l.status.Offset + 1) % l.length
	}

	e.window = finishing < 0
	e.publish()
	return nil
}

// finishRecording drains the stream into the recording loop up to the Tick
// that closes the measure
func (e *Engine) finishRecording(ctx context.Context, idx int) error {
	l := &e.loops[idx]
	spm := e.timing.SamplesPerMeasure
	for {
		ev, ok := e.stream.Pop()
		if !ok {
			if err := e.stream.Wait(ctx); err != nil {
				return err
			}
			continue
		}

		switch ev.Kind {
		case Data:
			l.samples = append(l.samples, ev.Value)
		case PreTick:
			return fmt.Errorf("%w: pretick while finishing loop %d", ErrProtocol, idx)
		case Tick:
			next, outcome := Transition(l.status.Kind, EventFinish)
			if outcome != Apply {
				return fmt.Errorf("%w: cannot finish loop %d from %s", ErrProtocol, idx, l.status)
			}
			e.boundary()
			l.length++
			l.status = Status{Kind: next}
			e.recording = -1
			if want := l.length * spm; len(l.samples) != want {
				return fmt.Errorf("%w: loop %d has %d samples, want %d",
					ErrProtocol, idx, len(l.samples), want)
			}
			e.notify(idx, fmt.Sprintf("recorded %d measures", l.length))
			return nil
		}
	}
}

func (e *Engine) handleCommand(cmd LoopCommand) {
	debug.Log("engine", "command: %s", cmd)
	switch cmd.Kind {
	case CmdToggleLoop:
		e.toggle(cmd.Index)
	case CmdStopRecording:
		e.stopRecording()
	default:
		e.notify(-1, fmt.Sprintf("unknown command %s", cmd))
	}
	e.publish()
}

func (e *Engine) toggle(idx int) {
	if idx == MetronomeLoop {
		e.notify(idx, "the metronome always plays")
		return
	}
	if idx < 0 || idx >= len(e.loops) {
		e.notify(-1, fmt.Sprintf("no loop %d", idx))
		return
	}

	l := &e.loops[idx]
	next, outcome := Transition(l.status.Kind, EventToggle)
	switch outcome {
	case Busy:
		e.notify(idx, fmt.Sprintf("busy (%s)", l.status))
	case Apply:
		if next == RecordStart {
			if e.recording >= 0 {
				e.notify(idx, fmt.Sprintf("loop %d is already recording", e.recording))
				return
			}
			e.recording = idx
			l.samples = make([]float32, 0, e.timing.SamplesPerMeasure)
			l.length = 0
		}
		l.status = Status{Kind: next}
		e.notify(idx, next.String())
	default:
		e.notify(idx, fmt.Sprintf("cannot toggle from %s", l.status))
	}
}

func (e *Engine) stopRecording() {
	if e.recording < 0 {
		e.notify(-1, "nothing is recording")
		return
	}
	l := &e.loops[e.recording]
	if l.status.Kind == Recording && e.window {
		// This measure is already mixed; stop after its tick instead
		e.pendingStop = true
		e.notify(e.recording, "stopping after this measure")
		return
	}
	next, outcome := Transition(l.status.Kind, EventStop)
	if outcome != Apply {
		e.notify(e.recording, fmt.Sprintf("cannot stop while %s", l.status))
		return
	}
	l.status = Status{Kind: next}
	e.notify(e.recording, "stopping")
}

func (e *Engine) notify(idx int, msg string) {
	n := Notice{Loop: idx, Message: msg}
	debug.Log("engine", "%s", n)
	select {
	case e.notices <- n:
	default:
	}
}

func (e *Engine) publish() {
	s := &Snapshot{
		Loops:     make([]LoopInfo, len(e.loops)),
		Recording: e.recording,
		Measures:  e.measures,
	}
	for i, l := range e.loops {
		s.Loops[i] = LoopInfo{Status: l.status, Length: l.length}
	}
	e.snapshot.Store(s)
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns the latest published state. Safe from any goroutine
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Updates receives a value after the snapshot changes. Updates coalesce
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

// Notices carries recoverable reports. They are dropped when nobody reads
func (e *Engine) Notices() <-chan Notice {
	return e.notices
}

// Take is one recorded loop
type Take struct {
	Index   int
	Length  int
	Samples []float32
}

// Takes copies every recorded loop except the metronome. Only call it after
// Run has returned
func (e *Engine) Takes() []Take {
	var takes []Take
	for i, l := range e.loops {
		if i == MetronomeLoop || (l.status.Kind != On && l.status.Kind != Off) {
			continue
		}
		takes = append(takes, Take{Index: i, Length: l.length, Samples: slices.Clone(l.samples)})
	}
	return takes
}
