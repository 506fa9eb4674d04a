package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-looper/config"
	"go-looper/looper"
	"go-looper/midi"
	"go-looper/theme"
)

type fakeTarget struct {
	loops   []looper.LoopCommand
	effects []looper.EffectCommand
	err     error
}

func (f *fakeTarget) SendLoop(cmd looper.LoopCommand) error {
	if f.err != nil {
		return f.err
	}
	f.loops = append(f.loops, cmd)
	return nil
}

func (f *fakeTarget) SendEffect(cmd looper.EffectCommand) error {
	if f.err != nil {
		return f.err
	}
	f.effects = append(f.effects, cmd)
	return nil
}

func defaultMapping() Mapping {
	return NewMapping(config.DefaultConfig().Controls, 24)
}

func TestKeyboardMapping(t *testing.T) {
	m := defaultMapping()
	tests := []struct {
		name string
		ev   midi.Event
		want string
	}{
		{"first loop key", midi.Event{Type: midi.NoteOn, Note: 36, Value: 100}, "toggle loop 0"},
		{"last loop key", midi.Event{Type: midi.NoteOn, Note: 59, Value: 100}, "toggle loop 23"},
		{"compression", midi.Event{Type: midi.NoteOn, Note: 96, Value: 100}, "toggle compression"},
		{"distortion", midi.Event{Type: midi.NoteOn, Note: 95, Value: 100}, "toggle distortion"},
		{"pedal released", midi.Event{Type: midi.CC, Note: 64, Value: 0}, "stop recording"},
		{"pedal half", midi.Event{Type: midi.CC, Note: 64, Value: 63}, "stop recording"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := m.Resolve(tt.ev)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestKeyboardIgnored(t *testing.T) {
	m := defaultMapping()
	for _, ev := range []midi.Event{
		{Type: midi.NoteOn, Note: 35, Value: 100},
		{Type: midi.NoteOn, Note: 60, Value: 100},
		{Type: midi.CC, Note: 64, Value: 64},
		{Type: midi.CC, Note: 1, Value: 0},
	} {
		_, ok := m.Resolve(ev)
		assert.False(t, ok, ev.String())
	}
}

func TestEffectKeysWinOverLoops(t *testing.T) {
	m := Mapping{LoopBaseKey: 90, NumLoops: 10, CompressionKey: 96, DistortionKey: 95, StopPedalCC: 64}
	a, ok := m.Resolve(midi.Event{Type: midi.NoteOn, Note: 96})
	require.True(t, ok)
	require.NotNil(t, a.Effect)
	assert.Equal(t, looper.CmdToggleCompression, *a.Effect)
}

func TestLaunchpadMapping(t *testing.T) {
	m := defaultMapping()

	a, ok := m.Resolve(midi.Event{Type: midi.Pad, Row: 7, Col: 0})
	require.True(t, ok)
	assert.Equal(t, &looper.LoopCommand{Kind: looper.CmdToggleLoop, Index: 0}, a.Loop)

	a, ok = m.Resolve(midi.Event{Type: midi.Pad, Row: 5, Col: 7})
	require.True(t, ok)
	assert.Equal(t, 23, a.Loop.Index)

	_, ok = m.Resolve(midi.Event{Type: midi.Pad, Row: 4, Col: 0})
	assert.False(t, ok, "past the last loop")

	_, ok = m.Resolve(midi.Event{Type: midi.Pad, Row: 3, Col: 8})
	assert.False(t, ok, "scene column")

	for col, want := range []string{"stop recording", "toggle compression", "toggle distortion"} {
		a, ok := m.Resolve(midi.Event{Type: midi.Pad, Row: 8, Col: col})
		require.True(t, ok)
		assert.Equal(t, want, a.String())
	}
	_, ok = m.Resolve(midi.Event{Type: midi.Pad, Row: 8, Col: 5})
	assert.False(t, ok)
}

func TestPadLoopRoundTrip(t *testing.T) {
	for i := 0; i < GridLoops; i++ {
		row, col, ok := LoopPad(i)
		require.True(t, ok)
		idx, ok := PadLoop(row, col)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
	_, _, ok := LoopPad(GridLoops)
	assert.False(t, ok)
}

func TestDispatch(t *testing.T) {
	m := defaultMapping()
	target := &fakeTarget{}

	ok, err := m.Dispatch(midi.Event{Type: midi.NoteOn, Note: 38}, target)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.Dispatch(midi.Event{Type: midi.NoteOn, Note: 95}, target)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.Dispatch(midi.Event{Type: midi.NoteOn, Note: 20}, target)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []looper.LoopCommand{{Kind: looper.CmdToggleLoop, Index: 2}}, target.loops)
	assert.Equal(t, []looper.EffectCommand{looper.CmdToggleDistortion}, target.effects)
}

func TestRouterCountsDrops(t *testing.T) {
	target := &fakeTarget{err: looper.ErrQueueFull}
	r := NewRouter(defaultMapping(), target)

	err := r.Handle(midi.Event{Type: midi.NoteOn, Note: 40})
	assert.ErrorIs(t, err, looper.ErrQueueFull)
	assert.NoError(t, r.Handle(midi.Event{Type: midi.NoteOn, Note: 10}))
	assert.Equal(t, uint64(1), r.Dropped())
}

func TestRouterListen(t *testing.T) {
	target := &fakeTarget{}
	r := NewRouter(defaultMapping(), target)

	kb, err := midi.NewKeyboardController("kb", nil)
	require.NoError(t, err)
	require.NoError(t, kb.Close())

	// closed controller: Listen returns
	r.Listen(kb)
	assert.Empty(t, target.loops)
}

type fakeState struct {
	snap              *looper.Snapshot
	compress, distort bool
}

func (f *fakeState) Snapshot() *looper.Snapshot        { return f.snap }
func (f *fakeState) Effects() (compress, distort bool) { return f.compress, f.distort }

func TestLEDFrameAndDiff(t *testing.T) {
	th := theme.New(theme.Default())
	state := &fakeState{snap: &looper.Snapshot{
		Loops: []looper.LoopInfo{
			{Status: looper.Status{Kind: looper.On}, Length: 1},
			{Status: looper.Status{Kind: looper.Recording}},
			{},
		},
		Recording: 1,
	}}
	leds := NewLEDs(th, state)

	frame := leds.Frame()
	// metronome, recording loop and three top row buttons
	require.Len(t, frame, 5)
	assert.Equal(t, midi.LEDUpdate{Row: 7, Col: 0, Color: th.RGB(theme.RoleAccent)}, frame[0])
	assert.Equal(t, midi.ChannelPulse, frame[1].Channel)
	assert.Equal(t, [3]uint8(th.RGB(theme.RoleActive)), frame[2].Color)

	assert.Len(t, leds.Diff(frame), 5)
	assert.Empty(t, leds.Diff(leds.Frame()))

	// recording finished as Off, compression on
	state.snap = &looper.Snapshot{
		Loops: []looper.LoopInfo{
			{Status: looper.Status{Kind: looper.On}, Length: 1},
			{Status: looper.Status{Kind: looper.Off}, Length: 2},
			{},
		},
		Recording: -1,
	}
	state.compress = true
	updates := leds.Diff(leds.Frame())
	assert.Len(t, updates, 3)

	leds.Reset()
	assert.Len(t, leds.Diff(leds.Frame()), 5)
}

func TestLEDDiffClearsDroppedPads(t *testing.T) {
	th := theme.New(theme.Default())
	leds := NewLEDs(th, &fakeState{})

	leds.Diff([]midi.LEDUpdate{{Row: 1, Col: 1, Color: [3]uint8{1, 2, 3}}})
	updates := leds.Diff(nil)
	assert.Equal(t, []midi.LEDUpdate{{Row: 1, Col: 1}}, updates)
}
