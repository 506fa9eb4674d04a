package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestDecodeKeyboard(t *testing.T) {
	ev, ok := decodeKeyboard(gomidi.NoteOn(2, 40, 90))
	require.True(t, ok)
	assert.Equal(t, Event{Type: NoteOn, Channel: 2, Note: 40, Value: 90}, ev)

	_, ok = decodeKeyboard(gomidi.NoteOn(0, 40, 0))
	assert.False(t, ok, "velocity 0 is a release")

	_, ok = decodeKeyboard(gomidi.NoteOff(0, 40))
	assert.False(t, ok)

	// pedal release must come through
	ev, ok = decodeKeyboard(gomidi.ControlChange(0, 64, 0))
	require.True(t, ok)
	assert.Equal(t, Event{Type: CC, Note: 64, Value: 0}, ev)
}

func TestDecodeLaunchpad(t *testing.T) {
	tests := []struct {
		name     string
		msg      gomidi.Message
		ok       bool
		row, col int
	}{
		{"bottom left", gomidi.NoteOn(0, 11, 127), true, 0, 0},
		{"top right of grid", gomidi.NoteOn(0, 88, 127), true, 7, 7},
		{"scene column", gomidi.NoteOn(0, 39, 127), true, 2, 8},
		{"top row cc", gomidi.ControlChange(0, 93, 127), true, 8, 2},
		{"top row release", gomidi.ControlChange(0, 93, 0), false, 0, 0},
		{"pad release", gomidi.NoteOn(0, 11, 0), false, 0, 0},
		{"outside grid", gomidi.NoteOn(0, 5, 127), false, 0, 0},
		{"other cc", gomidi.ControlChange(0, 7, 100), false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := decodeLaunchpad(tt.msg)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, Pad, ev.Type)
			assert.Equal(t, tt.row, ev.Row)
			assert.Equal(t, tt.col, ev.Col)
		})
	}
}

func TestNoteLayoutRoundTrip(t *testing.T) {
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if row == 8 && col == 8 {
				continue
			}
			r, c := noteToRowCol(rowColToNote(row, col))
			assert.Equal(t, row, r, "row for %d,%d", row, col)
			assert.Equal(t, col, c, "col for %d,%d", row, col)
		}
	}
}

func TestMapRGBToLaunchpad(t *testing.T) {
	assert.Equal(t, uint8(0), mapRGBToLaunchpad([3]uint8{0, 0, 0}))
	assert.Equal(t, uint8(5), mapRGBToLaunchpad([3]uint8{250, 5, 5}))
	assert.Equal(t, uint8(21), mapRGBToLaunchpad([3]uint8{0, 250, 10}))
	assert.Equal(t, uint8(119), mapRGBToLaunchpad([3]uint8{255, 255, 255}))
}

func TestBlankFrame(t *testing.T) {
	frame := blankFrame()
	assert.Len(t, frame, 80)
	for _, u := range frame {
		assert.Equal(t, [3]uint8{}, u.Color)
		assert.False(t, u.Row == 8 && u.Col == 8)
	}
}

func TestClassify(t *testing.T) {
	dm := NewDeviceManager(true, PortRule{Name: "Ignored Synth", Type: ControllerUnknown})

	assert.Equal(t, ControllerLaunchpad, dm.classify("Launchpad X LPX MIDI"))
	assert.Equal(t, ControllerUnknown, dm.classify("Launchpad X LPX DAW"))
	assert.Equal(t, ControllerKeyboard, dm.classify("Keystation 49 MK3"))
	assert.Equal(t, ControllerUnknown, dm.classify("Midi Through Port-0"))
	assert.Equal(t, ControllerUnknown, dm.classify("ignored synth"))

	noKeys := NewDeviceManager(false, PortRule{Name: "FCB1010", Type: ControllerKeyboard})
	assert.Equal(t, ControllerUnknown, noKeys.classify("Keystation 49 MK3"))
	assert.Equal(t, ControllerKeyboard, noKeys.classify("FCB1010"))
}

func TestKeyboardWithoutPort(t *testing.T) {
	kb, err := NewKeyboardController("kb", nil)
	require.NoError(t, err)
	assert.Equal(t, ControllerKeyboard, kb.Type())
	assert.NoError(t, kb.SetLEDBatch([]LEDUpdate{{Row: 1}}))
	require.NoError(t, kb.Close())

	_, open := <-kb.Events()
	assert.False(t, open)
}

func TestEmitDropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	emit(ch, Event{Note: 1})
	emit(ch, Event{Note: 2})
	assert.Equal(t, uint8(1), (<-ch).Note)
	assert.Empty(t, ch)
}
