package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KeyboardController handles a keyboard, pedal board or any plain MIDI input
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()
	events   chan Event
}

// NewKeyboardController creates a keyboard controller (input only)
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:     id,
		inPort: inPort,
		events: make(chan Event, eventBuffer),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if ev, ok := decodeKeyboard(msg); ok {
				emit(kb.events, ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// decodeKeyboard keeps note-ons and every control change. Pedal releases
// arrive as value 0 and must not be filtered
func decodeKeyboard(msg gomidi.Message) (Event, bool) {
	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		return Event{Type: NoteOn, Channel: channel, Note: note, Value: velocity}, true
	}
	var cc, value uint8
	if msg.GetControlChange(&channel, &cc, &value) {
		return Event{Type: CC, Channel: channel, Note: cc, Value: value}, true
	}
	return Event{}, false
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) Events() <-chan Event {
	return kb.events
}

// SetLEDBatch is a no-op for keyboards
func (kb *KeyboardController) SetLEDBatch(updates []LEDUpdate) error {
	return nil
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.events)
	return nil
}
