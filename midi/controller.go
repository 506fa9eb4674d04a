package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKeyboard
)

func (t ControllerType) String() string {
	switch t {
	case ControllerLaunchpad:
		return "launchpad"
	case ControllerKeyboard:
		return "keyboard"
	default:
		return "unknown"
	}
}

// LEDUpdate sets one pad. Row 8 is the top button row
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8 // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Events is closed by Close
	Events() <-chan Event

	// Output to the controller, a no-op without LEDs
	SetLEDBatch(updates []LEDUpdate) error

	Close() error
}

// Channel modes for LEDUpdate
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)

const eventBuffer = 32

// emit drops the event when nobody keeps up, the listener callback must not block
func emit(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}
