package midi

import (
	"fmt"

	"go-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Programmer mode, full brightness and external LED feedback
var launchpadInit = [][]byte{
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F},
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F},
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01},
}

// LaunchpadController handles a Novation Launchpad X or Mini in programmer mode
type LaunchpadController struct {
	id       string
	outPort  drivers.Out
	inPort   drivers.In
	send     func(msg gomidi.Message) error
	stopFunc func()
	events   chan Event
}

// NewLaunchpadController opens both ports and switches the device to programmer mode
func NewLaunchpadController(id string, inPort drivers.In, outPort drivers.Out) (*LaunchpadController, error) {
	lp := &LaunchpadController{
		id:      id,
		inPort:  inPort,
		outPort: outPort,
		events:  make(chan Event, eventBuffer),
	}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send
		for _, sysex := range launchpadInit {
			if err := lp.send(gomidi.SysEx(sysex)); err != nil {
				return nil, fmt.Errorf("programmer mode: %w", err)
			}
		}
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if ev, ok := decodeLaunchpad(msg); ok {
				emit(lp.events, ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

// decodeLaunchpad turns grid notes and top row CCs into Pad events.
// Releases are dropped
func decodeLaunchpad(msg gomidi.Message) (Event, bool) {
	var channel, note, velocity uint8
	if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
		row, col := noteToRowCol(note)
		if row < 0 {
			return Event{}, false
		}
		return Event{Type: Pad, Channel: channel, Note: note, Value: velocity, Row: row, Col: col}, true
	}

	var cc, value uint8
	if msg.GetControlChange(&channel, &cc, &value) && value > 0 {
		row, col := ccToRowCol(cc)
		if row < 0 {
			return Event{}, false
		}
		return Event{Type: Pad, Channel: channel, Note: cc, Value: value, Row: row, Col: col}, true
	}
	return Event{}, false
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) Type() ControllerType {
	return ControllerLaunchpad
}

func (lp *LaunchpadController) Events() <-chan Event {
	return lp.events
}

// SetLEDBatch sends one NoteOn per update. Callers diff against the
// previous frame so only changed pads go out
func (lp *LaunchpadController) SetLEDBatch(updates []LEDUpdate) error {
	if lp.send == nil || len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		if err := lp.send(ledMessage(u)); err != nil {
			return err
		}
	}

	debug.LogEvery(100, "lp-send", "batch of %d", len(updates))
	return nil
}

func ledMessage(u LEDUpdate) gomidi.Message {
	return gomidi.NoteOn(u.Channel, rowColToNote(u.Row, u.Col), mapRGBToLaunchpad(u.Color))
}

// Approximate RGB values of Launchpad palette entries, {velocity, R, G, B}
var launchpadPalette = [][4]uint8{
	{0, 0, 0, 0},
	{5, 255, 0, 0},
	{6, 255, 80, 80},
	{7, 180, 60, 60},
	{9, 255, 100, 0},
	{11, 180, 80, 40},
	{13, 255, 200, 0},
	{17, 0, 180, 0},
	{19, 0, 100, 0},
	{21, 0, 255, 0},
	{37, 0, 200, 200},
	{43, 40, 60, 120},
	{45, 0, 100, 255},
	{47, 80, 150, 255},
	{49, 150, 0, 200},
	{53, 255, 80, 180},
	{78, 100, 100, 255},
	{84, 255, 150, 50},
	{87, 150, 255, 100},
	{97, 180, 180, 60},
	{119, 255, 255, 255},
}

// mapRGBToLaunchpad finds the nearest palette velocity for an RGB value
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	best := uint8(0)
	bestDist := 1 << 30

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range launchpadPalette {
		dr, dg, db := r-int(p[1]), g-int(p[2]), b-int(p[3])
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			best = p[0]
		}
	}
	return best
}

// Close blanks every LED before releasing the ports
func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		lp.SetLEDBatch(blankFrame())
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	close(lp.events)
	return nil
}

func blankFrame() []LEDUpdate {
	updates := make([]LEDUpdate, 0, 80)
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			if row == 8 && col == 8 {
				continue // no LED at 8,8
			}
			updates = append(updates, LEDUpdate{Row: row, Col: col})
		}
	}
	return updates
}

// Launchpad note layout:
// grid row 0 (bottom) is notes 11-18, row 7 is 81-88,
// col 8 is the scene column (19, 29, ... 89),
// row 8 is the top row, CC 91-98 in and notes 91-98 for LEDs

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
