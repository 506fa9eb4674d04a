package control

import (
	"context"
	"time"

	"go-looper/debug"
	"go-looper/looper"
	"go-looper/midi"
	"go-looper/theme"
	"go-looper/widgets"
)

const ledFPS = 30

// State is what the LEDs show. *looper.Session implements it
type State interface {
	Snapshot() *looper.Snapshot
	Effects() (compress, distort bool)
}

// LEDs renders looper state onto a Launchpad, sending only changed pads
type LEDs struct {
	theme *theme.Theme
	state State
	prev  map[[2]int]midi.LEDUpdate
}

func NewLEDs(th *theme.Theme, state State) *LEDs {
	return &LEDs{theme: th, state: state, prev: make(map[[2]int]midi.LEDUpdate)}
}

// Frame renders every lit pad for the current state
func (l *LEDs) Frame() []midi.LEDUpdate {
	snap := l.state.Snapshot()
	compress, distort := l.state.Effects()

	frame := make([]midi.LEDUpdate, 0, len(snap.Loops)+3)
	for i, info := range snap.Loops {
		row, col, ok := LoopPad(i)
		if !ok {
			break
		}
		look := widgets.LoopLook(l.theme, i, info)
		if look.Color == (theme.RGB{}) {
			continue
		}
		frame = append(frame, midi.LEDUpdate{Row: row, Col: col, Color: look.Color, Channel: look.Channel})
	}

	if snap.Recording >= 0 {
		frame = append(frame, midi.LEDUpdate{Row: 8, Col: ButtonStop, Color: l.theme.RGB(theme.RoleActive)})
	} else {
		frame = append(frame, midi.LEDUpdate{Row: 8, Col: ButtonStop, Color: l.theme.RGB(theme.RoleSurface)})
	}
	frame = append(frame,
		l.toggleLED(ButtonCompression, compress),
		l.toggleLED(ButtonDistortion, distort),
	)
	return frame
}

func (l *LEDs) toggleLED(col int, on bool) midi.LEDUpdate {
	role := theme.RoleSurface
	if on {
		role = theme.RoleSuccess
	}
	return midi.LEDUpdate{Row: 8, Col: col, Color: l.theme.RGB(role)}
}

// Diff returns the updates needed to go from the last frame to this one and
// remembers it. Pads that dropped out of the frame are switched off
func (l *LEDs) Diff(frame []midi.LEDUpdate) []midi.LEDUpdate {
	next := make(map[[2]int]midi.LEDUpdate, len(frame))
	var updates []midi.LEDUpdate

	for _, u := range frame {
		key := [2]int{u.Row, u.Col}
		next[key] = u
		if prev, ok := l.prev[key]; !ok || prev != u {
			updates = append(updates, u)
		}
	}
	for key := range l.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, midi.LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	l.prev = next
	return updates
}

// Reset forgets the last frame so the next flush repaints everything
func (l *LEDs) Reset() {
	l.prev = make(map[[2]int]midi.LEDUpdate)
}

// Run flushes frames to whichever Launchpad dm has connected, at a fixed rate
func (l *LEDs) Run(ctx context.Context, dm *midi.DeviceManager) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	var current midi.Controller
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lp := dm.GetLaunchpad()
			if lp == nil {
				current = nil
				continue
			}
			if lp != current {
				current = lp
				l.Reset()
			}
			updates := l.Diff(l.Frame())
			if len(updates) == 0 {
				continue
			}
			if err := lp.SetLEDBatch(updates); err != nil {
				debug.LogEvery(ledFPS, "leds", "%s: %v", lp.ID(), err)
				l.Reset()
			}
		}
	}
}
