// Package control turns controller input into looper commands and renders
// looper state back onto the Launchpad
package control

import (
	"fmt"

	"go-looper/config"
	"go-looper/looper"
	"go-looper/midi"
)

// Target receives commands. *looper.Controls is the production Target
type Target interface {
	SendLoop(cmd looper.LoopCommand) error
	SendEffect(cmd looper.EffectCommand) error
}

// Top row buttons
const (
	ButtonStop        = 0
	ButtonCompression = 1
	ButtonDistortion  = 2
)

// GridLoops is the number of loops reachable from the 8x8 grid
const GridLoops = 64

// Action is a resolved command. Exactly one of Loop or Effect is set
type Action struct {
	Loop   *looper.LoopCommand
	Effect *looper.EffectCommand
}

func (a Action) String() string {
	switch {
	case a.Loop != nil:
		return a.Loop.String()
	case a.Effect != nil:
		return a.Effect.String()
	default:
		return "none"
	}
}

// Mapping resolves events to actions
type Mapping struct {
	LoopBaseKey    uint8
	NumLoops       int
	CompressionKey uint8
	DistortionKey  uint8
	StopPedalCC    uint8
}

// NewMapping builds a mapping from validated controls config
func NewMapping(c config.ControlsConfig, numLoops int) Mapping {
	return Mapping{
		LoopBaseKey:    uint8(c.LoopBaseKey),
		NumLoops:       numLoops,
		CompressionKey: uint8(c.CompressionKey),
		DistortionKey:  uint8(c.DistortionKey),
		StopPedalCC:    uint8(c.StopPedalCC),
	}
}

// Resolve returns the action for ev, if any. Effect keys win over the loop
// key range when they overlap
func (m Mapping) Resolve(ev midi.Event) (Action, bool) {
	switch ev.Type {
	case midi.NoteOn:
		switch {
		case ev.Note == m.CompressionKey:
			return effect(looper.CmdToggleCompression), true
		case ev.Note == m.DistortionKey:
			return effect(looper.CmdToggleDistortion), true
		case ev.Note >= m.LoopBaseKey && int(ev.Note-m.LoopBaseKey) < m.NumLoops:
			return toggle(int(ev.Note - m.LoopBaseKey)), true
		}

	case midi.CC:
		// pedal released
		if ev.Note == m.StopPedalCC && ev.Value <= 63 {
			return stop(), true
		}

	case midi.Pad:
		if ev.Row == 8 {
			switch ev.Col {
			case ButtonStop:
				return stop(), true
			case ButtonCompression:
				return effect(looper.CmdToggleCompression), true
			case ButtonDistortion:
				return effect(looper.CmdToggleDistortion), true
			}
			return Action{}, false
		}
		if idx, ok := PadLoop(ev.Row, ev.Col); ok && idx < m.NumLoops {
			return toggle(idx), true
		}
	}
	return Action{}, false
}

// Dispatch resolves ev and sends the action to t. It reports whether ev
// mapped to anything
func (m Mapping) Dispatch(ev midi.Event, t Target) (bool, error) {
	a, ok := m.Resolve(ev)
	if !ok {
		return false, nil
	}
	switch {
	case a.Loop != nil:
		return true, t.SendLoop(*a.Loop)
	case a.Effect != nil:
		return true, t.SendEffect(*a.Effect)
	}
	return false, fmt.Errorf("empty action for %s", ev)
}

// PadLoop maps a grid pad to a loop index, top-left first
func PadLoop(row, col int) (int, bool) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return 0, false
	}
	return (7-row)*8 + col, true
}

// LoopPad is the inverse of PadLoop
func LoopPad(idx int) (row, col int, ok bool) {
	if idx < 0 || idx >= GridLoops {
		return 0, 0, false
	}
	return 7 - idx/8, idx % 8, true
}

func toggle(idx int) Action {
	return Action{Loop: &looper.LoopCommand{Kind: looper.CmdToggleLoop, Index: idx}}
}

func stop() Action {
	return Action{Loop: &looper.LoopCommand{Kind: looper.CmdStopRecording}}
}

func effect(cmd looper.EffectCommand) Action {
	return Action{Effect: &cmd}
}
