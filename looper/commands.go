package looper

import "fmt"

// CommandQueueSize bounds both command queues
const CommandQueueSize = 5

// LoopCommandKind selects what a LoopCommand does
type LoopCommandKind uint8

const (
	CmdToggleLoop LoopCommandKind = iota
	CmdStopRecording
)

// LoopCommand is consumed by the Engine. Index is only used by CmdToggleLoop
type LoopCommand struct {
	Kind  LoopCommandKind
	Index int
}

func (c LoopCommand) String() string {
	switch c.Kind {
	case CmdToggleLoop:
		return fmt.Sprintf("toggle loop %d", c.Index)
	case CmdStopRecording:
		return "stop recording"
	default:
		return fmt.Sprintf("loop command %d", c.Kind)
	}
}

// EffectCommand is consumed by Playback
type EffectCommand uint8

const (
	CmdToggleCompression EffectCommand = iota
	CmdToggleDistortion
)

func (c EffectCommand) String() string {
	switch c {
	case CmdToggleCompression:
		return "toggle compression"
	case CmdToggleDistortion:
		return "toggle distortion"
	default:
		return fmt.Sprintf("effect command %d", uint8(c))
	}
}

// Controls is the sending side of both command queues. It is safe for
// concurrent use; sends never block
type Controls struct {
	loops   chan<- LoopCommand
	effects chan<- EffectCommand
}

// SendLoop queues a loop command, or returns ErrQueueFull
func (c *Controls) SendLoop(cmd LoopCommand) error {
	select {
	case c.loops <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, cmd)
	}
}

// SendEffect queues an effect command, or returns ErrQueueFull
func (c *Controls) SendEffect(cmd EffectCommand) error {
	select {
	case c.effects <- cmd:
		return nil
	default:
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, cmd)
	}
}

func (c *Controls) ToggleLoop(index int) error {
	return c.SendLoop(LoopCommand{Kind: CmdToggleLoop, Index: index})
}

func (c *Controls) StopRecording() error {
	return c.SendLoop(LoopCommand{Kind: CmdStopRecording})
}

func (c *Controls) ToggleCompression() error {
	return c.SendEffect(CmdToggleCompression)
}

func (c *Controls) ToggleDistortion() error {
	return c.SendEffect(CmdToggleDistortion)
}
