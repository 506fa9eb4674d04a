package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// PortRule overrides detection for one input port
type PortRule struct {
	Name string
	Type ControllerType // ControllerUnknown ignores the port
}

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	rules       map[string]ControllerType
	keyboards   bool
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
}

// NewDeviceManager creates a device manager. With keyboards set every
// input that is not a Launchpad is opened as a keyboard
func NewDeviceManager(keyboards bool, rules ...PortRule) *DeviceManager {
	dm := &DeviceManager{
		controllers: make(map[string]Controller),
		rules:       make(map[string]ControllerType),
		keyboards:   keyboards,
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
	for _, r := range rules {
		dm.rules[strings.ToLower(r.Name)] = r.Type
	}
	return dm
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

// classify decides what to open a port as
func (dm *DeviceManager) classify(name string) ControllerType {
	lower := strings.ToLower(name)
	if t, ok := dm.rules[lower]; ok {
		return t
	}
	if isLaunchpad(lower) {
		return ControllerLaunchpad
	}
	if strings.Contains(lower, "launchpad") {
		// DAW and DIN ports of a Launchpad
		return ControllerUnknown
	}
	if dm.keyboards && !isThrough(lower) {
		return ControllerKeyboard
	}
	return ControllerUnknown
}

func (dm *DeviceManager) scan() {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	// CoreMIDI can hang, never block the poll loop on it
	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var ports portsResult
	select {
	case ports = <-ch:
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return
	}

	seen := make(map[string]bool)
	for _, in := range ports.inPorts {
		id := in.String()
		kind := dm.classify(id)
		if kind == ControllerUnknown {
			continue
		}
		seen[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		c, err := dm.open(kind, in, ports.outPorts)
		if err != nil {
			debug.Log("midi", "open %s: %v", id, err)
			delete(seen, id)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		dm.events <- DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()
	for id, c := range dm.controllers {
		if seen[id] {
			continue
		}
		c.Close()
		delete(dm.controllers, id)
		dm.events <- DeviceEvent{Type: DeviceDisconnected, ID: id}
	}
}

func (dm *DeviceManager) open(kind ControllerType, in drivers.In, outs []drivers.Out) (Controller, error) {
	if kind == ControllerKeyboard {
		return NewKeyboardController(in.String(), in)
	}

	name := strings.ToLower(in.String())
	var out drivers.Out
	for _, op := range outs {
		if strings.ToLower(op.String()) == name {
			out = op
			break
		}
	}
	return NewLaunchpadController(in.String(), in, out)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

func isThrough(name string) bool {
	return strings.Contains(name, "through") || strings.Contains(name, "thru")
}
