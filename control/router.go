package control

import (
	"context"
	"errors"
	"sync/atomic"

	"go-looper/debug"
	"go-looper/looper"
	"go-looper/midi"
)

// Router forwards controller events to a Target
type Router struct {
	mapping Mapping
	target  Target
	dropped atomic.Uint64
}

func NewRouter(m Mapping, t Target) *Router {
	return &Router{mapping: m, target: t}
}

// Handle dispatches one event. A full command queue is counted and
// returned, the performer just presses again
func (r *Router) Handle(ev midi.Event) error {
	ok, err := r.mapping.Dispatch(ev, r.target)
	if !ok {
		return nil
	}
	if errors.Is(err, looper.ErrQueueFull) {
		r.dropped.Add(1)
	}
	if err != nil {
		debug.Log("control", "%s: %v", ev, err)
		return err
	}
	debug.Log("control", "%s", ev)
	return nil
}

// Listen handles events from c until its event channel closes
func (r *Router) Listen(c midi.Controller) {
	for ev := range c.Events() {
		r.Handle(ev)
	}
	debug.Log("control", "%s closed", c.ID())
}

// Run listens to every controller the device manager connects
func (r *Router) Run(ctx context.Context, devices <-chan midi.DeviceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-devices:
			if !ok {
				return
			}
			switch ev.Type {
			case midi.DeviceConnected:
				debug.Log("control", "connected %s (%s)", ev.ID, ev.Controller.Type())
				go r.Listen(ev.Controller)
			case midi.DeviceDisconnected:
				debug.Log("control", "disconnected %s", ev.ID)
			}
		}
	}
}

// Dropped counts commands lost to a full queue
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}
