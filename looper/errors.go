package looper

import "errors"

var (
	// ErrConfig reports invalid session settings or seed audio. Startup only
	ErrConfig = errors.New("invalid session config")

	// ErrProtocol means the playback stage and the engine disagree about the
	// clock. Audio past this point would be corrupt, so it is fatal
	ErrProtocol = errors.New("clock protocol violation")

	// ErrStreamFull is returned when the clocked sample queue has no room
	ErrStreamFull = errors.New("clocked sample queue full")

	// ErrMixFull is returned when the mixed audio queue has no room
	ErrMixFull = errors.New("mixed audio queue full")

	// ErrUnderrun means the engine did not mix a block in time
	ErrUnderrun = errors.New("mixed audio underrun")

	// ErrBlockSize is returned when Process gets a block of the wrong size
	ErrBlockSize = errors.New("unexpected block size")

	// ErrQueueFull is returned by Controls when a command queue is full
	ErrQueueFull = errors.New("command queue full")
)
