package looper

import "fmt"

// StatusKind is the state of one loop register
type StatusKind uint8

const (
	Empty StatusKind = iota
	Off
	On
	RecordStart
	Recording
	RecordEnd

	numStatusKinds
)

var statusNames = [numStatusKinds]string{
	Empty:       "empty",
	Off:         "off",
	On:          "on",
	RecordStart: "record-start",
	Recording:   "recording",
	RecordEnd:   "record-end",
}

func (k StatusKind) String() string {
	if k < numStatusKinds {
		return statusNames[k]
	}
	return fmt.Sprintf("status(%d)", uint8(k))
}

// Status is a loop's state. Offset is the measure that plays next and is
// only meaningful when Kind is On
type Status struct {
	Kind   StatusKind
	Offset int
}

func (s Status) String() string {
	if s.Kind == On {
		return fmt.Sprintf("on(%d)", s.Offset)
	}
	return s.Kind.String()
}

// Busy reports whether the loop is part of an active recording
func (s Status) Busy() bool {
	return s.Kind == RecordStart || s.Kind == Recording || s.Kind == RecordEnd
}

// Event drives a loop from one status to the next
type Event uint8

const (
	EventToggle Event = iota // ToggleLoop command
	EventStop                // StopRecording command
	EventTick                // measure boundary
	EventFinish              // closing tick seen while finishing a recording

	numEvents
)

var eventNames = [numEvents]string{
	EventToggle: "toggle",
	EventStop:   "stop",
	EventTick:   "tick",
	EventFinish: "finish",
}

func (e Event) String() string {
	if e < numEvents {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Outcome says what the engine does with a transition
type Outcome uint8

const (
	Ignore    Outcome = iota // nothing to do, report when user-initiated
	Apply                    // move to the next status
	Busy                     // rejected because the loop is recording
	Violation                // clocks have desynchronized, fatal
)

func (o Outcome) String() string {
	switch o {
	case Ignore:
		return "ignore"
	case Apply:
		return "apply"
	case Busy:
		return "busy"
	case Violation:
		return "violation"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

type transition struct {
	next    StatusKind
	outcome Outcome
}

// transitions is the complete loop state machine. Every status has an entry
// for every event
var transitions = [numStatusKinds][numEvents]transition{
	Empty: {
		EventToggle: {RecordStart, Apply},
		EventStop:   {Empty, Ignore},
		EventTick:   {Empty, Ignore},
		EventFinish: {Empty, Violation},
	},
	Off: {
		EventToggle: {On, Apply},
		EventStop:   {Off, Ignore},
		EventTick:   {Off, Ignore},
		EventFinish: {Off, Violation},
	},
	On: {
		EventToggle: {Off, Apply},
		EventStop:   {On, Ignore},
		EventTick:   {On, Ignore},
		EventFinish: {On, Violation},
	},
	RecordStart: {
		EventToggle: {RecordStart, Busy},
		EventStop:   {RecordStart, Ignore},
		EventTick:   {Recording, Apply},
		EventFinish: {RecordStart, Violation},
	},
	Recording: {
		EventToggle: {Recording, Busy},
		EventStop:   {RecordEnd, Apply},
		EventTick:   {Recording, Apply},
		EventFinish: {Recording, Violation},
	},
	RecordEnd: {
		EventToggle: {RecordEnd, Busy},
		EventStop:   {RecordEnd, Ignore},
		EventTick:   {RecordEnd, Violation},
		EventFinish: {On, Apply},
	},
}

// Transition looks up the next status for an event
func Transition(k StatusKind, e Event) (StatusKind, Outcome) {
	if k >= numStatusKinds || e >= numEvents {
		return k, Violation
	}
	tr := transitions[k][e]
	return tr.next, tr.outcome
}
