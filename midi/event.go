package midi

import "fmt"

// Event types
const (
	NoteOn uint8 = 0x90
	CC     uint8 = 0xB0
	Pad    uint8 = 0xF0 // grid pad or top row button, Row/Col are set
)

// Event is a decoded input message
type Event struct {
	Type    uint8
	Channel uint8
	Note    uint8 // note or controller number
	Value   uint8 // velocity or controller value
	Row     int   // Pad only
	Col     int   // Pad only
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("note-on ch=%d key=%d vel=%d", e.Channel, e.Note, e.Value)
	case CC:
		return fmt.Sprintf("cc ch=%d ctrl=%d val=%d", e.Channel, e.Note, e.Value)
	case Pad:
		return fmt.Sprintf("pad row=%d col=%d vel=%d", e.Row, e.Col, e.Value)
	default:
		return fmt.Sprintf("event 0x%02x", e.Type)
	}
}
