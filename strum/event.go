package strum

import (
	"encoding/json"
	"time"

	"go-strum/notes"
)

// Kind discriminates the two event shapes
type Kind int

const (
	KindStrum Kind = iota
	KindRelease
)

func (k Kind) String() string {
	if k == KindRelease {
		return "release"
	}
	return "strum"
}

// StrumNote is a note paired with the velocity it was struck at
type StrumNote struct {
	Note     notes.Note
	Velocity int
}

// Event is a discrete musical event: either a strum (one or more notes,
// ordered in the direction of travel) or a release. Exactly one shape.
type Event struct {
	Kind      Kind
	Notes     []StrumNote // strum only
	Velocity  int
	Timestamp time.Time
}

// Wire shapes (see the combined record consumed by network clients)

type wireNote struct {
	Notation string `json:"notation"`
	Octave   int    `json:"octave"`
	MIDINote int    `json:"midiNote"`
}

type wireStrumNote struct {
	Note     wireNote `json:"note"`
	Velocity int      `json:"velocity"`
}

type wireEvent struct {
	Type      string          `json:"type"`
	Notes     []wireStrumNote `json:"notes,omitempty"`
	Velocity  int             `json:"velocity"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		Type:      e.Kind.String(),
		Velocity:  e.Velocity,
		Timestamp: e.Timestamp,
	}
	for _, sn := range e.Notes {
		w.Notes = append(w.Notes, wireStrumNote{
			Note: wireNote{
				Notation: sn.Note.Notation,
				Octave:   sn.Note.Octave,
				MIDINote: sn.Note.MIDINote(),
			},
			Velocity: sn.Velocity,
		})
	}
	return json.Marshal(w)
}
