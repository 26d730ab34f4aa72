package notes

import "fmt"

// Notation names for the 12 pitch classes, sharps only
var notations = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// pitchClass maps a notation back to its semitone offset from C
var pitchClass = map[string]int{}

func init() {
	for i, n := range notations {
		pitchClass[n] = i
	}
}

// Note is an immutable note identifier: a pitch class name plus an octave.
// Secondary marks notes that were generated by spreading a chord across
// strings rather than being members of the original chord.
type Note struct {
	Notation  string `json:"notation"`
	Octave    int    `json:"octave"`
	Secondary bool   `json:"secondary,omitempty"`
}

// NewNote creates a note from a notation and octave.
// Unknown notations fall back to C.
func NewNote(notation string, octave int) Note {
	if _, ok := pitchClass[notation]; !ok {
		notation = "C"
	}
	return Note{Notation: notation, Octave: octave}
}

// FromMIDI converts a MIDI note number to a Note (C4 = 60)
func FromMIDI(midiNote int) Note {
	if midiNote < 0 {
		midiNote = 0
	}
	if midiNote > 127 {
		midiNote = 127
	}
	return Note{
		Notation: notations[midiNote%12],
		Octave:   midiNote/12 - 1,
	}
}

// MIDINote returns the MIDI note number (C4 = 60 convention)
func (n Note) MIDINote() int {
	return (n.Octave+1)*12 + pitchClass[n.Notation]
}

// Transpose returns the note shifted by the given number of semitones.
// The Secondary flag is preserved.
func (n Note) Transpose(semitones int) Note {
	t := FromMIDI(n.MIDINote() + semitones)
	t.Secondary = n.Secondary
	return t
}

func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Notation, n.Octave)
}
