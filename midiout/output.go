// Package midiout is the sound backend: it turns strummer events into MIDI
// note messages on a real output port. It subscribes to the strummer
// directly rather than through the event bus, so note-on latency is not
// subject to throttling.
package midiout

import (
	"fmt"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"go-strum/debug"
	"go-strum/strum"
)

// Output sends strum and release events to a MIDI out port
type Output struct {
	mu       sync.Mutex
	portName string
	send     func(gomidi.Message) error
	channel  uint8
	sounding map[uint8]bool // note numbers currently on
}

// ListPorts returns the names of all MIDI output ports
func ListPorts() []string {
	var names []string
	for _, port := range gomidi.GetOutPorts() {
		names = append(names, port.String())
	}
	return names
}

// Open connects to the named output port. An empty name picks the first
// available port; a non-empty name matches case-insensitively on substring
// (ALSA/CoreMIDI decorate port names).
func Open(portName string) (*Output, error) {
	ports := gomidi.GetOutPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI output ports available")
	}

	idx := 0
	if portName != "" {
		idx = -1
		want := strings.ToLower(portName)
		for i, port := range ports {
			if strings.Contains(strings.ToLower(port.String()), want) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("MIDI port %q not found", portName)
		}
	}

	send, err := gomidi.SendTo(ports[idx])
	if err != nil {
		return nil, fmt.Errorf("open port %s: %w", ports[idx], err)
	}

	debug.Log("midi", "opened output port %s", ports[idx])
	return &Output{
		portName: ports[idx].String(),
		send:     send,
		sounding: make(map[uint8]bool),
	}, nil
}

// PortName returns the resolved name of the open port
func (o *Output) PortName() string {
	return o.portName
}

// SetChannel sets the MIDI channel (0-15) for subsequent messages
func (o *Output) SetChannel(ch uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ch > 15 {
		ch = 15
	}
	o.channel = ch
}

// Handle routes a strummer event to the port
func (o *Output) Handle(e strum.Event) {
	switch e.Kind {
	case strum.KindStrum:
		o.HandleStrum(e)
	case strum.KindRelease:
		o.HandleRelease(e)
	}
}

// HandleStrum sends NoteOn for every note in the strum
func (o *Output) HandleStrum(e strum.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return
	}
	for _, sn := range e.Notes {
		n := uint8(sn.Note.MIDINote())
		if o.sounding[n] {
			// retrigger: off first so the attack is audible
			o.send(gomidi.NoteOff(o.channel, n))
		}
		o.send(gomidi.NoteOn(o.channel, n, uint8(sn.Velocity)))
		o.sounding[n] = true
		debug.Log("midi", "note on %s vel=%d", sn.Note, sn.Velocity)
	}
}

// HandleRelease sends NoteOff for everything sounding
func (o *Output) HandleRelease(e strum.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.silenceLocked()
	debug.Log("midi", "release vel=%d", e.Velocity)
}

// Close silences any sounding notes and drops the sender
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return nil
	}
	o.silenceLocked()
	o.send = nil
	return nil
}

func (o *Output) silenceLocked() {
	if o.send == nil {
		return
	}
	for n := range o.sounding {
		o.send(gomidi.NoteOff(o.channel, n))
	}
	o.sounding = make(map[uint8]bool)
}
