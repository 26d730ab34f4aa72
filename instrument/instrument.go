// Package instrument assembles the playable instrument: a strummer fed by
// a tablet sample source, a MIDI backend listening to it directly, and the
// throttled bus fanning telemetry and events out to everything else.
package instrument

import (
	"context"
	"sync"
	"time"

	"go-strum/bus"
	"go-strum/config"
	"go-strum/debug"
	"go-strum/notes"
	"go-strum/strum"
	"go-strum/tablet"
)

// Instrument owns the core pipeline. Feed runs on the sample path; UI and
// reconfiguration calls arrive from other goroutines, so one mutex guards
// the strummer and config.
type Instrument struct {
	mu       sync.Mutex
	cfg      *config.Config
	strummer *strum.Strummer
	eventBus *bus.Bus

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// New builds an instrument from config. Nothing is connected to MIDI or
// the network yet; see the strummer and bus accessors.
func New(cfg *config.Config) *Instrument {
	s := strum.NewStrummer()
	s.Configure(cfg.Strum.VelocityScale, cfg.Strum.PressureThreshold)
	if cfg.Strum.BufferSamples > 0 {
		s.SetBufferMax(cfg.Strum.BufferSamples)
	}
	s.UpdateBounds(1.0, 1.0)
	s.SetNotes(cfg.NoteSet())

	inst := &Instrument{
		cfg:        cfg,
		strummer:   s,
		eventBus:   bus.New(cfg.Throttle()),
		UpdateChan: make(chan struct{}, 1),
	}

	// Everything that tolerates throttling reads from the bus
	s.OnStrum(inst.eventBus.EmitStrumEvent)
	s.OnRelease(inst.eventBus.EmitStrumEvent)

	return inst
}

// Strummer exposes the classifier for direct (unthrottled) consumers
func (inst *Instrument) Strummer() *strum.Strummer {
	return inst.strummer
}

// Bus exposes the throttled event stream
func (inst *Instrument) Bus() *bus.Bus {
	return inst.eventBus
}

// Config returns a copy of the current configuration
func (inst *Instrument) Config() config.Config {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return *inst.cfg
}

// Notes returns the current note set
func (inst *Instrument) Notes() []notes.Note {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.strummer.Notes()
}

// Diagnostics returns the classifier internals for display
func (inst *Instrument) Diagnostics() strum.Diagnostics {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.strummer.Diagnostics()
}

// Feed pushes one telemetry sample through the pipeline: raw telemetry to
// the bus, position+pressure to the classifier
func (inst *Instrument) Feed(s tablet.Sample) {
	inst.eventBus.EmitTabletEvent(s)

	inst.mu.Lock()
	inst.strummer.Strum(s.X, s.Pressure)
	inst.mu.Unlock()

	debug.LogEvery(100, "sample", "x=%.3f y=%.3f p=%.3f state=%s", s.X, s.Y, s.Pressure, s.State)

	inst.notifyUpdate()
}

// Run consumes a sample source until it is exhausted or the context ends
func (inst *Instrument) Run(ctx context.Context, src tablet.Source) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-src.Samples():
			if !ok {
				return
			}
			inst.Feed(s)
		}
	}
}

// SetChord retunes the string zones. Gesture state survives, matching the
// classifier's note-swap behavior.
func (inst *Instrument) SetChord(root string, octave int, quality notes.Quality) {
	inst.mu.Lock()
	inst.cfg.Chord = config.ChordConfig{Root: root, Octave: octave, Quality: quality}
	inst.strummer.SetNotes(inst.cfg.NoteSet())
	inst.mu.Unlock()

	debug.Log("chord", "%s%d %s", root, octave, quality)
	inst.notifyUpdate()
}

// SetStrings changes how many zones the surface is split into
func (inst *Instrument) SetStrings(n int) {
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	inst.mu.Lock()
	inst.cfg.Strum.Strings = n
	inst.strummer.SetNotes(inst.cfg.NoteSet())
	inst.mu.Unlock()
	inst.notifyUpdate()
}

// SetThrottle changes the bus flush cadence
func (inst *Instrument) SetThrottle(d time.Duration) {
	inst.mu.Lock()
	inst.cfg.Output.ThrottleMs = int(d / time.Millisecond)
	inst.mu.Unlock()
	inst.eventBus.SetThrottle(d)
	inst.notifyUpdate()
}

// Silence force-resets the gesture so nothing is left sounding
func (inst *Instrument) Silence() {
	inst.mu.Lock()
	inst.strummer.ClearStrum()
	inst.mu.Unlock()
	inst.notifyUpdate()
}

// Close tears down the bus; direct consumers unhook themselves
func (inst *Instrument) Close() {
	inst.eventBus.Cleanup()
}

func (inst *Instrument) notifyUpdate() {
	select {
	case inst.UpdateChan <- struct{}{}:
	default:
	}
}
