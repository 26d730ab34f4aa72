package strum

import (
	"math"
	"time"

	"go-strum/notes"
)

// Phase is the gesture classification state
type Phase int

const (
	PhaseIdle      Phase = iota // pressure below threshold
	PhaseBuffering              // first tap detected, collecting pressure samples
	PhaseSustained              // a string is committed, pen still pressed
)

func (p Phase) String() string {
	switch p {
	case PhaseBuffering:
		return "buffering"
	case PhaseSustained:
		return "sustained"
	default:
		return "idle"
	}
}

// Velocity bounds (MIDI convention, floored at an audible minimum)
const (
	MinVelocity = 20
	MaxVelocity = 127
)

// DefaultBufferMax is how many at-threshold samples a tap buffers before
// committing a velocity
const DefaultBufferMax = 3

// Strummer classifies (x, pressure) samples into strum and release events.
// The surface is split into one vertical zone per note; pressure crossing
// the threshold on a zone strikes its note, sliding across zones while
// pressed sweeps the notes in between, and lifting off releases.
//
// All methods are meant to be called from a single goroutine: Strum runs
// once per decoded sample on the polling path and never blocks.
type Strummer struct {
	noteSet       []notes.Note
	width, height float64

	velocityScale     float64 // recorded, not currently applied to velocity
	pressureThreshold float64
	bufferMax         int

	// Gesture state, mutated only by Strum and ClearStrum
	phase        Phase
	lastX        float64
	lastIndex    int // last committed string, -1 when none
	lastPressure float64
	lastTime     time.Time
	hadSample    bool
	buffer       []float64
	bufferTarget int
	pendingIndex int // candidate string while buffering, -1 when none
	lastVelocity int

	// Rate of pressure change, per second. Tracked for inspection only.
	pressureVelocity float64

	strumSubs   *emitter
	releaseSubs *emitter
}

// NewStrummer creates a strummer with default thresholds and no notes bound
func NewStrummer() *Strummer {
	return &Strummer{
		width:             1,
		height:            1,
		velocityScale:     1,
		pressureThreshold: 0.1,
		bufferMax:         DefaultBufferMax,
		lastIndex:         -1,
		pendingIndex:      -1,
		buffer:            make([]float64, 0, DefaultBufferMax+1),
		strumSubs:         newEmitter(),
		releaseSubs:       newEmitter(),
	}
}

// Configure sets the velocity scale and pressure threshold. Gesture state
// is left alone.
func (s *Strummer) Configure(velocityScale, pressureThreshold float64) {
	s.velocityScale = velocityScale
	s.pressureThreshold = clamp01(pressureThreshold)
}

// SetBufferMax sets how many pressed samples a tap buffers before the
// velocity commits. Values below 1 are treated as 1.
func (s *Strummer) SetBufferMax(n int) {
	if n < 1 {
		n = 1
	}
	s.bufferMax = n
	s.buffer = make([]float64, 0, n+1)
}

// SetNotes replaces the note set. One string zone per note; gesture state
// is not reset.
func (s *Strummer) SetNotes(ns []notes.Note) {
	s.noteSet = append(s.noteSet[:0:0], ns...)
}

// Notes returns the current note set
func (s *Strummer) Notes() []notes.Note {
	return s.noteSet
}

// UpdateBounds sets the logical surface dimensions string positions are
// computed against
func (s *Strummer) UpdateBounds(width, height float64) {
	s.width = width
	s.height = height
}

// OnStrum registers a strum subscriber and returns an idempotent
// unsubscribe handle
func (s *Strummer) OnStrum(fn func(Event)) func() {
	return s.strumSubs.subscribe(fn)
}

// OnRelease registers a release subscriber and returns an idempotent
// unsubscribe handle
func (s *Strummer) OnRelease(fn func(Event)) func() {
	return s.releaseSubs.subscribe(fn)
}

// Strum feeds one sample through the classifier. It returns the resulting
// event, or nil when the sample caused no transition. With an empty note
// set every call is a no-op returning nil; this is the unbound state, not
// an error.
func (s *Strummer) Strum(x, pressure float64) *Event {
	if len(s.noteSet) == 0 {
		return nil
	}

	now := time.Now()
	if s.hadSample {
		if dt := now.Sub(s.lastTime).Seconds(); dt > 0 {
			s.pressureVelocity = (pressure - s.lastPressure) / dt
		}
	}

	idx := s.stringIndex(x)
	wasHigh := s.hadSample && s.lastPressure >= s.pressureThreshold
	isHigh := pressure >= s.pressureThreshold

	var evt *Event
	switch {
	case wasHigh && !isHigh:
		// Falling edge: back to idle, release if something was sounding
		evt = s.fall(now)

	case isHigh && s.pendingIndex >= 0:
		// Tap in progress: keep buffering against the pending string even
		// if the position has drifted to a neighbor
		evt = s.fillBuffer(pressure, now)

	case isHigh && !wasHigh && (s.lastIndex < 0 || idx != s.lastIndex):
		// Rising edge onto a new or first string: start buffering
		s.beginBuffer(idx, pressure)

	case isHigh && wasHigh && s.lastIndex >= 0 && idx != s.lastIndex:
		// Continuous motion across zones while pressed
		evt = s.sweep(idx, pressure, now)
	}

	s.lastX = x
	s.lastPressure = pressure
	s.lastTime = now
	s.hadSample = true

	if evt != nil {
		s.publish(*evt)
	}
	return evt
}

// ClearStrum force-resets all gesture state to idle. No event is emitted.
func (s *Strummer) ClearStrum() {
	s.phase = PhaseIdle
	s.lastX = 0
	s.lastIndex = -1
	s.lastPressure = 0
	s.lastTime = time.Time{}
	s.hadSample = false
	s.buffer = s.buffer[:0]
	s.bufferTarget = 0
	s.pendingIndex = -1
	s.lastVelocity = 0
	s.pressureVelocity = 0
}

// Diagnostics is a read-only snapshot of classifier internals for display
type Diagnostics struct {
	Phase            Phase
	PressureVelocity float64
	LastIndex        int
	PendingIndex     int
	BufferLen        int
	LastVelocity     int
}

// Diagnostics returns the current classifier internals
func (s *Strummer) Diagnostics() Diagnostics {
	return Diagnostics{
		Phase:            s.phase,
		PressureVelocity: s.pressureVelocity,
		LastIndex:        s.lastIndex,
		PendingIndex:     s.pendingIndex,
		BufferLen:        len(s.buffer),
		LastVelocity:     s.lastVelocity,
	}
}

// stringIndex maps an x position to a string zone, clamped to the valid
// range so out-of-bounds positions land on the edge strings
func (s *Strummer) stringIndex(x float64) int {
	n := len(s.noteSet)
	if s.width <= 0 {
		return 0
	}
	idx := int(math.Floor(x / (s.width / float64(n))))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func (s *Strummer) noteAt(i int) notes.Note {
	if i < 0 {
		i = 0
	}
	if i >= len(s.noteSet) {
		i = len(s.noteSet) - 1
	}
	return s.noteSet[i]
}

// fall handles the falling edge. This is the only path that can emit a
// release.
func (s *Strummer) fall(now time.Time) *Event {
	vel := s.lastVelocity
	s.phase = PhaseIdle
	s.lastIndex = -1
	s.pendingIndex = -1
	s.buffer = s.buffer[:0]
	s.bufferTarget = 0
	s.lastVelocity = 0
	if vel == 0 {
		// Nothing was committed, e.g. the tap never finished buffering
		return nil
	}
	return &Event{Kind: KindRelease, Velocity: vel, Timestamp: now}
}

// beginBuffer starts the tap-velocity buffering phase. When a prior
// sub-threshold sample exists it is kept at the head of the buffer so the
// initial attack slope survives; slow-ramping sensors would otherwise
// report an artificially soft first reading. The pre-transition sample
// does not count toward the buffer capacity.
func (s *Strummer) beginBuffer(idx int, pressure float64) {
	s.buffer = s.buffer[:0]
	target := s.bufferMax
	if s.hadSample {
		s.buffer = append(s.buffer, s.lastPressure)
		target++
	}
	s.buffer = append(s.buffer, pressure)
	s.bufferTarget = target
	s.pendingIndex = idx
	s.phase = PhaseBuffering
}

// fillBuffer appends a sample to the tap buffer and commits the strum on
// the sample that fills it. Velocity comes from the final sample alone:
// how hard the pen is pressing now, not a smoothed average.
func (s *Strummer) fillBuffer(pressure float64, now time.Time) *Event {
	s.buffer = append(s.buffer, pressure)
	if len(s.buffer) < s.bufferTarget {
		return nil
	}

	span := 1 - s.pressureThreshold
	norm := 1.0
	if span > 0 {
		norm = clamp01((pressure - s.pressureThreshold) / span)
	}
	vel := clampVelocity(int(MinVelocity + norm*107))

	idx := s.pendingIndex
	s.lastIndex = idx
	s.pendingIndex = -1
	s.buffer = s.buffer[:0]
	s.bufferTarget = 0
	s.lastVelocity = vel
	s.phase = PhaseSustained

	return &Event{
		Kind:      KindStrum,
		Notes:     []StrumNote{{Note: s.noteAt(idx), Velocity: vel}},
		Velocity:  vel,
		Timestamp: now,
	}
}

// sweep emits every note between the committed string and the new one,
// exclusive of the origin, inclusive of the destination, ordered in the
// direction of travel. No buffering here: it only applies to the first tap
// of a gesture.
func (s *Strummer) sweep(idx int, pressure float64, now time.Time) *Event {
	vel := clampVelocity(int(pressure * 127))

	var ns []StrumNote
	if idx > s.lastIndex {
		for i := s.lastIndex + 1; i <= idx; i++ {
			ns = append(ns, StrumNote{Note: s.noteAt(i), Velocity: vel})
		}
	} else {
		for i := s.lastIndex - 1; i >= idx; i-- {
			ns = append(ns, StrumNote{Note: s.noteAt(i), Velocity: vel})
		}
	}

	s.lastIndex = idx
	s.lastVelocity = vel
	s.phase = PhaseSustained

	return &Event{Kind: KindStrum, Notes: ns, Velocity: vel, Timestamp: now}
}

func (s *Strummer) publish(evt Event) {
	switch evt.Kind {
	case KindStrum:
		s.strumSubs.dispatch(evt)
	case KindRelease:
		s.releaseSubs.dispatch(evt)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampVelocity(v int) int {
	if v < MinVelocity {
		return MinVelocity
	}
	if v > MaxVelocity {
		return MaxVelocity
	}
	return v
}
