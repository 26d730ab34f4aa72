// Package bus coalesces tablet telemetry and strummer events into a single
// rate-limited stream for consumers that cannot keep up with the raw sample
// rate (UI redraw, network clients). Latency-critical consumers such as the
// MIDI backend take strummer output directly and never go through here.
package bus

import (
	"sync"
	"time"

	"go-strum/strum"
	"go-strum/tablet"
)

// CombinedEvent is the composite record broadcast to subscribers: the last
// known telemetry state plus an optional strum or release that arrived
// since the previous flush.
type CombinedEvent struct {
	tablet.Sample
	Strum *strum.Event `json:"strum,omitempty"`
}

// Bus is a throttled coalescing broadcaster. With a throttle of 0 every
// event is dispatched synchronously; otherwise a single mutable buffer
// holds the latest telemetry ("latest sample wins") and any pending strum,
// and a ticker flushes it at the throttle cadence.
//
// Producers and the flush loop share the buffer and dirty flag; one mutex
// guards both.
type Bus struct {
	mu       sync.Mutex
	throttle time.Duration
	buffer   *CombinedEvent // lazily created on the first event after resume
	dirty    bool
	paused   bool
	cleaned  bool
	stopChan chan struct{} // non-nil while the flush loop runs

	tabletSubs   *subscribers[tablet.Sample]
	strumSubs    *subscribers[strum.Event]
	combinedSubs *subscribers[CombinedEvent]
}

// New creates a bus flushing at the given cadence. 0 disables throttling.
func New(throttle time.Duration) *Bus {
	b := &Bus{
		throttle:     throttle,
		tabletSubs:   newSubscribers[tablet.Sample](),
		strumSubs:    newSubscribers[strum.Event](),
		combinedSubs: newSubscribers[CombinedEvent](),
	}
	b.mu.Lock()
	b.startLoopLocked()
	b.mu.Unlock()
	return b
}

// OnTabletEvent registers a telemetry subscriber
func (b *Bus) OnTabletEvent(fn func(tablet.Sample)) func() {
	return b.tabletSubs.subscribe(fn)
}

// OnStrumEvent registers a strum/release subscriber
func (b *Bus) OnStrumEvent(fn func(strum.Event)) func() {
	return b.strumSubs.subscribe(fn)
}

// OnCombinedEvent registers a subscriber for the composite record
func (b *Bus) OnCombinedEvent(fn func(CombinedEvent)) func() {
	return b.combinedSubs.subscribe(fn)
}

// EmitTabletEvent submits the latest telemetry sample. In throttled mode
// it overwrites the buffered telemetry; a pending strum is left in place.
// In immediate mode a strum still buffered from a throttled period rides
// along on the composite exactly once.
func (b *Bus) EmitTabletEvent(s tablet.Sample) {
	b.mu.Lock()
	if b.paused || b.cleaned {
		b.mu.Unlock()
		return
	}
	b.ensureBufferLocked()
	b.buffer.Sample = s
	b.dirty = true
	immediate := b.throttle == 0
	var snapshot CombinedEvent
	if immediate {
		snapshot = *b.buffer
		b.buffer.Strum = nil
		b.dirty = false
	}
	b.mu.Unlock()

	if immediate {
		b.tabletSubs.dispatch(s)
		if snapshot.Strum != nil {
			b.strumSubs.dispatch(*snapshot.Strum)
		}
		b.combinedSubs.dispatch(snapshot)
	}
}

// EmitStrumEvent attaches a strum/release to the next outgoing composite.
// It stays in the buffer until flushed, so telemetry-only updates in
// between cannot drop it.
func (b *Bus) EmitStrumEvent(e strum.Event) {
	b.mu.Lock()
	if b.paused || b.cleaned {
		b.mu.Unlock()
		return
	}
	b.ensureBufferLocked()
	evt := e
	b.buffer.Strum = &evt
	b.dirty = true
	immediate := b.throttle == 0
	var snapshot CombinedEvent
	if immediate {
		snapshot = *b.buffer
		b.buffer.Strum = nil
		b.dirty = false
	}
	b.mu.Unlock()

	if immediate {
		b.strumSubs.dispatch(e)
		b.combinedSubs.dispatch(snapshot)
	}
}

// Pause stops the flush loop and discards the buffer. Safe to call when
// already paused.
func (b *Bus) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused || b.cleaned {
		return
	}
	b.paused = true
	b.buffer = nil
	b.dirty = false
	b.stopLoopLocked()
}

// Resume restarts delivery with an empty buffer. Safe to call when already
// active.
func (b *Bus) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.paused || b.cleaned {
		return
	}
	b.paused = false
	b.startLoopLocked()
}

// Throttle returns the current flush cadence
func (b *Bus) Throttle() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.throttle
}

// SetThrottle changes the flush cadence. The loop restarts at the new
// period; unflushed buffered data is kept.
func (b *Bus) SetThrottle(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cleaned || d == b.throttle {
		b.throttle = d
		return
	}
	b.throttle = d
	b.stopLoopLocked()
	b.startLoopLocked()
}

// Cleanup tears down the flush loop, buffer and all subscribers. Safe to
// call multiple times; the bus is unusable afterwards.
func (b *Bus) Cleanup() {
	b.mu.Lock()
	if b.cleaned {
		b.mu.Unlock()
		return
	}
	b.cleaned = true
	b.buffer = nil
	b.dirty = false
	b.stopLoopLocked()
	b.mu.Unlock()

	b.tabletSubs.clear()
	b.strumSubs.clear()
	b.combinedSubs.clear()
}

// ensureBufferLocked lazily creates the outgoing buffer; it survives until
// the next pause so flushes always carry the last known telemetry.
func (b *Bus) ensureBufferLocked() {
	if b.buffer == nil {
		b.buffer = &CombinedEvent{}
	}
}

func (b *Bus) startLoopLocked() {
	if b.stopChan != nil || b.throttle <= 0 || b.paused || b.cleaned {
		return
	}
	b.stopChan = make(chan struct{})
	go b.flushLoop(b.stopChan, b.throttle)
}

func (b *Bus) stopLoopLocked() {
	if b.stopChan != nil {
		close(b.stopChan)
		b.stopChan = nil
	}
}

func (b *Bus) flushLoop(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

// flush dispatches the buffered state if anything arrived since the last
// flush, then clears only the strum field; telemetry stays so the next
// flush still reflects last known pen state.
func (b *Bus) flush() {
	b.mu.Lock()
	if !b.dirty || b.buffer == nil || b.paused || b.cleaned {
		b.mu.Unlock()
		return
	}
	snapshot := *b.buffer
	b.buffer.Strum = nil
	b.dirty = false
	b.mu.Unlock()

	b.tabletSubs.dispatch(snapshot.Sample)
	if snapshot.Strum != nil {
		b.strumSubs.dispatch(*snapshot.Strum)
	}
	b.combinedSubs.dispatch(snapshot)
}
