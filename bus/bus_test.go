package bus

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go-strum/notes"
	"go-strum/strum"
	"go-strum/tablet"
)

// Throttled tests use a short interval and generous sleeps; the properties
// checked are counts, not exact timings.
const (
	testThrottle = 25 * time.Millisecond
	settle       = 150 * time.Millisecond
)

// collector records combined events thread-safely
type collector struct {
	mu     sync.Mutex
	events []CombinedEvent
}

func (c *collector) add(e CombinedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []CombinedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CombinedEvent(nil), c.events...)
}

func sampleAt(x float64) tablet.Sample {
	return tablet.Sample{X: x, Y: 0.5, Pressure: 0.4, State: tablet.StateContact, Timestamp: time.Now()}
}

func testStrumEvent() strum.Event {
	return strum.Event{
		Kind:      strum.KindStrum,
		Notes:     []strum.StrumNote{{Note: notes.NewNote("E", 4), Velocity: 90}},
		Velocity:  90,
		Timestamp: time.Now(),
	}
}

func TestThrottledCoalescesToLatest(t *testing.T) {
	b := New(testThrottle)
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)

	for i := 1; i <= 5; i++ {
		b.EmitTabletEvent(sampleAt(float64(i) / 10))
	}
	time.Sleep(settle)

	events := got.snapshot()
	if len(events) != 1 {
		t.Fatalf("got %d combined events; want 1", len(events))
	}
	if events[0].X != 0.5 {
		t.Errorf("flushed x = %v; want the latest sample 0.5", events[0].X)
	}
}

func TestStrumSurvivesTelemetryOverwrites(t *testing.T) {
	b := New(testThrottle)
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)

	b.EmitStrumEvent(testStrumEvent())
	b.EmitTabletEvent(sampleAt(0.2))
	b.EmitTabletEvent(sampleAt(0.3))
	time.Sleep(settle)

	events := got.snapshot()
	if len(events) != 1 {
		t.Fatalf("got %d combined events; want 1", len(events))
	}
	if events[0].Strum == nil {
		t.Fatal("strum was dropped by later telemetry")
	}
	if events[0].X != 0.3 {
		t.Errorf("flushed x = %v; want 0.3", events[0].X)
	}

	// Nothing new arrived: no further flushes, and the strum is gone from
	// the buffer
	time.Sleep(settle)
	if n := len(got.snapshot()); n != 1 {
		t.Errorf("stale flushes occurred: %d events", n)
	}

	b.EmitTabletEvent(sampleAt(0.9))
	time.Sleep(settle)
	events = got.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d combined events; want 2", len(events))
	}
	if events[1].Strum != nil {
		t.Error("strum leaked into a later flush")
	}
	if events[1].X != 0.9 {
		t.Errorf("second flush x = %v; want 0.9", events[1].X)
	}
}

func TestFlushDispatchesAllThreeViews(t *testing.T) {
	b := New(testThrottle)
	defer b.Cleanup()

	var mu sync.Mutex
	var tablets, strums int
	b.OnTabletEvent(func(tablet.Sample) { mu.Lock(); tablets++; mu.Unlock() })
	b.OnStrumEvent(func(strum.Event) { mu.Lock(); strums++; mu.Unlock() })
	var got collector
	b.OnCombinedEvent(got.add)

	b.EmitStrumEvent(testStrumEvent())
	b.EmitTabletEvent(sampleAt(0.4))
	time.Sleep(settle)

	mu.Lock()
	defer mu.Unlock()
	if tablets != 1 || strums != 1 || len(got.snapshot()) != 1 {
		t.Errorf("views = tablet:%d strum:%d combined:%d; want 1 each", tablets, strums, len(got.snapshot()))
	}
}

func TestImmediateModeDispatchesSynchronously(t *testing.T) {
	b := New(0)
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)
	var strums int
	b.OnStrumEvent(func(strum.Event) { strums++ })

	b.EmitTabletEvent(sampleAt(0.1))
	b.EmitStrumEvent(testStrumEvent())
	b.EmitTabletEvent(sampleAt(0.2))

	events := got.snapshot()
	if len(events) != 3 {
		t.Fatalf("got %d combined events; want 3 (one per emit)", len(events))
	}
	if strums != 1 {
		t.Errorf("strum view fired %d times; want 1", strums)
	}
	// telemetry persists across the strum dispatch, strum does not persist
	// past its own
	if events[1].Strum == nil || events[1].X != 0.1 {
		t.Errorf("strum dispatch = %+v; want strum attached to last telemetry", events[1])
	}
	if events[2].Strum != nil {
		t.Error("strum leaked into the next immediate dispatch")
	}
}

func TestPauseDropsEventsResumeRecovers(t *testing.T) {
	b := New(testThrottle)
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)

	b.Pause()
	b.Pause() // idempotent
	b.EmitTabletEvent(sampleAt(0.5))
	b.EmitStrumEvent(testStrumEvent())
	time.Sleep(settle)
	if n := len(got.snapshot()); n != 0 {
		t.Fatalf("paused bus delivered %d events", n)
	}

	b.Resume()
	b.Resume() // idempotent
	b.EmitTabletEvent(sampleAt(0.7))
	time.Sleep(settle)

	events := got.snapshot()
	if len(events) != 1 {
		t.Fatalf("got %d events after resume; want 1", len(events))
	}
	if events[0].Strum != nil {
		t.Error("pre-pause strum survived the pause; buffer should be discarded")
	}
}

func TestSetThrottleKeepsUnflushedData(t *testing.T) {
	b := New(time.Hour) // effectively never flushes on its own
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)

	b.EmitTabletEvent(sampleAt(0.6))
	b.SetThrottle(testThrottle)
	time.Sleep(settle)

	events := got.snapshot()
	if len(events) != 1 {
		t.Fatalf("got %d events after throttle change; want 1", len(events))
	}
	if events[0].X != 0.6 {
		t.Errorf("flushed x = %v; want the pre-change sample 0.6", events[0].X)
	}
}

func TestBufferedStrumDeliveredOnceAfterThrottleDisabled(t *testing.T) {
	b := New(time.Hour)
	defer b.Cleanup()

	var got collector
	b.OnCombinedEvent(got.add)
	var strums int
	b.OnStrumEvent(func(strum.Event) { strums++ })

	b.EmitStrumEvent(testStrumEvent())
	b.SetThrottle(0)
	b.EmitTabletEvent(sampleAt(0.1))
	b.EmitTabletEvent(sampleAt(0.2))
	b.EmitTabletEvent(sampleAt(0.3))

	events := got.snapshot()
	if len(events) != 3 {
		t.Fatalf("got %d combined events; want 3 (one per emit)", len(events))
	}
	if events[0].Strum == nil {
		t.Fatal("carried-over strum missing from the first immediate dispatch")
	}
	delivered := 0
	for _, e := range events {
		if e.Strum != nil {
			delivered++
		}
	}
	if delivered != 1 {
		t.Errorf("buffered strum delivered %d times; want exactly 1", delivered)
	}
	if strums != 1 {
		t.Errorf("strum view fired %d times; want 1", strums)
	}
}

func TestCleanupStopsDelivery(t *testing.T) {
	b := New(testThrottle)

	var got collector
	b.OnCombinedEvent(got.add)

	b.EmitTabletEvent(sampleAt(0.5))
	b.Cleanup()
	b.Cleanup() // idempotent
	b.EmitTabletEvent(sampleAt(0.6))
	time.Sleep(settle)

	if n := len(got.snapshot()); n != 0 {
		t.Errorf("cleaned-up bus delivered %d events", n)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New(0)
	defer b.Cleanup()

	var first, second int
	unsub := b.OnCombinedEvent(func(CombinedEvent) { first++ })
	b.OnCombinedEvent(func(CombinedEvent) { second++ })

	b.EmitTabletEvent(sampleAt(0.1))
	unsub()
	unsub()
	b.EmitTabletEvent(sampleAt(0.2))

	if first != 1 || second != 2 {
		t.Errorf("first=%d second=%d; want 1 and 2", first, second)
	}
}

func TestFailingSubscriberIsIsolated(t *testing.T) {
	b := New(0)
	defer b.Cleanup()

	b.OnCombinedEvent(func(CombinedEvent) { panic("bad subscriber") })
	healthy := 0
	b.OnCombinedEvent(func(CombinedEvent) { healthy++ })

	b.EmitTabletEvent(sampleAt(0.1))
	b.EmitTabletEvent(sampleAt(0.2))

	if healthy != 2 {
		t.Errorf("healthy subscriber saw %d events; want 2", healthy)
	}
}

func TestWireRecordShape(t *testing.T) {
	evt := CombinedEvent{
		Sample: tablet.Sample{
			X: 0.25, Y: 0.75, Pressure: 0.6,
			TiltX: 10, TiltY: -5, TiltXY: 11,
			PrimaryButton: true,
			State:         tablet.StateContact,
			Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	s := testStrumEvent()
	evt.Strum = &s

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, field := range []string{
		`"x":`, `"y":`, `"pressure":`, `"tiltX":`, `"tiltY":`, `"tiltXY":`,
		`"primaryButtonPressed":`, `"state":"contact"`, `"timestamp":`,
		`"strum":`, `"type":"strum"`, `"notes":`, `"notation":"E"`, `"midiNote":64`, `"velocity":90`,
	} {
		if !strings.Contains(out, field) {
			t.Errorf("wire record missing %s: %s", field, out)
		}
	}

	// No strum pending: the field is omitted entirely
	evt.Strum = nil
	data, _ = json.Marshal(evt)
	if strings.Contains(string(data), `"strum"`) {
		t.Errorf("empty strum field serialized: %s", data)
	}
}
