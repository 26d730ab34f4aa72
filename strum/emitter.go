package strum

import "sync"

// emitter is a minimal multi-subscriber dispatcher. Unsubscribe handles are
// idempotent, subscribers may be added or removed from inside a callback,
// and a panicking subscriber cannot take down the others.
type emitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[int]func(Event))}
}

func (e *emitter) subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

func (e *emitter) dispatch(evt Event) {
	// Snapshot under lock so callbacks can subscribe/unsubscribe freely
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		safeCall(fn, evt)
	}
}

func safeCall(fn func(Event), evt Event) {
	defer func() {
		recover() // isolate failing subscribers
	}()
	fn(evt)
}
