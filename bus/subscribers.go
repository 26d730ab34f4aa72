package bus

import "sync"

// subscribers is a multi-subscriber callback registry. Unsubscribe handles
// are idempotent and a panicking callback cannot take down the rest of the
// dispatch or the flush loop.
type subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

func newSubscribers[T any]() *subscribers[T] {
	return &subscribers[T]{fns: make(map[int]func(T))}
}

func (s *subscribers[T]) subscribe(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers[T]) dispatch(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() { recover() }()
			fn(v)
		}()
	}
}

func (s *subscribers[T]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fns = make(map[int]func(T))
}
