// Package observable provides a last-value-cached subject with explicit
// subscribe and emit.
package observable

import "sync"

// Subject holds a current value and pushes every new value to its observers.
// New observers receive the current value immediately on Subscribe.
type Subject[T any] struct {
	mu        sync.Mutex
	value     T
	nextID    int
	observers []observer[T] // in subscription order
	// emitMu keeps notifications in emit order.
	emitMu sync.Mutex
}

// New returns a subject holding initial.
func New[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

type observer[T any] struct {
	id int
	fn func(T)
}

// Value returns the current value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Emit replaces the current value and notifies every observer.
// Observers run on the emitting goroutine, outside the value lock, and must
// not call Emit or Subscribe on the same subject.
func (s *Subject[T]) Emit(v T) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.value = v
	observers := append([]observer[T](nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.fn(v)
	}
}

// Subscribe registers fn, calls it with the current value and returns a
// function that unregisters it. Observers are notified in subscription order.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		})
	}
}

// Len returns the number of registered observers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}
