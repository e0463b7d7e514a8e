// Package stream provides a small typed observer abstraction: a Source that
// fans values out to explicitly managed subscriptions. It replaces ambient
// callback registration with subscribe/unsubscribe discipline.
package stream

import "sync"

// Source fans published values out to all active subscriptions.
// Safe for concurrent use.
type Source[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]chan T
}

// NewSource creates an empty Source.
func NewSource[T any]() *Source[T] {
	return &Source[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a new subscription with the given channel buffer.
// A buffer of at least 1 is always used so Publish never blocks.
func (s *Source[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	return &Subscription[T]{
		C: ch,
		cancel: func() {
			s.mu.Lock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
			s.mu.Unlock()
		},
	}
}

// Publish delivers v to every subscription without blocking the caller.
// A subscriber that has not kept up loses its oldest pending value in
// favour of the newest (conflation): consumers always converge on the
// latest published value.
func (s *Source[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		for {
			select {
			case ch <- v:
			default:
				// Buffer full: drop the oldest pending value and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Source[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscription is one registered consumer of a Source. Values arrive on C.
// C is closed by Unsubscribe.
type Subscription[T any] struct {
	C      <-chan T
	cancel func()
	once   sync.Once
}

// Unsubscribe detaches from the Source and closes C. Idempotent.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(s.cancel)
}
