// Package observe provides a small broadcast primitive for push-based
// state: a Subject retains its latest value and replays it to late
// subscribers, so a newly attached consumer sees the current state
// immediately instead of waiting for the next change.
package observe

import "sync"

// Subject is a last-value-replay broadcast stream. Publish delivers the
// value to every current subscriber; Subscribe delivers the retained
// value (if any) before returning. Unsubscribing severs delivery to one
// subscriber without affecting the producer or other subscribers.
//
// Deliveries are totally ordered: a replay and a racing Publish are
// observed in one sequence, so a subscriber's last delivery always
// matches the retained value. Handlers must not Publish to or
// Subscribe on the Subject they are handling; Unsubscribe is fine.
type Subject[T any] struct {
	// emit serializes delivery (the replay in Subscribe and the fan-out
	// in Publish). mu alone guards the state and may be taken briefly
	// while emit is held, never the other way around.
	emit  sync.Mutex
	mu    sync.Mutex
	value T
	valid bool
	subs  map[int]func(T)
	next  int
}

// NewSubject returns a Subject with no retained value. The first
// Publish seeds the replay value.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[int]func(T))}
}

// NewSubjectValue returns a Subject seeded with an initial value that
// will be replayed to subscribers until the next Publish.
func NewSubjectValue[T any](initial T) *Subject[T] {
	s := NewSubject[T]()
	s.value = initial
	s.valid = true
	return s
}

// Publish stores v as the new current value and delivers it to all
// current subscribers. Handlers run synchronously on the caller's
// goroutine, in no particular order.
func (s *Subject[T]) Publish(v T) {
	s.emit.Lock()
	defer s.emit.Unlock()
	s.mu.Lock()
	s.value = v
	s.valid = true
	handlers := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()
	for _, fn := range handlers {
		fn(v)
	}
}

// Value returns the current value, or the zero value if nothing has
// been published or seeded yet.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers fn and, if a value has been published or seeded,
// invokes it with the current value before returning. The returned
// Subscription is the capability to stop further deliveries.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.emit.Lock()
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	replay, valid := s.value, s.valid
	s.mu.Unlock()
	if valid {
		fn(replay)
	}
	s.emit.Unlock()
	return &Subscription{cancel: func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}}
}

// Subscription severs one subscriber from a Subject. Safe to call
// Unsubscribe more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery to the subscription's handler. It does
// not cancel any in-flight producer; results that arrive later are
// simply no longer delivered here.
func (u *Subscription) Unsubscribe() {
	u.once.Do(u.cancel)
}

// Bag collects subscriptions so a component can tear all of them down
// with one call when it goes away.
type Bag struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Add records a subscription for later teardown.
func (b *Bag) Add(sub *Subscription) {
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Close unsubscribes everything in the bag. Idempotent.
func (b *Bag) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
