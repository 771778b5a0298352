package sketch

import "sync/atomic"

// Mailbox is a single-slot, latest-wins handoff between goroutines.
// Writers never block and a newer value replaces an unread one.
type Mailbox[T any] struct {
	v atomic.Pointer[T]
}

// Put stores v, replacing any value already in the slot.
func (m *Mailbox[T]) Put(v T) {
	m.v.Store(&v)
}

// Peek returns the current value without consuming it.
func (m *Mailbox[T]) Peek() (T, bool) {
	if p := m.v.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Take returns the current value and empties the slot.
func (m *Mailbox[T]) Take() (T, bool) {
	if p := m.v.Swap(nil); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}
