// Package rollmax implements a rolling maximum over a fixed-size window
// using a monotonic deque stored in a ring buffer, reaching amortized O(1)
// per Add/Remove pair.
package rollmax

import (
	"cmp"

	"github.com/meinders/helium/internal/herr"
)

// Max maintains a monotonically non-increasing sequence of the values
// currently in the window, letting Get return the maximum in O(1).
//
// Two indices delimit the live arc of the ring: maxIdx (the front, holding
// the current maximum) and minIdx (the back, holding the most recently
// appended value). Entries between them, inclusive, are non-increasing:
// Add evicts any buffered entries strictly smaller than the incoming value
// but keeps equal ones, so every copy of the current maximum still in the
// window stays in the deque and Remove, which compares by value, advances
// past one copy at a time.
type Max[T cmp.Ordered] struct {
	buf    []T
	minIdx int
	maxIdx int
}

// New constructs a rolling maximum over a window of the given capacity.
func New[T cmp.Ordered](capacity int) *Max[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Max[T]{buf: make([]T, capacity)}
}

// Get returns the maximum of the values currently in the window.
func (m *Max[T]) Get() T {
	return m.buf[m.maxIdx]
}

// Remove must be called whenever a value leaves the rolling window. It is
// a no-op unless v equals the current maximum, in which case the front of
// the deque advances to the next-largest surviving entry.
func (m *Max[T]) Remove(v T) {
	if v == m.Get() && m.maxIdx != m.minIdx {
		m.maxIdx = (m.maxIdx + 1) % len(m.buf)
	}
}

// Add must be called whenever a value enters the rolling window. It
// returns a WindowOverflow error if more values have been added than
// removed, i.e. the caller failed to keep Remove in lockstep with Add.
func (m *Max[T]) Add(v T) error {
	if v > m.buf[m.minIdx] {
		for m.minIdx != m.maxIdx {
			prev := m.minIdx - 1
			if prev < 0 {
				prev = len(m.buf) - 1
			}
			if v <= m.buf[prev] {
				break
			}
			m.minIdx = prev
		}
	} else {
		m.minIdx = (m.minIdx + 1) % len(m.buf)
		if m.minIdx == m.maxIdx {
			return &herr.WindowOverflow{Capacity: len(m.buf)}
		}
	}

	m.buf[m.minIdx] = v
	return nil
}

// Capacity returns the window size the rolling maximum was built with.
func (m *Max[T]) Capacity() int { return len(m.buf) }
