package rollmax

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/meinders/helium/internal/herr"
)

func TestGetOnFreshMaxIsZeroValue(t *testing.T) {
	m := New[int](4)
	if got := m.Get(); got != 0 {
		t.Errorf("Get on fresh Max[int]: got %d, want 0", got)
	}
}

func TestTracksMaximumAsValuesSlideThroughWindow(t *testing.T) {
	m := New[int](3)
	seq := []int{5, 3, 8, 2, 1}
	capacity := 3

	var inWindow []int
	for _, v := range seq {
		if len(inWindow) == capacity {
			evicted := inWindow[0]
			inWindow = inWindow[1:]
			m.Remove(evicted)
		}
		inWindow = append(inWindow, v)
		if err := m.Add(v); err != nil {
			t.Fatalf("Add(%d): unexpected error %v", v, err)
		}

		want := inWindow[0]
		for _, x := range inWindow[1:] {
			if x > want {
				want = x
			}
		}
		if got := m.Get(); got != want {
			t.Errorf("after Add(%d): Get() = %d, want %d (window %v)", v, got, want, inWindow)
		}
	}
}

func TestRandomizedAgainstNaiveWindowMax(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	const capacity = 16
	m := New[int](capacity)
	var window []int

	for i := 0; i < 5000; i++ {
		v := r.Intn(1000)
		if len(window) == capacity {
			m.Remove(window[0])
			window = window[1:]
		}
		window = append(window, v)
		if err := m.Add(v); err != nil {
			t.Fatalf("iteration %d: Add(%d): unexpected error %v", i, v, err)
		}

		want := window[0]
		for _, x := range window[1:] {
			if x > want {
				want = x
			}
		}
		if got := m.Get(); got != want {
			t.Fatalf("iteration %d: Get() = %d, want %d", i, got, want)
		}
	}
}

func TestAddWithoutMatchingRemoveOverflows(t *testing.T) {
	// A non-increasing run is required to exercise the overflow guard: an
	// increasing run collapses the deque to a single entry on every Add
	// instead of growing it.
	m := New[int](2)
	if err := m.Add(3); err != nil {
		t.Fatalf("Add(3): unexpected error %v", err)
	}
	if err := m.Add(2); err != nil {
		t.Fatalf("Add(2): unexpected error %v", err)
	}
	err := m.Add(1)
	if err == nil {
		t.Fatalf("Add beyond capacity without Remove: want WindowOverflow, got nil")
	}
	var overflow *herr.WindowOverflow
	if !errors.As(err, &overflow) {
		t.Errorf("error type: got %T, want *herr.WindowOverflow", err)
	}
	if !errors.Is(err, herr.ErrWindowOverflow) {
		t.Errorf("errors.Is(err, herr.ErrWindowOverflow) = false")
	}
}

func TestFloatInstantiation(t *testing.T) {
	m := New[float64](2)
	m.Add(2.5)
	m.Add(1.5)
	if got := m.Get(); got != 2.5 {
		t.Errorf("Get: got %v, want 2.5", got)
	}
	m.Remove(2.5)
	if got := m.Get(); got != 1.5 {
		t.Errorf("Get after removing max: got %v, want 1.5", got)
	}
}

func TestCapacityAtMostOneCoerced(t *testing.T) {
	m := New[int](0)
	if m.Capacity() != 1 {
		t.Errorf("Capacity with requested 0: got %d, want 1", m.Capacity())
	}
}
