// Package registry provides a fixed-capacity slot registry that hands out
// small stable integer handles for long-lived resources. Handles are only
// meaningful within the current process; a released slot's index can be
// reassigned to a new resource.
package registry

import "errors"

// DefaultCapacity is the slot count used when no capacity is configured.
const DefaultCapacity = 1024

// ErrNoCapacity is returned by Store when every slot is occupied.
var ErrNoCapacity = errors.New("registry is full")

type slot[T any] struct {
	value T
	live  bool
}

// Registry maps integer handles to resources using a fixed array of slots.
// Capacity is set at construction and never changes; exhaustion surfaces as
// ErrNoCapacity rather than growth or eviction.
//
// Registry is not safe for concurrent use. It is designed to be exclusively
// owned by a single dispatch loop.
type Registry[T any] struct {
	slots   []slot[T]
	cursor  int
	live    int
	release func(T)
}

// New creates a registry with the given capacity. release, if non-nil, is
// invoked on a resource when its slot is removed; the registry owns every
// resource it stores. A capacity of zero or less falls back to
// DefaultCapacity.
func New[T any](capacity int, release func(T)) *Registry[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry[T]{
		slots:   make([]slot[T], capacity),
		release: release,
	}
}

// Store installs v in the first empty slot found by scanning forward from the
// internal cursor, wrapping past the end of the array. The cursor persists
// across calls and rests on the consumed slot, so under steady churn the next
// scan starts near the next free slot. Returns the slot index as the handle,
// or ErrNoCapacity if the scan wraps all the way around.
func (r *Registry[T]) Store(v T) (int, error) {
	idx := r.cursor
	for r.slots[idx].live {
		idx = (idx + 1) % len(r.slots)
		if idx == r.cursor {
			return 0, ErrNoCapacity
		}
	}

	r.slots[idx] = slot[T]{value: v, live: true}
	r.cursor = idx
	r.live++
	return idx, nil
}

// Get returns the resource stored under handle. The second return is false
// for an empty or out-of-range slot; callers are expected to surface that as
// an explicit error, never to fabricate a default.
func (r *Registry[T]) Get(handle int) (T, bool) {
	if handle < 0 || handle >= len(r.slots) {
		var zero T
		return zero, false
	}
	s := r.slots[handle]
	return s.value, s.live
}

// Remove empties the slot under handle, releasing the contained resource if
// one is present. Removing an empty or out-of-range slot is a no-op, so
// Remove is idempotent.
func (r *Registry[T]) Remove(handle int) {
	if handle < 0 || handle >= len(r.slots) {
		return
	}
	s := r.slots[handle]
	if !s.live {
		return
	}
	r.slots[handle] = slot[T]{}
	r.live--
	if r.release != nil {
		r.release(s.value)
	}
}

// Len reports the number of occupied slots.
func (r *Registry[T]) Len() int {
	return r.live
}

// Cap reports the fixed slot capacity.
func (r *Registry[T]) Cap() int {
	return len(r.slots)
}

// Clear removes every occupied slot, releasing each resource, and resets the
// scan cursor.
func (r *Registry[T]) Clear() {
	for i := range r.slots {
		r.Remove(i)
	}
	r.cursor = 0
}
