package statemachine

import (
	"sync"
)

// StateEvent marks entering or leaving a state, for observers.
type StateEvent int

const (
	StateEntered StateEvent = iota
	StateExited
)

// Callback observes state transitions by name.
type Callback func(stateName string, event StateEvent)

// StateFn is a state in Rob Pike's pattern: the state inspects its entity,
// optionally reports transitions through the callback, and returns the next
// state function. Returning nil terminates the machine.
type StateFn[T any] func(entity *T, callback Callback) StateFn[T]

// StateMachine drives an entity through state functions. The machine itself
// is thread-safe; the entity's own synchronization is the caller's concern.
type StateMachine[T any] struct {
	entity   *T
	stateFn  StateFn[T]
	callback Callback
	mu       sync.RWMutex
}

// NewStateMachine creates a machine positioned at the initial state.
func NewStateMachine[T any](entity *T, initial StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initial,
	}
}

// SetCallback installs a transition observer.
func (sm *StateMachine[T]) SetCallback(cb Callback) {
	sm.mu.Lock()
	sm.callback = cb
	sm.mu.Unlock()
}

// Step executes the current state function once and moves to whatever state
// it returns. It reports whether the machine is still live.
func (sm *StateMachine[T]) Step() bool {
	sm.mu.RLock()
	current := sm.stateFn
	cb := sm.callback
	sm.mu.RUnlock()

	if current == nil {
		return false
	}

	next := current(sm.entity, cb)

	sm.mu.Lock()
	sm.stateFn = next
	sm.mu.Unlock()
	return next != nil
}

// Dispatch jumps to the given state and executes it once.
func (sm *StateMachine[T]) Dispatch(stateFn StateFn[T]) {
	sm.mu.Lock()
	sm.stateFn = stateFn
	sm.mu.Unlock()
	sm.Step()
}

// Current returns the current state function, nil once terminated.
func (sm *StateMachine[T]) Current() StateFn[T] {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateFn
}

// SetState repositions the machine without executing anything.
func (sm *StateMachine[T]) SetState(stateFn StateFn[T]) {
	sm.mu.Lock()
	sm.stateFn = stateFn
	sm.mu.Unlock()
}
