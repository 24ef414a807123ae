package state

import "sync"

// Manager stores one session of type T per user.
// All methods are safe for concurrent use.
type Manager[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
	locks    keyedLock
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager[T any]() *Manager[T] {
	return &Manager[T]{
		sessions: make(map[int64]T),
		locks:    keyedLock{entries: make(map[int64]*lockEntry)},
	}
}

// Get returns the session for a user and whether it exists.
func (m *Manager[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Set stores the session for a user, replacing any previous one.
func (m *Manager[T]) Set(userID int64, session T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = session
}

// Clear removes the session for a user.
func (m *Manager[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// GetState returns the current step of a user, or StateIdle without a session.
// Payloads that do not implement Stateful are reported as idle.
func (m *Manager[T]) GetState(userID int64) State {
	s, ok := m.Get(userID)
	if !ok {
		return StateIdle
	}
	if sf, ok := any(s).(Stateful); ok {
		return sf.CurrentState()
	}
	return StateIdle
}

// InProgress reports whether the user has a session in a non-idle step.
func (m *Manager[T]) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Len returns the number of stored sessions.
func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lock acquires the per-user lock and returns the function that releases it.
// Callers hold it for the whole read-modify-write of a session.
func (m *Manager[T]) Lock(userID int64) (unlock func()) {
	return m.locks.lock(userID)
}
