package session

import (
	"sync"

	"github.com/desertthunder/songrec/internal/models"
)

// Manager serializes access to a [State] shared by concurrent request handlers.
type Manager struct {
	mu    sync.Mutex
	state *State
}

// NewManager wraps state. A nil state starts from [NewState].
func NewManager(state *State) *Manager {
	if state == nil {
		state = NewState()
	}
	return &Manager{state: state}
}

// Update runs fn with exclusive access to the state.
func (m *Manager) Update(fn func(*State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

// Do runs fn with exclusive access to the state for mutations that cannot fail.
func (m *Manager) Do(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.state)
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Snapshot()
}
