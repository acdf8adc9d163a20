package registry

import (
	"sociallink/internal/core/port"
	"sync"

	"github.com/google/uuid"
)

// Registry maps a user to the sessions this process accepted for them.
// It is local to one process; global presence lives on the backbone.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string]port.Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]map[string]port.Session)}
}

// Register adds a session. It reports whether the user had no local session before.
// Registering the same session twice is a no-op.
func (r *Registry) Register(userID uuid.UUID, session port.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userSessions, ok := r.sessions[userID]
	if !ok {
		userSessions = make(map[string]port.Session)
		r.sessions[userID] = userSessions
	}
	if _, exists := userSessions[session.ID()]; exists {
		return false
	}
	userSessions[session.ID()] = session
	return len(userSessions) == 1
}

// Unregister removes exactly that session. It reports whether it was the user's last local session.
// Unregistering an unknown session is a no-op.
func (r *Registry) Unregister(userID uuid.UUID, session port.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userSessions, ok := r.sessions[userID]
	if !ok {
		return false
	}
	if _, exists := userSessions[session.ID()]; !exists {
		return false
	}
	delete(userSessions, session.ID())
	if len(userSessions) == 0 {
		delete(r.sessions, userID)
		return true
	}
	return false
}

// IsOnline is a local-only check
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	return r.Count(userID) > 0
}

// Count returns the number of local sessions of a user
func (r *Registry) Count(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID])
}

// Sessions returns a snapshot of the user's local sessions
func (r *Registry) Sessions(userID uuid.UUID) []port.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userSessions := r.sessions[userID]
	result := make([]port.Session, 0, len(userSessions))
	for _, s := range userSessions {
		result = append(result, s)
	}
	return result
}
