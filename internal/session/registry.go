// Package session tracks in-flight call sessions for this process.
package session

import (
	"log/slog"
	"sync"

	"github.com/dialcoach/dialcoach/internal/domain"
)

// Registry maps call IDs to in-flight call sessions. Entries live only
// between call creation and call end; they are not persisted and not shared
// across processes. A single-instance deployment uses MemoryRegistry; a
// multi-instance deployment would swap in an external store behind this
// interface.
type Registry interface {
	// Put records a session under its call ID.
	Put(s *domain.CallSession)

	// Get returns the session for callID, or nil when unknown. A missing
	// entry is a normal outcome for duplicate end/status requests.
	Get(callID string) *domain.CallSession

	// Delete removes and returns the session for callID, or nil when unknown.
	Delete(callID string) *domain.CallSession

	// Len reports the number of active sessions.
	Len() int
}

// MemoryRegistry is the in-process Registry implementation.
type MemoryRegistry struct {
	mu     sync.RWMutex
	active map[string]*domain.CallSession
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{active: make(map[string]*domain.CallSession)}
}

func (r *MemoryRegistry) Put(s *domain.CallSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[s.CallID] = s
	slog.Info("Call session registered", "call_id", s.CallID, "scenario_id", s.ScenarioID)
}

func (r *MemoryRegistry) Get(callID string) *domain.CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[callID]
}

func (r *MemoryRegistry) Delete(callID string) *domain.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.active[callID]
	if !ok {
		return nil
	}
	delete(r.active, callID)
	slog.Info("Call session removed", "call_id", callID)
	return s
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
