package server

import (
	"errors"
	"sync"

	"galaxy-wars/internal/network"
	"galaxy-wars/pkg/logger"
)

// Registry tracks live sessions and fans messages out to them
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger.Server,
	}
}

// Add registers a session
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove deregisters a session and returns its bound player id, if any
func (r *Registry) Remove(s *Session) (string, bool) {
	r.mu.Lock()
	_, ok := r.sessions[s.ID]
	delete(r.sessions, s.ID)
	r.mu.Unlock()

	if !ok {
		return "", false
	}
	playerID := s.PlayerID()
	return playerID, playerID != ""
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast serializes p once and enqueues it to every session with a bound
// player id, except the session whose id is exclude. A session whose queue
// is full is closed.
func (r *Registry) Broadcast(p network.Payload, exclude string) {
	data, err := network.Encode(p)
	if err != nil {
		r.logger.Error("Failed to encode %s broadcast: %v", p.MessageType(), err)
		return
	}

	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		if id != exclude && s.PlayerID() != "" {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		r.deliver(s, data)
	}
}

// deliver enqueues an already encoded frame to a single session
func (r *Registry) deliver(s *Session, data []byte) {
	err := s.sendRaw(data)
	switch {
	case err == nil:
	case errors.Is(err, ErrBackpressure):
		r.logger.Warn("Session %s (player %s) is not keeping up, disconnecting", s.ID, s.PlayerID())
		s.Close()
	case errors.Is(err, ErrSessionClosed):
	default:
		r.logger.Error("Failed to send to session %s: %v", s.ID, err)
	}
}

// CloseAll closes every registered session
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.Close()
	}
}
