package memory

import (
	"sync"

	"quiz-room-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.RoomSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.RoomSession),
	}
}

func (s *SessionStore) Create(session *app.RoomSession) (*app.RoomSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[session.RoomID()]; ok && existing.IsRunning() {
		return existing, false
	}
	s.sessions[session.RoomID()] = session
	return session, true
}

func (s *SessionStore) Get(roomID string) (*app.RoomSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[roomID]
	return session, ok
}

func (s *SessionStore) Delete(session *app.RoomSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[session.RoomID()]; ok && current == session {
		delete(s.sessions, session.RoomID())
	}
}
