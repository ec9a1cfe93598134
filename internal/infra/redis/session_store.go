package redis

import (
	"context"
	"sync"
	"time"

	"quiz-room-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; their round loops and
//     scoreboards live in this process only.
//   - Redis carries a liveness marker per busy room (quiz id as value) so
//     other tools can see which rooms are playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.RoomSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.RoomID()), session.QuizID(), s.ttl).Err()
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
	current, ok := s.sessions[session.RoomID()]
	if !ok || current != session {
		return
	}
	delete(s.sessions, session.RoomID())
	_ = s.client.Del(context.Background(), s.key(session.RoomID())).Err()
}

func (s *SessionStore) key(roomID string) string {
	return "quiz:room:" + roomID
}
