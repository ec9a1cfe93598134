package app

import (
	"context"
	"sort"

	"quiz-room-service/internal/domain"
)

// QuizStore persists quiz definitions by id.
//
// Every call goes to the backing store; implementations must not serve reads
// from a cache that could be stale relative to another writer. Writes are
// last-write-wins.
type QuizStore interface {
	GetAll(ctx context.Context) (map[string]domain.Quiz, error)
	Get(ctx context.Context, id string) (domain.Quiz, error)
	Put(ctx context.Context, quiz domain.Quiz) error
	// Delete reports whether a quiz was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// SessionRepository holds the live room sessions of this process.
type SessionRepository interface {
	// Create stores s for its room unless the room already has a session
	// that has not been stopped. It returns the session now owning the room
	// and whether it is s.
	Create(s *RoomSession) (*RoomSession, bool)
	Get(roomID string) (*RoomSession, bool)
	// Delete removes the room entry only if it still points to s.
	Delete(s *RoomSession)
}

// recent orders quizzes newest first and keeps at most limit of them.
func recent(quizzes map[string]domain.Quiz, limit int) []domain.Quiz {
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
