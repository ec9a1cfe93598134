package memory

import (
	"context"
	"sync"

	"quiz-room-service/internal/domain"
)

// QuizStore keeps quiz definitions in a map (useful for tests/demos).
// Values are copied in and out so callers never share question slices.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{quizzes: make(map[string]domain.Quiz)}
	for _, q := range seed {
		s.quizzes[q.ID] = clone(q)
	}
	return s
}

func (s *QuizStore) GetAll(_ context.Context) (map[string]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Quiz, len(s.quizzes))
	for id, q := range s.quizzes {
		out[id] = clone(q)
	}
	return out, nil
}

func (s *QuizStore) Get(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return clone(q), nil
}

func (s *QuizStore) Put(_ context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return domain.ErrInvalidQuiz
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = clone(quiz)
	return nil
}

func (s *QuizStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return false, nil
	}
	delete(s.quizzes, id)
	return true, nil
}

func clone(q domain.Quiz) domain.Quiz {
	q.Questions = q.CloneQuestions()
	return q
}
