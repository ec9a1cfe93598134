package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"quiz-room-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const quizzesKey = "quiz:definitions"

// QuizStore keeps every quiz definition as one JSON field of a Redis hash:
//
//	HSET quiz:definitions {quizID} {json}
type QuizStore struct {
	client *redis.Client
	key    string
}

func NewQuizStore(client *redis.Client) *QuizStore {
	return &QuizStore{client: client, key: quizzesKey}
}

func (s *QuizStore) GetAll(ctx context.Context) (map[string]domain.Quiz, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	all := make(map[string]domain.Quiz, len(fields))
	for id, raw := range fields {
		quiz, err := decodeQuiz(id, raw)
		if err != nil {
			log.Printf("skipping unreadable quiz %s: %v", id, err)
			continue
		}
		all[id] = quiz
	}
	return all, nil
}

func (s *QuizStore) Get(ctx context.Context, id string) (domain.Quiz, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz, err := decodeQuiz(id, raw)
	if err != nil {
		log.Printf("quiz %s unreadable: %v", id, err)
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) Put(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return domain.ErrInvalidQuiz
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, quiz.ID, data).Err(); err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("delete quiz: %w", err)
	}
	return n > 0, nil
}

func decodeQuiz(id, raw string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = id
	}
	return quiz, nil
}
