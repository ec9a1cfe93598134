package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"quiz-room-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps quiz definitions as JSONB rows.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) GetAll(ctx context.Context) (map[string]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, data FROM quizzes`)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	defer rows.Close()

	all := make(map[string]domain.Quiz)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			log.Printf("skipping unreadable quiz %s: %v", id, err)
			continue
		}
		quiz.ID = id
		all[id] = quiz
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	return all, nil
}

func (s *QuizStore) Get(ctx context.Context, id string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = id
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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, author_id, data, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET author_id=EXCLUDED.author_id, data=EXCLUDED.data`,
		quiz.ID, quiz.AuthorID, data, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete quiz: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
