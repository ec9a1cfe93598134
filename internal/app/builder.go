package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-room-service/internal/domain"
	"github.com/google/uuid"
)

var answerLetters = map[rune]int{'a': 0, 'b': 1, 'c': 2, 'd': 3}

// CleanAnswerKey keeps only the answer letters of raw, lowercased.
func CleanAnswerKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if _, ok := answerLetters[r]; ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ApplyAnswerKey returns a copy of questions with CorrectIndex set from key,
// one letter per question. A letter naming a missing option selects 0.
func ApplyAnswerKey(questions []domain.Question, key string) ([]domain.Question, error) {
	letters := []rune(CleanAnswerKey(key))
	if len(letters) < len(questions) {
		return nil, &domain.AnswerKeyError{Got: len(letters), Want: len(questions)}
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
		idx := answerLetters[letters[i]]
		if idx >= len(q.Options) {
			idx = 0
		}
		out[i].CorrectIndex = idx
	}
	return out, nil
}

// UniformAnswerKey repeats one letter for n questions.
func UniformAnswerKey(letter string, n int) string {
	return strings.Repeat(CleanAnswerKey(letter), n)
}

// Chunk is a half-open range [Start, End) of question indexes.
type Chunk struct {
	Start int
	End   int
}

// Label is the 1-based inclusive range, e.g. "11-20".
func (c Chunk) Label() string {
	return fmt.Sprintf("%d-%d", c.Start+1, c.End)
}

// SplitPlan partitions total questions into at most parts chunks of
// ceil(total/parts), the last one possibly smaller. parts is clamped to
// [1, total].
func SplitPlan(total, parts int) []Chunk {
	if total <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > total {
		parts = total
	}
	size := (total + parts - 1) / parts
	chunks := make([]Chunk, 0, parts)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
	}
	return chunks
}

// BuildRequest carries everything collected by the creation flow.
type BuildRequest struct {
	Name               string
	Author             string
	AuthorID           string
	Questions          []domain.Question
	AnswerKey          string
	SecondsPerQuestion int
	ShuffleQuestions   bool
	ShuffleOptions     bool
	Parts              int
}

// Builder turns a finished draft into stored quizzes.
type Builder struct {
	store QuizStore
	now   func() time.Time
	newID func() string
}

func NewBuilder(store QuizStore) *Builder {
	return &Builder{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Build applies the answer key, splits the questions and persists each part
// as soon as it is ready. On a storage failure the parts already written are
// returned along with the error.
func (b *Builder) Build(ctx context.Context, req BuildRequest) ([]domain.Quiz, error) {
	if len(req.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if req.SecondsPerQuestion <= 0 || req.SecondsPerQuestion > domain.MaxSecondsPerQuestion {
		return nil, domain.ErrInvalidNumber
	}
	questions, err := ApplyAnswerKey(req.Questions, req.AnswerKey)
	if err != nil {
		return nil, err
	}

	chunks := SplitPlan(len(questions), req.Parts)
	created := make([]domain.Quiz, 0, len(chunks))
	now := b.now()
	for i, c := range chunks {
		name := req.Name
		if len(chunks) > 1 {
			name = fmt.Sprintf("%s (%s)", req.Name, c.Label())
		}
		part := make([]domain.Question, 0, c.End-c.Start)
		for _, q := range questions[c.Start:c.End] {
			part = append(part, q.Clone())
		}
		quiz := domain.Quiz{
			ID:                 b.newID(),
			Name:               name,
			Questions:          part,
			SecondsPerQuestion: req.SecondsPerQuestion,
			ShuffleQuestions:   req.ShuffleQuestions,
			ShuffleOptions:     req.ShuffleOptions,
			Author:             req.Author,
			AuthorID:           req.AuthorID,
			// keeps parts ordered when listing newest first
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := b.store.Put(ctx, quiz); err != nil {
			return created, fmt.Errorf("store quiz part %d: %w", i+1, err)
		}
		created = append(created, quiz)
	}
	return created, nil
}
