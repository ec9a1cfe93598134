package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
)

func TestSplitPlanCoversEveryQuestionOnce(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for parts := -1; parts <= total+2; parts++ {
			chunks := app.SplitPlan(total, parts)
			next := 0
			for _, c := range chunks {
				if c.Start != next || c.End <= c.Start {
					t.Fatalf("total=%d parts=%d: bad chunk %+v after %d", total, parts, c, next)
				}
				next = c.End
			}
			if next != total {
				t.Fatalf("total=%d parts=%d: covered %d", total, parts, next)
			}
			want := parts
			if want < 1 {
				want = 1
			}
			if want > total {
				want = total
			}
			if len(chunks) > want {
				t.Fatalf("total=%d parts=%d: %d chunks", total, parts, len(chunks))
			}
		}
	}
}

func TestSplitPlanUsesCeilingSize(t *testing.T) {
	chunks := app.SplitPlan(25, 3)
	var labels []string
	for _, c := range chunks {
		labels = append(labels, c.Label())
	}
	if fmt.Sprint(labels) != "[1-9 10-18 19-25]" {
		t.Fatalf("unexpected chunks %v", labels)
	}
	if app.SplitPlan(0, 3) != nil {
		t.Fatalf("empty input should yield no chunks")
	}
}

func TestApplyAnswerKey(t *testing.T) {
	questions := []domain.Question{
		{Prompt: "q1", Options: []string{"a", "b"}},
		{Prompt: "q2", Options: []string{"a", "b", "c"}},
	}
	out, err := app.ApplyAnswerKey(questions, "B, c!")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out[0].CorrectIndex != 1 || out[1].CorrectIndex != 2 {
		t.Fatalf("unexpected indexes %d %d", out[0].CorrectIndex, out[1].CorrectIndex)
	}
	if questions[0].CorrectIndex != 0 {
		t.Fatalf("input must not be modified")
	}

	out, err = app.ApplyAnswerKey(questions, "dd")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out[0].CorrectIndex != 0 || out[1].CorrectIndex != 0 {
		t.Fatalf("letters past the options should select 0")
	}

	_, err = app.ApplyAnswerKey(questions, "a")
	var keyErr *domain.AnswerKeyError
	if !errors.As(err, &keyErr) || keyErr.Got != 1 || keyErr.Want != 2 {
		t.Fatalf("expected AnswerKeyError 1/2, got %v", err)
	}
	if err.Error() != "not enough answers (1/2)" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestBuildSplitsAndNamesParts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizStore()
	questions := numberedQuiz("", 21).Questions

	created, err := app.NewBuilder(store).Build(ctx, app.BuildRequest{
		Name:               "History",
		Author:             "Alice",
		AuthorID:           "u1",
		Questions:          questions,
		AnswerKey:          app.UniformAnswerKey("b", len(questions)),
		SecondsPerQuestion: 15,
		ShuffleOptions:     true,
		Parts:              2,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(created))
	}
	if created[0].Name != "History (1-11)" || created[1].Name != "History (12-21)" {
		t.Fatalf("unexpected names %q %q", created[0].Name, created[1].Name)
	}
	if len(created[0].Questions) != 11 || len(created[1].Questions) != 10 {
		t.Fatalf("unexpected sizes")
	}
	if created[0].ID == created[1].ID || created[0].ID == "" {
		t.Fatalf("parts need distinct ids")
	}
	if !created[1].CreatedAt.After(created[0].CreatedAt) {
		t.Fatalf("later parts should be newer")
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 2 {
		t.Fatalf("expected both parts stored, got %d", len(all))
	}
	for _, q := range all {
		if q.AuthorID != "u1" || q.SecondsPerQuestion != 15 || !q.ShuffleOptions || q.ShuffleQuestions {
			t.Fatalf("unexpected stored quiz %+v", q)
		}
		for _, question := range q.Questions {
			if question.CorrectIndex != 1 {
				t.Fatalf("answer key not applied")
			}
		}
	}
}

func TestBuildSinglePartKeepsName(t *testing.T) {
	created, err := app.NewBuilder(memory.NewQuizStore()).Build(context.Background(), app.BuildRequest{
		Name:               "Tiny",
		Questions:          numberedQuiz("", 3).Questions,
		AnswerKey:          "abc",
		SecondsPerQuestion: 5,
		Parts:              1,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(created) != 1 || created[0].Name != "Tiny" {
		t.Fatalf("unexpected %+v", created)
	}
}

func TestBuildValidation(t *testing.T) {
	b := app.NewBuilder(memory.NewQuizStore())
	ctx := context.Background()
	if _, err := b.Build(ctx, app.BuildRequest{Name: "x", SecondsPerQuestion: 5}); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	req := app.BuildRequest{Name: "x", Questions: numberedQuiz("", 2).Questions, AnswerKey: "aa"}
	if _, err := b.Build(ctx, req); !errors.Is(err, domain.ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	req.SecondsPerQuestion = domain.MaxSecondsPerQuestion + 1
	if _, err := b.Build(ctx, req); !errors.Is(err, domain.ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber for an oversized window, got %v", err)
	}
}

type failingStore struct {
	*memory.QuizStore
	failAfter int
	puts      int
}

func (s *failingStore) Put(ctx context.Context, q domain.Quiz) error {
	s.puts++
	if s.puts > s.failAfter {
		return errors.New("disk full")
	}
	return s.QuizStore.Put(ctx, q)
}

func TestBuildReturnsPartsStoredBeforeFailure(t *testing.T) {
	store := &failingStore{QuizStore: memory.NewQuizStore(), failAfter: 1}
	created, err := app.NewBuilder(store).Build(context.Background(), app.BuildRequest{
		Name:               "Big",
		Questions:          numberedQuiz("", 4).Questions,
		AnswerKey:          "aaaa",
		SecondsPerQuestion: 5,
		Parts:              2,
	})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	if len(created) != 1 || created[0].Name != "Big (1-2)" {
		t.Fatalf("expected first part kept, got %+v", created)
	}
}
