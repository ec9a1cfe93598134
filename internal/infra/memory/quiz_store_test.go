package memory

import (
	"context"
	"errors"
	"testing"

	"quiz-room-service/internal/domain"
)

func TestQuizStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()

	quiz := sampleQuiz()
	if err := store.Put(ctx, quiz); err != nil {
		t.Fatalf("put: %v", err)
	}
	quiz.Questions[0].Options[0] = "mutated"

	got, err := store.Get(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Questions[0].Options[0] != "3" {
		t.Fatalf("store aliased the caller's questions")
	}

	got.Questions[0].Prompt = "changed"
	again, _ := store.Get(ctx, "quiz-1")
	if again.Questions[0].Prompt != "What is 2 + 2?" {
		t.Fatalf("store returned shared questions")
	}
}

func TestQuizStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore(sampleQuiz())

	removed, err := store.Delete(ctx, "quiz-1")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = store.Delete(ctx, "quiz-1")
	if err != nil || removed {
		t.Fatalf("expected soft no-op on second delete, got %v %v", removed, err)
	}
	if _, err := store.Get(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	all, _ := store.GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}
}
