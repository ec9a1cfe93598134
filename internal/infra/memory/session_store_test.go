package memory

import (
	"testing"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewRoomSession("room-1", sampleQuiz(), nil)
	if _, created := store.Create(session); !created {
		t.Fatalf("expected session created")
	}
	if got, ok := store.Get("room-1"); !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Delete(session)
	if _, ok := store.Get("room-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreRejectsSecondRunningSession(t *testing.T) {
	store := NewSessionStore()

	first := app.NewRoomSession("room-1", sampleQuiz(), nil)
	store.Create(first)

	second := app.NewRoomSession("room-1", sampleQuiz(), nil)
	owner, created := store.Create(second)
	if created || owner != first {
		t.Fatalf("expected the first session to keep the room")
	}
}

func TestSessionStoreDeleteIgnoresReplacedSession(t *testing.T) {
	store := NewSessionStore()

	old := app.NewRoomSession("room-1", sampleQuiz(), nil)
	store.Create(old)
	old.Stop()

	replacement := app.NewRoomSession("room-1", sampleQuiz(), nil)
	if _, created := store.Create(replacement); !created {
		t.Fatalf("expected a stopped session to be replaceable")
	}

	store.Delete(old)
	if got, ok := store.Get("room-1"); !ok || got != replacement {
		t.Fatalf("expected replacement to survive deletion of the old session")
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:                 "quiz-1",
		Name:               "Sample",
		SecondsPerQuestion: 10,
		Questions: []domain.Question{
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
		},
	}
}
