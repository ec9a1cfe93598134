package redis

import (
	"testing"
	"time"

	"quiz-room-service/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewRoomSession("room-1", sampleQuiz(), nil)
	if _, created := store.Create(session); !created {
		t.Fatalf("expected session created")
	}
	if got, err := mr.Get("quiz:room:room-1"); err != nil || got != "quiz-1" {
		t.Fatalf("expected redis marker with quiz id, got %q (%v)", got, err)
	}

	if _, created := store.Create(app.NewRoomSession("room-1", sampleQuiz(), nil)); created {
		t.Fatalf("expected second session rejected")
	}

	store.Delete(session)
	if mr.Exists("quiz:room:room-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("room-1"); ok {
		t.Fatalf("expected session removed")
	}
}
