package app_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
)

// fakeTransport records everything sent to rooms. Hooks run synchronously
// inside PublishRound, so responses can arrive before it returns.
type fakeTransport struct {
	mu     sync.Mutex
	rounds []domain.Round
	texts  []string

	onRound  func(domain.Round)
	failOn   map[int]bool
	assignID func(domain.Round) string
}

func (f *fakeTransport) PublishRound(_ context.Context, _ string, round domain.Round) (string, error) {
	f.mu.Lock()
	n := len(f.rounds) + 1
	f.rounds = append(f.rounds, round)
	fail := f.failOn[n]
	f.mu.Unlock()
	if fail {
		return "", fmt.Errorf("publish round %d: transport down", n)
	}
	if f.onRound != nil {
		f.onRound(round)
	}
	if f.assignID != nil {
		return f.assignID(round), nil
	}
	return round.ID, nil
}

func (f *fakeTransport) SendText(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) Rounds() []domain.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Round(nil), f.rounds...)
}

func (f *fakeTransport) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeTransport) hasText(prefix string) bool {
	for _, text := range f.Texts() {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// recordingWait returns immediately and remembers every requested duration.
type recordingWait struct {
	mu        sync.Mutex
	durations []time.Duration
	hook      func()
}

func (w *recordingWait) Wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.durations = append(w.durations, d)
	hook := w.hook
	w.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ctx.Err()
}

func (w *recordingWait) Durations() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.durations...)
}

// gateWait blocks every round until released or cancelled.
type gateWait struct {
	entered chan struct{}
	release chan struct{}
}

func newGateWait() *gateWait {
	return &gateWait{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gateWait) Wait(ctx context.Context, _ time.Duration) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func numberedQuiz(id string, n int) domain.Quiz {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Prompt:       fmt.Sprintf("Question %d?", i+1),
			Options:      []string{"right", "wrong", "also wrong", "nope"},
			CorrectIndex: 0,
		}
	}
	return domain.Quiz{
		ID:                 id,
		Name:               "Sample",
		Questions:          questions,
		SecondsPerQuestion: 10,
		CreatedAt:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testGameConfig() app.GameConfig {
	cfg := app.DefaultGameConfig()
	cfg.StartDelay = 0
	return cfg
}

func newTestScheduler(transport app.Transport, opts ...app.SchedulerOption) (*app.Scheduler, *app.Correlator, *memory.SessionStore) {
	sessions := memory.NewSessionStore()
	correlator := app.NewCorrelator()
	s := app.NewScheduler(transport, sessions, correlator, testGameConfig(), opts...)
	return s, correlator, sessions
}
