package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"quiz-room-service/internal/domain"
	"github.com/google/uuid"
)

// Transport delivers rounds and messages to rooms. Responses come back
// asynchronously through QuizService.HandleResponse.
type Transport interface {
	// PublishRound opens a round in the room and returns its identity. The
	// round carries a proposed ID; transports that cannot use it return
	// their own.
	PublishRound(ctx context.Context, roomID string, round domain.Round) (string, error)
	SendText(ctx context.Context, roomID, text string) error
}

// GameConfig tunes the round loop.
type GameConfig struct {
	// Grace is added to every round window before the round is closed.
	Grace time.Duration
	// EmptyRoundLimit stops a session after that many consecutive rounds
	// without responses. Zero disables the check.
	EmptyRoundLimit int
	// StartDelay separates the start announcement from the first round.
	StartDelay time.Duration
	ResultsLimit    int
}

func DefaultGameConfig() GameConfig {
	return GameConfig{
		Grace:           time.Second,
		EmptyRoundLimit: 3,
		StartDelay:      2 * time.Second,
		ResultsLimit:    15,
	}
}

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scheduler runs one round loop per room.
type Scheduler struct {
	transport  Transport
	sessions   SessionRepository
	correlator *Correlator
	cfg        GameConfig
	wait       WaitFunc
	newRoundID func() string

	rndMu sync.Mutex
	rnd   *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
	loops  sync.WaitGroup
}

// SchedulerOption customizes a Scheduler, mostly for tests.
type SchedulerOption func(*Scheduler)

// WithWait replaces the round timer.
func WithWait(wait WaitFunc) SchedulerOption {
	return func(s *Scheduler) { s.wait = wait }
}

// WithRand makes shuffling deterministic.
func WithRand(rnd *rand.Rand) SchedulerOption {
	return func(s *Scheduler) { s.rnd = rnd }
}

func NewScheduler(transport Transport, sessions SessionRepository, correlator *Correlator, cfg GameConfig, opts ...SchedulerOption) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		transport:  transport,
		sessions:   sessions,
		correlator: correlator,
		cfg:        cfg,
		wait:       sleepContext,
		newRoundID: func() string { return uuid.NewString() },
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare creates the room session for quiz and announces it. The session
// waits for Confirm before the first round.
func (s *Scheduler) Prepare(ctx context.Context, roomID string, quiz domain.Quiz) (*RoomSession, error) {
	if len(quiz.Questions) == 0 || quiz.SecondsPerQuestion <= 0 ||
		quiz.SecondsPerQuestion > domain.MaxSecondsPerQuestion {
		return nil, domain.ErrInvalidQuiz
	}

	s.rndMu.Lock()
	session := NewRoomSession(roomID, quiz, s.rnd)
	s.rndMu.Unlock()

	if _, created := s.sessions.Create(session); !created {
		return nil, domain.ErrSessionRunning
	}

	intro := fmt.Sprintf("📊 %s\n🖊 Questions: %d\n⏱ Time: %d sec\n\nReady?",
		quiz.Name, len(quiz.Questions), quiz.SecondsPerQuestion)
	if err := s.transport.SendText(ctx, roomID, intro); err != nil {
		log.Printf("room %s: send intro: %v", roomID, err)
	}
	return session, nil
}

// Confirm starts the round loop of an awaiting session.
func (s *Scheduler) Confirm(_ context.Context, roomID string) error {
	session, ok := s.sessions.Get(roomID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.begin(); err != nil {
		return err
	}

	s.loops.Add(1)
	go s.run(session)
	return nil
}

// Stop clears the running flag of the room session. A running loop notices
// at its next round boundary; a session that never started is discarded.
func (s *Scheduler) Stop(ctx context.Context, roomID string) (bool, error) {
	session, ok := s.sessions.Get(roomID)
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	state, stopped := session.Stop()
	if !stopped {
		return false, nil
	}
	if state == StateAwaitingStart {
		session.finish()
		s.sessions.Delete(session)
	}
	if err := s.transport.SendText(ctx, roomID, "🛑 Quiz stopped."); err != nil {
		log.Printf("room %s: send stop notice: %v", roomID, err)
	}
	return true, nil
}

// Close cancels running loops and waits for them to finish.
func (s *Scheduler) Close() {
	s.cancel()
	s.loops.Wait()
}

func (s *Scheduler) run(session *RoomSession) {
	defer s.loops.Done()
	defer s.sessions.Delete(session)

	ctx := s.ctx
	roomID := session.RoomID()
	if err := s.transport.SendText(ctx, roomID, "🏁 Quiz started!"); err != nil {
		log.Printf("room %s: send start notice: %v", roomID, err)
	}
	if s.cfg.StartDelay > 0 {
		if err := s.wait(ctx, s.cfg.StartDelay); err != nil {
			session.finish()
			return
		}
	}

	s.playRounds(ctx, session)
	session.finish()

	if text, ok := FormatResults(session.Leaderboard(s.cfg.ResultsLimit)); ok {
		if err := s.transport.SendText(ctx, roomID, text); err != nil {
			log.Printf("room %s: send results: %v", roomID, err)
		}
	}
}

func (s *Scheduler) playRounds(ctx context.Context, session *RoomSession) {
	roomID := session.RoomID()
	total := len(session.questions)

	for i, q := range session.questions {
		if !session.IsRunning() {
			log.Printf("room %s: stopped before round %d", roomID, i+1)
			return
		}
		if s.cfg.EmptyRoundLimit > 0 && session.EmptyStreak() >= s.cfg.EmptyRoundLimit {
			if err := s.transport.SendText(ctx, roomID, "💤 No activity. Quiz stopped."); err != nil {
				log.Printf("room %s: send inactivity notice: %v", roomID, err)
			}
			return
		}

		options, correct := s.roundOptions(q, session.shuffleOptions)
		round := domain.Round{
			ID:           s.newRoundID(),
			Prompt:       fmt.Sprintf("[%d/%d] %s", i+1, total, q.Prompt),
			Options:      options,
			CorrectIndex: correct,
			Window:       session.window,
		}

		s.correlator.Register(round.ID, session, correct)
		roundID, err := s.transport.PublishRound(ctx, roomID, round)
		if err != nil {
			s.correlator.Close(round.ID)
			log.Printf("room %s: publish round %d: %v", roomID, i+1, err)
			continue
		}
		s.correlator.Rekey(round.ID, roundID)

		waitErr := s.wait(ctx, round.Window+s.cfg.Grace)
		answered, _ := s.correlator.Close(roundID)
		if waitErr != nil {
			return
		}
		session.closeRound(answered)
	}
}

// roundOptions copies the options, shuffling them if asked, and finds the
// correct answer again by its text.
func (s *Scheduler) roundOptions(q domain.Question, shuffle bool) ([]string, int) {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	correct := q.CorrectIndex
	if correct < 0 || correct >= len(options) {
		correct = 0
	}
	if !shuffle || len(options) < 2 {
		return options, correct
	}

	text := options[correct]
	s.rndMu.Lock()
	s.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	s.rndMu.Unlock()

	for i, opt := range options {
		if opt == text {
			return options, i
		}
	}
	return options, 0
}
