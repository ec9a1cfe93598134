package app

import (
	"math/rand"
	"sync"
	"time"

	"quiz-room-service/internal/domain"
)

// SessionState is the lifecycle position of a room session.
type SessionState int

const (
	StateAwaitingStart SessionState = iota
	StateRunning
	StateFinished
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// RoomSession is the live game state of one room. It owns a private copy of
// the quiz questions.
type RoomSession struct {
	roomID         string
	quizID         string
	quizName       string
	questions      []domain.Question
	window         time.Duration
	shuffleOptions bool

	mu           sync.Mutex
	state        SessionState
	running      bool
	emptyStreak  int
	participants map[string]*domain.Participant
	order        []string
}

// NewRoomSession snapshots quiz for roomID, shuffling question order once if
// the quiz asks for it.
func NewRoomSession(roomID string, quiz domain.Quiz, rnd *rand.Rand) *RoomSession {
	questions := quiz.CloneQuestions()
	if quiz.ShuffleQuestions && rnd != nil {
		rnd.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	return &RoomSession{
		roomID:         roomID,
		quizID:         quiz.ID,
		quizName:       quiz.Name,
		questions:      questions,
		window:         time.Duration(quiz.SecondsPerQuestion) * time.Second,
		shuffleOptions: quiz.ShuffleOptions,
		state:          StateAwaitingStart,
		running:        true,
		participants:   make(map[string]*domain.Participant),
	}
}

func (s *RoomSession) RoomID() string   { return s.roomID }
func (s *RoomSession) QuizID() string   { return s.quizID }
func (s *RoomSession) QuizName() string { return s.quizName }

// Questions returns a copy of the session's question order.
func (s *RoomSession) Questions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

func (s *RoomSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether the session still holds its room.
func (s *RoomSession) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// begin moves an awaiting session to running.
func (s *RoomSession) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingStart || !s.running {
		return domain.ErrNotAwaitingStart
	}
	s.state = StateRunning
	return nil
}

// Stop clears the running flag and returns the state it was stopped in. It
// reports false if the session was already stopped.
func (s *RoomSession) Stop() (SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.state, false
	}
	s.running = false
	return s.state, true
}

func (s *RoomSession) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.state = StateFinished
}

func (s *RoomSession) EmptyStreak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emptyStreak
}

// closeRound updates the empty streak from whether the round got a response.
func (s *RoomSession) closeRound(answered bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if answered {
		s.emptyStreak = 0
	} else {
		s.emptyStreak++
	}
	return s.emptyStreak
}

// recordAnswer adds the participant on first sight and awards a point for a
// correct answer.
func (s *RoomSession) recordAnswer(userID, displayName string, correct bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[userID]
	if !ok {
		participant = &domain.Participant{UserID: userID, DisplayName: displayName}
		s.participants[userID] = participant
		s.order = append(s.order, userID)
	}
	if correct {
		participant.Score++
	}
	return participant.Score
}

// Leaderboard ranks participants by score, keeping first-answer order for
// ties, and keeps at most limit entries (all when limit <= 0).
func (s *RoomSession) Leaderboard(limit int) domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(limit)
}

func (s *RoomSession) snapshotLocked(limit int) domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(s.order))
	for _, id := range s.order {
		p := s.participants[id]
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}
	rankEntries(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return domain.Leaderboard{
		RoomID:   s.roomID,
		QuizName: s.quizName,
		Entries:  entries,
	}
}
