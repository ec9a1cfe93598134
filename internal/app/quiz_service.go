package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quiz-room-service/internal/domain"
)

// StartLinkPrefix marks a start reference that came from a shared link.
const StartLinkPrefix = "run_"

// StartLink is the deep-link payload that starts quiz id in a room.
func StartLink(id string) string {
	return StartLinkPrefix + id
}

// ParseStartRef accepts either a raw quiz id or a start link.
func ParseStartRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), StartLinkPrefix)
}

// ShareText is the card shown when a quiz is shared into a room.
func ShareText(q domain.Quiz) string {
	author := q.Author
	if author == "" {
		author = "unknown"
	}
	return fmt.Sprintf("🎲 %s\n🖊 %d questions • %d sec\n👤 %s\n\n👇 Start: %s",
		q.Name, len(q.Questions), q.SecondsPerQuestion, author, StartLink(q.ID))
}

// ServiceConfig bundles the tunables of the service.
type ServiceConfig struct {
	Game GameConfig
	// ListLimit caps the own-quiz listing.
	ListLimit int
	// SearchLimit caps how many recent quizzes a name search looks at.
	SearchLimit int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{Game: DefaultGameConfig(), ListLimit: 15, SearchLimit: 20}
}

// QuizService contains the room-facing quiz use cases.
type QuizService struct {
	store      QuizStore
	scheduler  *Scheduler
	correlator *Correlator
	creator    *Creator
	cfg        ServiceConfig
}

func NewQuizService(store QuizStore, sessions SessionRepository, transport Transport, cfg ServiceConfig, opts ...SchedulerOption) *QuizService {
	correlator := NewCorrelator()
	return &QuizService{
		store:      store,
		scheduler:  NewScheduler(transport, sessions, correlator, cfg.Game, opts...),
		correlator: correlator,
		creator:    NewCreator(NewBuilder(store)),
		cfg:        cfg,
	}
}

// Close stops all room loops.
func (s *QuizService) Close() {
	s.scheduler.Close()
}

func draftKey(roomID, userID string) string {
	return roomID + ":" + userID
}

// BeginCreation starts (or restarts) the creation flow of a user in a room.
func (s *QuizService) BeginCreation(roomID, userID string) domain.Reply {
	return s.creator.Begin(draftKey(roomID, userID))
}

// CreationStep reports where the user's creation flow is, if one is open.
func (s *QuizService) CreationStep(roomID, userID string) (DraftStep, bool) {
	d, ok := s.creator.Draft(draftKey(roomID, userID))
	return d.Step, ok
}

// CancelCreation drops the user's draft.
func (s *QuizService) CancelCreation(roomID, userID string) {
	s.creator.Cancel(draftKey(roomID, userID))
}

// CreationInput feeds a text message into the user's creation flow.
func (s *QuizService) CreationInput(ctx context.Context, roomID string, author Author, text string) (domain.Reply, error) {
	reply, _, err := s.creator.Input(ctx, draftKey(roomID, author.ID), author, text)
	return reply, err
}

// CreationAction feeds a button press into the user's creation flow.
func (s *QuizService) CreationAction(ctx context.Context, roomID string, author Author, action string) (domain.Reply, error) {
	reply, _, err := s.creator.Action(ctx, draftKey(roomID, author.ID), author, action)
	return reply, err
}

// ListOwn returns the most recent quizzes of an author.
func (s *QuizService) ListOwn(ctx context.Context, authorID string) ([]domain.Quiz, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	own := make(map[string]domain.Quiz)
	for id, q := range all {
		if q.AuthorID == authorID {
			own[id] = q
		}
	}
	return recent(own, s.cfg.ListLimit), nil
}

// DeleteQuiz removes an author's quiz. Deleting a quiz that no longer exists
// reports false without an error.
func (s *QuizService) DeleteQuiz(ctx context.Context, authorID, quizID string) (bool, error) {
	quiz, err := s.store.Get(ctx, quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if quiz.AuthorID != "" && quiz.AuthorID != authorID {
		return false, domain.ErrNotOwner
	}
	return s.store.Delete(ctx, quizID)
}

// FindQuizzes looks a quiz up by exact id, falling back to a case-insensitive
// name search over the most recent quizzes.
func (s *QuizService) FindQuizzes(ctx context.Context, query string) ([]domain.Quiz, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if q, ok := all[ParseStartRef(query)]; ok && query != "" {
		return []domain.Quiz{q}, nil
	}
	needle := strings.ToLower(query)
	var found []domain.Quiz
	for _, q := range recent(all, s.cfg.SearchLimit) {
		if strings.Contains(strings.ToLower(q.Name), needle) {
			found = append(found, q)
		}
	}
	return found, nil
}

// StartQuiz prepares a session for the referenced quiz in the room. The quiz
// is always read fresh from the store.
func (s *QuizService) StartQuiz(ctx context.Context, roomID, ref string) error {
	quiz, err := s.store.Get(ctx, ParseStartRef(ref))
	if err != nil {
		return err
	}
	_, err = s.scheduler.Prepare(ctx, roomID, quiz)
	return err
}

// ConfirmStart begins the rounds of the room's prepared session.
func (s *QuizService) ConfirmStart(ctx context.Context, roomID string) error {
	return s.scheduler.Confirm(ctx, roomID)
}

// StopQuiz force-stops the room's session.
func (s *QuizService) StopQuiz(ctx context.Context, roomID string) (bool, error) {
	return s.scheduler.Stop(ctx, roomID)
}

// HandleResponse scores an answer to a published round. It reports false
// for rounds that are unknown or already closed.
func (s *QuizService) HandleResponse(resp domain.Response) bool {
	return s.correlator.OnResponse(resp)
}

// Leaderboard returns the live standings of the room.
func (s *QuizService) Leaderboard(roomID string) (domain.Leaderboard, error) {
	session, ok := s.scheduler.sessions.Get(roomID)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return session.Leaderboard(s.cfg.Game.ResultsLimit), nil
}
