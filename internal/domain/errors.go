package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a room has no quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionRunning is returned when a room already runs a quiz.
	ErrSessionRunning = errors.New("a quiz is already in progress in this room")
	// ErrNotAwaitingStart indicates the room session was already started.
	ErrNotAwaitingStart = errors.New("quiz session is not waiting to start")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates a quiz definition that cannot be run or stored.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrNoQuestions is returned when pasted text yields no questions.
	ErrNoQuestions = errors.New("no questions found, check the format")
	// ErrInvalidNumber is returned when a count or time is not a number.
	ErrInvalidNumber = errors.New("please send a number")
	// ErrNoDraft is returned when a creation step arrives without a draft.
	ErrNoDraft = errors.New("no quiz is being created")
	// ErrNotOwner is returned when a user acts on someone else's quiz.
	ErrNotOwner = errors.New("quiz belongs to another author")
)

// AnswerKeyError reports an answer key shorter than the question list.
type AnswerKeyError struct {
	Got  int
	Want int
}

func (e *AnswerKeyError) Error() string {
	return fmt.Sprintf("not enough answers (%d/%d)", e.Got, e.Want)
}
