package domain

import "time"

// Field limits applied to parsed quiz text.
const (
	MaxQuestionLen = 250
	MaxOptionLen   = 99
	MinOptions     = 2
)

// MaxSecondsPerQuestion bounds a round window, matching the longest poll
// period chat platforms accept.
const MaxSecondsPerQuestion = 600

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Clone returns a copy that shares no memory with q.
func (q Question) Clone() Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return Question{Prompt: q.Prompt, Options: opts, CorrectIndex: q.CorrectIndex}
}

// Quiz is a persisted quiz definition. It is immutable once stored.
type Quiz struct {
	ID                 string     `json:"id"`
	Name               string     `json:"quiz_name"`
	Questions          []Question `json:"questions"`
	SecondsPerQuestion int        `json:"time_per_question"`
	ShuffleQuestions   bool       `json:"shuffle_qs"`
	ShuffleOptions     bool       `json:"shuffle_opts"`
	Author             string     `json:"author"`
	AuthorID           string     `json:"author_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CloneQuestions deep-copies the question list.
func (q Quiz) CloneQuestions() []Question {
	out := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		out[i] = question.Clone()
	}
	return out
}

// Participant represents a room participant and their accumulated score.
type Participant struct {
	UserID      string
	DisplayName string
	Score       int
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a room session.
type Leaderboard struct {
	RoomID   string             `json:"roomId"`
	QuizName string             `json:"quizName"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// Round is one question published to a room.
type Round struct {
	ID           string        `json:"roundId"`
	Prompt       string        `json:"prompt"`
	Options      []string      `json:"options"`
	CorrectIndex int           `json:"-"`
	Window       time.Duration `json:"-"`
}

// Response is a participant's answer to a published round.
type Response struct {
	RoundID         string
	ParticipantID   string
	ParticipantName string
	ChosenIndex     int
}

// Button is an action a participant can trigger from a reply.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// Reply is a message addressed to the user driving a command.
type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}
