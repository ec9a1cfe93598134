package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/parser"
)

// DraftStep is the creation flow position of a draft.
type DraftStep int

const (
	StepName DraftStep = iota
	StepText
	StepAnswers
	StepTime
	StepShuffle
	StepSplit
	StepSplitManual
)

// Actions sent back by buttons of the creation flow.
const (
	ActionTextDone    = "text_done"
	ActionAllPrefix   = "ans_all_"
	ActionShuffle     = "shuf_"
	ActionSplitPrefix = "split_"
	ActionSplitManual = "split_manual"
)

// Shuffle modes.
const (
	ShuffleQuestions = "q"
	ShuffleOptions   = "o"
	ShuffleBoth      = "both"
	ShuffleNone      = "none"
)

// Author identifies who creates or owns a quiz.
type Author struct {
	ID   string
	Name string
}

// Draft accumulates the answers of one creation flow.
type Draft struct {
	Step             DraftStep
	Name             string
	Text             string
	Questions        []domain.Question
	AnswerKey        string
	Seconds          int
	ShuffleQuestions bool
	ShuffleOptions   bool
}

// Creator runs the creation flow for many users at once, one draft per key.
type Creator struct {
	builder *Builder

	mu     sync.Mutex
	drafts map[string]*Draft
}

func NewCreator(builder *Builder) *Creator {
	return &Creator{builder: builder, drafts: make(map[string]*Draft)}
}

// Begin discards any draft under key and asks for a name.
func (c *Creator) Begin(key string) domain.Reply {
	c.mu.Lock()
	c.drafts[key] = &Draft{Step: StepName}
	c.mu.Unlock()
	return domain.Reply{Text: "✏️ Send the quiz name:"}
}

// Draft returns a copy of the draft under key.
func (c *Creator) Draft(key string) (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[key]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Cancel drops the draft under key.
func (c *Creator) Cancel(key string) {
	c.mu.Lock()
	delete(c.drafts, key)
	c.mu.Unlock()
}

// Input handles a free text message. Validation errors leave the draft as it
// was.
func (c *Creator) Input(ctx context.Context, key string, author Author, text string) (domain.Reply, []domain.Quiz, error) {
	c.mu.Lock()
	d, ok := c.drafts[key]
	if !ok {
		c.mu.Unlock()
		return domain.Reply{}, nil, domain.ErrNoDraft
	}

	switch d.Step {
	case StepName:
		name := strings.TrimSpace(text)
		if name == "" {
			c.mu.Unlock()
			return domain.Reply{}, nil, fmt.Errorf("%w: empty name", domain.ErrInvalidQuiz)
		}
		d.Name = name
		d.Step = StepText
		c.mu.Unlock()
		return domain.Reply{Text: "📥 Send the questions. Long tests can be pasted in several messages."}, nil, nil

	case StepText:
		d.Text += "\n" + text
		c.mu.Unlock()
		return domain.Reply{
			Text:    fmt.Sprintf("⏳ Received (+%d chars). Send more or press done.", utf8.RuneCountInString(text)),
			Buttons: []domain.Button{{Label: "✅ Done", Action: ActionTextDone}},
		}, nil, nil

	case StepAnswers:
		reply, err := c.setAnswersLocked(d, CleanAnswerKey(text))
		c.mu.Unlock()
		return reply, nil, err

	case StepTime:
		seconds, err := parseCount(text)
		if err != nil || seconds < 1 || seconds > domain.MaxSecondsPerQuestion {
			c.mu.Unlock()
			return domain.Reply{}, nil, domain.ErrInvalidNumber
		}
		d.Seconds = seconds
		d.Step = StepShuffle
		c.mu.Unlock()
		return shuffleReply(), nil, nil

	case StepSplitManual:
		parts, err := parseCount(text)
		if err != nil {
			c.mu.Unlock()
			return domain.Reply{}, nil, domain.ErrInvalidNumber
		}
		c.mu.Unlock()
		return c.finish(ctx, key, author, parts)

	default:
		c.mu.Unlock()
		return domain.Reply{Text: "👆 Use the buttons above."}, nil, nil
	}
}

// Action handles a button press.
func (c *Creator) Action(ctx context.Context, key string, author Author, action string) (domain.Reply, []domain.Quiz, error) {
	c.mu.Lock()
	d, ok := c.drafts[key]
	if !ok {
		c.mu.Unlock()
		return domain.Reply{}, nil, domain.ErrNoDraft
	}

	switch {
	case d.Step == StepText && action == ActionTextDone:
		questions := parser.Parse(d.Text)
		if len(questions) == 0 {
			c.mu.Unlock()
			return domain.Reply{}, nil, domain.ErrNoQuestions
		}
		d.Questions = questions
		d.Step = StepAnswers
		c.mu.Unlock()
		return answersReply(len(questions)), nil, nil

	case d.Step == StepAnswers && strings.HasPrefix(action, ActionAllPrefix):
		answerKey := UniformAnswerKey(strings.TrimPrefix(action, ActionAllPrefix), len(d.Questions))
		reply, err := c.setAnswersLocked(d, answerKey)
		c.mu.Unlock()
		return reply, nil, err

	case d.Step == StepShuffle && strings.HasPrefix(action, ActionShuffle):
		mode := strings.TrimPrefix(action, ActionShuffle)
		switch mode {
		case ShuffleQuestions, ShuffleOptions, ShuffleBoth, ShuffleNone:
		default:
			c.mu.Unlock()
			return domain.Reply{}, nil, fmt.Errorf("unknown shuffle mode %q", mode)
		}
		d.ShuffleQuestions = mode == ShuffleQuestions || mode == ShuffleBoth
		d.ShuffleOptions = mode == ShuffleOptions || mode == ShuffleBoth
		d.Step = StepSplit
		reply := splitReply(len(d.Questions))
		c.mu.Unlock()
		return reply, nil, nil

	case d.Step == StepSplit && action == ActionSplitManual:
		d.Step = StepSplitManual
		c.mu.Unlock()
		return domain.Reply{Text: "🔢 How many parts? Send a number."}, nil, nil

	case d.Step == StepSplit && strings.HasPrefix(action, ActionSplitPrefix):
		parts, err := parseCount(strings.TrimPrefix(action, ActionSplitPrefix))
		c.mu.Unlock()
		if err != nil {
			return domain.Reply{}, nil, domain.ErrInvalidNumber
		}
		return c.finish(ctx, key, author, parts)

	default:
		c.mu.Unlock()
		return domain.Reply{}, nil, fmt.Errorf("action %q is not expected now", action)
	}
}

func (c *Creator) setAnswersLocked(d *Draft, key string) (domain.Reply, error) {
	if _, err := ApplyAnswerKey(d.Questions, key); err != nil {
		return domain.Reply{}, err
	}
	d.AnswerKey = key
	d.Step = StepTime
	return domain.Reply{Text: fmt.Sprintf("⏱ How many seconds per question? Send a number from 1 to %d, e.g. 15.", domain.MaxSecondsPerQuestion)}, nil
}

// finish takes the draft out of the table and builds it. The draft is put
// back if nothing could be stored.
func (c *Creator) finish(ctx context.Context, key string, author Author, parts int) (domain.Reply, []domain.Quiz, error) {
	c.mu.Lock()
	d, ok := c.drafts[key]
	if !ok || (d.Step != StepSplit && d.Step != StepSplitManual) {
		c.mu.Unlock()
		return domain.Reply{}, nil, domain.ErrNoDraft
	}
	delete(c.drafts, key)
	c.mu.Unlock()

	if parts < 1 {
		parts = 1
	}
	created, err := c.builder.Build(ctx, BuildRequest{
		Name:               d.Name,
		Author:             author.Name,
		AuthorID:           author.ID,
		Questions:          d.Questions,
		AnswerKey:          d.AnswerKey,
		SecondsPerQuestion: d.Seconds,
		ShuffleQuestions:   d.ShuffleQuestions,
		ShuffleOptions:     d.ShuffleOptions,
		Parts:              parts,
	})
	if err != nil && len(created) == 0 {
		c.mu.Lock()
		if _, taken := c.drafts[key]; !taken {
			c.drafts[key] = d
		}
		c.mu.Unlock()
		return domain.Reply{}, nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Done! Saved in %d part(s).\n", len(created))
	buttons := make([]domain.Button, 0, len(created))
	for _, q := range created {
		fmt.Fprintf(&b, "💾 %s\n", q.Name)
		buttons = append(buttons, domain.Button{Label: "🔗 Share " + q.Name, Action: StartLink(q.ID)})
	}
	return domain.Reply{Text: b.String(), Buttons: buttons}, created, err
}

func parseCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, domain.ErrInvalidNumber
	}
	return strconv.Atoi(text)
}

func answersReply(count int) domain.Reply {
	return domain.Reply{
		Text: fmt.Sprintf("✅ %d questions found.\nPick the answers or send the key manually (abcd...):", count),
		Buttons: []domain.Button{
			{Label: "All A", Action: ActionAllPrefix + "a"},
			{Label: "All B", Action: ActionAllPrefix + "b"},
			{Label: "All C", Action: ActionAllPrefix + "c"},
			{Label: "All D", Action: ActionAllPrefix + "d"},
		},
	}
}

func shuffleReply() domain.Reply {
	return domain.Reply{
		Text: "⚙️ Choose the shuffle mode:",
		Buttons: []domain.Button{
			{Label: "🔀 Questions only", Action: ActionShuffle + ShuffleQuestions},
			{Label: "🔠 Options only", Action: ActionShuffle + ShuffleOptions},
			{Label: "🔀+🔠 Both", Action: ActionShuffle + ShuffleBoth},
			{Label: "❌ Keep order", Action: ActionShuffle + ShuffleNone},
		},
	}
}

// splitReply offers more parts the longer the quiz is.
func splitReply(count int) domain.Reply {
	buttons := []domain.Button{{Label: fmt.Sprintf("📦 1 part (all %d)", count), Action: ActionSplitPrefix + "1"}}
	for parts, threshold := 2, 10; parts <= 4; parts, threshold = parts+1, threshold+10 {
		if count >= threshold {
			buttons = append(buttons, domain.Button{
				Label:  fmt.Sprintf("✂️ %d parts", parts),
				Action: ActionSplitPrefix + strconv.Itoa(parts),
			})
		}
	}
	buttons = append(buttons, domain.Button{Label: "✍️ Enter manually", Action: ActionSplitManual})
	return domain.Reply{
		Text:    fmt.Sprintf("📝 You have %d questions. How many parts should the quiz be split into?", count),
		Buttons: buttons,
	}
}
