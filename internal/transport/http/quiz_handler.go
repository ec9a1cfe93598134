package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

type quizSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Questions int    `json:"questions"`
	Seconds   int    `json:"secondsPerQuestion"`
	Author    string `json:"author"`
	StartLink string `json:"startLink"`
	Card      string `json:"card"`
}

func summarize(quizzes []domain.Quiz) []quizSummary {
	out := make([]quizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizSummary{
			ID:        q.ID,
			Name:      q.Name,
			Questions: len(q.Questions),
			Seconds:   q.SecondsPerQuestion,
			Author:    q.Author,
			StartLink: app.StartLink(q.ID),
			Card:      app.ShareText(q),
		})
	}
	return out
}

// QuizHandler serves quiz discovery over plain HTTP.
type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// ServeFind answers GET /api/quizzes?q=... with matching quiz summaries.
func (h *QuizHandler) ServeFind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	quizzes, err := h.service.FindQuizzes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("find quizzes: %v", err)
		http.Error(w, "could not load quizzes", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summarize(quizzes)); err != nil {
		log.Printf("encode quizzes: %v", err)
	}
}
