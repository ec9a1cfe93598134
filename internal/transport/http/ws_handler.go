package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	"github.com/gorilla/websocket"
)

const clientBuffer = 32

type WSHandler struct {
	service  *app.QuizService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textInput struct {
	Text string `json:"text"`
}

type actionInput struct {
	Action string `json:"action"`
}

type quizRef struct {
	QuizID string `json:"quizId"`
	Link   string `json:"link"`
}

type findInput struct {
	Query string `json:"query"`
}

type answerPayload struct {
	RoundID string `json:"roundId"`
	Option  int    `json:"option"`
}

type answerAck struct {
	RoundID  string `json:"roundId"`
	Accepted bool   `json:"accepted"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and joins the connection to
// its room. Every inbound message is a room command.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if roomID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing roomId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		roomID: roomID,
		userID: userID,
		name:   displayName,
		send:   make(chan outboundMessage[any], clientBuffer),
	}
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	h.hub.join(c)
	c.enqueue(outboundMessage[any]{Type: "joined", Payload: map[string]string{"roomId": roomID}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), c, inbound)
	}

	h.hub.leave(c)
	close(c.send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *client, in inboundMessage) {
	author := app.Author{ID: c.userID, Name: c.name}

	switch in.Type {
	case "create":
		h.reply(c, h.service.BeginCreation(c.roomID, c.userID))

	case "cancel":
		h.service.CancelCreation(c.roomID, c.userID)
		h.reply(c, domain.Reply{Text: "Creation cancelled."})

	case "input":
		var p textInput
		if !decode(c, in.Payload, &p) {
			return
		}
		reply, err := h.service.CreationInput(ctx, c.roomID, author, p.Text)
		h.replyOrError(c, reply, err)

	case "action":
		var p actionInput
		if !decode(c, in.Payload, &p) {
			return
		}
		reply, err := h.service.CreationAction(ctx, c.roomID, author, p.Action)
		h.replyOrError(c, reply, err)

	case "list":
		quizzes, err := h.service.ListOwn(ctx, c.userID)
		if err != nil {
			sendError(c, err)
			return
		}
		c.enqueue(outboundMessage[any]{Type: "quizzes", Payload: summarize(quizzes)})

	case "delete":
		var p quizRef
		if !decode(c, in.Payload, &p) {
			return
		}
		removed, err := h.service.DeleteQuiz(ctx, c.userID, p.QuizID)
		if err != nil {
			sendError(c, err)
			return
		}
		if removed {
			h.reply(c, domain.Reply{Text: "✅ Quiz deleted."})
		} else {
			h.reply(c, domain.Reply{Text: "⚠️ This quiz was already deleted."})
		}

	case "find":
		var p findInput
		if !decode(c, in.Payload, &p) {
			return
		}
		quizzes, err := h.service.FindQuizzes(ctx, p.Query)
		if err != nil {
			sendError(c, err)
			return
		}
		c.enqueue(outboundMessage[any]{Type: "quizzes", Payload: summarize(quizzes)})

	case "start":
		var p quizRef
		if !decode(c, in.Payload, &p) {
			return
		}
		ref := p.QuizID
		if ref == "" {
			ref = p.Link
		}
		if err := h.service.StartQuiz(ctx, c.roomID, ref); err != nil {
			sendError(c, err)
		}

	case "confirm":
		if err := h.service.ConfirmStart(ctx, c.roomID); err != nil {
			sendError(c, err)
		}

	case "stop":
		stopped, err := h.service.StopQuiz(ctx, c.roomID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			sendError(c, err)
			return
		}
		if !stopped {
			h.reply(c, domain.Reply{Text: "Nothing to stop."})
		}

	case "answer":
		var p answerPayload
		if !decode(c, in.Payload, &p) {
			return
		}
		accepted := h.service.HandleResponse(domain.Response{
			RoundID:         p.RoundID,
			ParticipantID:   c.userID,
			ParticipantName: c.name,
			ChosenIndex:     p.Option,
		})
		c.enqueue(outboundMessage[any]{Type: "answerAck", Payload: answerAck{RoundID: p.RoundID, Accepted: accepted}})

	case "leaderboard":
		lb, err := h.service.Leaderboard(c.roomID)
		if err != nil {
			sendError(c, err)
			return
		}
		c.enqueue(outboundMessage[any]{Type: "leaderboard", Payload: lb})

	default:
		sendError(c, errors.New("unsupported message type"))
	}
}

func (h *WSHandler) reply(c *client, reply domain.Reply) {
	c.enqueue(outboundMessage[any]{Type: "reply", Payload: reply})
}

func (h *WSHandler) replyOrError(c *client, reply domain.Reply, err error) {
	if err != nil {
		sendError(c, err)
		return
	}
	h.reply(c, reply)
}

func decode(c *client, raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		sendError(c, errors.New("invalid payload"))
		return false
	}
	return true
}

func sendError(c *client, err error) {
	c.enqueue(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
}
