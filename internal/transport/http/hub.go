package http

import (
	"context"
	"log"
	"sync"
	"time"

	"quiz-room-service/internal/domain"
	"github.com/google/uuid"
)

// client is one websocket connection joined to a room.
type client struct {
	roomID string
	userID string
	name   string
	send   chan outboundMessage[any]
}

// enqueue never blocks; a client that cannot keep up misses messages.
func (c *client) enqueue(msg outboundMessage[any]) bool {
	select {
	case c.send <- msg:
		return true
	default:
		log.Printf("ws client %s/%s: send buffer full, dropping %s", c.roomID, c.userID, msg.Type)
		return false
	}
}

// Hub fans room messages out to the connected clients. It implements
// app.Transport.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

type roundPayload struct {
	RoundID       string   `json:"roundId"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	WindowSeconds int      `json:"windowSeconds"`
}

type textPayload struct {
	Text string `json:"text"`
}

// PublishRound sends the round to everyone in the room. The proposed round
// ID is kept.
func (h *Hub) PublishRound(ctx context.Context, roomID string, round domain.Round) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := round.ID
	if id == "" {
		id = uuid.NewString()
	}
	h.broadcast(roomID, outboundMessage[any]{Type: "round", Payload: roundPayload{
		RoundID:       id,
		Prompt:        round.Prompt,
		Options:       round.Options,
		WindowSeconds: int(round.Window / time.Second),
	}})
	return id, nil
}

func (h *Hub) SendText(ctx context.Context, roomID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.broadcast(roomID, outboundMessage[any]{Type: "message", Payload: textPayload{Text: text}})
	return nil
}

// RoomSize is the number of clients connected to the room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.roomID] = room
	}
	room[c] = struct{}{}
}

// leave removes c; once it returns no broadcast will write to c.send.
func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.roomID)
	}
}

func (h *Hub) broadcast(roomID string, msg outboundMessage[any]) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		c.enqueue(msg)
	}
}
