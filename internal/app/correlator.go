package app

import (
	"sync"

	"quiz-room-service/internal/domain"
)

// roundHandle ties a published round back to its session and answer.
type roundHandle struct {
	session      *RoomSession
	correctIndex int

	mu         sync.Mutex
	answered   bool
	responders map[string]struct{}
}

// respond marks the round as answered and reports whether this is the
// participant's first response to it.
func (h *roundHandle) respond(participantID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.answered = true
	if _, seen := h.responders[participantID]; seen {
		return false
	}
	h.responders[participantID] = struct{}{}
	return true
}

func (h *roundHandle) hasResponse() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.answered
}

// Correlator maps round identities to the rounds in flight. The table lock is
// held only for lookups; scoring is serialized per round and per session.
type Correlator struct {
	mu     sync.RWMutex
	rounds map[string]*roundHandle
}

func NewCorrelator() *Correlator {
	return &Correlator{rounds: make(map[string]*roundHandle)}
}

// Register records a round before any response to it can arrive.
func (c *Correlator) Register(roundID string, session *RoomSession, correctIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rounds[roundID] = &roundHandle{
		session:      session,
		correctIndex: correctIndex,
		responders:   make(map[string]struct{}),
	}
}

// Rekey moves a handle to the identity the transport actually assigned.
func (c *Correlator) Rekey(from, to string) {
	if from == to {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.rounds[from]; ok {
		delete(c.rounds, from)
		c.rounds[to] = h
	}
}

// Close removes the round and reports whether anyone responded to it.
func (c *Correlator) Close(roundID string) (answered bool, ok bool) {
	c.mu.Lock()
	h, ok := c.rounds[roundID]
	delete(c.rounds, roundID)
	c.mu.Unlock()
	if !ok {
		return false, false
	}
	return h.hasResponse(), true
}

// Pending is the number of rounds currently registered.
func (c *Correlator) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rounds)
}

// OnResponse scores a response. Only a participant's first response to a
// round is scored; any response counts as room activity. Unknown rounds are
// ignored and reported as false.
func (c *Correlator) OnResponse(resp domain.Response) bool {
	c.mu.RLock()
	h, ok := c.rounds[resp.RoundID]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if h.respond(resp.ParticipantID) {
		h.session.recordAnswer(resp.ParticipantID, resp.ParticipantName, resp.ChosenIndex == h.correctIndex)
	}
	return true
}
