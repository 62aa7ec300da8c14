// Package hub tracks live websocket connections per user so other parts of
// the server can push frames to whoever is online.
package hub

import (
	"log"
	"sync"
)

// Conn is one live socket. Queue must not block: it reports false when the
// connection's outbound buffer is full or closed.
type Conn interface {
	Queue(payload any) bool
}

// Hub is a registry of connections keyed by user id. A user may hold
// several connections at once, one per open tab or device.
type Hub struct {
	mu      sync.RWMutex
	conns   map[int][]Conn
	name    string
	logger  *log.Logger
	dropped int
}

func NewHub(name string, logger *log.Logger) *Hub {
	return &Hub{
		conns:  make(map[int][]Conn),
		name:   name,
		logger: logger,
	}
}

func (h *Hub) Connect(userId int, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[userId] = append(h.conns[userId], c)
	h.logger.Printf("%s hub: user %d connected (%d active)", h.name, userId, len(h.conns[userId]))
}

func (h *Hub) Disconnect(userId int, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	remaining := h.conns[userId][:0]
	for _, conn := range h.conns[userId] {
		if conn != c {
			remaining = append(remaining, conn)
		}
	}

	if len(remaining) == 0 {
		delete(h.conns, userId)
	} else {
		h.conns[userId] = remaining
	}
	h.logger.Printf("%s hub: user %d disconnected (%d active)", h.name, userId, len(remaining))
}

// Send queues payload on every connection the user holds. It reports
// whether at least one connection accepted the frame.
func (h *Hub) Send(userId int, payload any) bool {
	h.mu.RLock()
	conns := make([]Conn, len(h.conns[userId]))
	copy(conns, h.conns[userId])
	h.mu.RUnlock()

	delivered := false
	for _, c := range conns {
		if c.Queue(payload) {
			delivered = true
		} else {
			h.mu.Lock()
			h.dropped++
			h.mu.Unlock()
			h.logger.Printf("%s hub: dropped frame for user %d, send buffer full", h.name, userId)
		}
	}

	return delivered
}

// Broadcast queues payload for every listed user. Unknown and offline
// users are skipped.
func (h *Hub) Broadcast(userIds []int, payload any) {
	for _, id := range userIds {
		h.Send(id, payload)
	}
}

func (h *Hub) Online(userId int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns[userId]) > 0
}

func (h *Hub) ActiveConns() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, conns := range h.conns {
		total += len(conns)
	}
	return total
}

func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.dropped
}
