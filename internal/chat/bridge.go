package chat

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pongsakornd/comic-secretary/internal/hub"
)

// Bridge is a notification-only socket session on the user hub. The
// server never expects traffic from the client, so reads carry no
// deadline: an idle connection stays open indefinitely and anything the
// client does send is treated as a keepalive and discarded.
type Bridge struct {
	conn    *websocket.Conn
	userHub *hub.Hub
	log     *log.Logger
	userId  int
	send    chan any
	stop    chan struct{}
}

func NewBridge(userId int, conn *websocket.Conn, userHub *hub.Hub, l *log.Logger) *Bridge {
	return &Bridge{
		conn:    conn,
		userHub: userHub,
		log:     l,
		userId:  userId,
		send:    make(chan any, 64),
		stop:    make(chan struct{}),
	}
}

// Queue implements hub.Conn.
func (b *Bridge) Queue(payload any) bool {
	select {
	case b.send <- payload:
	default:
		b.log.Println("bridge: send channel full, dropping frame")
		return false
	}

	return true
}

// Run registers the session and blocks until the socket closes.
func (b *Bridge) Run() {
	b.userHub.Connect(b.userId, b)
	go b.write()
	b.read()
}

func (b *Bridge) write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		b.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-b.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(payload)
			if err != nil {
				b.log.Println("bridge: serialize frame:", err)
				continue
			}

			b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
				return
			}
		case <-b.stop:
			return
		case <-ticker.C:
			b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) read() {
	defer func() {
		b.conn.Close()
		b.userHub.Disconnect(b.userId, b)
		close(b.stop)
	}()

	b.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := b.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				b.log.Printf("bridge: read: %v", err)
			}
			break
		}
	}
}
