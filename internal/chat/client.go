package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pongsakornd/comic-secretary/internal/hub"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one websocket session bound to a single room. A read pump
// feeds inbound frames to the service and a write pump drains send.
type Client struct {
	conn    *websocket.Conn
	svc     *Service
	roomHub *hub.Hub
	log     *log.Logger
	userId  int
	roomId  int
	send    chan any
	stop    chan struct{}
}

func NewClient(userId, roomId int, conn *websocket.Conn, svc *Service, roomHub *hub.Hub, l *log.Logger) *Client {
	return &Client{
		conn:    conn,
		svc:     svc,
		roomHub: roomHub,
		log:     l,
		userId:  userId,
		roomId:  roomId,
		send:    make(chan any, 256),
		stop:    make(chan struct{}),
	}
}

// Queue implements hub.Conn.
func (c *Client) Queue(payload any) bool {
	select {
	case c.send <- payload:
	default:
		c.log.Println("chat: send channel full, dropping frame")
		return false
	}

	return true
}

// Run registers the session and blocks until the socket closes.
func (c *Client) Run() {
	c.roomHub.Connect(c.roomId, c)
	go c.write()
	c.read()
}

func (c *Client) write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(payload)
			if err != nil {
				c.log.Println("chat: serialize frame:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("chat: read: %v", err)
			}
			break
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Println("chat: malformed frame:", err)
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("chat: write message: %s", err)
		}
		return false
	}

	return true
}

// handleFrame dispatches one inbound frame. Bad frames are logged and
// dropped so a misbehaving client cannot take its own session down.
func (c *Client) handleFrame(frame ClientFrame) {
	switch {
	case frame.Type == frameTypeDelete:
		if frame.MessageId == 0 {
			c.log.Println("chat: delete frame without message id")
			return
		}
		if err := c.svc.DeleteMessage(c.roomId, frame.MessageId, c.userId); err != nil {
			c.log.Printf("chat: delete message %d: %v", frame.MessageId, err)
		}
	case validFrameType(frame.Type):
		if frame.Content == "" {
			c.log.Println("chat: frame without content")
			return
		}
		if _, err := c.svc.PostMessage(context.Background(), c.roomId, c.userId, frame.Type, frame.Content); err != nil {
			c.log.Printf("chat: post message: %v", err)
		}
	default:
		c.log.Printf("chat: unknown frame type %q", frame.Type)
	}
}

func (c *Client) cleanup() {
	c.roomHub.Disconnect(c.roomId, c)
	close(c.stop)
}
