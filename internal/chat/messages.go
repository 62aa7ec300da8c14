package chat

import (
	"time"

	"github.com/pongsakornd/comic-secretary/internal/database"
)

// ClientFrame is what a room socket sends us.
type ClientFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	MessageId int    `json:"message_id,omitempty"`
}

const frameTypeDelete = "delete"

// MessageFrame is a persisted message broadcast to the room.
type MessageFrame struct {
	Type        string    `json:"type"`
	Id          int       `json:"id"`
	RoomId      int       `json:"room_id"`
	SenderId    int       `json:"sender_id"`
	SenderEmail string    `json:"sender_email,omitempty"`
	SenderRole  string    `json:"sender_role,omitempty"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}

// DeleteFrame tells the room a message is gone.
type DeleteFrame struct {
	Type      string `json:"type"`
	MessageId int    `json:"message_id"`
}

func newMessageFrame(msg database.ChatMessage) MessageFrame {
	return MessageFrame{
		Type:        msg.Type,
		Id:          msg.Id,
		RoomId:      msg.RoomId,
		SenderId:    msg.SenderId,
		SenderEmail: msg.SenderEmail,
		SenderRole:  msg.SenderRole,
		Content:     msg.Content,
		SentAt:      msg.SentAt,
	}
}

func validFrameType(t string) bool {
	switch t {
	case database.MessageTypeText, database.MessageTypeImage, database.MessageTypeFile, database.MessageTypeContext:
		return true
	}
	return false
}
