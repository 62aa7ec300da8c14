// Package chat owns rooms, messages, read watermarks and the room socket
// sessions that sit on top of them.
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/hub"
	"github.com/pongsakornd/comic-secretary/internal/notify"
	"github.com/pongsakornd/comic-secretary/internal/types"
)

var (
	ErrNotFound           = errors.New("room or message not found")
	ErrNotAuthorized      = errors.New("not a participant of this room")
	ErrInvalidMessageType = errors.New("unknown message type")
)

type Service struct {
	repo     database.Repository
	roomHub  *hub.Hub
	blobs    blob.Store
	notifier notify.Notifier
	logger   *log.Logger
}

func NewService(repo database.Repository, roomHub *hub.Hub, blobs blob.Store, notifier notify.Notifier, logger *log.Logger) *Service {
	return &Service{
		repo:     repo,
		roomHub:  roomHub,
		blobs:    blobs,
		notifier: notifier,
		logger:   logger,
	}
}

// GeneralRoomForEmployer finds or creates the job-less room between the
// employer and one of their employees.
func (s *Service) GeneralRoomForEmployer(employerId, employeeId int) (database.ChatRoom, error) {
	employee, err := s.repo.GetEmployeeById(employeeId)
	if err != nil {
		return database.ChatRoom{}, ErrNotFound
	}
	if employee.EmployerId != employerId {
		return database.ChatRoom{}, ErrNotAuthorized
	}

	return s.repo.FindOrCreateGeneralRoom(employerId, employeeId)
}

// GeneralRoomForEmployee is the employee-side entry: the counterparty is
// always their employer.
func (s *Service) GeneralRoomForEmployee(employeeUserId int) (database.ChatRoom, error) {
	employee, err := s.repo.GetEmployeeByUserId(employeeUserId)
	if err != nil {
		return database.ChatRoom{}, ErrNotFound
	}

	return s.repo.FindOrCreateGeneralRoom(employee.EmployerId, employee.Id)
}

// AttachJobContext posts a synthetic context marker so the conversation
// can reference a job without retagging the room itself.
func (s *Service) AttachJobContext(ctx context.Context, roomId, jobId, actingUserId int) (database.ChatMessage, error) {
	job, err := s.repo.GetJobById(jobId)
	if err != nil {
		return database.ChatMessage{}, ErrNotFound
	}

	content := fmt.Sprintf("CONTEXT:%s (Ep %d)::%d", job.ComicTitle, job.EpisodeNumber, jobId)
	return s.PostMessage(ctx, roomId, actingUserId, database.MessageTypeContext, content)
}

// PostMessage persists the message, broadcasts it to the room's sockets
// and notifies the other participant. Persist comes first: a message the
// room saw but the store lost would be worse than the reverse.
func (s *Service) PostMessage(ctx context.Context, roomId, senderId int, msgType, content string) (database.ChatMessage, error) {
	if !validFrameType(msgType) {
		return database.ChatMessage{}, ErrInvalidMessageType
	}

	room, err := s.repo.GetRoomById(roomId)
	if err != nil {
		return database.ChatMessage{}, ErrNotFound
	}

	employerUserId, employeeUserId, err := s.participants(room)
	if err != nil {
		return database.ChatMessage{}, err
	}
	if senderId != employerUserId && senderId != employeeUserId {
		return database.ChatMessage{}, ErrNotAuthorized
	}

	msg, err := s.repo.CreateMessage(database.CreateMessageParams{
		RoomId:   roomId,
		SenderId: senderId,
		Type:     msgType,
		Content:  content,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return database.ChatMessage{}, fmt.Errorf("persist message: %w", err)
	}

	full, err := s.repo.GetMessageById(msg.Id)
	if err != nil {
		s.logger.Printf("chat: reload message %d: %v", msg.Id, err)
		full = msg
	}

	s.roomHub.Send(roomId, newMessageFrame(full))

	target := employeeUserId
	direction := notify.EmployerToEmployee
	if senderId == employeeUserId {
		target = employerUserId
		direction = notify.EmployeeToEmployer
	}

	s.notifier.Dispatch(ctx, notify.Event{
		Kind:      notify.KindNewMessage,
		TargetId:  target,
		Title:     "New Message",
		Body:      notificationBody(full),
		RoomId:    roomId,
		Direction: direction,
	})

	return full, nil
}

func notificationBody(msg database.ChatMessage) string {
	switch msg.Type {
	case database.MessageTypeImage:
		return "[image]"
	case database.MessageTypeFile:
		return "[file]"
	default:
		return msg.Content
	}
}

// DeleteMessage hard-deletes the sender's own message and tells the room.
// No notification goes out for delete markers.
func (s *Service) DeleteMessage(roomId, messageId, requesterId int) error {
	msg, err := s.repo.GetMessageById(messageId)
	if err != nil {
		return ErrNotFound
	}
	if msg.RoomId != roomId {
		return ErrNotFound
	}
	if msg.SenderId != requesterId {
		return ErrNotAuthorized
	}

	if err := s.repo.DeleteMessage(messageId); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.roomHub.Send(roomId, DeleteFrame{Type: frameTypeDelete, MessageId: messageId})
	return nil
}

// DeleteRoom tears the room down: attachment blobs first (best effort),
// then the read-status rows, messages and the room itself in one
// transaction.
func (s *Service) DeleteRoom(roomId, requesterId int) error {
	room, err := s.repo.GetRoomById(roomId)
	if err != nil {
		return ErrNotFound
	}

	employerUserId, employeeUserId, err := s.participants(room)
	if err != nil {
		return err
	}
	if requesterId != employerUserId && requesterId != employeeUserId {
		return ErrNotAuthorized
	}

	keys, err := s.repo.ListRoomAttachmentKeys(roomId)
	if err != nil {
		s.logger.Printf("chat: list attachments for room %d: %v", roomId, err)
	}
	for _, key := range keys {
		if err := s.blobs.Delete(key); err != nil {
			s.logger.Printf("chat: delete attachment %s: %v", key, err)
		}
	}

	return s.repo.DeleteRoom(roomId)
}

// History returns the room's full message log in send order.
func (s *Service) History(roomId, requesterId int) ([]database.ChatMessage, error) {
	room, err := s.repo.GetRoomById(roomId)
	if err != nil {
		return nil, ErrNotFound
	}

	employerUserId, employeeUserId, err := s.participants(room)
	if err != nil {
		return nil, err
	}
	if requesterId != employerUserId && requesterId != employeeUserId {
		return nil, ErrNotAuthorized
	}

	return s.repo.ListMessages(roomId)
}

// MarkRead advances the requester's watermark. The proposed id is clamped
// to the room's current maximum so a client can never claim to have read
// messages that do not exist yet.
func (s *Service) MarkRead(roomId, userId, proposedId int) error {
	max, err := s.repo.MaxMessageId(roomId)
	if err != nil {
		return fmt.Errorf("room max id: %w", err)
	}

	if proposedId > max {
		proposedId = max
	}
	if proposedId <= 0 {
		return nil
	}

	return s.repo.MarkRead(roomId, userId, proposedId)
}

// UnreadCount counts the other participant's messages past the viewer's
// watermark. A viewer with no watermark row starts at zero.
func (s *Service) UnreadCount(room database.ChatRoom, viewerId int) (int, error) {
	employerUserId, employeeUserId, err := s.participants(room)
	if err != nil {
		return 0, err
	}

	other := employeeUserId
	if viewerId == employeeUserId {
		other = employerUserId
	} else if viewerId != employerUserId {
		return 0, ErrNotAuthorized
	}

	watermark, err := s.repo.GetWatermark(room.Id, viewerId)
	if err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}

	return s.repo.CountMessagesFrom(room.Id, other, watermark)
}

// RoomsForEmployer builds the employer's room-list view with per-room and
// total unread counts.
func (s *Service) RoomsForEmployer(employerId int) (types.RoomList, error) {
	listings, err := s.repo.ListEmployerRooms(employerId)
	if err != nil {
		return types.RoomList{}, fmt.Errorf("list rooms: %w", err)
	}

	return s.buildRoomList(listings, employerId)
}

// RoomsForEmployee is the employee-side view of the same list.
func (s *Service) RoomsForEmployee(employeeUserId int) (types.RoomList, error) {
	employee, err := s.repo.GetEmployeeByUserId(employeeUserId)
	if err != nil {
		return types.RoomList{}, ErrNotFound
	}

	listings, err := s.repo.ListEmployeeRooms(employee.Id)
	if err != nil {
		return types.RoomList{}, fmt.Errorf("list rooms: %w", err)
	}

	return s.buildRoomList(listings, employeeUserId)
}

func (s *Service) buildRoomList(listings []database.RoomListing, viewerId int) (types.RoomList, error) {
	list := types.RoomList{Rooms: make([]types.RoomSummary, 0, len(listings))}
	for _, l := range listings {
		otherUserId := l.EmployeeUserId
		summary := types.RoomSummary{
			Id:              l.RoomId,
			ParticipantName: l.EmployeeName,
			ParticipantRole: types.RoleEmployee,
		}
		if viewerId == l.EmployeeUserId {
			otherUserId = l.EmployerId
			summary.ParticipantName = "Employer"
			summary.ParticipantRole = types.RoleEmployer
		}
		if l.JobId.Valid {
			summary.JobId = int(l.JobId.Int64)
			if l.ComicTitle.Valid && l.JobEpisode.Valid {
				summary.JobContext = fmt.Sprintf("%s (Ep %d)", l.ComicTitle.String, l.JobEpisode.Int64)
			}
		}
		if l.LastMessage.Valid {
			summary.LastMessage = previewContent(l.LastMessageType, l.LastMessage)
		}
		if l.LastMessageAt.Valid {
			at := l.LastMessageAt.Time
			summary.LastMessageTime = &at
		}

		watermark, err := s.repo.GetWatermark(l.RoomId, viewerId)
		if err != nil {
			return types.RoomList{}, fmt.Errorf("read watermark: %w", err)
		}
		unread, err := s.repo.CountMessagesFrom(l.RoomId, otherUserId, watermark)
		if err != nil {
			return types.RoomList{}, fmt.Errorf("count unread: %w", err)
		}
		summary.UnreadCount = unread

		list.TotalUnreadCount += unread
		list.Rooms = append(list.Rooms, summary)
	}

	return list, nil
}

func previewContent(msgType, content sql.NullString) string {
	switch msgType.String {
	case database.MessageTypeImage:
		return "[image]"
	case database.MessageTypeFile:
		return "[file]"
	default:
		return content.String
	}
}

func (s *Service) participants(room database.ChatRoom) (employerUserId, employeeUserId int, err error) {
	employee, err := s.repo.GetEmployeeById(room.EmployeeId)
	if err != nil {
		return 0, 0, fmt.Errorf("load employee: %w", err)
	}

	return room.EmployerId, employee.UserId, nil
}
