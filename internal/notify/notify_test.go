package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/hub"
	"github.com/pongsakornd/comic-secretary/internal/telegram"
	"github.com/pongsakornd/comic-secretary/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type captureConn struct {
	frames []any
}

func (c *captureConn) Queue(payload any) bool {
	c.frames = append(c.frames, payload)
	return true
}

func newTestDispatcher(t *testing.T, repo database.Repository) (*Dispatcher, *hub.Hub, *MockPushSender, *MockTelegramSender) {
	userHub := hub.NewHub("user", testutil.TestLogger(t))
	pushSender := &MockPushSender{}
	tgSender := &MockTelegramSender{}
	d := NewDispatcher(userHub, repo, pushSender, tgSender, nil, testutil.TestLogger(t))
	return d, userHub, pushSender, tgSender
}

func TestDispatcher_AllThreeChannels(t *testing.T) {
	repo := &database.MockRepository{}
	d, userHub, pushSender, tgSender := newTestDispatcher(t, repo)

	conn := &captureConn{}
	userHub.Connect(10, conn)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{"tok-1"}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{
		Id:             3,
		UserId:         10,
		TelegramChatId: sql.NullString{String: "chat-1", Valid: true},
	}, nil)
	repo.On("SetJobActivityTag", 55, KindNewJob).Return(nil)
	pushSender.On("Send", mock.Anything, []string{"tok-1"}, "New Job", "Episode 12", map[string]string{"type": KindNewJob}).Return(nil)
	tgSender.On("Send", mock.Anything, "chat-1", "New Job\nEpisode 12", telegram.BotNotify).Return(nil)

	d.Dispatch(context.Background(), Event{
		Kind:      KindNewJob,
		TargetId:  10,
		Title:     "New Job",
		Body:      "Episode 12",
		JobId:     55,
		Direction: EmployerToEmployee,
	})

	assert.Len(t, conn.frames, 1)
	env := conn.frames[0].(Envelope)
	assert.Equal(t, KindNewJob, env.Type)
	assert.Equal(t, 55, env.JobId)
	repo.AssertExpectations(t)
	pushSender.AssertExpectations(t)
	tgSender.AssertExpectations(t)
}

func TestDispatcher_RepeatKindAbbreviatesTelegram(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, _, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{
		TelegramChatId: sql.NullString{String: "chat-1", Valid: true},
	}, nil)
	repo.On("SetJobActivityTag", 55, KindFileAdded).Return(nil)
	tgSender.On("Send", mock.Anything, "chat-1", "Files Added\nreference.png", telegram.BotNotify).Return(nil).Once()
	tgSender.On("Send", mock.Anything, "chat-1", "colors.png", telegram.BotNotify).Return(nil).Once()

	event := Event{
		Kind:      KindFileAdded,
		TargetId:  10,
		Title:     "Files Added",
		Body:      "reference.png",
		JobId:     55,
		Direction: EmployerToEmployee,
	}
	d.Dispatch(context.Background(), event)

	event.Body = "colors.png"
	d.Dispatch(context.Background(), event)

	tgSender.AssertExpectations(t)
}

func TestDispatcher_KindChangeRestoresFullBody(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, _, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{
		TelegramChatId: sql.NullString{String: "chat-1", Valid: true},
	}, nil)
	repo.On("SetJobActivityTag", mock.Anything, mock.Anything).Return(nil)
	tgSender.On("Send", mock.Anything, "chat-1", "New Job\nep 1", telegram.BotNotify).Return(nil).Once()
	tgSender.On("Send", mock.Anything, "chat-1", "Files Added\nref.png", telegram.BotNotify).Return(nil).Once()

	d.Dispatch(context.Background(), Event{Kind: KindNewJob, TargetId: 10, Title: "New Job", Body: "ep 1", JobId: 1, Direction: EmployerToEmployee})
	d.Dispatch(context.Background(), Event{Kind: KindFileAdded, TargetId: 10, Title: "Files Added", Body: "ref.png", JobId: 1, Direction: EmployerToEmployee})

	tgSender.AssertExpectations(t)
}

func TestDispatcher_EmployeeToEmployerUsesReportBot(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, _, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 2).Return([]string{}, nil)
	repo.On("GetUserById", 2).Return(database.User{
		Id:                   2,
		TelegramReportChatId: sql.NullString{String: "boss-chat", Valid: true},
	}, nil)
	repo.On("SetJobActivityTag", 7, KindJobComplete).Return(nil)
	tgSender.On("Send", mock.Anything, "boss-chat", "Job Complete\nEpisode 4 done", telegram.BotReport).Return(nil)

	d.Dispatch(context.Background(), Event{
		Kind:      KindJobComplete,
		TargetId:  2,
		Title:     "Job Complete",
		Body:      "Episode 4 done",
		JobId:     7,
		Direction: EmployeeToEmployer,
	})

	tgSender.AssertExpectations(t)
}

func TestDispatcher_NoTelegramChatIdSkipsQuietly(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, _, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{}, nil)

	d.Dispatch(context.Background(), Event{
		Kind:      KindNewJob,
		TargetId:  10,
		Title:     "New Job",
		Body:      "ep 1",
		JobId:     1,
		Direction: EmployerToEmployee,
	})

	tgSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SetJobActivityTag", mock.Anything, mock.Anything)
}

func TestDispatcher_PushFailureDoesNotBlockTelegram(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, pushSender, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{"tok"}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{
		TelegramChatId: sql.NullString{String: "chat-1", Valid: true},
	}, nil)
	repo.On("SetJobActivityTag", 5, KindRevisionRequest).Return(nil)
	pushSender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("fcm down"))
	tgSender.On("Send", mock.Anything, "chat-1", "Revision\nfix ep 3", telegram.BotNotify).Return(nil)

	d.Dispatch(context.Background(), Event{
		Kind:      KindRevisionRequest,
		TargetId:  10,
		Title:     "Revision",
		Body:      "fix ep 3",
		JobId:     5,
		Direction: EmployerToEmployee,
	})

	tgSender.AssertExpectations(t)
}

func TestDispatcher_TelegramFailureSkipsTagWrite(t *testing.T) {
	repo := &database.MockRepository{}
	d, _, _, tgSender := newTestDispatcher(t, repo)

	repo.On("ListActiveDeviceTokens", 10).Return([]string{}, nil)
	repo.On("GetEmployeeByUserId", 10).Return(database.Employee{
		TelegramChatId: sql.NullString{String: "chat-1", Valid: true},
	}, nil)
	tgSender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("telegram down"))

	d.Dispatch(context.Background(), Event{
		Kind:      KindNewJob,
		TargetId:  10,
		Title:     "New Job",
		Body:      "ep 1",
		JobId:     1,
		Direction: EmployerToEmployee,
	})

	repo.AssertNotCalled(t, "SetJobActivityTag", mock.Anything, mock.Anything)
}
