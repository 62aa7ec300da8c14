package digest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/notify"
	"github.com/pongsakornd/comic-secretary/internal/telegram"
	"github.com/pongsakornd/comic-secretary/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// fixedFriday pins the clock so tomorrow is always saturday.
var fixedFriday = time.Date(2025, time.June, 6, 20, 0, 0, 0, time.UTC)

func newTestDigest(t *testing.T, repo *database.MockRepository, sender *notify.MockTelegramSender) *Digest {
	t.Helper()

	d := New(repo, sender, "", testutil.TestLogger(t))
	d.now = func() time.Time { return fixedFriday }
	return d
}

func TestDigest_RunOnce(t *testing.T) {
	employer := database.User{
		Id:                   1,
		Email:                "boss@studio.test",
		TelegramReportChatId: sql.NullString{String: "chat-1", Valid: true},
	}

	t.Run("sends a reminder for tomorrow's comics", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		sender := &notify.MockTelegramSender{}
		defer sender.AssertExpectations(t)

		comics := []database.Comic{
			{Id: 4, Title: "Moonlight Garden", LastUpdatedEp: 3},
			{Id: 5, Title: "Iron Petals", LastUpdatedEp: 11},
		}

		mockRepo.On("ListEmployers").Return([]database.User{employer}, nil).Once()
		mockRepo.On("ListComicsUpdatingOn", employer.Id, "saturday").Return(comics, nil).Once()
		sender.On("Send", mock.Anything, "chat-1", mock.MatchedBy(func(text string) bool {
			return strings.Contains(text, "Moonlight Garden Ep 4") &&
				strings.Contains(text, "Iron Petals Ep 12")
		}), telegram.BotReport).Return(nil).Once()

		d := newTestDigest(t, mockRepo, sender)
		assert.NoError(t, d.RunOnce(context.Background()))
	})

	t.Run("skips employers without a report chat", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		sender := &notify.MockTelegramSender{}
		defer sender.AssertExpectations(t)

		mockRepo.On("ListEmployers").Return([]database.User{{Id: 2}}, nil).Once()

		d := newTestDigest(t, mockRepo, sender)
		assert.NoError(t, d.RunOnce(context.Background()))
		mockRepo.AssertNotCalled(t, "ListComicsUpdatingOn", mock.Anything, mock.Anything)
	})

	t.Run("skips employers with nothing updating", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		sender := &notify.MockTelegramSender{}
		defer sender.AssertExpectations(t)

		mockRepo.On("ListEmployers").Return([]database.User{employer}, nil).Once()
		mockRepo.On("ListComicsUpdatingOn", employer.Id, "saturday").Return([]database.Comic{}, nil).Once()

		d := newTestDigest(t, mockRepo, sender)
		assert.NoError(t, d.RunOnce(context.Background()))
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("send failure does not stop the run", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		sender := &notify.MockTelegramSender{}
		defer sender.AssertExpectations(t)

		second := database.User{
			Id:                   3,
			TelegramReportChatId: sql.NullString{String: "chat-3", Valid: true},
		}
		comics := []database.Comic{{Id: 4, Title: "Moonlight Garden", LastUpdatedEp: 3}}

		mockRepo.On("ListEmployers").Return([]database.User{employer, second}, nil).Once()
		mockRepo.On("ListComicsUpdatingOn", employer.Id, "saturday").Return(comics, nil).Once()
		mockRepo.On("ListComicsUpdatingOn", second.Id, "saturday").Return(comics, nil).Once()
		sender.On("Send", mock.Anything, "chat-1", mock.Anything, telegram.BotReport).
			Return(errors.New("telegram down")).Once()
		sender.On("Send", mock.Anything, "chat-3", mock.Anything, telegram.BotReport).
			Return(nil).Once()

		d := newTestDigest(t, mockRepo, sender)
		assert.NoError(t, d.RunOnce(context.Background()))
	})
}

func TestDigest_defaultSchedule(t *testing.T) {
	d := New(&database.MockRepository{}, &notify.MockTelegramSender{}, "", nil)
	assert.Equal(t, DefaultSchedule, d.schedule)
}
