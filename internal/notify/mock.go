package notify

import (
	"context"

	"github.com/pongsakornd/comic-secretary/internal/telegram"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(ctx context.Context, event Event) {
	m.Called(ctx, event)
}

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	args := m.Called(ctx, tokens, title, body, data)
	return args.Error(0)
}

type MockTelegramSender struct {
	mock.Mock
}

func (m *MockTelegramSender) Send(ctx context.Context, chatId, text string, bot telegram.Bot) error {
	args := m.Called(ctx, chatId, text, bot)
	return args.Error(0)
}
