// Package notify fans workflow events out to the three delivery channels:
// in-app socket, mobile push and Telegram.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/hub"
	"github.com/pongsakornd/comic-secretary/internal/push"
	"github.com/pongsakornd/comic-secretary/internal/stats"
	"github.com/pongsakornd/comic-secretary/internal/telegram"
)

const (
	KindNewJob          = "NEW_JOB"
	KindJobComplete     = "JOB_COMPLETE"
	KindRevisionRequest = "REVISION_REQUEST"
	KindFileAdded       = "FILE_ADDED"
	KindNewMessage      = "NEW_MESSAGE"
)

// Direction states who is telling whom. It picks the Telegram bot and the
// chat id column used for delivery.
type Direction int

const (
	EmployerToEmployee Direction = iota
	EmployeeToEmployer
)

type Event struct {
	Kind      string
	TargetId  int
	Title     string
	Body      string
	JobId     int
	RoomId    int
	Direction Direction
}

// Envelope is the frame pushed over the user socket.
type Envelope struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	JobId  int    `json:"job_id,omitempty"`
	RoomId int    `json:"room_id,omitempty"`
}

type Notifier interface {
	Dispatch(ctx context.Context, event Event)
}

// Dispatcher drives the three channels in order. A failure on one channel
// is logged and never blocks the others: the state change behind the event
// is already committed.
type Dispatcher struct {
	userHub  *hub.Hub
	repo     database.Repository
	push     push.Sender
	telegram telegram.Sender
	stats    stats.StatsProvider
	logger   *log.Logger

	// Last kind delivered per recipient. A repeat of the same kind gets
	// the abbreviated Telegram body.
	mu       sync.Mutex
	lastKind map[int]string
}

func NewDispatcher(userHub *hub.Hub, repo database.Repository, pushSender push.Sender, tgSender telegram.Sender, sp stats.StatsProvider, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		userHub:  userHub,
		repo:     repo,
		push:     pushSender,
		telegram: tgSender,
		stats:    sp,
		logger:   logger,
		lastKind: make(map[int]string),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if d.stats != nil {
		d.stats.Incr(stats.MetricNotificationsSent)
	}

	d.sendSocket(event)
	d.sendPush(ctx, event)
	d.sendTelegram(ctx, event)
}

func (d *Dispatcher) sendSocket(event Event) {
	delivered := d.userHub.Send(event.TargetId, Envelope{
		Type:   event.Kind,
		Title:  event.Title,
		Body:   event.Body,
		JobId:  event.JobId,
		RoomId: event.RoomId,
	})
	if !delivered {
		d.logger.Printf("notify: user %d offline, socket delivery skipped (%s)", event.TargetId, event.Kind)
	}
}

func (d *Dispatcher) sendPush(ctx context.Context, event Event) {
	tokens, err := d.repo.ListActiveDeviceTokens(event.TargetId)
	if err != nil {
		d.logger.Printf("notify: list devices for user %d: %v", event.TargetId, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{"type": event.Kind}
	if err := d.push.Send(ctx, tokens, event.Title, event.Body, data); err != nil {
		d.logger.Printf("notify: push to user %d failed (%s): %v", event.TargetId, event.Kind, err)
	}
}

func (d *Dispatcher) sendTelegram(ctx context.Context, event Event) {
	chatId, bot, err := d.resolveTelegramTarget(event)
	if err != nil {
		d.logger.Printf("notify: resolve telegram target for user %d: %v", event.TargetId, err)
		return
	}
	if chatId == "" {
		return
	}

	text := event.Title + "\n" + event.Body
	if d.repeatsLastKind(event.TargetId, event.Kind) {
		text = event.Body
	}

	if err := d.telegram.Send(ctx, chatId, text, bot); err != nil {
		d.logger.Printf("notify: telegram to user %d failed (%s): %v", event.TargetId, event.Kind, err)
		return
	}

	d.recordKind(event.TargetId, event.Kind)

	if event.JobId != 0 {
		if err := d.repo.SetJobActivityTag(event.JobId, event.Kind); err != nil {
			d.logger.Printf("notify: record activity tag on job %d: %v", event.JobId, err)
		}
	}
}

func (d *Dispatcher) resolveTelegramTarget(event Event) (string, telegram.Bot, error) {
	if event.Direction == EmployerToEmployee {
		employee, err := d.repo.GetEmployeeByUserId(event.TargetId)
		if err != nil {
			return "", telegram.BotNotify, err
		}
		if !employee.TelegramChatId.Valid {
			return "", telegram.BotNotify, nil
		}
		return employee.TelegramChatId.String, telegram.BotNotify, nil
	}

	user, err := d.repo.GetUserById(event.TargetId)
	if err != nil {
		return "", telegram.BotReport, err
	}
	if !user.TelegramReportChatId.Valid {
		return "", telegram.BotReport, nil
	}
	return user.TelegramReportChatId.String, telegram.BotReport, nil
}

func (d *Dispatcher) repeatsLastKind(userId int, kind string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastKind[userId] == kind
}

func (d *Dispatcher) recordKind(userId int, kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastKind[userId] = kind
}
