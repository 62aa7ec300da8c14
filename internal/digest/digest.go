// Package digest sends each employer a nightly Telegram reminder listing
// the comics that update the next day.
package digest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/telegram"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "0 20 * * *"

type Digest struct {
	repo     database.Repository
	telegram telegram.Sender
	cron     *cron.Cron
	schedule string
	logger   *log.Logger

	now func() time.Time
}

func New(repo database.Repository, sender telegram.Sender, schedule string, logger *log.Logger) *Digest {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Digest{
		repo:     repo,
		telegram: sender,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

func (d *Digest) Start() error {
	_, err := d.cron.AddFunc(d.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := d.RunOnce(ctx); err != nil {
			d.logger.Printf("digest: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}

	d.cron.Start()
	d.logger.Printf("digest scheduled with %q", d.schedule)
	return nil
}

func (d *Digest) Stop() {
	<-d.cron.Stop().Done()
}

// RunOnce sends one round of reminders covering tomorrow's updates.
func (d *Digest) RunOnce(ctx context.Context) error {
	tomorrow := strings.ToLower(d.now().Add(24 * time.Hour).Weekday().String())

	employers, err := d.repo.ListEmployers()
	if err != nil {
		return fmt.Errorf("list employers: %w", err)
	}

	for _, employer := range employers {
		if !employer.TelegramReportChatId.Valid {
			continue
		}

		comics, err := d.repo.ListComicsUpdatingOn(employer.Id, tomorrow)
		if err != nil {
			d.logger.Printf("digest: list comics for employer %d: %v", employer.Id, err)
			continue
		}
		if len(comics) == 0 {
			continue
		}

		text := buildReminder(comics)
		if err := d.telegram.Send(ctx, employer.TelegramReportChatId.String, text, telegram.BotReport); err != nil {
			d.logger.Printf("digest: send to employer %d: %v", employer.Id, err)
		}
	}

	return nil
}

func buildReminder(comics []database.Comic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Tomorrow's updates (%d)*\n", len(comics))
	for _, c := range comics {
		fmt.Fprintf(&b, "- %s Ep %d\n", c.Title, c.LastUpdatedEp+1)
	}

	return b.String()
}
