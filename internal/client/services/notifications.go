package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/occasio/occasio/internal/client/api"
	"github.com/occasio/occasio/internal/client/models"
	"github.com/occasio/occasio/internal/logging"
)

// Delivery delays. Today's reminders fire almost immediately, upcoming ones
// shortly after so the two batches arrive in a stable order.
const (
	todayNotifyDelay    = 1 * time.Second
	upcomingNotifyDelay = 5 * time.Second
)

// rangeDays maps the reminder range setting to a day window. Unknown values
// fall back to defaultRangeDays.
var rangeDays = map[models.ReminderRange]int{
	models.RangeWeekly:  7,
	models.RangeMonthly: 30,
	models.RangeYearly:  365,
}

const defaultRangeDays = 30

// Notifier delivers a single user-facing reminder.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// LogNotifier emits reminders to the structured log. It stands in for a
// platform notification channel in the terminal client.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, title, body string) {
	n.log.Info(ctx, "reminder", "title", title, "body", body)
}

// Scheduler turns the authoritative event list into pending reminders.
// Each Schedule call replaces the previous plan wholesale; timers from the
// superseded plan are cancelled before new ones are armed.
type Scheduler struct {
	apiClient api.Client
	notifier  Notifier
	log       logging.Logger
	now       func() time.Time

	mu     sync.Mutex
	timers []*time.Timer
}

func NewScheduler(apiClient api.Client, notifier Notifier, log logging.Logger) *Scheduler {
	return &Scheduler{
		apiClient: apiClient,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// Schedule fetches the user's events and arms reminders for today's events
// and for those within the reminder range. A failed fetch degrades to an
// empty plan; reminders for unreachable data are worse than none.
func (s *Scheduler) Schedule(ctx context.Context, user *models.User) {
	if !user.Settings.Notifications {
		s.Stop()
		return
	}

	events, err := s.apiClient.GetEvents(ctx, user.Email)
	if err != nil {
		s.log.Warn(ctx, "event fetch for reminders failed", "error", err)
		events = nil
	}

	today, upcoming := s.Partition(events, user.Settings.Reminder.Range)

	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range today {
		s.timers = append(s.timers, s.arm(todayNotifyDelay,
			"Today", fmt.Sprintf("%s (%s) is today", ev.Name, ev.Type)))
	}
	for _, ev := range upcoming {
		s.timers = append(s.timers, s.arm(upcomingNotifyDelay,
			"Upcoming", fmt.Sprintf("%s (%s) on %s", ev.Name, ev.Type, ev.Date)))
	}

	s.log.Debug(ctx, "reminders scheduled", "today", len(today), "upcoming", len(upcoming))
}

// Partition splits events into today's and those due within the reminder
// range. Past events and events beyond the range are dropped. Events with an
// unparseable date are skipped rather than failing the whole plan.
func (s *Scheduler) Partition(events []models.Event, rng models.ReminderRange) (today, upcoming []models.Event) {
	window, ok := rangeDays[rng]
	if !ok {
		window = defaultRangeDays
	}

	now := s.now().UTC()
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, ev := range events {
		day, err := ev.Day()
		if err != nil {
			continue
		}
		diff := int(day.Sub(base).Hours() / 24)
		switch {
		case diff == 0:
			today = append(today, ev)
		case diff > 0 && diff <= window:
			upcoming = append(upcoming, ev)
		}
	}
	return today, upcoming
}

// Stop cancels all pending reminders.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Scheduler) arm(delay time.Duration, title, body string) *time.Timer {
	return time.AfterFunc(delay, func() {
		s.notifier.Notify(context.Background(), title, body)
	})
}
