package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occasio/occasio/internal/client/api"
	"github.com/occasio/occasio/internal/client/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []string
	ready chan struct{}
}

func newRecordingNotifier(expected int) *recordingNotifier {
	return &recordingNotifier{ready: make(chan struct{}, expected)}
}

func (r *recordingNotifier) Notify(ctx context.Context, title, body string) {
	r.mu.Lock()
	r.sent = append(r.sent, title+": "+body)
	r.mu.Unlock()
	r.ready <- struct{}{}
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	copy(out, r.sent)
	return out
}

func fixedDay(t *testing.T, s *Scheduler, day string) {
	t.Helper()
	d, err := time.Parse(models.DateLayout, day)
	require.NoError(t, err)
	s.now = func() time.Time { return d }
}

func TestPartition(t *testing.T) {
	events := []models.Event{
		{ID: "past", Name: "Past", Date: "2026-08-25", Type: models.EventBirthday},
		{ID: "today", Name: "Today", Date: "2026-09-01", Type: models.EventAppointment},
		{ID: "soon", Name: "Soon", Date: "2026-09-05", Type: models.EventInterview},
		{ID: "month", Name: "Month", Date: "2026-10-01", Type: models.EventAnniversary},
		{ID: "far", Name: "Far", Date: "2027-06-01", Type: models.EventBirthday},
		{ID: "bad", Name: "Bad", Date: "not-a-date", Type: models.EventBirthday},
	}

	tests := []struct {
		name         string
		rng          models.ReminderRange
		wantToday    []string
		wantUpcoming []string
	}{
		{
			name:         "weekly window",
			rng:          models.RangeWeekly,
			wantToday:    []string{"today"},
			wantUpcoming: []string{"soon"},
		},
		{
			name:         "monthly window",
			rng:          models.RangeMonthly,
			wantToday:    []string{"today"},
			wantUpcoming: []string{"soon", "month"},
		},
		{
			name:         "yearly window",
			rng:          models.RangeYearly,
			wantToday:    []string{"today"},
			wantUpcoming: []string{"soon", "month", "far"},
		},
		{
			name:         "unknown range falls back to a month",
			rng:          models.ReminderRange("Fortnightly"),
			wantToday:    []string{"today"},
			wantUpcoming: []string{"soon", "month"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(&fakeAPI{}, newRecordingNotifier(0), testLogger())
			fixedDay(t, s, "2026-09-01")

			today, upcoming := s.Partition(events, tt.rng)

			assert.Equal(t, tt.wantToday, ids(today))
			assert.Equal(t, tt.wantUpcoming, ids(upcoming), "past events and events beyond the window are dropped")
		})
	}
}

func ids(events []models.Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	user := &models.User{Email: "a@b.c", Settings: models.DefaultSettings()}

	t.Run("delivers today's reminder", func(t *testing.T) {
		a := &fakeAPI{getEventsFn: func(ctx context.Context, email string) ([]models.Event, error) {
			return []models.Event{{ID: "1", Name: "Dentist", Date: time.Now().UTC().Format(models.DateLayout), Type: models.EventAppointment}}, nil
		}}
		n := newRecordingNotifier(1)
		s := NewScheduler(a, n, testLogger())
		defer s.Stop()

		s.Schedule(ctx, user)

		select {
		case <-n.ready:
		case <-time.After(5 * time.Second):
			t.Fatal("reminder was not delivered")
		}
		require.Len(t, n.all(), 1)
		assert.Contains(t, n.all()[0], "Dentist")
		assert.Contains(t, n.all()[0], "Today")
	})

	t.Run("fetch failure degrades to no reminders", func(t *testing.T) {
		a := &fakeAPI{getEventsFn: func(ctx context.Context, email string) ([]models.Event, error) {
			return nil, api.ErrUnavailable
		}}
		n := newRecordingNotifier(1)
		s := NewScheduler(a, n, testLogger())
		defer s.Stop()

		s.Schedule(ctx, user)

		time.Sleep(1500 * time.Millisecond)
		assert.Empty(t, n.all())
	})

	t.Run("disabled notifications cancel the plan", func(t *testing.T) {
		a := &fakeAPI{getEventsFn: func(ctx context.Context, email string) ([]models.Event, error) {
			return []models.Event{{ID: "1", Name: "Dentist", Date: time.Now().UTC().Format(models.DateLayout), Type: models.EventAppointment}}, nil
		}}
		n := newRecordingNotifier(1)
		s := NewScheduler(a, n, testLogger())
		defer s.Stop()

		s.Schedule(ctx, user)

		muted := *user
		muted.Settings.Notifications = false
		s.Schedule(ctx, &muted)

		time.Sleep(1500 * time.Millisecond)
		assert.Empty(t, n.all(), "the superseded plan must not fire")
	})

	t.Run("stop cancels pending timers", func(t *testing.T) {
		a := &fakeAPI{getEventsFn: func(ctx context.Context, email string) ([]models.Event, error) {
			return []models.Event{{ID: "1", Name: "Dentist", Date: time.Now().UTC().Format(models.DateLayout), Type: models.EventAppointment}}, nil
		}}
		n := newRecordingNotifier(1)
		s := NewScheduler(a, n, testLogger())

		s.Schedule(ctx, user)
		s.Stop()

		time.Sleep(1500 * time.Millisecond)
		assert.Empty(t, n.all())
	})
}
