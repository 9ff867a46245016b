// Package scheduler runs periodic ledger jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultReminderSchedule runs reminders daily at 09:00 UTC.
const DefaultReminderSchedule = "0 0 9 * * *"

const jobTimeout = 5 * time.Minute

// Reminder sends due-date reminders and reports how many went out.
type Reminder interface {
	RemindDue(ctx context.Context, now time.Time) (int, error)
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron     *cron.Cron
	reminder Reminder
	now      func() time.Time
}

// New creates a scheduler running reminder on schedule, a cron expression
// with a seconds field.
func New(reminder Reminder, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultReminderSchedule
	}

	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:     c,
		reminder: reminder,
		now:      time.Now,
	}
	if _, err := c.AddFunc(schedule, s.SendReminders); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}
	return s, nil
}

// SendReminders is the reminder job. Errors are logged; the next run
// retries.
func (s *Scheduler) SendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	sent, err := s.reminder.RemindDue(ctx, s.now())
	if err != nil {
		slog.Error("Reminder job failed", "error", err)
		return
	}
	slog.Info("Reminder job finished", "reminders", sent, "duration_ms", time.Since(start).Milliseconds())
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	slog.Info("Starting cron scheduler")
	s.cron.Start()
}

// Stop stops the cron scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
}
