// Package reminder sends the household's periodic review reminders.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
)

// DefaultSchedule runs the check every day at 09:00.
const DefaultSchedule = "0 9 * * *"

// Reminder message texts.
const (
	TransferText = "*Recordatorio*\nRevisa las transferencias internas del mes."
	TitheText    = "*Recordatorio*\nAparta las donaciones de este mes."
)

// PendingCounter reports how many transactions await review.
type PendingCounter interface {
	PendingCounts(ctx context.Context) (analytics.PendingCounts, error)
}

// IsReviewDay reports whether t falls on one of the configured days of the
// month.
func IsReviewDay(t time.Time, days []int) bool {
	for _, d := range days {
		if t.Day() == d {
			return true
		}
	}
	return false
}

// Reminder decides which reminders are due on a day and sends them.
type Reminder struct {
	cfg      config.ReviewConfig
	pending  PendingCounter
	notifier notify.Notifier
	log      zerolog.Logger
}

// New creates a Reminder.
func New(cfg config.ReviewConfig, pending PendingCounter, n notify.Notifier, log zerolog.Logger) *Reminder {
	if n == nil {
		n = notify.Nop{}
	}
	return &Reminder{cfg: cfg, pending: pending, notifier: n, log: log}
}

// Due returns the messages to send on day t. Review days with nothing
// pending send nothing.
func (r *Reminder) Due(ctx context.Context, t time.Time) ([]string, error) {
	var out []string
	if IsReviewDay(t, r.cfg.Days) {
		counts, err := r.pending.PendingCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting pending transactions: %w", err)
		}
		if counts.Total > 0 {
			out = append(out, ReviewText(counts))
		}
	}
	if r.cfg.TransferReminderDay > 0 && t.Day() == r.cfg.TransferReminderDay {
		out = append(out, TransferText)
	}
	if r.cfg.TitheReminderDay > 0 && t.Day() == r.cfg.TitheReminderDay {
		out = append(out, TitheText)
	}
	return out, nil
}

// Run sends every reminder due on day t. A failed send is logged and the
// remaining reminders still go out.
func (r *Reminder) Run(ctx context.Context, t time.Time) error {
	msgs, err := r.Due(ctx, t)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if err := r.notifier.Send(ctx, m); err != nil {
			r.log.Warn().Err(err).Msg("reminder not sent")
		}
	}
	r.log.Info().Str("day", t.Format("2006-01-02")).Int("sent", len(msgs)).Msg("reminders checked")
	return nil
}

// ReviewText renders the review-day message.
func ReviewText(c analytics.PendingCounts) string {
	return fmt.Sprintf("*Dia de revision*\nPendientes: %d\nNEEDS_REVIEW: %d\nSUGERIDO: %d\nUsa /menu para revisar.",
		c.Total, c.NeedsReview, c.Suggested)
}

// Scheduler runs a Reminder on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
}

// NewScheduler schedules r. An empty spec uses DefaultSchedule; an unknown
// time zone falls back to UTC.
func NewScheduler(r *Reminder, spec, timeZone string, log zerolog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	loc := time.UTC
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			log.Warn().Err(err).Str("time_zone", timeZone).Msg("unknown time zone, using UTC")
		} else {
			loc = l
		}
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := r.Run(ctx, time.Now().In(loc)); err != nil {
			log.Error().Err(err).Msg("reminder job failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling reminders %q: %w", spec, err)
	}
	return &Scheduler{cron: c, loc: loc}, nil
}

// Location is the time zone the schedule runs in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
