package reminder

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelPereira26/Finhouse/internal/analytics"
	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
)

type fixedCounts struct {
	counts analytics.PendingCounts
	err    error
}

func (f fixedCounts) PendingCounts(context.Context) (analytics.PendingCounts, error) {
	return f.counts, f.err
}

func reviewConfig() config.ReviewConfig {
	return config.Default("test").Review
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 9, 0, 0, 0, time.UTC)
}

func TestIsReviewDay(t *testing.T) {
	days := []int{1, 8, 15, 22, 28}
	assert.True(t, IsReviewDay(day(1), days))
	assert.True(t, IsReviewDay(day(28), days))
	assert.False(t, IsReviewDay(day(2), days))
	assert.False(t, IsReviewDay(day(1), nil))
}

func TestDue(t *testing.T) {
	pending := fixedCounts{counts: analytics.PendingCounts{Total: 3, NeedsReview: 2, Suggested: 1}}
	tests := []struct {
		name string
		day  int
		want []string
	}{
		{"review day", 8, []string{ReviewText(pending.counts)}},
		{"transfer day", 5, []string{TransferText}},
		{"tithe day", 10, []string{TitheText}},
		{"quiet day", 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(reviewConfig(), pending, nil, zerolog.Nop())
			got, err := r.Due(context.Background(), day(tt.day))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDueSkipsEmptyReview(t *testing.T) {
	r := New(reviewConfig(), fixedCounts{}, nil, zerolog.Nop())
	got, err := r.Due(context.Background(), day(15))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDueCountError(t *testing.T) {
	r := New(reviewConfig(), fixedCounts{err: errors.New("db down")}, nil, zerolog.Nop())
	_, err := r.Due(context.Background(), day(1))
	assert.Error(t, err)
}

func TestRunSends(t *testing.T) {
	cfg := reviewConfig()
	cfg.TransferReminderDay = 22
	rec := &notify.Recorder{}
	r := New(cfg, fixedCounts{counts: analytics.PendingCounts{Total: 1, NeedsReview: 1}}, rec, zerolog.Nop())

	require.NoError(t, r.Run(context.Background(), day(22)))
	require.Len(t, rec.Messages, 2)
	assert.Contains(t, rec.Messages[0].Text, "Pendientes: 1")
	assert.Equal(t, TransferText, rec.Messages[1].Text)
}

func TestNewScheduler(t *testing.T) {
	r := New(reviewConfig(), fixedCounts{}, nil, zerolog.Nop())

	s, err := NewScheduler(r, "", "Europe/Madrid", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", s.Location().String())
	s.Start()
	s.Stop()

	s, err = NewScheduler(r, "0 9 * * *", "Mars/Olympus", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, s.Location())

	_, err = NewScheduler(r, "every day", "", zerolog.Nop())
	assert.Error(t, err)
}
