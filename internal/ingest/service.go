// Package ingest runs the import pipeline and the operations built on the
// transaction store: cash entry, confirmation, rules, budgets and reports.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/SamuelPereira26/Finhouse/internal/accounts"
	"github.com/SamuelPereira26/Finhouse/internal/classify"
	"github.com/SamuelPereira26/Finhouse/internal/config"
	"github.com/SamuelPereira26/Finhouse/internal/health"
	"github.com/SamuelPereira26/Finhouse/internal/importer"
	"github.com/SamuelPereira26/Finhouse/internal/notify"
	"github.com/SamuelPereira26/Finhouse/internal/store"
	"github.com/SamuelPereira26/Finhouse/internal/taxonomy"
	"github.com/SamuelPereira26/Finhouse/internal/transfer"
)

// sweepLimit caps how many rows of one month the cross-batch sweep reads.
const sweepLimit = 5000

// Service coordinates parsing, classification, transfer detection, health
// audits and persistence.
type Service struct {
	store      store.Store
	cfg        *config.Config
	accounts   *accounts.Service
	taxonomy   *taxonomy.Taxonomy
	registry   *importer.Registry
	classifier *classify.Classifier
	detector   *transfer.Detector
	checker    *health.Checker
	notifier   notify.Notifier
	log        zerolog.Logger
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRegistry replaces the parser registry.
func WithRegistry(r *importer.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// New builds a Service. A nil notifier disables notifications.
func New(st store.Store, cfg *config.Config, n notify.Notifier, log zerolog.Logger, opts ...Option) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	accts := cfg.AccountService()
	s := &Service{
		store:      st,
		cfg:        cfg,
		accounts:   accts,
		taxonomy:   cfg.Taxonomy(),
		registry:   importer.DefaultRegistry(accts),
		classifier: classify.New(cfg.Thresholds),
		detector:   transfer.NewDetector(cfg.Health.TransferWindowDays),
		checker:    health.NewChecker(cfg.Health, accts),
		notifier:   n,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.checker.Now = s.now
	return s
}

// Store returns the underlying store.
func (s *Service) Store() store.Store { return s.store }

// Taxonomy returns the category tree in use.
func (s *Service) Taxonomy() *taxonomy.Taxonomy { return s.taxonomy }

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// notify sends text and logs failures. Notifications never fail a caller.
func (s *Service) notify(ctx context.Context, text string) {
	if err := s.notifier.Send(ctx, text); err != nil {
		s.log.Warn().Err(err).Msg("notification failed")
	}
}

// inputError marks a lower-level input error as a validation failure while
// keeping its message and chain.
type inputError struct{ err error }

func (e inputError) Error() string   { return e.err.Error() }
func (e inputError) Unwrap() []error { return []error{ErrValidation, e.err} }

func wrapValidation(err error) error {
	if err == nil || errors.Is(err, ErrValidation) || !IsValidation(err) {
		return err
	}
	return inputError{err: err}
}
