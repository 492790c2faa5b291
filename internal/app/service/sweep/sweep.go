// Package sweep runs the daily subscription pass: reminder mails near
// expiry, the expire transition once the window has lapsed, and cleanup of
// abandoned staged registrations.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/propmarket/portal/internal/app/service/billing"
	"github.com/propmarket/portal/internal/app/service/mailer"
	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/config"
	"github.com/propmarket/portal/pkg/metrics"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Service struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	users   repository.Users
	ledger  repository.Ledger
	pending repository.Pending
	mail    *mailer.Service
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(
	cfg *config.Config,
	log *zap.SugaredLogger,
	users repository.Users,
	ledger repository.Ledger,
	pending repository.Pending,
	mail *mailer.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		cfg:     cfg,
		log:     log,
		users:   users,
		ledger:  ledger,
		pending: pending,
		mail:    mail,
		metrics: m,
		now:     time.Now,
	}
}

// Run executes one full pass. It is scheduled once a day; reminder
// de-duplication relies on that schedule, the pass itself keeps no state
// between runs.
func (s *Service) Run(ctx context.Context) error {
	now := s.now()
	entries, err := s.ledger.ListActive(ctx)
	if err != nil {
		return err
	}
	s.log.Infow("subscription sweep started", "active_entries", len(entries))

	for _, entry := range entries {
		u, err := s.users.GetByID(ctx, entry.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.retire(ctx, entry.ID, "owner_missing")
				continue
			}
			s.log.Errorw("sweep: load user", "user_id", entry.UserID, "error", err)
			continue
		}
		// A renewal supersedes the old ledger row without touching it; the
		// stored order id tells which row backs the current window. Stale
		// rows are retired without mutating the user.
		if u.Subscription.OrderID != entry.OrderID {
			s.retire(ctx, entry.ID, "superseded")
			continue
		}

		expiry := billing.ExpiryOf(&u.Subscription)
		if expiry == nil {
			s.retire(ctx, entry.ID, "no_expiry")
			continue
		}
		days := billing.DaysRemaining(*expiry, now)
		switch {
		case days <= 0:
			s.retire(ctx, entry.ID, "expired")
			sub := u.Subscription
			sub.Active = false
			if err := s.users.SaveSubscription(ctx, u.ID, sub); err != nil {
				s.log.Errorw("sweep: deactivate subscription", "user_id", u.ID, "error", err)
				continue
			}
			if s.mail != nil {
				s.mail.SendExpired(ctx, u.Email, u.Name)
			}
			s.log.Infow("subscription expired", "user_id", u.ID, "expired_at", *expiry)
		case lo.Contains(s.cfg.Sweep.ReminderDays, days):
			if s.mail != nil {
				s.mail.SendExpiryReminder(ctx, u.Email, u.Name, days, *expiry)
			}
			if s.metrics != nil {
				s.metrics.IncSweepTransition("reminder")
			}
			s.log.Infow("expiry reminder sent", "user_id", u.ID, "days_remaining", days)
		}
	}

	s.purgeStale(ctx, now)
	return nil
}

func (s *Service) retire(ctx context.Context, entryID, reason string) {
	if err := s.ledger.MarkExpired(ctx, entryID); err != nil {
		s.log.Errorw("sweep: mark ledger entry expired", "entry_id", entryID, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.IncSweepTransition(reason)
	}
}

// purgeStale drops staged registrations that were never paid within the TTL.
func (s *Service) purgeStale(ctx context.Context, now time.Time) {
	ttl := time.Duration(s.cfg.Sweep.PendingTTLHours) * time.Hour
	if ttl <= 0 {
		return
	}
	n, err := s.pending.DeleteOlderThan(ctx, now.Add(-ttl))
	if err != nil {
		s.log.Errorw("sweep: purge staged registrations", "error", err)
		return
	}
	if n > 0 {
		if s.metrics != nil {
			s.metrics.IncSweepTransition("pending_purged")
		}
		s.log.Infow("stale staged registrations purged", "count", n)
	}
}
