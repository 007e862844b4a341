package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

const (
	// dueBatchLimit bounds how many reminders one cycle processes.
	dueBatchLimit = 200
	// maxTransientFailures force-deactivates a reminder after this many
	// consecutive transient delivery failures.
	maxTransientFailures = 5
)

// Sender delivers a text notification to a chat. The implementation imposes
// its own per-send timeout and classifies failures via domain.DeliveryError.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Repo is the subset of storage the scheduler needs.
type Repo interface {
	CreateReminder(ctx context.Context, r *domain.Reminder) (int64, error)
	ReminderByID(ctx context.Context, id int64) (*domain.Reminder, error)
	ListActiveReminders(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	CommitReminderFired(ctx context.Context, id int64, next time.Time) error
	SetReminderNextFire(ctx context.Context, id int64, next time.Time) error
	UpdateReminderSpec(ctx context.Context, id int64, text string, interval *time.Duration) error
	DeactivateReminder(ctx context.Context, id int64) error
	BumpReminderFailure(ctx context.Context, id int64) (int, error)
}

// Scheduler polls the repository and dispatches due reminders. It also hosts
// the user-facing reminder operations so every state transition goes through
// one owner.
type Scheduler struct {
	repo     Repo
	log      *zap.Logger
	sender   Sender
	interval time.Duration
	now      func() time.Time
}

// New creates a Scheduler polling at the given interval.
func New(repo Repo, log *zap.Logger, sender Sender, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		repo:     repo,
		log:      log,
		sender:   sender,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes cycles on a fixed cadence until ctx is canceled. Cancellation
// is observed at cycle boundaries only: an in-flight cycle finishes
// committing its transitions before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.RunCycle(ctx, s.now())
		}
	}
}

// RunCycle processes every reminder due at now. Per-reminder failures are
// isolated; only a failed due-query aborts the cycle (it retries on the next
// tick). Delivery is at-least-once: the send happens before the state commit,
// so a commit failure means the reminder may fire again next cycle.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) {
	due, err := s.repo.ListDueReminders(ctx, now, dueBatchLimit)
	if err != nil {
		s.log.Error("list due reminders failed", zap.Error(err))
		return
	}

	for i := range due {
		s.dispatch(ctx, now, &due[i])
	}
}

func (s *Scheduler) dispatch(ctx context.Context, now time.Time, r *domain.Reminder) {
	if err := s.sender.Send(ctx, r.ChatID, r.Text); err != nil {
		s.handleSendFailure(ctx, r, err)
		return
	}

	if r.Recurring() {
		next := r.NextAfter(now)
		if err := s.repo.CommitReminderFired(ctx, r.ID, next); err != nil {
			s.log.Error("commit fired reminder failed",
				zap.Int64("id", r.ID), zap.Error(err))
		}
		return
	}

	// One-shot: fired once, done forever.
	if err := s.repo.DeactivateReminder(ctx, r.ID); err != nil {
		s.log.Error("deactivate one-shot reminder failed",
			zap.Int64("id", r.ID), zap.Error(err))
	}
}

func (s *Scheduler) handleSendFailure(ctx context.Context, r *domain.Reminder, sendErr error) {
	if domain.IsPermanentDelivery(sendErr) {
		s.log.Warn("permanent delivery failure, deactivating reminder",
			zap.Int64("id", r.ID), zap.Int64("chatID", r.ChatID), zap.Error(sendErr))
		if err := s.repo.DeactivateReminder(ctx, r.ID); err != nil {
			s.log.Error("deactivate failed reminder", zap.Int64("id", r.ID), zap.Error(err))
		}
		return
	}

	// Transient: leave the reminder due so the next cycle retries it, but
	// bound the retries.
	count, err := s.repo.BumpReminderFailure(ctx, r.ID)
	if err != nil {
		s.log.Error("bump failure count failed", zap.Int64("id", r.ID), zap.Error(err))
		return
	}
	if count >= maxTransientFailures {
		s.log.Warn("transient failure limit reached, deactivating reminder",
			zap.Int64("id", r.ID), zap.Int("failures", count))
		if err := s.repo.DeactivateReminder(ctx, r.ID); err != nil {
			s.log.Error("deactivate failed reminder", zap.Int64("id", r.ID), zap.Error(err))
		}
		return
	}
	s.log.Debug("transient delivery failure, will retry",
		zap.Int64("id", r.ID), zap.Int("failures", count), zap.Error(sendErr))
}
