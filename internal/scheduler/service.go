package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// Create registers a new reminder. interval == nil makes it one-shot.
func (s *Scheduler) Create(ctx context.Context, userID, chatID int64, text string, firstFireAt time.Time, interval *time.Duration) (*domain.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reminder text", domain.ErrInvalidInput)
	}
	if interval != nil && *interval <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval", domain.ErrInvalidInput)
	}

	r := &domain.Reminder{
		UserID:     userID,
		ChatID:     chatID,
		Text:       text,
		NextFireAt: firstFireAt.UTC(),
		Interval:   interval,
		Active:     true,
		CreatedAt:  s.now(),
	}
	id, err := s.repo.CreateReminder(ctx, r)
	if err != nil {
		return nil, err
	}
	r.ID = id
	return r, nil
}

// Snooze pushes an active reminder's fire time to now+extra. The interval is
// untouched, so a recurring reminder resumes its cadence from the snoozed
// occurrence.
func (s *Scheduler) Snooze(ctx context.Context, userID, id int64, extra time.Duration) (*domain.Reminder, error) {
	if extra <= 0 {
		return nil, fmt.Errorf("%w: non-positive snooze duration", domain.ErrInvalidInput)
	}
	r, err := s.ownedActive(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next := s.now().Add(extra)
	if err := s.repo.SetReminderNextFire(ctx, id, next); err != nil {
		return nil, err
	}
	r.NextFireAt = next
	return r, nil
}

// Disable permanently deactivates an owned reminder.
func (s *Scheduler) Disable(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedActive(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeactivateReminder(ctx, id)
}

// Retarget rewrites the text and interval of an owned active reminder.
// Passing interval == nil converts it to one-shot.
func (s *Scheduler) Retarget(ctx context.Context, userID, id int64, text string, interval *time.Duration) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty reminder text", domain.ErrInvalidInput)
	}
	if interval != nil && *interval <= 0 {
		return fmt.Errorf("%w: non-positive interval", domain.ErrInvalidInput)
	}
	if _, err := s.ownedActive(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.UpdateReminderSpec(ctx, id, text, interval)
}

// List returns the caller's active reminders ordered by next fire time.
func (s *Scheduler) List(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return s.repo.ListActiveReminders(ctx, userID)
}

// ownedActive loads a reminder and enforces the ownership and liveness
// guards shared by all user-facing mutations.
func (s *Scheduler) ownedActive(ctx context.Context, userID, id int64) (*domain.Reminder, error) {
	r, err := s.repo.ReminderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.Active {
		return nil, domain.ErrNotFound
	}
	if r.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return r, nil
}
