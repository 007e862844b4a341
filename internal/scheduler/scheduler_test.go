package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// fakeRepo mimics the store's guarded reminder transitions in memory.
type fakeRepo struct {
	mu        sync.Mutex
	nextID    int64
	reminders map[int64]*domain.Reminder
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reminders: make(map[int64]*domain.Reminder)}
}

func (f *fakeRepo) CreateReminder(_ context.Context, r *domain.Reminder) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *r
	cp.ID = f.nextID
	cp.Active = true
	f.reminders[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeRepo) ReminderByID(_ context.Context, id int64) (*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) ListActiveReminders(_ context.Context, userID int64) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Reminder
	for _, r := range f.reminders {
		if r.Active && r.UserID == userID {
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].NextFireAt.Before(res[j].NextFireAt) })
	return res, nil
}

func (f *fakeRepo) ListDueReminders(_ context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var res []domain.Reminder
	for _, r := range f.reminders {
		if r.Due(now) {
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].NextFireAt.Before(res[j].NextFireAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeRepo) active(id int64) (*domain.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok || !r.Active {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) CommitReminderFired(_ context.Context, id int64, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.active(id)
	if err != nil {
		return err
	}
	r.NextFireAt = next
	r.FailCount = 0
	return nil
}

func (f *fakeRepo) SetReminderNextFire(_ context.Context, id int64, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.active(id)
	if err != nil {
		return err
	}
	r.NextFireAt = next
	return nil
}

func (f *fakeRepo) UpdateReminderSpec(_ context.Context, id int64, text string, interval *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.active(id)
	if err != nil {
		return err
	}
	r.Text = text
	r.Interval = interval
	return nil
}

func (f *fakeRepo) DeactivateReminder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.active(id)
	if err != nil {
		return err
	}
	r.Active = false
	return nil
}

func (f *fakeRepo) BumpReminderFailure(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.active(id)
	if err != nil {
		return 0, err
	}
	r.FailCount++
	return r.FailCount, nil
}

// fakeSender records sends and fails chats listed in failures.
type fakeSender struct {
	mu       sync.Mutex
	sent     []string // texts, in dispatch order
	byChat   map[int64]int
	failures map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{byChat: make(map[int64]int), failures: make(map[int64]error)}
}

func (s *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[chatID]; err != nil {
		return err
	}
	s.sent = append(s.sent, text)
	s.byChat[chatID]++
	return nil
}

func newTestScheduler(repo Repo, sender Sender) *Scheduler {
	return New(repo, zap.NewNop(), sender, time.Second)
}

var baseT = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func mustCreate(t *testing.T, s *Scheduler, userID, chatID int64, text string, fireAt time.Time, interval *time.Duration) *domain.Reminder {
	t.Helper()
	r, err := s.Create(context.Background(), userID, chatID, text, fireAt, interval)
	require.NoError(t, err)
	return r
}

func ptr(d time.Duration) *time.Duration { return &d }

func TestRunCycle_FiresDueOnly(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	mustCreate(t, s, 1, 10, "due A", baseT.Add(-time.Hour), nil)
	mustCreate(t, s, 1, 11, "due B", baseT, nil)
	future := mustCreate(t, s, 1, 12, "future", baseT.Add(time.Minute), nil)

	s.RunCycle(ctx, baseT)

	require.ElementsMatch(t, []string{"due A", "due B"}, sender.sent)
	got, err := repo.ReminderByID(ctx, future.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
	require.Equal(t, baseT.Add(time.Minute), got.NextFireAt)
}

func TestRunCycle_IdempotentAtSameInstant(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	mustCreate(t, s, 1, 10, "one-shot", baseT, nil)
	mustCreate(t, s, 1, 11, "recurring", baseT, ptr(30*time.Minute))

	s.RunCycle(ctx, baseT)
	s.RunCycle(ctx, baseT)

	require.Equal(t, 1, sender.byChat[10])
	require.Equal(t, 1, sender.byChat[11])
}

func TestRunCycle_OneShotNeverFiresTwice(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "once", baseT, nil)
	s.RunCycle(ctx, baseT)

	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	s.RunCycle(ctx, baseT.Add(24*time.Hour))
	require.Equal(t, 1, sender.byChat[10])
}

func TestRunCycle_RecurringAdvancesFromPreviousFireTime(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "water", baseT, ptr(30*time.Minute))

	// Fired 5 minutes late: next is T+30m, not T+5m+30m.
	s.RunCycle(ctx, baseT.Add(5*time.Minute))
	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, baseT.Add(30*time.Minute), got.NextFireAt)
	require.Equal(t, 1, sender.byChat[10])

	// Second cycle after the next occurrence: fires again, advances to T+60m.
	s.RunCycle(ctx, baseT.Add(31*time.Minute))
	got, err = repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, baseT.Add(60*time.Minute), got.NextFireAt)
	require.Equal(t, 2, sender.byChat[10])
}

func TestRunCycle_CatchUpSkipsMissedOccurrences(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "pump", baseT, ptr(10*time.Minute))

	// 95 minutes of downtime: one catch-up send, next fire strictly in the
	// future, no burst of 9 missed notifications.
	now := baseT.Add(95 * time.Minute)
	s.RunCycle(ctx, now)

	require.Equal(t, 1, sender.byChat[10])
	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.True(t, got.NextFireAt.After(now))
	require.Equal(t, baseT.Add(100*time.Minute), got.NextFireAt)
}

func TestRunCycle_PermanentFailureDeactivates(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "doomed", baseT, ptr(time.Hour))
	sender.failures[10] = &domain.DeliveryError{Permanent: true, Err: errors.New("chat not found")}

	s.RunCycle(ctx, baseT)

	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	// Never retried.
	s.RunCycle(ctx, baseT.Add(2*time.Hour))
	require.Zero(t, sender.byChat[10])
}

func TestRunCycle_TransientFailureRetriesThenDeactivates(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "flaky", baseT, nil)
	sender.failures[10] = &domain.DeliveryError{Permanent: false, Err: errors.New("timeout")}

	// Stays due and retried each cycle until the bound.
	for i := 0; i < maxTransientFailures-1; i++ {
		s.RunCycle(ctx, baseT.Add(time.Duration(i)*time.Minute))
		got, err := repo.ReminderByID(ctx, r.ID)
		require.NoError(t, err)
		require.True(t, got.Active, "cycle %d", i)
		require.Equal(t, baseT, got.NextFireAt, "fire time must stay put while retrying")
	}

	s.RunCycle(ctx, baseT.Add(time.Hour))
	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestRunCycle_SuccessResetsFailureCount(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "wobbly", baseT, ptr(30*time.Minute))
	sender.failures[10] = &domain.DeliveryError{Permanent: false, Err: errors.New("timeout")}

	s.RunCycle(ctx, baseT)
	s.RunCycle(ctx, baseT)

	sender.failures = map[int64]error{}
	s.RunCycle(ctx, baseT)

	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.Zero(t, got.FailCount)
	require.True(t, got.Active)
}

func TestRunCycle_ItemFailureDoesNotBlockOthers(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	mustCreate(t, s, 1, 10, "broken chat", baseT.Add(-2*time.Minute), nil)
	mustCreate(t, s, 1, 11, "healthy chat", baseT.Add(-time.Minute), nil)
	sender.failures[10] = &domain.DeliveryError{Permanent: false, Err: errors.New("timeout")}

	s.RunCycle(ctx, baseT)

	require.Equal(t, 1, sender.byChat[11])
}

func TestRunCycle_ProcessesInFireTimeOrder(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	mustCreate(t, s, 1, 10, "third", baseT.Add(-time.Minute), nil)
	mustCreate(t, s, 1, 11, "first", baseT.Add(-time.Hour), nil)
	mustCreate(t, s, 1, 12, "second", baseT.Add(-30*time.Minute), nil)

	s.RunCycle(ctx, baseT)

	require.Equal(t, []string{"first", "second", "third"}, sender.sent)
}

func TestCreate_Validation(t *testing.T) {
	s := newTestScheduler(newFakeRepo(), newFakeSender())
	ctx := context.Background()

	_, err := s.Create(ctx, 1, 10, "   ", baseT, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Create(ctx, 1, 10, "ok", baseT, ptr(-time.Minute))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Create(ctx, 1, 10, "ok", baseT, ptr(time.Hour))
	require.NoError(t, err)
}

func TestSnooze(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	s.now = func() time.Time { return baseT }
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "nap", baseT.Add(-2*time.Hour), ptr(time.Hour))

	// Snooze replaces the fire time with now+extra, whatever it was before.
	snoozed, err := s.Snooze(ctx, 1, r.ID, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, baseT.Add(15*time.Minute), snoozed.NextFireAt)

	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, baseT.Add(15*time.Minute), got.NextFireAt)
	require.NotNil(t, got.Interval)
	require.Equal(t, time.Hour, *got.Interval)

	_, err = s.Snooze(ctx, 1, r.ID, -time.Minute)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Snooze(ctx, 2, r.ID, 15*time.Minute)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = s.Snooze(ctx, 1, 999, 15*time.Minute)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Disable(ctx, 1, r.ID))
	_, err = s.Snooze(ctx, 1, r.ID, 15*time.Minute)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDisableAndRetarget_OwnershipGuarded(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	r := mustCreate(t, s, 1, 10, "meds", baseT, ptr(time.Hour))

	require.ErrorIs(t, s.Disable(ctx, 2, r.ID), domain.ErrForbidden)
	require.ErrorIs(t, s.Retarget(ctx, 2, r.ID, "other", nil), domain.ErrForbidden)

	require.NoError(t, s.Retarget(ctx, 1, r.ID, "vitamins", nil))
	got, err := repo.ReminderByID(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, "vitamins", got.Text)
	require.Nil(t, got.Interval)

	require.NoError(t, s.Disable(ctx, 1, r.ID))
	require.ErrorIs(t, s.Disable(ctx, 1, r.ID), domain.ErrNotFound)
}

func TestRunCycle_RepoErrorAbortsCycleOnly(t *testing.T) {
	repo, sender := newFakeRepo(), newFakeSender()
	s := newTestScheduler(repo, sender)
	ctx := context.Background()

	mustCreate(t, s, 1, 10, "ping", baseT, nil)

	repo.listErr = errors.New("db locked")
	s.RunCycle(ctx, baseT)
	require.Empty(t, sender.sent)

	// The next cycle recovers.
	repo.listErr = nil
	s.RunCycle(ctx, baseT)
	require.Equal(t, []string{"ping"}, sender.sent)
}
