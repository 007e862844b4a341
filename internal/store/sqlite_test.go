package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testUser(t *testing.T, repo *SQLiteRepo, tgID int64) *domain.User {
	t.Helper()
	u, err := repo.EnsureUser(context.Background(), tgID, "tester", "Test", "")
	require.NoError(t, err)
	return u
}

func TestEnsureUser_Idempotent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	u1, err := repo.EnsureUser(ctx, 42, "alice", "Alice", "")
	require.NoError(t, err)
	u2, err := repo.EnsureUser(ctx, 42, "alice_new", "Alice", "")
	require.NoError(t, err)

	require.Equal(t, u1.ID, u2.ID)
	require.Equal(t, "alice_new", u2.Username)
}

func TestResolveActiveChild(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	u := testUser(t, repo, 1)

	_, err := repo.ResolveActiveChild(ctx, u.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	first, err := repo.CreateChild(ctx, &domain.Child{UserID: u.ID, Name: "Anya"})
	require.NoError(t, err)
	second, err := repo.CreateChild(ctx, &domain.Child{UserID: u.ID, Name: "Boris"})
	require.NoError(t, err)

	// No explicit setting: first child wins.
	c, err := repo.ResolveActiveChild(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, first, c.ID)

	// Explicit setting overrides and survives re-resolution.
	require.NoError(t, repo.SetActiveChild(ctx, u.ID, second))
	c, err = repo.ResolveActiveChild(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, second, c.ID)

	// A stranger's child cannot be selected.
	other := testUser(t, repo, 2)
	require.ErrorIs(t, repo.SetActiveChild(ctx, other.ID, second), domain.ErrForbidden)
}

func TestListDueReminders_OrderAndFilter(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	u := testUser(t, repo, 1)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	mk := func(text string, fireAt time.Time) int64 {
		id, err := repo.CreateReminder(ctx, &domain.Reminder{
			UserID: u.ID, ChatID: 100, Text: text, NextFireAt: fireAt,
		})
		require.NoError(t, err)
		return id
	}
	mk("later", now.Add(-time.Minute))
	mk("earliest", now.Add(-time.Hour))
	mk("future", now.Add(time.Hour))

	due, err := repo.ListDueReminders(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, "earliest", due[0].Text)
	require.Equal(t, "later", due[1].Text)
}

func TestReminderTransitions_Guarded(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	u := testUser(t, repo, 1)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	id, err := repo.CreateReminder(ctx, &domain.Reminder{
		UserID: u.ID, ChatID: 100, Text: "water", NextFireAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeactivateReminder(ctx, id))

	// Inactive is absorbing: every transition on it reports NotFound.
	require.ErrorIs(t, repo.DeactivateReminder(ctx, id), domain.ErrNotFound)
	require.ErrorIs(t, repo.CommitReminderFired(ctx, id, now.Add(time.Hour)), domain.ErrNotFound)
	require.ErrorIs(t, repo.SetReminderNextFire(ctx, id, now.Add(time.Hour)), domain.ErrNotFound)
	_, err = repo.BumpReminderFailure(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	due, err := repo.ListDueReminders(ctx, now.Add(time.Hour), 100)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestCommitReminderFired_ResetsFailures(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	u := testUser(t, repo, 1)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	ivl := 30 * time.Minute

	id, err := repo.CreateReminder(ctx, &domain.Reminder{
		UserID: u.ID, ChatID: 100, Text: "feed", NextFireAt: now, Interval: &ivl,
	})
	require.NoError(t, err)

	n, err := repo.BumpReminderFailure(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.CommitReminderFired(ctx, id, now.Add(ivl)))

	rem, err := repo.ReminderByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 0, rem.FailCount)
	require.Equal(t, now.Add(ivl), rem.NextFireAt)
	require.True(t, rem.Active)
}

func TestSleepLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	u := testUser(t, repo, 1)
	childID, err := repo.CreateChild(ctx, &domain.Child{UserID: u.ID, Name: "Anya"})
	require.NoError(t, err)

	start := time.Date(2025, time.June, 1, 20, 0, 0, 0, time.UTC)
	rec, err := repo.StartSleep(ctx, childID, 0, u.ID, start)
	require.NoError(t, err)

	// A second open interval is refused.
	_, err = repo.StartSleep(ctx, childID, 0, u.ID, start.Add(time.Minute))
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	closed, err := repo.EndSleep(ctx, rec.ID, 0, u.ID, start.Add(45*time.Minute), "good")
	require.NoError(t, err)
	require.NotNil(t, closed.DurationMin)
	require.Equal(t, 45, *closed.DurationMin)

	// The record is closed now; closing again is NotFound.
	_, err = repo.EndSleep(ctx, rec.ID, 0, u.ID, start.Add(time.Hour), "good")
	require.ErrorIs(t, err, domain.ErrNotFound)

	events, err := repo.SleepEvents(ctx, domain.Scope{ChildID: childID},
		domain.Window{Since: start.Add(-time.Hour), Until: start.Add(time.Hour)}, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.KindSleep, events[0].Kind)
	require.Equal(t, start, events[0].OccurredAt)
}

func TestFamilyScopePoolsChildren(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	parent := testUser(t, repo, 1)
	nanny := testUser(t, repo, 2)

	fam, err := repo.CreateFamily(ctx, "Ivanovs", parent.ID)
	require.NoError(t, err)
	require.NoError(t, repo.AddFamilyMember(ctx, fam.ID, nanny.ID, domain.RoleNanny))

	childID, err := repo.CreateChild(ctx, &domain.Child{UserID: parent.ID, Name: "Anya"})
	require.NoError(t, err)

	at := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddFeeding(ctx, childID, fam.ID, parent.ID, at,
		domain.FeedingPayload{FeedKind: "formula"}))

	// The nanny's family scope sees the parent's child's events.
	events, err := repo.FeedingEvents(ctx, domain.Scope{FamilyID: fam.ID},
		domain.Window{Since: at.Add(-time.Hour), Until: at.Add(time.Hour)}, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestInviteLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	owner := testUser(t, repo, 1)

	fam, err := repo.CreateFamily(ctx, "Ivanovs", owner.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	expires := now.Add(48 * time.Hour)
	_, err = repo.CreateInvite(ctx, &domain.FamilyInvite{
		FamilyID: fam.ID, Code: "test-code", CreatedAt: now, ExpiresAt: &expires, Active: true,
	})
	require.NoError(t, err)

	inv, err := repo.InviteByCode(ctx, "test-code")
	require.NoError(t, err)
	require.True(t, inv.Usable(now))
	require.False(t, inv.Usable(now.Add(49*time.Hour)))

	_, err = repo.InviteByCode(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
