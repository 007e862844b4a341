package store

import (
	"context"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// Repo defines the storage operations of the bot. SQLiteRepo is the only
// implementation; consumers that need less declare their own narrow subset
// (see scheduler.Repo).
type Repo interface {
	// Users and children.
	EnsureUser(ctx context.Context, tgID int64, username, firstName, lastName string) (*domain.User, error)
	CreateChild(ctx context.Context, c *domain.Child) (int64, error)
	ListChildren(ctx context.Context, userID int64) ([]domain.Child, error)
	SetActiveChild(ctx context.Context, userID, childID int64) error
	// ResolveActiveChild returns the explicitly chosen child, falling back to
	// the user's first child; domain.ErrNotFound when the user has none.
	ResolveActiveChild(ctx context.Context, userID int64) (*domain.Child, error)

	// Families.
	CreateFamily(ctx context.Context, title string, ownerUserID int64) (*domain.Family, error)
	FamilyByUser(ctx context.Context, userID int64) (*domain.Family, error)
	CreateInvite(ctx context.Context, inv *domain.FamilyInvite) (int64, error)
	InviteByCode(ctx context.Context, code string) (*domain.FamilyInvite, error)
	AddFamilyMember(ctx context.Context, familyID, userID int64, role string) error

	// Activity records. Sleep/feeding/health live in their own tables;
	// generic actions go to the shared care_events journal.
	StartSleep(ctx context.Context, childID, familyID, actorUserID int64, at time.Time) (*domain.SleepRecord, error)
	OpenSleep(ctx context.Context, childID int64) (*domain.SleepRecord, error)
	EndSleep(ctx context.Context, recordID, familyID, actorUserID int64, at time.Time, quality string) (*domain.SleepRecord, error)
	SetSleepQuality(ctx context.Context, recordID int64, quality string) error
	AddFeeding(ctx context.Context, childID, familyID, actorUserID int64, at time.Time, p domain.FeedingPayload) error
	AddHealth(ctx context.Context, childID, familyID, actorUserID int64, at time.Time, p domain.HealthPayload) error
	AddCareEvent(ctx context.Context, kind domain.EventKind, childID, familyID, actorUserID int64, at time.Time, details string) error

	// Timeline queries, one per event kind. Each is bounded and ordered by
	// occurred_at descending.
	SleepEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)
	FeedingEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)
	HealthEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)
	CareEventsByKind(ctx context.Context, kind domain.EventKind, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error)

	// Reminders.
	CreateReminder(ctx context.Context, r *domain.Reminder) (int64, error)
	ReminderByID(ctx context.Context, id int64) (*domain.Reminder, error)
	ListActiveReminders(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	CommitReminderFired(ctx context.Context, id int64, next time.Time) error
	SetReminderNextFire(ctx context.Context, id int64, next time.Time) error
	UpdateReminderSpec(ctx context.Context, id int64, text string, interval *time.Duration) error
	DeactivateReminder(ctx context.Context, id int64) error
	BumpReminderFailure(ctx context.Context, id int64) (int, error)

	Close() error
}
