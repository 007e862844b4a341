package domain

import "time"

// User is a bot account keyed by Telegram id.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	CreatedAt  time.Time
}

// Child is a tracked child profile belonging to a user.
type Child struct {
	ID        int64
	UserID    int64
	Name      string
	BirthDate *time.Time
	Gender    string // male|female, empty when unset
}

// Family groups users so care events become visible across accounts.
type Family struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Family member roles.
const (
	RoleOwner  = "owner"
	RoleParent = "parent"
	RoleNanny  = "nanny"
)

// FamilyMember ties a user to a family with a role.
type FamilyMember struct {
	FamilyID int64
	UserID   int64
	Role     string
}

// FamilyInvite is a shareable join code with an optional expiry.
type FamilyInvite struct {
	ID        int64
	FamilyID  int64
	Code      string
	CreatedAt time.Time
	ExpiresAt *time.Time
	Active    bool
}

// Usable reports whether the invite can still be redeemed at the given instant.
func (i *FamilyInvite) Usable(now time.Time) bool {
	if !i.Active {
		return false
	}
	return i.ExpiresAt == nil || now.Before(*i.ExpiresAt)
}

// SleepRecord is an open or closed sleep interval for a child.
type SleepRecord struct {
	ID          int64
	ChildID     int64
	StartedAt   time.Time
	EndedAt     *time.Time
	DurationMin *int
	Quality     string
}
