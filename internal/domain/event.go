package domain

import "time"

// EventKind tags the source domain of a care event.
type EventKind string

const (
	KindSleep   EventKind = "sleep"
	KindFeeding EventKind = "feeding"
	KindHealth  EventKind = "health"
	KindDiaper  EventKind = "diaper"
	KindBath    EventKind = "bath"
	KindCare    EventKind = "care" // generic logged action
)

// Scope filters events to a child or, when FamilyID is set, to every child
// reachable through the family's members.
type Scope struct {
	ChildID  int64
	FamilyID int64 // 0 → child-only scope
}

// Window is a closed time interval [Since, Until].
type Window struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether t falls inside the window (inclusive bounds).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

// Empty reports whether the window selects nothing.
func (w Window) Empty() bool { return w.Since.After(w.Until) }

// LastHours returns a window covering the h hours up to now.
func LastHours(now time.Time, h int) Window {
	return Window{Since: now.Add(-time.Duration(h) * time.Hour), Until: now}
}

// CareEvent is a single timestamped record of a tracked activity. Payload is
// a kind-specific struct; the aggregator treats it as opaque and per-kind
// renderers turn it into display text.
type CareEvent struct {
	Kind       EventKind
	ChildID    int64
	FamilyID   int64 // 0 when the event is not family-scoped
	OccurredAt time.Time
	Payload    any
}

// SleepPayload describes a sleep interval. EndedAt is nil while the child is
// still asleep.
type SleepPayload struct {
	StartedAt   time.Time
	EndedAt     *time.Time
	DurationMin *int
	Quality     string // good|ok|bad, empty when unset
}

// FeedingPayload describes one feeding.
type FeedingPayload struct {
	FeedKind string // breast|formula|water|solid
	AmountML *int
	AmountG  *int
	Note     string
}

// HealthPayload describes a health reading or visit.
type HealthPayload struct {
	RecordKind   string // temperature|medicine|doctor_visit|growth
	TemperatureC *float64
	Medicine     string
	DoseMG       *int
	Note         string
	HeightCM     *int
	WeightG      *int
}

// CarePayload carries the free-form details of a generic care action
// (diaper change, bath, walk).
type CarePayload struct {
	Details string
}
