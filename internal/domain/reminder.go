package domain

import "time"

// Reminder is a scheduled one-shot or recurring notification owned by a user
// and delivered to a chat.
type Reminder struct {
	ID         int64
	UserID     int64
	ChatID     int64
	Text       string
	NextFireAt time.Time      // UTC
	Interval   *time.Duration // nil → one-shot
	Active     bool
	FailCount  int // consecutive transient delivery failures
	CreatedAt  time.Time
}

// Recurring reports whether the reminder repeats.
func (r *Reminder) Recurring() bool {
	return r.Interval != nil && *r.Interval > 0
}

// Due reports whether the reminder should fire at the given instant.
func (r *Reminder) Due(now time.Time) bool {
	return r.Active && !r.NextFireAt.After(now)
}

// NextAfter returns the fire time advanced from the previous NextFireAt by
// whole intervals until strictly after now. Anchoring on the previous fire
// time keeps the cadence drift-free; skipping past now means a long outage
// produces a single catch-up send instead of a burst per missed occurrence.
// Panics if the reminder is not recurring.
func (r *Reminder) NextAfter(now time.Time) time.Time {
	next := r.NextFireAt.Add(*r.Interval)
	for !next.After(now) {
		next = next.Add(*r.Interval)
	}
	return next
}
