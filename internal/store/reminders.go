package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

func (r *SQLiteRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) (int64, error) {
	var intervalSec sql.NullInt64
	if rem.Interval != nil {
		intervalSec = sql.NullInt64{Int64: int64(rem.Interval.Seconds()), Valid: true}
	}
	created := rem.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (user_id, chat_id, text, next_fire_at, interval_sec, active, fail_count, created_at)
		VALUES (?, ?, ?, ?, ?, 1, 0, ?)`,
		rem.UserID, rem.ChatID, rem.Text, rem.NextFireAt.UTC().Unix(), intervalSec, created.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ReminderByID(ctx context.Context, id int64) (*domain.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, chat_id, text, next_fire_at, interval_sec, active, fail_count, created_at
		FROM reminders WHERE id = ?`, id)

	rem, err := scanReminder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rem, nil
}

func (r *SQLiteRepo) ListActiveReminders(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, chat_id, text, next_fire_at, interval_sec, active, fail_count, created_at
		FROM reminders
		WHERE user_id = ? AND active = 1
		ORDER BY next_fire_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListDueReminders returns up to limit active reminders with next_fire_at at
// or before now, ordered by next_fire_at ascending. The due set is always
// re-read from committed state; nothing is cached between cycles.
func (r *SQLiteRepo) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, chat_id, text, next_fire_at, interval_sec, active, fail_count, created_at
		FROM reminders
		WHERE active = 1 AND next_fire_at <= ?
		ORDER BY next_fire_at ASC
		LIMIT ?`,
		now.UTC().Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReminders(rows)
}

// CommitReminderFired advances a recurring reminder past its fired occurrence
// and clears the transient-failure counter. Guarded on active=1 so a
// deactivated reminder can never be rescheduled.
func (r *SQLiteRepo) CommitReminderFired(ctx context.Context, id int64, next time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET next_fire_at = ?, fail_count = 0
		WHERE id = ? AND active = 1`,
		next.UTC().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetReminderNextFire moves the fire time of an active reminder (snooze).
func (r *SQLiteRepo) SetReminderNextFire(ctx context.Context, id int64, next time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET next_fire_at = ?
		WHERE id = ? AND active = 1`,
		next.UTC().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateReminderSpec rewrites text and interval of an active reminder.
func (r *SQLiteRepo) UpdateReminderSpec(ctx context.Context, id int64, text string, interval *time.Duration) error {
	var intervalSec sql.NullInt64
	if interval != nil {
		intervalSec = sql.NullInt64{Int64: int64(interval.Seconds()), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET text = ?, interval_sec = ?
		WHERE id = ? AND active = 1`,
		text, intervalSec, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeactivateReminder marks the reminder permanently done. Inactive is
// absorbing: there is no way back.
func (r *SQLiteRepo) DeactivateReminder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET active = 0
		WHERE id = ? AND active = 1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// BumpReminderFailure increments the consecutive-failure counter and returns
// the new value.
func (r *SQLiteRepo) BumpReminderFailure(ctx context.Context, id int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET fail_count = fail_count + 1
		WHERE id = ? AND active = 1`, id)
	if err != nil {
		return 0, err
	}
	if err := requireRow(res); err != nil {
		return 0, err
	}

	var count int
	err = r.db.QueryRowContext(ctx,
		`SELECT fail_count FROM reminders WHERE id = ?`, id).Scan(&count)
	return count, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReminder(scan func(dest ...any) error) (*domain.Reminder, error) {
	var rem domain.Reminder
	var nextAt, created int64
	var intervalSec sql.NullInt64
	var active int
	if err := scan(
		&rem.ID, &rem.UserID, &rem.ChatID, &rem.Text,
		&nextAt, &intervalSec, &active, &rem.FailCount, &created,
	); err != nil {
		return nil, err
	}
	rem.NextFireAt = time.Unix(nextAt, 0).UTC()
	if intervalSec.Valid {
		d := time.Duration(intervalSec.Int64) * time.Second
		rem.Interval = &d
	}
	rem.Active = active != 0
	rem.CreatedAt = time.Unix(created, 0).UTC()
	return &rem, nil
}

func collectReminders(rows *sql.Rows) ([]domain.Reminder, error) {
	var res []domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *rem)
	}
	return res, rows.Err()
}
