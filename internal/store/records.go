package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// StartSleep opens a sleep interval. Refuses to open a second one while a
// record for the child is still unclosed.
func (r *SQLiteRepo) StartSleep(ctx context.Context, childID, familyID, actorUserID int64, at time.Time) (*domain.SleepRecord, error) {
	if open, err := r.OpenSleep(ctx, childID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, domain.ErrInvalidInput
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sleep_records (child_id, started_at) VALUES (?, ?)`,
		childID, at.UTC().Unix(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.SleepRecord{ID: id, ChildID: childID, StartedAt: at.UTC()}, nil
}

// OpenSleep returns the latest unclosed sleep record for the child, nil when
// there is none.
func (r *SQLiteRepo) OpenSleep(ctx context.Context, childID int64) (*domain.SleepRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, child_id, started_at
		FROM sleep_records
		WHERE child_id = ? AND ended_at IS NULL
		ORDER BY started_at DESC LIMIT 1`, childID)

	var rec domain.SleepRecord
	var started int64
	if err := row.Scan(&rec.ID, &rec.ChildID, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.StartedAt = time.Unix(started, 0).UTC()
	return &rec, nil
}

// EndSleep closes a sleep interval, deriving the duration. The closing write
// is the only permitted mutation of a recorded event.
func (r *SQLiteRepo) EndSleep(ctx context.Context, recordID, familyID, actorUserID int64, at time.Time, quality string) (*domain.SleepRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, child_id, started_at FROM sleep_records WHERE id = ? AND ended_at IS NULL`,
		recordID)

	var rec domain.SleepRecord
	var started int64
	if err := row.Scan(&rec.ID, &rec.ChildID, &started); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.StartedAt = time.Unix(started, 0).UTC()

	end := at.UTC()
	dur := int(end.Sub(rec.StartedAt).Minutes())
	if dur < 0 {
		return nil, domain.ErrInvalidInput
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE sleep_records SET ended_at = ?, duration_min = ?, quality = ?
		WHERE id = ? AND ended_at IS NULL`,
		end.Unix(), dur, quality, recordID,
	); err != nil {
		return nil, err
	}

	rec.EndedAt = &end
	rec.DurationMin = &dur
	rec.Quality = quality
	return &rec, nil
}

// SetSleepQuality annotates a closed sleep record.
func (r *SQLiteRepo) SetSleepQuality(ctx context.Context, recordID int64, quality string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sleep_records SET quality = ?
		WHERE id = ? AND ended_at IS NOT NULL`,
		quality, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) AddFeeding(ctx context.Context, childID, familyID, actorUserID int64, at time.Time, p domain.FeedingPayload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feeding_records (child_id, fed_at, kind, amount_ml, amount_g, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		childID, at.UTC().Unix(), p.FeedKind, nullInt(p.AmountML), nullInt(p.AmountG), p.Note,
	)
	return err
}

func (r *SQLiteRepo) AddHealth(ctx context.Context, childID, familyID, actorUserID int64, at time.Time, p domain.HealthPayload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_records
			(child_id, recorded_at, kind, temperature_c, medicine, dose_mg, note, height_cm, weight_g)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		childID, at.UTC().Unix(), p.RecordKind, nullFloat(p.TemperatureC),
		p.Medicine, nullInt(p.DoseMG), p.Note, nullInt(p.HeightCM), nullInt(p.WeightG),
	)
	return err
}

// AddCareEvent appends a generic care action (diaper, bath, walk) to the
// shared care_events journal.
func (r *SQLiteRepo) AddCareEvent(ctx context.Context, kind domain.EventKind, childID, familyID, actorUserID int64, at time.Time, details string) error {
	var family, actor sql.NullInt64
	if familyID != 0 {
		family = sql.NullInt64{Int64: familyID, Valid: true}
	}
	if actorUserID != 0 {
		actor = sql.NullInt64{Int64: actorUserID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO care_events (family_id, child_id, actor_user_id, occurred_at, kind, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		family, childID, actor, at.UTC().Unix(), string(kind), details,
	)
	return err
}
