package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// SleepEvents returns sleep intervals ordered by start time descending. The
// interval is anchored on its start for ordering; the closing boundary rides
// in the payload.
func (r *SQLiteRepo) SleepEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
	ids, err := r.scopeChildIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 || w.Empty() {
		return nil, nil
	}

	args := childArgs(ids, w)
	rows, err := r.db.QueryContext(ctx, `
		SELECT child_id, started_at, ended_at, duration_min, quality
		FROM sleep_records
		WHERE child_id IN (`+placeholders(len(ids))+`)
		  AND started_at >= ? AND started_at <= ?
		ORDER BY started_at DESC
		LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CareEvent
	for rows.Next() {
		var childID, started int64
		var ended, durMin sql.NullInt64
		var quality string
		if err := rows.Scan(&childID, &started, &ended, &durMin, &quality); err != nil {
			return nil, err
		}
		start := time.Unix(started, 0).UTC()
		res = append(res, domain.CareEvent{
			Kind:       domain.KindSleep,
			ChildID:    childID,
			FamilyID:   scope.FamilyID,
			OccurredAt: start,
			Payload: domain.SleepPayload{
				StartedAt:   start,
				EndedAt:     fromNullInt64(ended),
				DurationMin: intPtr(durMin),
				Quality:     quality,
			},
		})
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) FeedingEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
	ids, err := r.scopeChildIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 || w.Empty() {
		return nil, nil
	}

	args := childArgs(ids, w)
	rows, err := r.db.QueryContext(ctx, `
		SELECT child_id, fed_at, kind, amount_ml, amount_g, note
		FROM feeding_records
		WHERE child_id IN (`+placeholders(len(ids))+`)
		  AND fed_at >= ? AND fed_at <= ?
		ORDER BY fed_at DESC
		LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CareEvent
	for rows.Next() {
		var childID, fedAt int64
		var kind, note string
		var ml, g sql.NullInt64
		if err := rows.Scan(&childID, &fedAt, &kind, &ml, &g, &note); err != nil {
			return nil, err
		}
		res = append(res, domain.CareEvent{
			Kind:       domain.KindFeeding,
			ChildID:    childID,
			FamilyID:   scope.FamilyID,
			OccurredAt: time.Unix(fedAt, 0).UTC(),
			Payload: domain.FeedingPayload{
				FeedKind: kind,
				AmountML: intPtr(ml),
				AmountG:  intPtr(g),
				Note:     note,
			},
		})
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) HealthEvents(ctx context.Context, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
	ids, err := r.scopeChildIDs(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 || w.Empty() {
		return nil, nil
	}

	args := childArgs(ids, w)
	rows, err := r.db.QueryContext(ctx, `
		SELECT child_id, recorded_at, kind, temperature_c, medicine, dose_mg, note, height_cm, weight_g
		FROM health_records
		WHERE child_id IN (`+placeholders(len(ids))+`)
		  AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at DESC
		LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CareEvent
	for rows.Next() {
		var childID, recordedAt int64
		var kind, medicine, note string
		var temp sql.NullFloat64
		var dose, height, weight sql.NullInt64
		if err := rows.Scan(&childID, &recordedAt, &kind, &temp, &medicine, &dose, &note, &height, &weight); err != nil {
			return nil, err
		}
		res = append(res, domain.CareEvent{
			Kind:       domain.KindHealth,
			ChildID:    childID,
			FamilyID:   scope.FamilyID,
			OccurredAt: time.Unix(recordedAt, 0).UTC(),
			Payload: domain.HealthPayload{
				RecordKind:   kind,
				TemperatureC: floatPtr(temp),
				Medicine:     medicine,
				DoseMG:       intPtr(dose),
				Note:         note,
				HeightCM:     intPtr(height),
				WeightG:      intPtr(weight),
			},
		})
	}
	return res, rows.Err()
}

// CareEventsByKind reads the shared journal. Family scope matches on the
// journal's own family column so entries logged by other members are visible.
func (r *SQLiteRepo) CareEventsByKind(ctx context.Context, kind domain.EventKind, scope domain.Scope, w domain.Window, limit int) ([]domain.CareEvent, error) {
	if w.Empty() {
		return nil, nil
	}

	where := `child_id = ?`
	scopeArg := scope.ChildID
	if scope.FamilyID != 0 {
		where = `family_id = ?`
		scopeArg = scope.FamilyID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT child_id, COALESCE(family_id, 0), occurred_at, details
		FROM care_events
		WHERE `+where+`
		  AND kind = ?
		  AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at DESC
		LIMIT ?`,
		scopeArg, string(kind), w.Since.UTC().Unix(), w.Until.UTC().Unix(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CareEvent
	for rows.Next() {
		var childID, familyID, occurred int64
		var details string
		if err := rows.Scan(&childID, &familyID, &occurred, &details); err != nil {
			return nil, err
		}
		res = append(res, domain.CareEvent{
			Kind:       kind,
			ChildID:    childID,
			FamilyID:   familyID,
			OccurredAt: time.Unix(occurred, 0).UTC(),
			Payload:    domain.CarePayload{Details: details},
		})
	}
	return res, rows.Err()
}

// childArgs packs child ids plus window bounds as query arguments.
func childArgs(ids []int64, w domain.Window) []any {
	args := make([]any, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id)
	}
	return append(args, w.Since.UTC().Unix(), w.Until.UTC().Unix())
}
