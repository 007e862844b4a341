package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/johnik1293-hash/baby-tracker-bot/internal/domain"
)

// EnsureUser returns the user with the given Telegram id, creating the row
// (and refreshing profile fields) if needed.
func (r *SQLiteRepo) EnsureUser(ctx context.Context, tgID int64, username, firstName, lastName string) (*domain.User, error) {
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username   = excluded.username,
			first_name = excluded.first_name,
			last_name  = excluded.last_name`,
		tgID, username, firstName, lastName, now,
	)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, first_name, last_name, created_at
		FROM users WHERE telegram_id = ?`, tgID)

	var u domain.User
	var created int64
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &created); err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return &u, nil
}

func (r *SQLiteRepo) CreateChild(ctx context.Context, c *domain.Child) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO children (user_id, name, birth_date, gender)
		VALUES (?, ?, ?, ?)`,
		c.UserID, c.Name, toNullInt64(c.BirthDate), c.Gender,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListChildren(ctx context.Context, userID int64) ([]domain.Child, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, birth_date, gender
		FROM children WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Child
	for rows.Next() {
		var c domain.Child
		var birth sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &birth, &c.Gender); err != nil {
			return nil, err
		}
		c.BirthDate = fromNullInt64(birth)
		res = append(res, c)
	}
	return res, rows.Err()
}

// SetActiveChild persists the user's active-child choice. Fails with
// domain.ErrNotFound when the child does not belong to the user.
func (r *SQLiteRepo) SetActiveChild(ctx context.Context, userID, childID int64) error {
	var owner int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM children WHERE id = ?`, childID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return domain.ErrForbidden
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, active_child_id) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET active_child_id = excluded.active_child_id`,
		userID, childID,
	)
	return err
}

// ResolveActiveChild returns the explicitly selected child when the setting
// exists and still points at one of the user's children, otherwise the first
// child by id. domain.ErrNotFound when the user has no children at all.
func (r *SQLiteRepo) ResolveActiveChild(ctx context.Context, userID int64) (*domain.Child, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.birth_date, c.gender
		FROM user_settings s
		JOIN children c ON c.id = s.active_child_id AND c.user_id = s.user_id
		WHERE s.user_id = ?`, userID)

	c, err := scanChild(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, birth_date, gender
		FROM children WHERE user_id = ? ORDER BY id ASC LIMIT 1`, userID)
	c, err = scanChild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanChild(row *sql.Row) (*domain.Child, error) {
	var c domain.Child
	var birth sql.NullInt64
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &birth, &c.Gender); err != nil {
		return nil, err
	}
	c.BirthDate = fromNullInt64(birth)
	return &c, nil
}

// scopeChildIDs expands a scope into the concrete child ids it covers: every
// child of every member for a family scope, the single child otherwise.
func (r *SQLiteRepo) scopeChildIDs(ctx context.Context, scope domain.Scope) ([]int64, error) {
	if scope.FamilyID == 0 {
		if scope.ChildID == 0 {
			return nil, nil
		}
		return []int64{scope.ChildID}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id
		FROM family_members m
		JOIN children c ON c.user_id = m.user_id
		WHERE m.family_id = ?`, scope.FamilyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
